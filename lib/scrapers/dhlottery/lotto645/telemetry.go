package lotto645

import "dhapi/lib/telemetry"

var (
	tracer = telemetry.Tracer("dhapi.lib.scrapers.dhlottery.lotto645")
	meter  = telemetry.Meter("dhapi.lib.scrapers.dhlottery.lotto645")
)
