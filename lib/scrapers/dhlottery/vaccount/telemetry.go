package vaccount

import "dhapi/lib/telemetry"

var (
	tracer = telemetry.Tracer("dhapi.lib.scrapers.dhlottery.vaccount")
	meter  = telemetry.Meter("dhapi.lib.scrapers.dhlottery.vaccount")
)
