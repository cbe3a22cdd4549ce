package core

import "dhapi/lib/telemetry"

var tracer = telemetry.Tracer("dhapi.lib.scrapers.dhlottery.core")
