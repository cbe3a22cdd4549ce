package waitqueue

import "dhapi/lib/telemetry"

var tracer = telemetry.Tracer("dhapi.lib.scrapers.dhlottery.waitqueue")
var meter = telemetry.Meter("dhapi.lib.scrapers.dhlottery.waitqueue")
