package lotto645

import (
	"dhapi/lib/timezone"
	"time"
)

// the first draw, a saturday
var firstDraw = time.Date(2002, time.December, 7, 0, 0, 0, 0, timezone.Location)

// DrawDate is the upcoming saturday on or after `now`, in KST.
func DrawDate(now time.Time) time.Time {
	today := timezone.Date(now)
	daysUntil := (int(time.Saturday) - int(today.Weekday()) + 7) % 7
	return today.AddDate(0, 0, daysUntil)
}

// PayLimitDate is the last day a prize of the upcoming draw can be claimed.
func PayLimitDate(now time.Time) time.Time {
	return DrawDate(now).AddDate(0, 0, 365)
}

// Round is the draw number currently on sale.
func Round(now time.Time) int {
	draw := DrawDate(now)
	days := int(draw.Sub(firstDraw).Hours()+12) / 24
	return 1 + days/7
}
