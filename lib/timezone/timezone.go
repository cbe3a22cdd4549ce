package timezone

import (
	"time"
	_ "time/tzdata"
)

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Asia/Seoul")
	if err != nil {
		panic(err)
	}
}

// the remote service reasons about dates in KST, so every
// Year()/Month()/Day()/Weekday() computation must happen there
// regardless of where the process runs.
func Now() time.Time {
	return time.Now().In(Location)
}

// Date truncates t to midnight in Location.
func Date(t time.Time) time.Time {
	t = t.In(Location)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, Location)
}

// GetCurrentWeek returns the monday and sunday (both at midnight) of the
// week containing now.
func GetCurrentWeek(now time.Time) (start time.Time, stop time.Time) {
	day := Date(now)
	offset := (int(day.Weekday()) + 6) % 7
	start = day.AddDate(0, 0, -offset)
	stop = start.AddDate(0, 0, 6)
	return start, stop
}

const (
	CompactLayout = "20060102"
	SlashLayout   = "2006/01/02"
	DashLayout    = "2006-01-02"
)
