package sales

import (
	"fmt"
	"time"
)

// Window bounds a sales report period: [From, To] in UTC, computed from
// calendar days in the shop's timezone rather than fixed-offset math.
type Window struct {
	From time.Time
	To   time.Time
}

// WindowFor resolves a report period name relative to now. The period
// always ends at the end of the current day in loc.
//
// Supported periods: day, week (last 7 calendar days), month, year, all.
func WindowFor(period string, now time.Time, loc *time.Location) (Window, error) {
	local := now.In(loc)
	year, month, day := local.Date()
	endOfDay := time.Date(year, month, day, 23, 59, 59, int(time.Second-time.Nanosecond), loc)
	startOfDay := time.Date(year, month, day, 0, 0, 0, 0, loc)

	var start time.Time
	switch period {
	case "", "day":
		start = startOfDay
	case "week":
		start = startOfDay.AddDate(0, 0, -6)
	case "month":
		start = startOfDay.AddDate(0, -1, 0)
	case "year":
		start = startOfDay.AddDate(-1, 0, 0)
	case "all":
		return Window{From: time.Time{}, To: endOfDay.UTC()}, nil
	default:
		return Window{}, fmt.Errorf("unknown report period %q", period)
	}

	return Window{From: start.UTC(), To: endOfDay.UTC()}, nil
}
