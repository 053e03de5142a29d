package core

import (
	"time"
)

// Day truncates t to midnight of its calendar day in loc.
// A nil loc uses t's own location.
func Day(t time.Time, loc *time.Location) time.Time {
	if loc != nil {
		t = t.In(loc)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DayKey formats a calendar day as YYYY-MM-DD
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// DayRange returns n consecutive calendar days ending on the day of end,
// ascending. Days are built with AddDate so DST shifts never skip a day.
func DayRange(end time.Time, n int, loc *time.Location) []time.Time {
	if n <= 0 {
		return []time.Time{}
	}
	last := Day(end, loc)
	days := make([]time.Time, n)
	for i := 0; i < n; i++ {
		days[i] = last.AddDate(0, 0, i-(n-1))
	}
	return days
}
