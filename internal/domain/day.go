package domain

import "time"

// DayFormat is the calendar-day key format used by usage counters
const DayFormat = "2006-01-02"

// Today returns the usage-counter key for the current moment.
// The quota day boundary is the server's local calendar date, not a rolling
// 24-hour window: the counter resets at local midnight.
func Today(now time.Time) string {
	return now.Format(DayFormat)
}
