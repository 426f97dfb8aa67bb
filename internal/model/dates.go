package model

import "time"

// DateOnly truncates a timestamp to its calendar date. Dates are compared
// timezone-naive: whatever wall-clock day the timestamp carries is the day.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether two timestamps fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	return DateOnly(a).Equal(DateOnly(b))
}

// DaysBetween returns the integer calendar-day difference to - from.
func DaysBetween(from, to time.Time) int {
	return int(DateOnly(to).Sub(DateOnly(from)).Hours() / 24)
}
