package models

import (
	"math"
	"time"
)

// DateOf truncates t to its calendar date. The result is midnight UTC of the
// year, month and day t shows in its own location, so comparisons between
// dates never depend on time zones.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(math.Round(DateOf(b).Sub(DateOf(a)).Hours() / 24))
}
