// Package dates provides calendar-date helpers for the reconciliation engine.
//
// All date comparisons in the engine happen at calendar-day precision: a
// payment made at 14:00 and a due date stored at midnight are the same day.
// Truncate strips the time component so day deltas come out exact.
package dates

import "time"

// Truncate returns t reduced to its calendar date (midnight UTC). A zero
// time stays zero.
func Truncate(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the signed number of calendar days from a to b
// (positive when b is after a). Both times are truncated first, so partial
// days never round unexpectedly.
func DaysBetween(a, b time.Time) int {
	ta := Truncate(a)
	tb := Truncate(b)
	return int(tb.Sub(ta).Hours() / 24)
}

// SameDay reports whether the two times fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	return Truncate(a).Equal(Truncate(b))
}

// ShiftWeekendToMonday moves Saturday dates forward two days and Sunday
// dates forward one day, leaving weekdays unchanged. The calendar views use
// it to bucket weekend cashflows onto the next business day; the
// reconciliation engine itself never applies it.
func ShiftWeekendToMonday(t time.Time) time.Time {
	switch t.Weekday() {
	case time.Saturday:
		return t.AddDate(0, 0, 2)
	case time.Sunday:
		return t.AddDate(0, 0, 1)
	default:
		return t
	}
}
