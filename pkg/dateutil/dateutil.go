// Package dateutil provides calendar-day utilities for StudyHelper.
// All scheduling decisions operate on whole days: due dates, streaks and
// lateness are compared at day granularity, never at wall-clock precision.
// No external dependencies - uses only standard library.
package dateutil

import (
	"time"
)

// Common date/time formats.
const (
	// FormatDate is the standard date format (YYYY-MM-DD).
	FormatDate = "2006-01-02"
	// FormatDateTime is the standard datetime format.
	FormatDateTime = "2006-01-02 15:04"
	// FormatBrazilianDate is the Brazilian date format (DD/MM/YYYY).
	FormatBrazilianDate = "02/01/2006"
)

// StartOfDay truncates a time to midnight UTC.
// Every persisted date in the system passes through this before comparison.
func StartOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the last nanosecond of the day in UTC.
func EndOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 23, 59, 59, 999999999, time.UTC)
}

// AddDays returns the start of the day n days after t. Negative n goes back.
func AddDays(t time.Time, n int) time.Time {
	return StartOfDay(t).AddDate(0, 0, n)
}

// DaysBetween returns the signed number of calendar days from a to b.
// Positive when b is after a.
func DaysBetween(a, b time.Time) int {
	d1 := StartOfDay(a)
	d2 := StartOfDay(b)
	return int(d2.Sub(d1).Hours() / 24)
}

// SameDay checks if two times fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool {
	u1, u2 := a.UTC(), b.UTC()
	return u1.Year() == u2.Year() && u1.YearDay() == u2.YearDay()
}

// IsConsecutiveDay checks if b is the calendar day immediately after a.
func IsConsecutiveDay(a, b time.Time) bool {
	return DaysBetween(a, b) == 1
}

// StartOfWeek returns the start of the week containing t.
// weekStartsOn follows time.Weekday numbering (0 = Sunday, 1 = Monday).
func StartOfWeek(t time.Time, weekStartsOn time.Weekday) time.Time {
	day := StartOfDay(t)
	diff := int(day.Weekday()) - int(weekStartsOn)
	if diff < 0 {
		diff += 7
	}
	return day.AddDate(0, 0, -diff)
}

// EndOfWeek returns the end of the week containing t.
func EndOfWeek(t time.Time, weekStartsOn time.Weekday) time.Time {
	return EndOfDay(StartOfWeek(t, weekStartsOn).AddDate(0, 0, 6))
}

// FormatDateStr formats a time as a date string (YYYY-MM-DD) in UTC.
func FormatDateStr(t time.Time) string {
	return t.UTC().Format(FormatDate)
}

// FormatBrazilian formats a time in Brazilian format (DD/MM/YYYY).
func FormatBrazilian(t time.Time) string {
	return t.UTC().Format(FormatBrazilianDate)
}

// ParseDate parses a date string (YYYY-MM-DD) as midnight UTC.
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(FormatDate, value, time.UTC)
}
