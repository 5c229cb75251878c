// Package calendar implements the business-day arithmetic used by every
// scheduling operation. A business day is Monday through Friday; public
// holidays and school vacations never change the arithmetic.
package calendar

import (
	"fmt"
	"time"
)

// Layout is the storage and wire format for calendar dates.
const Layout = "2006-01-02"

// Date returns midnight UTC on the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Truncate drops the time-of-day and location, keeping the calendar day.
func Truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return Date(y, m, d)
}

// Today returns the current calendar day in UTC.
func Today() time.Time {
	return Truncate(time.Now().UTC())
}

// Parse reads a "YYYY-MM-DD" date.
func Parse(s string) (time.Time, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// Format renders a date as "YYYY-MM-DD".
func Format(t time.Time) string {
	return t.Format(Layout)
}

// AddDays shifts a date by n calendar days.
func AddDays(t time.Time, n int) time.Time {
	return Truncate(t).AddDate(0, 0, n)
}

// DaysBetween returns b minus a in whole calendar days.
func DaysBetween(a, b time.Time) int {
	return int(Truncate(b).Sub(Truncate(a)).Hours() / 24)
}

// IsBusinessDay reports whether t falls on Monday through Friday.
func IsBusinessDay(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	default:
		return true
	}
}

// NextBusinessDay rolls a weekend date forward to the following Monday.
// Weekdays are returned unchanged.
func NextBusinessDay(t time.Time) time.Time {
	d := Truncate(t)
	for !IsBusinessDay(d) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// PreviousBusinessDay rolls a weekend date back to the preceding Friday.
// Weekdays are returned unchanged.
func PreviousBusinessDay(t time.Time) time.Time {
	d := Truncate(t)
	for !IsBusinessDay(d) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// BusinessDayDuration counts the business days in [start, end], both ends
// inclusive. It returns 0 when end is before start.
func BusinessDayDuration(start, end time.Time) int {
	s, e := Truncate(start), Truncate(end)
	if e.Before(s) {
		return 0
	}
	count := 0
	for d := s; !d.After(e); d = d.AddDate(0, 0, 1) {
		if IsBusinessDay(d) {
			count++
		}
	}
	return count
}

// AddBusinessDays returns the last day of an n-business-day span that starts
// at start. The start is first snapped forward to a business day, then n-1
// further business days are walked. For n <= 1 the snapped start is returned.
func AddBusinessDays(start time.Time, n int) time.Time {
	d := NextBusinessDay(start)
	for i := 1; i < n; i++ {
		d = d.AddDate(0, 0, 1)
		for !IsBusinessDay(d) {
			d = d.AddDate(0, 0, 1)
		}
	}
	return d
}

// SubtractBusinessDays mirrors AddBusinessDays: it returns the first day of
// an n-business-day span that ends at end. The end is snapped back to a
// business day first.
func SubtractBusinessDays(end time.Time, n int) time.Time {
	d := PreviousBusinessDay(end)
	for i := 1; i < n; i++ {
		d = d.AddDate(0, 0, -1)
		for !IsBusinessDay(d) {
			d = d.AddDate(0, 0, -1)
		}
	}
	return d
}

// AcademicYear returns the school year label ("2024-2025") containing t.
// School years start in September.
func AcademicYear(t time.Time) string {
	y := t.Year()
	if t.Month() >= time.September {
		return fmt.Sprintf("%d-%d", y, y+1)
	}
	return fmt.Sprintf("%d-%d", y-1, y)
}
