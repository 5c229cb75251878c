// Package holiday supplies the public holidays and school vacations the grid
// flags. None of it affects business-day arithmetic.
package holiday

import (
	"context"
	"errors"
	"time"

	"github.com/alexanderramin/lotplan/internal/calendar"
)

var (
	// ErrUnavailable means the data source could not be reached.
	ErrUnavailable = errors.New("holiday source unavailable")
	// ErrTimeout means a request ran past the configured timeout.
	ErrTimeout = errors.New("holiday request timed out")
	// ErrRetryExhausted wraps the last failure after every attempt failed.
	ErrRetryExhausted = errors.New("holiday retry attempts exhausted")
)

// Vacation is an inclusive school holiday period.
type Vacation struct {
	Name  string
	Start time.Time
	End   time.Time
}

func (v Vacation) Contains(d time.Time) bool {
	d = calendar.Truncate(d)
	return !d.Before(v.Start) && !d.After(v.End)
}

// Provider fetches special days from some source.
type Provider interface {
	PublicHolidays(ctx context.Context, year int) ([]time.Time, error)
	// SchoolVacations takes an academic year label such as "2023-2024".
	SchoolVacations(ctx context.Context, academicYear string) ([]Vacation, error)
}

// SpecialDays is the set of flagged days for a date range. The zero value
// flags nothing.
type SpecialDays struct {
	holidays  map[time.Time]bool
	vacations []Vacation
}

func NewSpecialDays(holidays []time.Time, vacations []Vacation) SpecialDays {
	s := SpecialDays{holidays: make(map[time.Time]bool, len(holidays))}
	for _, h := range holidays {
		s.holidays[calendar.Truncate(h)] = true
	}
	s.vacations = append(s.vacations, vacations...)
	return s
}

func (s SpecialDays) IsPublicHoliday(d time.Time) bool {
	return s.holidays[calendar.Truncate(d)]
}

func (s SpecialDays) IsSchoolVacation(d time.Time) bool {
	for _, v := range s.vacations {
		if v.Contains(d) {
			return true
		}
	}
	return false
}

// IsSpecial reports whether d is a public holiday or inside a vacation.
func (s SpecialDays) IsSpecial(d time.Time) bool {
	return s.IsPublicHoliday(d) || s.IsSchoolVacation(d)
}

func (s SpecialDays) HolidayCount() int {
	return len(s.holidays)
}

func (s SpecialDays) Vacations() []Vacation {
	return append([]Vacation(nil), s.vacations...)
}
