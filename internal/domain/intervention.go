package domain

import (
	"time"

	"github.com/alexanderramin/lotplan/internal/calendar"
)

const (
	DefaultStartTime = "08:00"
	DefaultEndTime   = "17:00"
)

// Span is an inclusive calendar date range.
type Span struct {
	Start time.Time
	End   time.Time
}

func NewSpan(start, end time.Time) Span {
	return Span{Start: calendar.Truncate(start), End: calendar.Truncate(end)}
}

func (s Span) Equal(o Span) bool {
	return s.Start.Equal(o.Start) && s.End.Equal(o.End)
}

// BusinessDays is the number of business days covered, never less than 1.
func (s Span) BusinessDays() int {
	n := calendar.BusinessDayDuration(s.Start, s.End)
	if n < 1 {
		return 1
	}
	return n
}

// Overlaps reports whether two spans share at least one day.
func (s Span) Overlaps(o Span) bool {
	return !s.Start.After(o.End) && !o.Start.After(s.End)
}

func (s Span) Contains(d time.Time) bool {
	d = calendar.Truncate(d)
	return !d.Before(s.Start) && !d.After(s.End)
}

func (s Span) String() string {
	return calendar.Format(s.Start) + " → " + calendar.Format(s.End)
}

// Intervention is a unit of work scheduled on a lot.
type Intervention struct {
	ID        string
	Name      string
	LotID     string
	Start     time.Time
	End       time.Time
	StartTime string
	EndTime   string
	State     State
	Visible   bool

	// RawStart and RawEnd hold the stored text when it could not be parsed.
	RawStart string
	RawEnd   string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasValidDates reports whether both dates parsed and end is not before start.
func (i *Intervention) HasValidDates() bool {
	if i.Start.IsZero() || i.End.IsZero() {
		return false
	}
	return !i.End.Before(i.Start)
}

func (i *Intervention) Span() Span {
	return Span{Start: i.Start, End: i.End}
}

// SetSpan replaces both dates and clears any stale raw text.
func (i *Intervention) SetSpan(s Span) {
	i.Start = s.Start
	i.End = s.End
	i.RawStart = ""
	i.RawEnd = ""
}

// ShortID truncates the UUID for display.
func (i *Intervention) ShortID() string {
	return shortID(i.ID)
}

func shortID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}
