package scheduler

import (
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/lotplan/internal/calendar"
	"github.com/alexanderramin/lotplan/internal/domain"
)

var (
	ErrNotDragging = errors.New("no drag in progress")
	// ErrInvalidDates is returned when a gesture starts on an intervention
	// whose dates are missing or unparseable.
	ErrInvalidDates = errors.New("intervention has no valid dates")
)

// Commit is the outcome of finishing a drag or a resize.
type Commit struct {
	InterventionID string
	Original       domain.Span
	Span           domain.Span
	// Changed is false when the gesture ended on the same effective span.
	Changed bool
	// Abandoned is set when the pointer could not be mapped to any day.
	Abandoned bool
}

// DragController moves an intervention by grabbing it at any day of its
// block and dropping that day on another column. Idle until Begin.
type DragController struct {
	active   bool
	iv       *domain.Intervention
	original domain.Span
	offset   int
}

// Begin starts a drag. grabbedDay is the day under the pointer; it is kept as
// an offset from the intervention's start so the grabbed day follows the
// pointer exactly.
func (d *DragController) Begin(iv *domain.Intervention, grabbedDay time.Time) error {
	if !iv.HasValidDates() {
		return fmt.Errorf("cannot drag %s: %w", iv.Name, ErrInvalidDates)
	}
	d.active = true
	d.iv = iv
	d.original = iv.Span()
	d.offset = calendar.DaysBetween(iv.Start, grabbedDay)
	return nil
}

// BeginAt starts a drag from a pointer position.
func (d *DragController) BeginAt(iv *domain.Intervention, x float64, grid DayResolver) error {
	day, ok := grid.DayAt(x)
	if !ok {
		day = iv.Start
	}
	return d.Begin(iv, day)
}

func (d *DragController) Active() bool {
	return d.active
}

// Offset is the grabbed day's distance from the start, in calendar days.
func (d *DragController) Offset() int {
	return d.offset
}

// Preview returns the span the intervention would take if dropped on day.
func (d *DragController) Preview(day time.Time) (domain.Span, error) {
	if !d.active {
		return domain.Span{}, ErrNotDragging
	}
	return d.target(day), nil
}

// Drop ends the drag on droppedDay and returns the committed span. The
// controller is Idle afterwards whatever the outcome.
func (d *DragController) Drop(droppedDay time.Time) (Commit, error) {
	if !d.active {
		return Commit{}, ErrNotDragging
	}
	defer d.reset()

	span := d.target(droppedDay)
	return Commit{
		InterventionID: d.iv.ID,
		Original:       d.original,
		Span:           span,
		Changed:        !span.Equal(d.original),
	}, nil
}

// DropAt ends the drag on a pointer position. An unresolvable position
// abandons the drag without error.
func (d *DragController) DropAt(x float64, grid DayResolver) (Commit, error) {
	if !d.active {
		return Commit{}, ErrNotDragging
	}
	day, ok := grid.DayAt(x)
	if !ok {
		c := Commit{InterventionID: d.iv.ID, Original: d.original, Span: d.original, Abandoned: true}
		d.reset()
		return c, nil
	}
	return d.Drop(day)
}

// Cancel abandons the drag.
func (d *DragController) Cancel() {
	d.reset()
}

func (d *DragController) target(droppedDay time.Time) domain.Span {
	grabbed := calendar.AddDays(d.original.Start, d.offset)
	delta := calendar.DaysBetween(grabbed, droppedDay)
	if delta == 0 {
		return d.original
	}
	return MoveSpan(d.original, delta)
}

func (d *DragController) reset() {
	*d = DragController{}
}
