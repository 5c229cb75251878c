package scheduler

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/lotplan/internal/calendar"
	"github.com/alexanderramin/lotplan/internal/domain"
)

var ErrNotResizing = errors.New("no resize in progress")

// Edge is the side of a block being resized.
type Edge int

const (
	EdgeLeft Edge = iota
	EdgeRight
)

func (e Edge) String() string {
	if e == EdgeRight {
		return "right"
	}
	return "left"
}

// ParseEdge accepts "left"/"start" and "right"/"end".
func ParseEdge(v string) (Edge, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "left", "start":
		return EdgeLeft, nil
	case "right", "end":
		return EdgeRight, nil
	}
	return 0, fmt.Errorf("unknown edge %q (want left or right)", v)
}

// ResizeController drags one edge of an intervention. The preview it keeps is
// display state only and is dropped on Release or Cancel.
type ResizeController struct {
	active   bool
	iv       *domain.Intervention
	edge     Edge
	original domain.Span
	preview  *domain.Span
}

func (r *ResizeController) Begin(iv *domain.Intervention, edge Edge) error {
	if !iv.HasValidDates() {
		return fmt.Errorf("cannot resize %s: %w", iv.Name, ErrInvalidDates)
	}
	*r = ResizeController{active: true, iv: iv, edge: edge, original: iv.Span()}
	return nil
}

func (r *ResizeController) Active() bool {
	return r.active
}

func (r *ResizeController) Edge() Edge {
	return r.edge
}

// Hover moves the dragged edge to day and returns the preview span. When the
// edges would cross both collapse onto day.
func (r *ResizeController) Hover(day time.Time) (domain.Span, error) {
	if !r.active {
		return domain.Span{}, ErrNotResizing
	}
	day = calendar.Truncate(day)
	span := r.original
	if r.edge == EdgeRight {
		span.End = day
	} else {
		span.Start = day
	}
	if span.End.Before(span.Start) {
		span = domain.Span{Start: day, End: day}
	}
	r.preview = &span
	return span, nil
}

// HoverAt is Hover for a pointer position. An unresolvable position keeps
// the previous preview.
func (r *ResizeController) HoverAt(x float64, grid DayResolver) (domain.Span, error) {
	if !r.active {
		return domain.Span{}, ErrNotResizing
	}
	day, ok := grid.DayAt(x)
	if !ok {
		return r.Preview(), nil
	}
	return r.Hover(day)
}

// Preview returns the current preview, or the original span before the
// first hover.
func (r *ResizeController) Preview() domain.Span {
	if r.preview == nil {
		return r.original
	}
	return *r.preview
}

// Release commits the dragged edge on day. The edge is snapped onto a
// business day: backward when the block shrinks and forward when it grows.
// The other edge never moves.
func (r *ResizeController) Release(day time.Time) (Commit, error) {
	if !r.active {
		return Commit{}, ErrNotResizing
	}
	defer r.reset()

	span := ResizeSpan(r.original, r.edge, day)
	return Commit{
		InterventionID: r.iv.ID,
		Original:       r.original,
		Span:           span,
		Changed:        !span.Equal(r.original),
	}, nil
}

// ReleaseAt commits on a pointer position, falling back to the last preview
// edge when the position does not resolve. Without a preview the resize is
// abandoned.
func (r *ResizeController) ReleaseAt(x float64, grid DayResolver) (Commit, error) {
	if !r.active {
		return Commit{}, ErrNotResizing
	}
	if day, ok := grid.DayAt(x); ok {
		return r.Release(day)
	}
	if r.preview != nil {
		if r.edge == EdgeRight {
			return r.Release(r.preview.End)
		}
		return r.Release(r.preview.Start)
	}
	c := Commit{InterventionID: r.iv.ID, Original: r.original, Span: r.original, Abandoned: true}
	r.reset()
	return c, nil
}

func (r *ResizeController) Cancel() {
	r.reset()
}

func (r *ResizeController) reset() {
	*r = ResizeController{}
}

// ResizeSpan moves one edge of span to day with business-day snapping and
// keeps end >= start.
func ResizeSpan(span domain.Span, edge Edge, day time.Time) domain.Span {
	day = calendar.Truncate(day)
	out := span
	if edge == EdgeRight {
		if day.After(span.End) {
			out.End = calendar.NextBusinessDay(day)
		} else {
			out.End = calendar.PreviousBusinessDay(day)
		}
		if out.End.Before(out.Start) {
			out.End = out.Start
		}
		return out
	}

	if day.After(span.Start) {
		out.Start = calendar.PreviousBusinessDay(day)
	} else {
		out.Start = calendar.NextBusinessDay(day)
	}
	if out.Start.After(out.End) {
		out.Start = out.End
	}
	return out
}
