package scheduler

import (
	"fmt"
	"math"
	"time"

	"github.com/alexanderramin/lotplan/internal/calendar"
)

const (
	DefaultViewMonths  = 3
	DefaultColumnWidth = 32.0
)

// Column is one weekday column of the planning grid.
type Column struct {
	Index int
	Date  time.Time
	X     float64
	Width float64
	Week  int
}

// Center is the horizontal midpoint of the column.
func (c Column) Center() float64 {
	return c.X + c.Width/2
}

// HeaderGroup is a run of consecutive columns sharing a month or a week.
type HeaderGroup struct {
	Label string
	First int
	Count int
}

// GridLayout maps between horizontal coordinates and calendar days. Only
// business days get a column; weekends are not drawn.
type GridLayout struct {
	columns []Column
	byDate  map[time.Time]int
	originX float64
	width   float64
}

// DayResolver turns a pointer position into a calendar day.
type DayResolver interface {
	DayAt(x float64) (time.Time, bool)
}

// NewGridLayout lays out months of weekday columns starting on the first day
// of viewStart's month. Non-positive arguments fall back to the defaults.
func NewGridLayout(viewStart time.Time, months int, columnWidth, originX float64) *GridLayout {
	if months <= 0 {
		months = DefaultViewMonths
	}
	if columnWidth <= 0 {
		columnWidth = DefaultColumnWidth
	}
	first := calendar.Date(viewStart.Year(), viewStart.Month(), 1)
	last := first.AddDate(0, months, -1)

	g := &GridLayout{byDate: make(map[time.Time]int), originX: originX, width: columnWidth}
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		if !calendar.IsBusinessDay(d) {
			continue
		}
		_, week := d.ISOWeek()
		idx := len(g.columns)
		g.columns = append(g.columns, Column{
			Index: idx,
			Date:  d,
			X:     originX + float64(idx)*columnWidth,
			Width: columnWidth,
			Week:  week,
		})
		g.byDate[d] = idx
	}
	return g
}

func (g *GridLayout) Columns() []Column {
	return g.columns
}

func (g *GridLayout) Len() int {
	return len(g.columns)
}

// First and Last return the visible date range; both are zero for an empty
// layout.
func (g *GridLayout) First() time.Time {
	if len(g.columns) == 0 {
		return time.Time{}
	}
	return g.columns[0].Date
}

func (g *GridLayout) Last() time.Time {
	if len(g.columns) == 0 {
		return time.Time{}
	}
	return g.columns[len(g.columns)-1].Date
}

// ColumnAt returns the column whose horizontal extent contains x.
func (g *GridLayout) ColumnAt(x float64) (Column, bool) {
	if len(g.columns) == 0 || math.IsNaN(x) || x < g.originX {
		return Column{}, false
	}
	idx := int((x - g.originX) / g.width)
	if idx < 0 || idx >= len(g.columns) {
		return Column{}, false
	}
	return g.columns[idx], true
}

// NearestColumn returns the column whose centre is closest to x. Ties go to
// the earlier column.
func (g *GridLayout) NearestColumn(x float64) (Column, bool) {
	if len(g.columns) == 0 || math.IsNaN(x) || math.IsInf(x, 0) {
		return Column{}, false
	}
	best, bestDist := -1, math.Inf(1)
	for i, c := range g.columns {
		if d := math.Abs(c.Center() - x); d < bestDist {
			best, bestDist = i, d
		}
	}
	return g.columns[best], true
}

// DayAt resolves x to a day: the column under x, else the nearest column.
func (g *GridLayout) DayAt(x float64) (time.Time, bool) {
	if c, ok := g.ColumnAt(x); ok {
		return c.Date, true
	}
	if c, ok := g.NearestColumn(x); ok {
		return c.Date, true
	}
	return time.Time{}, false
}

// ColumnFor returns the column of d, if d is a visible business day.
func (g *GridLayout) ColumnFor(d time.Time) (Column, bool) {
	idx, ok := g.byDate[calendar.Truncate(d)]
	if !ok {
		return Column{}, false
	}
	return g.columns[idx], true
}

// XFor returns the left coordinate of d's column. Weekend days map to the
// following Monday's column.
func (g *GridLayout) XFor(d time.Time) (float64, bool) {
	c, ok := g.ColumnFor(calendar.NextBusinessDay(d))
	if !ok {
		return 0, false
	}
	return c.X, true
}

// Clip returns the first and last column indexes covered by [start, end]
// inside the visible range.
func (g *GridLayout) Clip(start, end time.Time) (first, last int, ok bool) {
	if len(g.columns) == 0 || end.Before(g.First()) || start.After(g.Last()) {
		return 0, 0, false
	}
	first, last = -1, -1
	for i, c := range g.columns {
		if c.Date.Before(start) || c.Date.After(end) {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
	}
	if first < 0 {
		return 0, 0, false
	}
	return first, last, true
}

var monthNames = [...]string{
	"janvier", "février", "mars", "avril", "mai", "juin",
	"juillet", "août", "septembre", "octobre", "novembre", "décembre",
}

// MonthName is the French month label used in grid headers.
func MonthName(m time.Month) string {
	return monthNames[m-1]
}

// Months groups the columns by calendar month.
func (g *GridLayout) Months() []HeaderGroup {
	return g.group(func(c Column) string {
		return MonthName(c.Date.Month()) + " " + c.Date.Format("2006")
	})
}

// Weeks groups the columns by ISO week, labelled "S<week>".
func (g *GridLayout) Weeks() []HeaderGroup {
	return g.group(func(c Column) string {
		return fmt.Sprintf("S%02d", c.Week)
	})
}

func (g *GridLayout) group(label func(Column) string) []HeaderGroup {
	var groups []HeaderGroup
	for _, c := range g.columns {
		l := label(c)
		if n := len(groups); n > 0 && groups[n-1].Label == l {
			groups[n-1].Count++
			continue
		}
		groups = append(groups, HeaderGroup{Label: l, First: c.Index, Count: 1})
	}
	return groups
}
