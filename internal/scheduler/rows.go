package scheduler

import (
	"sort"
	"time"

	"github.com/alexanderramin/lotplan/internal/domain"
)

// DayMarker flags days that are highlighted in the grid, such as public
// holidays. Markers never affect scheduling.
type DayMarker interface {
	IsSpecial(d time.Time) bool
}

type RowKind int

const (
	RowProject RowKind = iota
	RowLot
	RowIntervention
)

type CellKind int

const (
	CellEmpty CellKind = iota
	// CellActive marks a day on a collapsed project or lot row where at least
	// one visible intervention runs.
	CellActive
	CellHidden
	CellInvalid
	CellBlock
)

// Cell is one rendered grid cell. A block cell covers Colspan columns.
type Cell struct {
	Kind    CellKind
	Date    time.Time
	Colspan int
	Special bool
	// WeekEnd is set on the last column of each ISO week.
	WeekEnd bool
}

type Row struct {
	Kind         RowKind
	Project      *domain.Project
	Lot          *domain.Lot
	Intervention *domain.Intervention
	Cells        []Cell
}

// Expansion says which projects and lots are open. A closed project is not
// shown; a closed lot is drawn as a single summary row.
type Expansion struct {
	AllProjects bool
	AllLots     bool
	Projects    map[string]bool
	Lots        map[string]bool
}

func (e Expansion) projectOpen(id string) bool {
	return e.AllProjects || e.Projects[id]
}

func (e Expansion) lotOpen(id string) bool {
	return e.AllLots || e.Lots[id]
}

type noMarker struct{}

func (noMarker) IsSpecial(time.Time) bool { return false }

// BuildRows lays out the planning grid: each open project gets a summary row
// followed by its lots, and each open lot one row per intervention ordered by
// start date.
func BuildRows(snap *Snapshot, layout *GridLayout, marker DayMarker, exp Expansion) []Row {
	if marker == nil {
		marker = noMarker{}
	}
	b := rowBuilder{layout: layout, marker: marker}
	b.weekEnds()

	lotsByProject := make(map[string][]*domain.Lot)
	for _, l := range snap.Lots {
		lotsByProject[l.ProjectID] = append(lotsByProject[l.ProjectID], l)
	}
	byLot := make(map[string][]*domain.Intervention)
	for _, iv := range snap.Interventions {
		byLot[iv.LotID] = append(byLot[iv.LotID], iv)
	}

	var rows []Row
	for _, p := range snap.Projects {
		if !exp.projectOpen(p.ID) {
			continue
		}
		lots := lotsByProject[p.ID]
		sort.SliceStable(lots, func(i, j int) bool {
			if lots[i].DisplayOrder != lots[j].DisplayOrder {
				return lots[i].DisplayOrder < lots[j].DisplayOrder
			}
			return lots[i].Name < lots[j].Name
		})

		var projectIvs []*domain.Intervention
		for _, l := range lots {
			projectIvs = append(projectIvs, byLot[l.ID]...)
		}
		rows = append(rows, Row{Kind: RowProject, Project: p, Cells: b.summary(projectIvs)})

		for _, l := range lots {
			ivs := sortedByStart(byLot[l.ID])
			if !exp.lotOpen(l.ID) || len(ivs) == 0 {
				rows = append(rows, Row{Kind: RowLot, Project: p, Lot: l, Cells: b.summary(ivs)})
				continue
			}
			for _, iv := range ivs {
				rows = append(rows, Row{Kind: RowIntervention, Project: p, Lot: l, Intervention: iv, Cells: b.intervention(iv)})
			}
		}
	}
	return rows
}

type rowBuilder struct {
	layout  *GridLayout
	marker  DayMarker
	weekEnd map[int]bool
}

func (b *rowBuilder) weekEnds() {
	cols := b.layout.Columns()
	b.weekEnd = make(map[int]bool, len(cols))
	for i, c := range cols {
		b.weekEnd[i] = i == len(cols)-1 || cols[i+1].Week != c.Week
	}
}

func (b *rowBuilder) cell(kind CellKind, c Column) Cell {
	return Cell{Kind: kind, Date: c.Date, Colspan: 1, Special: b.marker.IsSpecial(c.Date), WeekEnd: b.weekEnd[c.Index]}
}

func (b *rowBuilder) summary(ivs []*domain.Intervention) []Cell {
	cells := make([]Cell, 0, b.layout.Len())
	for _, c := range b.layout.Columns() {
		kind := CellEmpty
		for _, iv := range ivs {
			if iv.Visible && iv.HasValidDates() && iv.Span().Contains(c.Date) {
				kind = CellActive
				break
			}
		}
		cells = append(cells, b.cell(kind, c))
	}
	return cells
}

func (b *rowBuilder) intervention(iv *domain.Intervention) []Cell {
	cols := b.layout.Columns()
	cells := make([]Cell, 0, len(cols))
	switch {
	case !iv.Visible:
		for _, c := range cols {
			cells = append(cells, b.cell(CellHidden, c))
		}
		return cells
	case !iv.HasValidDates():
		if len(cols) == 0 {
			return cells
		}
		inv := b.cell(CellInvalid, cols[0])
		inv.Colspan = len(cols)
		return append(cells, inv)
	}

	first, last, ok := b.layout.Clip(iv.Start, iv.End)
	for i := 0; i < len(cols); i++ {
		if ok && i == first {
			block := b.cell(CellBlock, cols[i])
			block.Colspan = last - first + 1
			block.WeekEnd = b.weekEnd[last]
			cells = append(cells, block)
			i = last
			continue
		}
		cells = append(cells, b.cell(CellEmpty, cols[i]))
	}
	return cells
}

func sortedByStart(ivs []*domain.Intervention) []*domain.Intervention {
	out := append([]*domain.Intervention(nil), ivs...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		return a.ID < b.ID
	})
	return out
}
