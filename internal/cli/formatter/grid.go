package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/lotplan/internal/domain"
	"github.com/alexanderramin/lotplan/internal/scheduler"
	"github.com/charmbracelet/lipgloss"
)

const (
	DefaultLabelWidth = 28
	DefaultCellWidth  = 2
)

// GridCursor is the highlighted row and column of the interactive board.
type GridCursor struct {
	Row int
	Col int
}

// GridOptions controls RenderGrid. Preview overrides the drawn span of the
// listed interventions while a gesture is in progress.
type GridOptions struct {
	LabelWidth int
	CellWidth  int
	Cursor     *GridCursor
	Preview    map[string]domain.Span
}

func (o GridOptions) withDefaults() GridOptions {
	if o.LabelWidth <= 0 {
		o.LabelWidth = DefaultLabelWidth
	}
	if o.CellWidth < 2 {
		o.CellWidth = DefaultCellWidth
	}
	return o
}

// RenderGrid draws the planning grid: a month header, a day-of-month header
// and one line per row, each column CellWidth characters wide.
func RenderGrid(rows []scheduler.Row, layout *scheduler.GridLayout, opts GridOptions) string {
	opts = opts.withDefaults()
	if layout.Len() == 0 {
		return Dim("(empty view)") + "\n"
	}

	var b strings.Builder
	b.WriteString(renderMonthHeader(layout, opts))
	b.WriteString("\n")
	b.WriteString(renderDayHeader(rows, layout, opts))
	b.WriteString("\n")

	for i, row := range rows {
		cols := rowColumns(row, layout, opts)
		if opts.Cursor != nil && opts.Cursor.Row == i && opts.Cursor.Col >= 0 && opts.Cursor.Col < len(cols) {
			cols[opts.Cursor.Col] = StyleCursor.Render(cols[opts.Cursor.Col])
		}
		b.WriteString(rowLabel(row, opts.LabelWidth))
		b.WriteString(strings.Join(cols, ""))
		b.WriteString("\n")
	}
	if len(rows) == 0 {
		b.WriteString(Dim("No projects to show.") + "\n")
	}
	return b.String()
}

func renderMonthHeader(layout *scheduler.GridLayout, opts GridOptions) string {
	var b strings.Builder
	b.WriteString(strings.Repeat(" ", opts.LabelWidth))
	for _, g := range layout.Months() {
		b.WriteString(StyleHeader.Render(fit(g.Label, g.Count*opts.CellWidth)))
	}
	return b.String()
}

func renderDayHeader(rows []scheduler.Row, layout *scheduler.GridLayout, opts GridOptions) string {
	special := make(map[int]bool)
	if len(rows) > 0 {
		idx := 0
		for _, c := range rows[0].Cells {
			for k := 0; k < c.Colspan; k++ {
				special[idx+k] = c.Special && c.Colspan == 1
			}
			idx += c.Colspan
		}
	}

	var b strings.Builder
	b.WriteString(strings.Repeat(" ", opts.LabelWidth))
	for _, c := range layout.Columns() {
		label := fit(fmt.Sprintf("%2d", c.Date.Day()), opts.CellWidth)
		if special[c.Index] {
			b.WriteString(StyleRed.Render(label))
			continue
		}
		b.WriteString(StyleDim.Render(label))
	}
	return b.String()
}

func rowLabel(row scheduler.Row, width int) string {
	var label string
	var style lipgloss.Style
	switch row.Kind {
	case scheduler.RowProject:
		label, style = row.Project.Name, StyleBold
	case scheduler.RowLot:
		label, style = "  "+row.Lot.Name, StyleFg
	default:
		iv := row.Intervention
		label, style = "    "+iv.Name, StateStyle(iv.State)
		if !iv.Visible {
			label, style = label+" (hidden)", StyleDim
		}
	}
	return style.Render(fit(label, width-1)) + " "
}

// rowColumns expands a row into one styled string per grid column.
func rowColumns(row scheduler.Row, layout *scheduler.GridLayout, opts GridOptions) []string {
	w := opts.CellWidth
	out := make([]string, 0, layout.Len())

	if row.Intervention != nil {
		if span, ok := opts.Preview[row.Intervention.ID]; ok {
			return previewColumns(row, span, layout, opts)
		}
	}

	for _, c := range row.Cells {
		switch c.Kind {
		case scheduler.CellBlock:
			glyph := StateGlyph(row.Intervention.State)
			style := StateStyle(row.Intervention.State)
			for k := 0; k < c.Colspan; k++ {
				out = append(out, style.Render(strings.Repeat(glyph, w)))
			}
		case scheduler.CellInvalid:
			text := fit("invalid date", c.Colspan*w)
			runes := []rune(text)
			for k := 0; k < c.Colspan; k++ {
				out = append(out, StyleRed.Render(string(runes[k*w:(k+1)*w])))
			}
		case scheduler.CellActive:
			out = append(out, StyleFg.Render(emptyCell(w, "▪", c.WeekEnd)))
		case scheduler.CellHidden:
			out = append(out, strings.Repeat(" ", w))
		default:
			if c.Special {
				out = append(out, StyleRed.Render(emptyCell(w, "▒", c.WeekEnd)))
				continue
			}
			out = append(out, StyleDim.Render(emptyCell(w, "·", c.WeekEnd)))
		}
	}
	return out
}

func previewColumns(row scheduler.Row, span domain.Span, layout *scheduler.GridLayout, opts GridOptions) []string {
	w := opts.CellWidth
	first, last, ok := layout.Clip(span.Start, span.End)
	out := make([]string, 0, layout.Len())
	for _, c := range layout.Columns() {
		if ok && c.Index >= first && c.Index <= last {
			out = append(out, StylePreview.Render(strings.Repeat("▓", w)))
			continue
		}
		out = append(out, StyleDim.Render(emptyCell(w, "·", false)))
	}
	return out
}

// emptyCell fills a column, closing ISO weeks with a dotted rule.
func emptyCell(w int, fill string, weekEnd bool) string {
	if weekEnd {
		return strings.Repeat(" ", w-2) + fill + "┊"
	}
	return strings.Repeat(" ", w-1) + fill
}

// fit pads or truncates s to exactly n runes.
func fit(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) > n {
		if n == 1 {
			return "…"
		}
		return string(r[:n-1]) + "…"
	}
	return s + strings.Repeat(" ", n-len(r))
}

// RenderLegend lists every state with its block glyph.
func RenderLegend() string {
	var b strings.Builder
	for _, cat := range domain.Categories() {
		b.WriteString(CategoryStyle(cat).Bold(true).Render(strings.ToUpper(string(cat))))
		b.WriteString("\n")
		for _, info := range domain.States() {
			if info.Category != cat {
				continue
			}
			fmt.Fprintf(&b, "  %s %s\n", StateStyle(info.State).Render(strings.Repeat(StateGlyph(info.State), 3)), info.Label)
		}
	}
	fmt.Fprintf(&b, "%s\n", StyleRed.Render("▒▒▒")+" public holiday or school vacation")
	return b.String()
}
