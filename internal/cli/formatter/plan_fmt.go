package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/lotplan/internal/calendar"
	"github.com/alexanderramin/lotplan/internal/domain"
	"github.com/alexanderramin/lotplan/internal/scheduler"
	"github.com/alexanderramin/lotplan/internal/service"
	"github.com/charmbracelet/lipgloss"
)

// NameFunc resolves an intervention id to a display name.
type NameFunc func(id string) string

// SnapshotNames resolves names from snap, falling back to the short id.
func SnapshotNames(snap *scheduler.Snapshot) NameFunc {
	return func(id string) string {
		if snap != nil {
			if iv, ok := snap.Intervention(id); ok {
				return iv.Name
			}
		}
		return ShortID(id)
	}
}

// RenderCascade summarises a committed move or resize.
func RenderCascade(res *service.CascadeResult, names NameFunc) string {
	if res == nil || !res.Changed || res.Plan.Empty() {
		return Dim("No change.") + "\n"
	}

	var b strings.Builder
	b.WriteString(Header("Cascade"))
	b.WriteString("\n")

	failed := make(map[string]error, len(res.Failed))
	for _, f := range res.Failed {
		failed[f.ID] = f.Err
	}

	rows := make([][]string, 0, len(res.Plan.Updates))
	for _, u := range res.Plan.Updates {
		via := Dim("seed")
		if u.Via != nil {
			via = u.Via.Type.Abbrev() + " " + Dim("from "+names(u.Via.SourceID))
		}
		status := StyleGreen.Render("ok")
		if err, ok := failed[u.ID]; ok {
			status = StyleRed.Render("failed: " + err.Error())
		}
		rows = append(rows, []string{
			names(u.ID),
			FormatSpan(u.From),
			FormatSpan(u.To),
			via,
			status,
		})
	}
	b.WriteString(RenderTable([]string{"INTERVENTION", "FROM", "TO", "VIA", "STATUS"}, rows))

	for _, s := range res.Plan.Skipped {
		fmt.Fprintf(&b, "%s %s (%s)\n", StyleYellow.Render("skipped"), names(s.ID), s.Reason)
	}

	summary := fmt.Sprintf("%d updated", res.Updated)
	if len(res.Failed) > 0 {
		summary += StyleRed.Render(fmt.Sprintf(", %d failed", len(res.Failed)))
	}
	b.WriteString(summary + "\n")
	return b.String()
}

// RenderConflicts boxes the double-booking warning, or says there is none.
func RenderConflicts(c scheduler.Conflicts) string {
	if c.Empty() {
		return StyleGreen.Render("No company conflicts.") + "\n"
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorYellow).
		Padding(0, 1)
	return box.Render(StyleYellow.Render(c.Warning())) + "\n"
}

// RenderLinks lists links with their endpoints' names.
func RenderLinks(links []*domain.Link, names NameFunc) string {
	if len(links) == 0 {
		return Dim("No links.") + "\n"
	}
	rows := make([][]string, 0, len(links))
	for _, l := range links {
		rows = append(rows, []string{
			Dim(ShortID(l.ID)),
			names(l.SourceID),
			StyleBlue.Render(l.Type.Abbrev()),
			names(l.TargetID),
		})
	}
	return RenderTable([]string{"ID", "SOURCE", "TYPE", "TARGET"}, rows)
}

// RenderCycles lists the groups of interventions that reach each other.
func RenderCycles(cycles []scheduler.LinkCycle, names NameFunc) string {
	if len(cycles) == 0 {
		return StyleGreen.Render("No link cycles.") + "\n"
	}
	var b strings.Builder
	b.WriteString(StyleYellow.Render(fmt.Sprintf("%d link cycle(s); cascades through them stop after one pass:", len(cycles))))
	b.WriteString("\n")
	for _, c := range cycles {
		named := make([]string, len(c.InterventionIDs))
		for i, id := range c.InterventionIDs {
			named[i] = names(id)
		}
		fmt.Fprintf(&b, "  ↻ %s\n", strings.Join(named, " ⇄ "))
	}
	return b.String()
}

// FormatSpan renders an inclusive span with its business-day length.
func FormatSpan(s domain.Span) string {
	if s.Start.IsZero() || s.End.IsZero() {
		return StyleRed.Render("invalid date")
	}
	return fmt.Sprintf("%s → %s %s", calendar.Format(s.Start), calendar.Format(s.End), Dim(fmt.Sprintf("(%dd)", s.BusinessDays())))
}

// ShortID returns the first 8 characters of an id.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
