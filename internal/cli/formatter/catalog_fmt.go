package formatter

import (
	"strings"

	"github.com/alexanderramin/lotplan/internal/domain"
	"github.com/alexanderramin/lotplan/internal/scheduler"
)

func FormatProjectList(projects []*domain.Project) string {
	if len(projects) == 0 {
		return Dim("No projects found.") + "\n"
	}
	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, []string{Dim(p.DisplayID()), Bold(p.Name)})
	}
	return RenderTable([]string{"ID", "NAME"}, rows)
}

func FormatCompanyList(companies []*domain.Company) string {
	if len(companies) == 0 {
		return Dim("No companies found.") + "\n"
	}
	rows := make([][]string, 0, len(companies))
	for _, c := range companies {
		rows = append(rows, []string{Dim(ShortID(c.ID)), c.Name})
	}
	return RenderTable([]string{"ID", "NAME"}, rows)
}

// FormatLotList shows each lot with its project and company, resolved from
// snap.
func FormatLotList(snap *scheduler.Snapshot) string {
	if len(snap.Lots) == 0 {
		return Dim("No lots found.") + "\n"
	}
	rows := make([][]string, 0, len(snap.Lots))
	for _, l := range snap.Lots {
		project := Dim("?")
		if p, ok := snap.Project(l.ProjectID); ok {
			project = p.Name
		}
		company := Dim("unassigned")
		if l.HasCompany() {
			if c, ok := snap.Company(*l.CompanyID); ok {
				company = c.Name
			}
		}
		rows = append(rows, []string{Dim(l.DisplayID()), l.Name, project, company})
	}
	return RenderTable([]string{"ID", "LOT", "PROJECT", "COMPANY"}, rows)
}

// FormatInterventionList shows the interventions of snap ordered by lot then
// start date.
func FormatInterventionList(snap *scheduler.Snapshot, ivs []*domain.Intervention) string {
	if len(ivs) == 0 {
		return Dim("No interventions found.") + "\n"
	}
	rows := make([][]string, 0, len(ivs))
	for _, iv := range ivs {
		lot := Dim("?")
		if l, ok := snap.Lot(iv.LotID); ok {
			lot = l.Name
		}
		span := FormatSpan(iv.Span())
		if !iv.HasValidDates() {
			span = StyleRed.Render("invalid date") + Dim(" "+strings.TrimSpace(iv.RawStart+" "+iv.RawEnd))
		}
		name := iv.Name
		if !iv.Visible {
			name = Dim(name + " (hidden)")
		}
		rows = append(rows, []string{Dim(iv.ShortID()), name, lot, span, StateBadge(iv.State)})
	}
	return RenderTable([]string{"ID", "NAME", "LOT", "DATES", "STATE"}, rows)
}
