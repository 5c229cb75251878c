package scheduler

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/lotplan/internal/calendar"
	"github.com/alexanderramin/lotplan/internal/domain"
)

// Candidate is an intervention as it is being edited, before it is saved.
type Candidate struct {
	// InterventionID is empty for a new intervention.
	InterventionID string
	LotID          string
	Span           domain.Span
	State          domain.State
}

// Conflict is another intervention that books the same company on a
// different project during an overlapping period.
type Conflict struct {
	Intervention *domain.Intervention
	Project      *domain.Project
	Lot          *domain.Lot
}

type Conflicts struct {
	Company   *domain.Company
	Conflicts []Conflict
}

func (c Conflicts) Empty() bool {
	return len(c.Conflicts) == 0
}

// Warning renders the conflicts as a multi-line message, or "" when there
// are none.
func (c Conflicts) Warning() string {
	if c.Empty() {
		return ""
	}
	company := "This company"
	if c.Company != nil {
		company = c.Company.Name
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s is already booked on another project during this period:\n", company)
	for _, cf := range c.Conflicts {
		fmt.Fprintf(&b, "  - %s (project %s, lot %s) from %s to %s\n",
			cf.Intervention.Name,
			cf.Project.Name,
			cf.Lot.Name,
			calendar.Format(cf.Intervention.Start),
			calendar.Format(cf.Intervention.End),
		)
	}
	b.WriteString("Save anyway?")
	return b.String()
}

// DetectConflicts finds interventions competing with cand for its lot's
// company. Only active planning states take part; hidden interventions and
// interventions on the same project are ignored. Overlap is inclusive.
func DetectConflicts(snap *Snapshot, cand Candidate) Conflicts {
	var out Conflicts
	if !cand.State.IsActivePlanning() {
		return out
	}
	if cand.Span.Start.IsZero() || cand.Span.End.IsZero() || cand.Span.End.Before(cand.Span.Start) {
		return out
	}
	lot, ok := snap.Lot(cand.LotID)
	if !ok || !lot.HasCompany() {
		return out
	}
	if company, ok := snap.Company(*lot.CompanyID); ok {
		out.Company = company
	}

	for _, other := range snap.Interventions {
		if other.ID == cand.InterventionID || !other.Visible {
			continue
		}
		if !other.State.IsActivePlanning() || !other.HasValidDates() {
			continue
		}
		otherLot, ok := snap.Lot(other.LotID)
		if !ok || !otherLot.HasCompany() || *otherLot.CompanyID != *lot.CompanyID {
			continue
		}
		if otherLot.ProjectID == lot.ProjectID {
			continue
		}
		if !other.Span().Overlaps(cand.Span) {
			continue
		}
		project, ok := snap.Project(otherLot.ProjectID)
		if !ok {
			project = &domain.Project{ID: otherLot.ProjectID, Name: otherLot.ProjectID}
		}
		out.Conflicts = append(out.Conflicts, Conflict{Intervention: other, Project: project, Lot: otherLot})
	}
	return out
}

// ConflictWatcher keeps the conflict result of an edit form current. It only
// recomputes when the lot or one of the dates changes.
type ConflictWatcher struct {
	snap    *Snapshot
	cand    Candidate
	primed  bool
	current Conflicts
}

func NewConflictWatcher(snap *Snapshot, cand Candidate) *ConflictWatcher {
	w := &ConflictWatcher{snap: snap, cand: cand}
	w.recompute()
	return w
}

// Update applies the form's latest values and returns the conflicts.
func (w *ConflictWatcher) Update(cand Candidate) Conflicts {
	changed := cand.LotID != w.cand.LotID ||
		!cand.Span.Equal(w.cand.Span) ||
		cand.State != w.cand.State
	w.cand = cand
	if changed || !w.primed {
		w.recompute()
	}
	return w.current
}

// SetSnapshot swaps in refreshed data and recomputes.
func (w *ConflictWatcher) SetSnapshot(snap *Snapshot) Conflicts {
	w.snap = snap
	w.recompute()
	return w.current
}

func (w *ConflictWatcher) Current() Conflicts {
	return w.current
}

func (w *ConflictWatcher) recompute() {
	w.current = DetectConflicts(w.snap, w.cand)
	w.primed = true
}
