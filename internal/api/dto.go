package api

import (
	"github.com/alexanderramin/lotplan/internal/calendar"
	"github.com/alexanderramin/lotplan/internal/domain"
	"github.com/alexanderramin/lotplan/internal/scheduler"
	"github.com/alexanderramin/lotplan/internal/service"
)

type interventionJSON struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	LotID     string `json:"lot_id"`
	Start     string `json:"start"`
	End       string `json:"end"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	State     string `json:"state"`
	Visible   bool   `json:"visible"`
	ValidDate bool   `json:"valid_dates"`
}

func toInterventionJSON(iv *domain.Intervention) interventionJSON {
	out := interventionJSON{
		ID:        iv.ID,
		Name:      iv.Name,
		LotID:     iv.LotID,
		StartTime: iv.StartTime,
		EndTime:   iv.EndTime,
		State:     string(iv.State),
		Visible:   iv.Visible,
		ValidDate: iv.HasValidDates(),
		Start:     iv.RawStart,
		End:       iv.RawEnd,
	}
	if !iv.Start.IsZero() {
		out.Start = calendar.Format(iv.Start)
	}
	if !iv.End.IsZero() {
		out.End = calendar.Format(iv.End)
	}
	return out
}

type linkJSON struct {
	ID       string `json:"id"`
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`
	Type     string `json:"type"`
}

func toLinkJSON(l *domain.Link) linkJSON {
	return linkJSON{ID: l.ID, SourceID: l.SourceID, TargetID: l.TargetID, Type: string(l.Type)}
}

type spanJSON struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func toSpanJSON(s domain.Span) spanJSON {
	return spanJSON{Start: calendar.Format(s.Start), End: calendar.Format(s.End)}
}

type updateJSON struct {
	ID     string   `json:"id"`
	From   spanJSON `json:"from"`
	To     spanJSON `json:"to"`
	LinkID string   `json:"link_id,omitempty"`
}

type skippedJSON struct {
	ID     string `json:"id"`
	LinkID string `json:"link_id"`
	Reason string `json:"reason"`
}

type failedJSON struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

type cascadeJSON struct {
	Changed bool          `json:"changed"`
	Updated int           `json:"updated"`
	Updates []updateJSON  `json:"updates"`
	Skipped []skippedJSON `json:"skipped"`
	Failed  []failedJSON  `json:"failed"`
}

func toCascadeJSON(r *service.CascadeResult) cascadeJSON {
	out := cascadeJSON{
		Changed: r.Changed,
		Updated: r.Updated,
		Updates: []updateJSON{},
		Skipped: []skippedJSON{},
		Failed:  []failedJSON{},
	}
	if r.Plan != nil {
		for _, u := range r.Plan.Updates {
			uj := updateJSON{ID: u.ID, From: toSpanJSON(u.From), To: toSpanJSON(u.To)}
			if u.Via != nil {
				uj.LinkID = u.Via.ID
			}
			out.Updates = append(out.Updates, uj)
		}
		for _, s := range r.Plan.Skipped {
			out.Skipped = append(out.Skipped, skippedJSON{ID: s.ID, LinkID: s.LinkID, Reason: string(s.Reason)})
		}
	}
	for _, f := range r.Failed {
		out.Failed = append(out.Failed, failedJSON{ID: f.ID, Error: f.Err.Error()})
	}
	return out
}

type conflictJSON struct {
	InterventionID string `json:"intervention_id"`
	Name           string `json:"name"`
	Project        string `json:"project"`
	Lot            string `json:"lot"`
	Start          string `json:"start"`
	End            string `json:"end"`
}

type conflictsJSON struct {
	Company   string         `json:"company,omitempty"`
	Conflicts []conflictJSON `json:"conflicts"`
	Warning   string         `json:"warning,omitempty"`
}

func toConflictsJSON(c scheduler.Conflicts) conflictsJSON {
	out := conflictsJSON{Conflicts: []conflictJSON{}, Warning: c.Warning()}
	if c.Company != nil {
		out.Company = c.Company.Name
	}
	for _, cf := range c.Conflicts {
		out.Conflicts = append(out.Conflicts, conflictJSON{
			InterventionID: cf.Intervention.ID,
			Name:           cf.Intervention.Name,
			Project:        cf.Project.Name,
			Lot:            cf.Lot.Name,
			Start:          calendar.Format(cf.Intervention.Start),
			End:            calendar.Format(cf.Intervention.End),
		})
	}
	return out
}

type moveRequest struct {
	GrabbedDay string `json:"grabbed_day"`
	DroppedDay string `json:"dropped_day"`
}

type resizeRequest struct {
	Edge string `json:"edge"`
	Day  string `json:"day"`
}

type linkRequest struct {
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`
	Type     string `json:"type"`
}

type conflictRequest struct {
	InterventionID string `json:"intervention_id"`
	LotID          string `json:"lot_id"`
	Start          string `json:"start"`
	End            string `json:"end"`
	State          string `json:"state"`
}
