package scheduler

import (
	"time"

	"github.com/alexanderramin/lotplan/internal/calendar"
	"github.com/alexanderramin/lotplan/internal/domain"
)

// SpanUpdate is one rescheduled intervention within a cascade plan.
type SpanUpdate struct {
	ID   string
	From domain.Span
	To   domain.Span
	// Via is the link that produced this update; nil for the seed.
	Via *domain.Link
}

// SkipReason explains why a linked intervention was left untouched.
type SkipReason string

const (
	SkipMissing      SkipReason = "missing"
	SkipInvalidDates SkipReason = "invalid_dates"
)

type Skipped struct {
	ID     string
	LinkID string
	Reason SkipReason
}

// Plan is the full set of span changes produced by committing a new span on
// the seed intervention. Updates[0] is always the seed when the plan is not
// empty; the rest follow breadth-first order.
type Plan struct {
	SeedID  string
	Updates []SpanUpdate
	Skipped []Skipped
}

// Empty reports whether the commit was a no-op.
func (p *Plan) Empty() bool {
	return p == nil || len(p.Updates) == 0
}

// Spans returns the planned span keyed by intervention id.
func (p *Plan) Spans() map[string]domain.Span {
	out := make(map[string]domain.Span, len(p.Updates))
	for _, u := range p.Updates {
		out[u.ID] = u.To
	}
	return out
}

// PlanCascade computes the new spans of every intervention reachable from
// seedID through outgoing links after the seed is moved to newSpan.
//
// Gaps and durations are measured on the snapshot's original dates, never on
// values already produced by this cascade. Each intervention is assigned at
// most once: when two paths converge on a node the first one reached in
// breadth-first order decides its dates and later arrivals are ignored.
// Cycles terminate for the same reason.
func PlanCascade(snap *Snapshot, seedID string, newSpan domain.Span) *Plan {
	plan := &Plan{SeedID: seedID}
	newSpan = domain.NewSpan(newSpan.Start, newSpan.End)

	seed, ok := snap.Intervention(seedID)
	if !ok {
		plan.Skipped = append(plan.Skipped, Skipped{ID: seedID, Reason: SkipMissing})
		return plan
	}
	if seed.HasValidDates() && seed.Span().Equal(newSpan) {
		return plan
	}

	plan.Updates = append(plan.Updates, SpanUpdate{ID: seedID, From: seed.Span(), To: newSpan})
	// Without trustworthy original dates there is no gap to preserve, so the
	// seed is repaired on its own.
	if !seed.HasValidDates() {
		return plan
	}

	spans := map[string]domain.Span{seedID: newSpan}
	visited := map[string]bool{seedID: true}
	queue := []string{seedID}

	for len(queue) > 0 {
		srcID := queue[0]
		queue = queue[1:]
		src, _ := snap.Intervention(srcID)
		srcNew := spans[srcID]

		for _, link := range snap.Graph().Outgoing(srcID) {
			if visited[link.TargetID] {
				continue
			}
			target, ok := snap.Intervention(link.TargetID)
			if !ok {
				visited[link.TargetID] = true
				plan.Skipped = append(plan.Skipped, Skipped{ID: link.TargetID, LinkID: link.ID, Reason: SkipMissing})
				continue
			}
			if !target.HasValidDates() {
				visited[link.TargetID] = true
				plan.Skipped = append(plan.Skipped, Skipped{ID: link.TargetID, LinkID: link.ID, Reason: SkipInvalidDates})
				continue
			}

			shifted := ShiftTarget(link.Type, src.Span(), srcNew, target.Span())
			visited[link.TargetID] = true
			spans[link.TargetID] = shifted
			plan.Updates = append(plan.Updates, SpanUpdate{
				ID:   link.TargetID,
				From: target.Span(),
				To:   shifted,
				Via:  link,
			})
			queue = append(queue, link.TargetID)
		}
	}
	return plan
}

// ShiftTarget returns the target's new span for one link, given the source's
// original and new spans and the target's original span.
//
// The calendar-day gap between the link's endpoints is preserved, then the
// anchored endpoint is snapped forward to a business day. The target keeps
// its original business-day duration: start-anchored links (FS, SS) grow the
// span forward from the anchor and end-anchored links (FF, SF) grow it
// backward.
func ShiftTarget(lt domain.LinkType, srcOld, srcNew, tgtOld domain.Span) domain.Span {
	srcEP, tgtEP := lt.Endpoints()
	gap := calendar.DaysBetween(srcEP.Of(srcOld), tgtEP.Of(tgtOld))
	anchor := calendar.NextBusinessDay(calendar.AddDays(srcEP.Of(srcNew), gap))
	duration := tgtOld.BusinessDays()

	if tgtEP == domain.EndpointEnd {
		return domain.NewSpan(calendar.SubtractBusinessDays(anchor, duration), anchor)
	}
	return domain.NewSpan(anchor, calendar.AddBusinessDays(anchor, duration))
}

// MoveSpan shifts span by a number of calendar days, snapping the new start
// forward to a business day and preserving the business-day duration.
func MoveSpan(span domain.Span, days int) domain.Span {
	start := calendar.NextBusinessDay(calendar.AddDays(span.Start, days))
	return domain.NewSpan(start, calendar.AddBusinessDays(start, span.BusinessDays()))
}

// MoveSpanTo is MoveSpan expressed as an absolute target start.
func MoveSpanTo(span domain.Span, start time.Time) domain.Span {
	return MoveSpan(span, calendar.DaysBetween(span.Start, start))
}
