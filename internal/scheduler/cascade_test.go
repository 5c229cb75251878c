package scheduler

import (
	"testing"

	"github.com/alexanderramin/lotplan/internal/calendar"
	"github.com/alexanderramin/lotplan/internal/domain"
	"github.com/alexanderramin/lotplan/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func span(start, end string) domain.Span {
	return domain.NewSpan(testutil.MustDate(start), testutil.MustDate(end))
}

func iv(id, start, end string) *domain.Intervention {
	return testutil.NewTestIntervention("lot-1", id, testutil.WithID(id), testutil.WithSpan(start, end))
}

func link(src, dst string, lt domain.LinkType) *domain.Link {
	l := testutil.NewTestLink(src, dst, lt)
	l.ID = src + "-" + dst
	return l
}

func snapshotOf(ivs []*domain.Intervention, links ...*domain.Link) *Snapshot {
	return NewSnapshot(ivs, links, nil, nil, nil)
}

func TestPlanCascade_FinishToStartPreservesGapAndDuration(t *testing.T) {
	// A: Mon-Wed. B: Fri-Tue, 2 calendar days after A ends, 3 business days.
	a := iv("A", "2024-01-01", "2024-01-03")
	b := iv("B", "2024-01-05", "2024-01-09")
	snap := snapshotOf([]*domain.Intervention{a, b}, link("A", "B", domain.FinishToStart))

	plan := PlanCascade(snap, "A", span("2024-01-08", "2024-01-10"))

	require.Len(t, plan.Updates, 2)
	assert.Equal(t, "A", plan.Updates[0].ID)
	assert.Nil(t, plan.Updates[0].Via)

	got := plan.Spans()["B"]
	assert.Equal(t, calendar.NextBusinessDay(calendar.AddDays(testutil.MustDate("2024-01-10"), 2)), got.Start)
	assert.Equal(t, span("2024-01-12", "2024-01-16"), got)
	assert.Equal(t, b.Span().BusinessDays(), got.BusinessDays())
}

func TestPlanCascade_AnchorOnWeekendSnapsForward(t *testing.T) {
	// Gap of 1 day after a Friday end lands on Saturday.
	a := iv("A", "2024-01-01", "2024-01-01")
	b := iv("B", "2024-01-02", "2024-01-03")
	snap := snapshotOf([]*domain.Intervention{a, b}, link("A", "B", domain.FinishToStart))

	plan := PlanCascade(snap, "A", span("2024-01-05", "2024-01-05"))

	assert.Equal(t, span("2024-01-08", "2024-01-09"), plan.Spans()["B"])
}

func TestShiftTarget_EndpointsPerLinkType(t *testing.T) {
	srcOld := span("2024-01-01", "2024-01-03") // Mon-Wed
	srcNew := span("2024-01-08", "2024-01-10") // next Mon-Wed
	tgtOld := span("2024-01-02", "2024-01-04") // Tue-Thu, 3 business days

	tests := []struct {
		name string
		lt   domain.LinkType
		want domain.Span
	}{
		// target.start - source.end = -1
		{"finish-to-start", domain.FinishToStart, span("2024-01-09", "2024-01-11")},
		// target.start - source.start = 1
		{"start-to-start", domain.StartToStart, span("2024-01-09", "2024-01-11")},
		// target.end - source.end = 1, end anchored
		{"finish-to-finish", domain.FinishToFinish, span("2024-01-09", "2024-01-11")},
		// target.end - source.start = 3, end anchored
		{"start-to-finish", domain.StartToFinish, span("2024-01-09", "2024-01-11")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShiftTarget(tt.lt, srcOld, srcNew, tgtOld))
		})
	}
}

func TestShiftTarget_EndAnchoredKeepsDurationAcrossWeekend(t *testing.T) {
	srcOld := span("2024-01-01", "2024-01-02")
	srcNew := span("2024-01-03", "2024-01-04")
	tgtOld := span("2024-01-01", "2024-01-02") // ends with source, 2 business days

	got := ShiftTarget(domain.FinishToFinish, srcOld, srcNew, tgtOld)

	assert.Equal(t, span("2024-01-03", "2024-01-04"), got)

	// Moving the source to end on Monday pulls the target start to Friday.
	got = ShiftTarget(domain.FinishToFinish, srcOld, span("2024-01-05", "2024-01-08"), tgtOld)
	assert.Equal(t, span("2024-01-05", "2024-01-08"), got)
	assert.Equal(t, 2, got.BusinessDays())
}

func TestPlanCascade_TransitiveChain(t *testing.T) {
	a := iv("A", "2024-01-01", "2024-01-01")
	b := iv("B", "2024-01-02", "2024-01-02")
	c := iv("C", "2024-01-03", "2024-01-03")
	snap := snapshotOf([]*domain.Intervention{a, b, c},
		link("A", "B", domain.FinishToStart),
		link("B", "C", domain.FinishToStart),
	)

	plan := PlanCascade(snap, "A", span("2024-01-08", "2024-01-08"))

	spans := plan.Spans()
	require.Len(t, spans, 3)
	assert.Equal(t, span("2024-01-09", "2024-01-09"), spans["B"])
	assert.Equal(t, span("2024-01-10", "2024-01-10"), spans["C"])
	assert.Equal(t, "B-C", plan.Updates[2].Via.ID)
}

func TestPlanCascade_GapsUseOriginalDates(t *testing.T) {
	// The gap is measured on stored dates and the snapshot is left untouched.
	a := iv("A", "2024-01-01", "2024-01-01")
	b := iv("B", "2024-01-03", "2024-01-03")
	snap := snapshotOf([]*domain.Intervention{a, b}, link("A", "B", domain.StartToStart))

	plan := PlanCascade(snap, "A", span("2024-01-02", "2024-01-02"))

	assert.Equal(t, span("2024-01-04", "2024-01-04"), plan.Spans()["B"])
	assert.Equal(t, span("2024-01-03", "2024-01-03"), b.Span(), "snapshot is never mutated")
}

// Convergent paths: D is reachable through B and through C, and the two
// routes disagree on D's dates. The route reached first in breadth-first
// order wins and the other is ignored.
func TestPlanCascade_ConvergentPathsFirstArrivalWins(t *testing.T) {
	build := func(links ...*domain.Link) *Snapshot {
		return snapshotOf([]*domain.Intervention{
			iv("A", "2024-01-01", "2024-01-01"), // Mon
			iv("B", "2024-01-04", "2024-01-04"), // Thu, 3 days after A
			iv("C", "2024-01-02", "2024-01-02"), // Tue, 1 day after A
			iv("D", "2024-01-05", "2024-01-05"), // Fri
		}, links...)
	}
	moved := span("2024-01-03", "2024-01-03") // A +2 days

	// Via B: B lands Sat -> Mon 8th; D is 1 day after B -> Tue 9th.
	viaBFirst := PlanCascade(build(
		link("A", "B", domain.FinishToStart),
		link("A", "C", domain.FinishToStart),
		link("B", "D", domain.FinishToStart),
		link("C", "D", domain.FinishToStart),
	), "A", moved)
	// Via C: C lands Thu 4th; D is 3 days after C -> Sun -> Mon 8th.
	viaCFirst := PlanCascade(build(
		link("A", "C", domain.FinishToStart),
		link("A", "B", domain.FinishToStart),
		link("C", "D", domain.FinishToStart),
		link("B", "D", domain.FinishToStart),
	), "A", moved)

	assert.Equal(t, span("2024-01-09", "2024-01-09"), viaBFirst.Spans()["D"])
	assert.Equal(t, span("2024-01-08", "2024-01-08"), viaCFirst.Spans()["D"])

	for _, plan := range []*Plan{viaBFirst, viaCFirst} {
		count := 0
		for _, u := range plan.Updates {
			if u.ID == "D" {
				count++
			}
		}
		assert.Equal(t, 1, count, "D is assigned exactly once")
	}
}

func TestPlanCascade_CycleTerminates(t *testing.T) {
	a := iv("A", "2024-01-01", "2024-01-01")
	b := iv("B", "2024-01-02", "2024-01-02")
	snap := snapshotOf([]*domain.Intervention{a, b},
		link("A", "B", domain.FinishToStart),
		link("B", "A", domain.FinishToStart),
	)

	plan := PlanCascade(snap, "A", span("2024-01-08", "2024-01-08"))

	require.Len(t, plan.Updates, 2)
	assert.Equal(t, span("2024-01-08", "2024-01-08"), plan.Spans()["A"], "seed is never revisited")
	assert.Equal(t, span("2024-01-09", "2024-01-09"), plan.Spans()["B"])
}

func TestPlanCascade_UnchangedSeedIsNoop(t *testing.T) {
	a := iv("A", "2024-01-01", "2024-01-03")
	b := iv("B", "2024-01-04", "2024-01-04")
	snap := snapshotOf([]*domain.Intervention{a, b}, link("A", "B", domain.FinishToStart))

	plan := PlanCascade(snap, "A", span("2024-01-01", "2024-01-03"))

	assert.True(t, plan.Empty())
}

func TestPlanCascade_SkipsMissingAndInvalidTargets(t *testing.T) {
	a := iv("A", "2024-01-01", "2024-01-01")
	bad := testutil.NewTestIntervention("lot-1", "bad", testutil.WithID("BAD"), testutil.WithRawDates("soon", ""))
	c := iv("C", "2024-01-02", "2024-01-02")
	snap := snapshotOf([]*domain.Intervention{a, bad, c},
		link("A", "GONE", domain.FinishToStart),
		link("A", "BAD", domain.FinishToStart),
		link("A", "C", domain.FinishToStart),
	)

	plan := PlanCascade(snap, "A", span("2024-01-08", "2024-01-08"))

	require.Len(t, plan.Skipped, 2)
	assert.Equal(t, SkipMissing, plan.Skipped[0].Reason)
	assert.Equal(t, "GONE", plan.Skipped[0].ID)
	assert.Equal(t, SkipInvalidDates, plan.Skipped[1].Reason)
	assert.Contains(t, plan.Spans(), "C")
}

func TestPlanCascade_InvalidSeedUpdatesOnlyItself(t *testing.T) {
	seed := testutil.NewTestIntervention("lot-1", "seed", testutil.WithID("S"), testutil.WithRawDates("x", "y"))
	b := iv("B", "2024-01-02", "2024-01-02")
	snap := snapshotOf([]*domain.Intervention{seed, b}, link("S", "B", domain.FinishToStart))

	plan := PlanCascade(snap, "S", span("2024-01-08", "2024-01-08"))

	require.Len(t, plan.Updates, 1)
	assert.Equal(t, "S", plan.Updates[0].ID)
}

func TestPlanCascade_MissingSeed(t *testing.T) {
	plan := PlanCascade(snapshotOf(nil), "nope", span("2024-01-08", "2024-01-08"))

	assert.True(t, plan.Empty())
	require.Len(t, plan.Skipped, 1)
	assert.Equal(t, SkipMissing, plan.Skipped[0].Reason)
}

func TestPlanCascade_EveryUpdateKeepsEndAfterStart(t *testing.T) {
	ivs := []*domain.Intervention{
		iv("A", "2024-01-01", "2024-01-05"),
		iv("B", "2024-01-03", "2024-01-04"),
		iv("C", "2024-01-08", "2024-01-12"),
		iv("D", "2024-01-02", "2024-01-02"),
	}
	snap := snapshotOf(ivs,
		link("A", "B", domain.StartToFinish),
		link("A", "C", domain.FinishToFinish),
		link("B", "D", domain.StartToStart),
	)

	for shift := -10; shift <= 10; shift++ {
		plan := PlanCascade(snap, "A", MoveSpan(ivs[0].Span(), shift))
		for _, u := range plan.Updates {
			assert.False(t, u.To.End.Before(u.To.Start), "shift %d: %s ends before it starts", shift, u.ID)
			assert.True(t, calendar.IsBusinessDay(u.To.Start), "shift %d: %s starts on a weekend", shift, u.ID)
		}
	}
}
