package scheduler

import (
	"testing"

	"github.com/alexanderramin/lotplan/internal/domain"
	"github.com/alexanderramin/lotplan/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkGraph_AdjacencyKeepsInsertionOrder(t *testing.T) {
	l1 := link("A", "C", domain.FinishToStart)
	l2 := link("A", "B", domain.StartToStart)
	l3 := link("B", "C", domain.FinishToFinish)
	g := NewLinkGraph([]*domain.Link{l1, l2, l3})

	assert.Equal(t, []*domain.Link{l1, l2}, g.Outgoing("A"))
	assert.Equal(t, []*domain.Link{l1, l3}, g.Incoming("C"))
	assert.Empty(t, g.Outgoing("C"))
	assert.Equal(t, 3, g.Len())

	found, ok := g.Find(domain.LinkKey{SourceID: "A", TargetID: "B", Type: domain.StartToStart})
	require.True(t, ok)
	assert.Same(t, l2, found)
	_, ok = g.Find(domain.LinkKey{SourceID: "A", TargetID: "B", Type: domain.FinishToStart})
	assert.False(t, ok)
}

func TestValidateLink(t *testing.T) {
	assert.NoError(t, ValidateLink("a", "b", domain.FinishToStart))
	assert.ErrorIs(t, ValidateLink("a", "a", domain.FinishToStart), ErrSelfLink)
	assert.ErrorIs(t, ValidateLink("a", "b", "sideways"), ErrInvalidLinkType)
	assert.Error(t, ValidateLink("", "b", domain.FinishToStart))
}

func TestFindCycles(t *testing.T) {
	links := []*domain.Link{
		link("A", "B", domain.FinishToStart),
		link("B", "A", domain.FinishToStart),
		link("B", "C", domain.FinishToStart),
		link("D", "E", domain.FinishToStart),
		link("E", "F", domain.StartToStart),
		link("F", "D", domain.FinishToFinish),
		link("F", "D", domain.StartToStart),
	}

	cycles := FindCycles(links)

	require.Len(t, cycles, 2)
	assert.Equal(t, []string{"A", "B"}, cycles[0].InterventionIDs)
	assert.Equal(t, []string{"D", "E", "F"}, cycles[1].InterventionIDs)
	assert.Empty(t, FindCycles(links[2:4]))
}

func TestRouteLink(t *testing.T) {
	t.Run("same row forward detours above", func(t *testing.T) {
		pts := RouteLink(domain.FinishToStart, Point{100, 50}, Point{200, 50}, 24)
		require.Len(t, pts, 6)
		assert.Equal(t, Point{115, 50}, pts[1])
		assert.Equal(t, Point{115, 20}, pts[2])
		assert.Equal(t, Point{185, 20}, pts[3])
		assert.Equal(t, Point{185, 50}, pts[4])
	})
	t.Run("same row backward detours below", func(t *testing.T) {
		pts := RouteLink(domain.FinishToStart, Point{200, 50}, Point{100, 50}, 24)
		assert.Equal(t, 80.0, pts[2].Y)
	})
	t.Run("adjacent rows use a single vertical", func(t *testing.T) {
		pts := RouteLink(domain.StartToStart, Point{100, 50}, Point{300, 80}, 24)
		require.Len(t, pts, 5)
		assert.Equal(t, Point{85, 80}, pts[2])
		assert.Equal(t, Point{285, 80}, pts[3])
	})
	t.Run("distant rows turn at clearance", func(t *testing.T) {
		pts := RouteLink(domain.FinishToFinish, Point{100, 50}, Point{300, 200}, 0)
		require.Len(t, pts, 6)
		assert.Equal(t, Point{115, 80}, pts[2])
		assert.Equal(t, Point{315, 80}, pts[3])
	})
}

func TestRollForwardReminders(t *testing.T) {
	today := testutil.MustDate("2024-03-13")
	past := testutil.NewTestIntervention("lot", "past", testutil.WithState(domain.StateReminder), testutil.WithSpan("2024-03-01", "2024-03-04"))
	future := testutil.NewTestIntervention("lot", "future", testutil.WithState(domain.StateReminder), testutil.WithSpan("2024-03-20", "2024-03-20"))
	planned := testutil.NewTestIntervention("lot", "planned", testutil.WithSpan("2024-03-01", "2024-03-01"))
	noEnd := testutil.NewTestIntervention("lot", "no end", testutil.WithState(domain.StateReminder), testutil.WithSpan("2024-03-01", "2024-03-01"))
	noEnd.End = noEnd.End.AddDate(0, 0, -10)

	updates := RollForwardReminders([]*domain.Intervention{past, future, planned, noEnd}, today)

	require.Len(t, updates, 2)
	assert.Equal(t, past.ID, updates[0].ID)
	assert.Equal(t, span("2024-03-13", "2024-03-16"), updates[0].To, "calendar length kept")
	assert.Equal(t, span("2024-03-13", "2024-03-13"), updates[1].To)
	assert.Equal(t, testutil.MustDate("2024-03-01"), past.Start, "input untouched")
}
