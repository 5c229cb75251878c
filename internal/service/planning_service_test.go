package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alexanderramin/lotplan/internal/calendar"
	"github.com/alexanderramin/lotplan/internal/domain"
	"github.com/alexanderramin/lotplan/internal/repository"
	"github.com/alexanderramin/lotplan/internal/scheduler"
	"github.com/alexanderramin/lotplan/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingSpans fails UpdateSpan for the listed intervention IDs.
type failingSpans struct {
	repository.InterventionRepo
	fail map[string]bool
}

func (f *failingSpans) UpdateSpan(ctx context.Context, id string, span domain.Span) error {
	if f.fail[id] {
		return errors.New("injected write failure")
	}
	return f.InterventionRepo.UpdateSpan(ctx, id, span)
}

type countingRecorder struct {
	mu        sync.Mutex
	updated   int
	failed    int
	cascades  int
	links     []scheduler.LinkChangeKind
	conflicts []int
}

func (r *countingRecorder) CascadeCompleted(updated, failed int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cascades++
	r.updated += updated
	r.failed += failed
}

func (r *countingRecorder) LinkChanged(kind scheduler.LinkChangeKind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.links = append(r.links, kind)
}

func (r *countingRecorder) ConflictsDetected(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conflicts = append(r.conflicts, n)
}

type planningFixture struct {
	store   repository.Store
	project *domain.Project
	lot     *domain.Lot
	company *domain.Company
}

func newPlanningFixture(t *testing.T) *planningFixture {
	t.Helper()
	ctx := context.Background()
	database := testutil.NewTestDB(t)
	store := repository.NewSQLiteStore(database)

	company := testutil.NewTestCompany("Plomberie Martin")
	require.NoError(t, store.Companies.Create(ctx, company))
	proj := testutil.NewTestProject("Maison Dupont")
	require.NoError(t, store.Projects.Create(ctx, proj))
	lot := testutil.NewTestLot(proj.ID, "Plomberie", testutil.WithCompany(company.ID))
	require.NoError(t, store.Lots.Create(ctx, lot))

	return &planningFixture{store: store, project: proj, lot: lot, company: company}
}

func (f *planningFixture) addIntervention(t *testing.T, name, start, end string, opts ...testutil.InterventionOption) *domain.Intervention {
	t.Helper()
	opts = append([]testutil.InterventionOption{testutil.WithSpan(start, end)}, opts...)
	iv := testutil.NewTestIntervention(f.lot.ID, name, opts...)
	require.NoError(t, f.store.Interventions.Create(context.Background(), iv))
	return iv
}

func (f *planningFixture) addLink(t *testing.T, src, dst *domain.Intervention, lt domain.LinkType) {
	t.Helper()
	require.NoError(t, f.store.Links.Create(context.Background(), testutil.NewTestLink(src.ID, dst.ID, lt)))
}

func (f *planningFixture) span(t *testing.T, id string) domain.Span {
	t.Helper()
	iv, err := f.store.Interventions.GetByID(context.Background(), id)
	require.NoError(t, err)
	return iv.Span()
}

func TestMoveIntervention_CascadesThroughLinks(t *testing.T) {
	f := newPlanningFixture(t)
	ctx := context.Background()
	a := f.addIntervention(t, "Gros oeuvre", "2024-01-08", "2024-01-10")
	b := f.addIntervention(t, "Plomberie", "2024-01-11", "2024-01-12")
	c := f.addIntervention(t, "Carrelage", "2024-01-15", "2024-01-15")
	f.addLink(t, a, b, domain.FinishToStart)
	f.addLink(t, b, c, domain.FinishToStart)

	notifier := &RecordingNotifier{}
	rec := &countingRecorder{}
	svc := NewPlanningService(f.store, WithNotifier(notifier), WithRecorder(rec))

	// Grab Monday, drop on the following Monday.
	res, err := svc.MoveIntervention(ctx, a.ID, calendar.Date(2024, 1, 8), calendar.Date(2024, 1, 15))
	require.NoError(t, err)
	require.True(t, res.Changed)
	assert.Equal(t, 3, res.Updated)
	assert.Empty(t, res.Failed)

	assert.Equal(t, domain.NewSpan(calendar.Date(2024, 1, 15), calendar.Date(2024, 1, 17)), f.span(t, a.ID))
	assert.Equal(t, domain.NewSpan(calendar.Date(2024, 1, 18), calendar.Date(2024, 1, 19)), f.span(t, b.ID))
	assert.Equal(t, domain.NewSpan(calendar.Date(2024, 1, 22), calendar.Date(2024, 1, 22)), f.span(t, c.ID))

	assert.Equal(t, 1, notifier.InterventionChanges())
	assert.Equal(t, 1, rec.cascades)
	assert.Equal(t, 3, rec.updated)

	moved, ok := res.Snapshot.Intervention(c.ID)
	require.True(t, ok)
	assert.Equal(t, calendar.Date(2024, 1, 22), moved.Start, "result carries the reloaded snapshot")
}

func TestMoveIntervention_DropOnSameDayIsNoop(t *testing.T) {
	f := newPlanningFixture(t)
	ctx := context.Background()
	a := f.addIntervention(t, "Gros oeuvre", "2024-01-08", "2024-01-10")

	notifier := &RecordingNotifier{}
	svc := NewPlanningService(f.store, WithNotifier(notifier))

	res, err := svc.MoveIntervention(ctx, a.ID, calendar.Date(2024, 1, 9), calendar.Date(2024, 1, 9))
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Nil(t, res.Plan)
	assert.Equal(t, 0, notifier.InterventionChanges())
}

func TestMoveIntervention_UnknownIntervention(t *testing.T) {
	f := newPlanningFixture(t)
	svc := NewPlanningService(f.store)

	_, err := svc.MoveIntervention(context.Background(), "missing", calendar.Date(2024, 1, 8), calendar.Date(2024, 1, 9))
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestMoveIntervention_InvalidDatesRefused(t *testing.T) {
	f := newPlanningFixture(t)
	a := f.addIntervention(t, "Cassé", "2024-01-08", "2024-01-08", testutil.WithRawDates("bad", "worse"))
	svc := NewPlanningService(f.store)

	_, err := svc.MoveIntervention(context.Background(), a.ID, calendar.Date(2024, 1, 8), calendar.Date(2024, 1, 9))
	require.ErrorIs(t, err, scheduler.ErrInvalidDates)
}

func TestCascade_PartialFailureIsReported(t *testing.T) {
	f := newPlanningFixture(t)
	ctx := context.Background()
	a := f.addIntervention(t, "A", "2024-01-08", "2024-01-08")
	b := f.addIntervention(t, "B", "2024-01-09", "2024-01-09")
	c := f.addIntervention(t, "C", "2024-01-09", "2024-01-09")
	f.addLink(t, a, b, domain.FinishToStart)
	f.addLink(t, a, c, domain.FinishToStart)

	var logs bytes.Buffer
	store := f.store
	store.Interventions = &failingSpans{InterventionRepo: f.store.Interventions, fail: map[string]bool{b.ID: true}}
	rec := &countingRecorder{}
	notifier := &RecordingNotifier{}
	svc := NewPlanningService(store,
		WithRecorder(rec),
		WithNotifier(notifier),
		WithObserver(NewLogUseCaseObserver(&logs, slog.LevelInfo)),
		WithMaxConcurrency(2),
	)

	res, err := svc.CommitSpan(ctx, a.ID, domain.NewSpan(calendar.Date(2024, 1, 10), calendar.Date(2024, 1, 10)))
	require.NoError(t, err, "individual write failures do not fail the command")
	assert.Equal(t, 2, res.Updated)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, b.ID, res.Failed[0].ID)

	assert.Equal(t, calendar.Date(2024, 1, 9), f.span(t, b.ID).Start, "failed write leaves the row alone")
	assert.Equal(t, calendar.Date(2024, 1, 11), f.span(t, c.ID).Start)

	assert.Equal(t, 1, rec.failed)
	assert.Equal(t, 1, notifier.InterventionChanges(), "host is notified even after a partial failure")
	assert.Contains(t, logs.String(), "use_case=cascade-update")
	assert.Contains(t, logs.String(), "injected write failure")
}

func TestCommitSpan_RejectsReversedSpan(t *testing.T) {
	f := newPlanningFixture(t)
	a := f.addIntervention(t, "A", "2024-01-08", "2024-01-08")
	svc := NewPlanningService(f.store)

	_, err := svc.CommitSpan(context.Background(), a.ID, domain.Span{Start: calendar.Date(2024, 1, 10), End: calendar.Date(2024, 1, 9)})
	require.Error(t, err)
}

func TestCommitSpan_SnapsWeekendEdges(t *testing.T) {
	f := newPlanningFixture(t)
	a := f.addIntervention(t, "A", "2024-01-08", "2024-01-08")
	b := f.addIntervention(t, "B", "2024-01-22", "2024-01-22")
	svc := NewPlanningService(f.store)
	ctx := context.Background()

	// Saturday to Sunday a week later.
	_, err := svc.CommitSpan(ctx, a.ID, domain.NewSpan(calendar.Date(2024, 1, 13), calendar.Date(2024, 1, 21)))
	require.NoError(t, err)
	assert.Equal(t, domain.NewSpan(calendar.Date(2024, 1, 15), calendar.Date(2024, 1, 19)), f.span(t, a.ID))

	// A weekend-only span collapses onto the Monday.
	_, err = svc.CommitSpan(ctx, b.ID, domain.NewSpan(calendar.Date(2024, 1, 27), calendar.Date(2024, 1, 28)))
	require.NoError(t, err)
	assert.Equal(t, domain.NewSpan(calendar.Date(2024, 1, 29), calendar.Date(2024, 1, 29)), f.span(t, b.ID))
}

func TestResizeIntervention_ExtendsRightEdge(t *testing.T) {
	f := newPlanningFixture(t)
	ctx := context.Background()
	a := f.addIntervention(t, "A", "2024-01-08", "2024-01-09")
	b := f.addIntervention(t, "B", "2024-01-10", "2024-01-10")
	f.addLink(t, a, b, domain.FinishToStart)

	svc := NewPlanningService(f.store)
	res, err := svc.ResizeIntervention(ctx, a.ID, scheduler.EdgeRight, calendar.Date(2024, 1, 13))
	require.NoError(t, err)
	require.True(t, res.Changed)

	// Saturday past the end snaps forward to Monday.
	assert.Equal(t, domain.NewSpan(calendar.Date(2024, 1, 8), calendar.Date(2024, 1, 15)), f.span(t, a.ID))
	assert.Equal(t, calendar.Date(2024, 1, 16), f.span(t, b.ID).Start)
}

func TestRefresh_RollsRemindersForward(t *testing.T) {
	f := newPlanningFixture(t)
	ctx := context.Background()
	reminder := f.addIntervention(t, "Relancer", "2024-01-02", "2024-01-04", testutil.WithState(domain.StateReminder))
	planned := f.addIntervention(t, "Pose", "2024-01-02", "2024-01-04")

	today := calendar.Date(2024, 1, 10)
	svc := NewPlanningService(f.store, WithToday(func() time.Time { return today }))

	snap, err := svc.Refresh(ctx)
	require.NoError(t, err)

	assert.Equal(t, domain.NewSpan(today, calendar.Date(2024, 1, 12)), f.span(t, reminder.ID))
	assert.Equal(t, calendar.Date(2024, 1, 2), f.span(t, planned.ID).Start)

	got, ok := snap.Intervention(reminder.ID)
	require.True(t, ok)
	assert.Equal(t, today, got.Start)
}

func TestRefresh_RollsRemindersInsideTransaction(t *testing.T) {
	ctx := context.Background()
	database := testutil.NewTestDB(t)
	store := repository.NewSQLiteStore(database)
	proj := testutil.NewTestProject("P")
	require.NoError(t, store.Projects.Create(ctx, proj))
	lot := testutil.NewTestLot(proj.ID, "L")
	require.NoError(t, store.Lots.Create(ctx, lot))
	first := testutil.NewTestIntervention(lot.ID, "R1", testutil.WithSpan("2024-01-02", "2024-01-02"), testutil.WithState(domain.StateReminder))
	second := testutil.NewTestIntervention(lot.ID, "R2", testutil.WithSpan("2024-01-03", "2024-01-03"), testutil.WithState(domain.StateReminder))
	require.NoError(t, store.Interventions.Create(ctx, first))
	require.NoError(t, store.Interventions.Create(ctx, second))

	failing := &testutil.FailingUoW{DB: database, FailWhen: testutil.FailOnArg(second.ID), Err: errors.New("disk full")}
	svc := NewPlanningService(store,
		WithTransactor(repository.NewSQLiteTransactor(failing)),
		WithToday(func() time.Time { return calendar.Date(2024, 1, 10) }),
	)

	_, err := svc.Refresh(ctx)
	require.ErrorContains(t, err, "disk full")

	got, err := store.Interventions.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, calendar.Date(2024, 1, 2), got.Start, "the whole roll-forward is rolled back")
}

func TestSaveIntervention_RequiresConfirmationOnConflict(t *testing.T) {
	f := newPlanningFixture(t)
	ctx := context.Background()

	other := testutil.NewTestProject("Immeuble Gare")
	require.NoError(t, f.store.Projects.Create(ctx, other))
	otherLot := testutil.NewTestLot(other.ID, "Plomberie", testutil.WithCompany(f.company.ID))
	require.NoError(t, f.store.Lots.Create(ctx, otherLot))
	booked := testutil.NewTestIntervention(otherLot.ID, "Colonne", testutil.WithSpan("2024-01-09", "2024-01-11"))
	require.NoError(t, f.store.Interventions.Create(ctx, booked))

	rec := &countingRecorder{}
	svc := NewPlanningService(f.store, WithRecorder(rec))
	iv := &domain.Intervention{
		Name:  "Raccordement",
		LotID: f.lot.ID,
		Start: calendar.Date(2024, 1, 11),
		End:   calendar.Date(2024, 1, 12),
		State: domain.StatePlanned,
	}

	conflicts, err := svc.SaveIntervention(ctx, iv, false)
	require.ErrorIs(t, err, ErrConflictsNotConfirmed)
	require.Len(t, conflicts.Conflicts, 1)
	assert.Equal(t, booked.ID, conflicts.Conflicts[0].Intervention.ID)
	assert.Empty(t, iv.ID, "nothing written without confirmation")

	all, err := f.store.Interventions.ListByLot(ctx, f.lot.ID)
	require.NoError(t, err)
	assert.Empty(t, all)

	_, err = svc.SaveIntervention(ctx, iv, true)
	require.NoError(t, err)
	require.NotEmpty(t, iv.ID)
	saved, err := f.store.Interventions.GetByID(ctx, iv.ID)
	require.NoError(t, err)
	assert.True(t, saved.Visible)
	assert.Equal(t, domain.DefaultStartTime, saved.StartTime)
	assert.Equal(t, []int{1, 1}, rec.conflicts)
}

func TestSaveIntervention_Validation(t *testing.T) {
	f := newPlanningFixture(t)
	svc := NewPlanningService(f.store)
	ctx := context.Background()

	tests := []struct {
		name string
		iv   domain.Intervention
	}{
		{"no name", domain.Intervention{LotID: f.lot.ID, Start: calendar.Date(2024, 1, 8), End: calendar.Date(2024, 1, 8)}},
		{"no lot", domain.Intervention{Name: "x", Start: calendar.Date(2024, 1, 8), End: calendar.Date(2024, 1, 8)}},
		{"unknown lot", domain.Intervention{Name: "x", LotID: "nope", Start: calendar.Date(2024, 1, 8), End: calendar.Date(2024, 1, 8)}},
		{"reversed", domain.Intervention{Name: "x", LotID: f.lot.ID, Start: calendar.Date(2024, 1, 9), End: calendar.Date(2024, 1, 8)}},
		{"bad state", domain.Intervention{Name: "x", LotID: f.lot.ID, State: "paused", Start: calendar.Date(2024, 1, 8), End: calendar.Date(2024, 1, 8)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			iv := tt.iv
			_, err := svc.SaveIntervention(ctx, &iv, true)
			require.Error(t, err)
		})
	}
}

func TestLinkTasks_IsIdempotent(t *testing.T) {
	f := newPlanningFixture(t)
	ctx := context.Background()
	a := f.addIntervention(t, "A", "2024-01-08", "2024-01-08")
	b := f.addIntervention(t, "B", "2024-01-09", "2024-01-09")

	notifier := &RecordingNotifier{}
	svc := NewPlanningService(f.store, WithNotifier(notifier))

	first, err := svc.LinkTasks(ctx, a.ID, b.ID, domain.FinishToStart)
	require.NoError(t, err)
	assert.False(t, first.Resolved)

	second, err := svc.LinkTasks(ctx, a.ID, b.ID, domain.FinishToStart)
	require.NoError(t, err)
	assert.True(t, second.Resolved)
	assert.Equal(t, first.Link.ID, second.Link.ID)

	links, err := f.store.Links.List(ctx)
	require.NoError(t, err)
	assert.Len(t, links, 1)

	changes := notifier.LinkChanges()
	require.Len(t, changes, 2)
	assert.Equal(t, scheduler.LinkAdded, changes[0].Kind)
	assert.Equal(t, scheduler.LinkConflictResolved, changes[1].Kind)
}

func TestLinkCycles(t *testing.T) {
	f := newPlanningFixture(t)
	a := f.addIntervention(t, "A", "2024-01-08", "2024-01-08")
	b := f.addIntervention(t, "B", "2024-01-09", "2024-01-09")
	f.addLink(t, a, b, domain.FinishToStart)
	f.addLink(t, b, a, domain.StartToStart)

	cycles, err := NewPlanningService(f.store).LinkCycles(context.Background())
	require.NoError(t, err)
	require.Len(t, cycles, 1)
	assert.ElementsMatch(t, []string{a.ID, b.ID}, cycles[0].InterventionIDs)
}
