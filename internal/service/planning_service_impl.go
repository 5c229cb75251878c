package service

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/lotplan/internal/calendar"
	"github.com/alexanderramin/lotplan/internal/domain"
	"github.com/alexanderramin/lotplan/internal/repository"
	"github.com/alexanderramin/lotplan/internal/scheduler"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type planningService struct {
	store repository.Store
	links LinkService
	opts  options
}

func NewPlanningService(store repository.Store, opts ...Option) PlanningService {
	return &planningService{
		store: store,
		links: NewLinkService(store.Links, store.Interventions, opts...),
		opts:  buildOptions(opts),
	}
}

func (s *planningService) Refresh(ctx context.Context) (snap *scheduler.Snapshot, err error) {
	fields := map[string]any{}
	done := track(ctx, s.opts.observer, "refresh", fields)
	defer func() { done(err) }()

	snap, err = s.load(ctx)
	if err != nil {
		return nil, err
	}
	updates := scheduler.RollForwardReminders(snap.Interventions, s.opts.today())
	if len(updates) == 0 {
		return snap, nil
	}
	fields["reminders_rolled"] = len(updates)

	if err := s.persistReminders(ctx, updates); err != nil {
		return nil, fmt.Errorf("rolling reminders forward: %w", err)
	}
	spans := make(map[string]domain.Span, len(updates))
	for _, u := range updates {
		spans[u.ID] = u.To
	}
	for _, iv := range snap.Interventions {
		if sp, ok := spans[iv.ID]; ok {
			iv.SetSpan(sp)
		}
	}
	return scheduler.NewSnapshot(snap.Interventions, snap.Links, snap.Lots, snap.Projects, snap.Companies), nil
}

func (s *planningService) Snapshot(ctx context.Context) (*scheduler.Snapshot, error) {
	return s.load(ctx)
}

func (s *planningService) persistReminders(ctx context.Context, updates []scheduler.SpanUpdate) error {
	write := func(ctx context.Context, repo repository.InterventionRepo) error {
		for _, u := range updates {
			if err := repo.UpdateSpan(ctx, u.ID, u.To); err != nil {
				return err
			}
		}
		return nil
	}
	if s.opts.tx == nil {
		return write(ctx, s.store.Interventions)
	}
	return s.opts.tx.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		return write(ctx, tx.Interventions)
	})
}

func (s *planningService) MoveIntervention(ctx context.Context, id string, grabbedDay, droppedDay time.Time) (*CascadeResult, error) {
	snap, iv, err := s.loadIntervention(ctx, id)
	if err != nil {
		return nil, err
	}
	var drag scheduler.DragController
	if err := drag.Begin(iv, grabbedDay); err != nil {
		return nil, err
	}
	c, err := drag.Drop(droppedDay)
	if err != nil {
		return nil, err
	}
	return s.commit(ctx, "move-intervention", snap, c)
}

func (s *planningService) ResizeIntervention(ctx context.Context, id string, edge scheduler.Edge, day time.Time) (*CascadeResult, error) {
	snap, iv, err := s.loadIntervention(ctx, id)
	if err != nil {
		return nil, err
	}
	var resize scheduler.ResizeController
	if err := resize.Begin(iv, edge); err != nil {
		return nil, err
	}
	c, err := resize.Release(day)
	if err != nil {
		return nil, err
	}
	return s.commit(ctx, "resize-intervention", snap, c)
}

func (s *planningService) CommitSpan(ctx context.Context, id string, span domain.Span) (*CascadeResult, error) {
	snap, iv, err := s.loadIntervention(ctx, id)
	if err != nil {
		return nil, err
	}
	if span.End.Before(span.Start) {
		return nil, fmt.Errorf("end %s is before start %s", span.End.Format("2006-01-02"), span.Start.Format("2006-01-02"))
	}
	span = snapToBusinessDays(span)
	c := scheduler.Commit{
		InterventionID: id,
		Original:       iv.Span(),
		Span:           span,
		Changed:        !iv.HasValidDates() || !span.Equal(iv.Span()),
	}
	return s.commit(ctx, "commit-span", snap, c)
}

// snapToBusinessDays moves a weekend start to the following Monday and a
// weekend end to the preceding Friday, never before the start.
func snapToBusinessDays(span domain.Span) domain.Span {
	start := calendar.NextBusinessDay(span.Start)
	end := calendar.PreviousBusinessDay(span.End)
	if end.Before(start) {
		end = start
	}
	return domain.NewSpan(start, end)
}

// commit plans the cascade for c, writes it and reloads. Individual write
// failures are reported in the result, never as an error.
func (s *planningService) commit(ctx context.Context, name string, snap *scheduler.Snapshot, c scheduler.Commit) (result *CascadeResult, err error) {
	fields := map[string]any{"seed_id": c.InterventionID}
	done := track(ctx, s.opts.observer, name, fields)
	defer func() { done(err) }()

	result = &CascadeResult{Snapshot: snap}
	if !c.Changed || c.Abandoned {
		fields["changed"] = false
		return result, nil
	}
	plan := scheduler.PlanCascade(snap, c.InterventionID, c.Span)
	result.Plan = plan
	if plan.Empty() {
		fields["changed"] = false
		return result, nil
	}
	result.Changed = true

	started := time.Now()
	result.Failed = s.persistSpans(ctx, plan.Updates)
	result.Updated = len(plan.Updates) - len(result.Failed)
	s.opts.recorder.CascadeCompleted(result.Updated, len(result.Failed), time.Since(started))

	fields["updated"] = result.Updated
	fields["failed"] = len(result.Failed)
	fields["skipped"] = len(plan.Skipped)

	s.opts.notifier.InterventionChanged()
	result.Snapshot, err = s.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("reloading after cascade: %w", err)
	}
	return result, nil
}

// persistSpans writes every update concurrently. A failed write is logged and
// returned; the others still run.
func (s *planningService) persistSpans(ctx context.Context, updates []scheduler.SpanUpdate) []FailedUpdate {
	errs := make([]error, len(updates))
	var g errgroup.Group
	g.SetLimit(s.opts.maxConcurrency)
	for i, u := range updates {
		g.Go(func() error {
			if err := s.store.Interventions.UpdateSpan(ctx, u.ID, u.To); err != nil {
				errs[i] = err
				s.opts.observer.ObserveUseCase(ctx, UseCaseEvent{
					Name:   "cascade-update",
					Err:    err,
					Fields: map[string]any{"intervention_id": u.ID, "span": u.To.String()},
				})
			}
			return nil
		})
	}
	_ = g.Wait()

	var failed []FailedUpdate
	for i, err := range errs {
		if err != nil {
			failed = append(failed, FailedUpdate{ID: updates[i].ID, Err: err})
		}
	}
	return failed
}

func (s *planningService) LinkTasks(ctx context.Context, sourceID, targetID string, lt domain.LinkType) (*LinkResult, error) {
	return s.links.Create(ctx, sourceID, targetID, lt)
}

func (s *planningService) UnlinkTasks(ctx context.Context, linkID string) error {
	return s.links.Delete(ctx, linkID)
}

func (s *planningService) CheckConflicts(ctx context.Context, cand scheduler.Candidate) (scheduler.Conflicts, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return scheduler.Conflicts{}, err
	}
	conflicts := scheduler.DetectConflicts(snap, cand)
	s.opts.recorder.ConflictsDetected(len(conflicts.Conflicts))
	return conflicts, nil
}

func (s *planningService) SaveIntervention(ctx context.Context, iv *domain.Intervention, confirmed bool) (conflicts scheduler.Conflicts, err error) {
	fields := map[string]any{"intervention_id": iv.ID, "lot_id": iv.LotID}
	done := track(ctx, s.opts.observer, "save-intervention", fields)
	defer func() { done(err) }()

	if err := validateIntervention(iv); err != nil {
		return conflicts, err
	}
	if _, err := s.store.Lots.GetByID(ctx, iv.LotID); err != nil {
		return conflicts, fmt.Errorf("loading lot: %w", err)
	}

	conflicts, err = s.CheckConflicts(ctx, scheduler.Candidate{
		InterventionID: iv.ID,
		LotID:          iv.LotID,
		Span:           iv.Span(),
		State:          iv.State,
	})
	if err != nil {
		return conflicts, err
	}
	fields["conflicts"] = len(conflicts.Conflicts)
	if !conflicts.Empty() && !confirmed {
		return conflicts, ErrConflictsNotConfirmed
	}

	now := time.Now().UTC()
	iv.UpdatedAt = now
	if iv.ID == "" {
		iv.ID = uuid.New().String()
		iv.CreatedAt = now
		iv.Visible = true
		fields["intervention_id"] = iv.ID
		err = s.store.Interventions.Create(ctx, iv)
	} else {
		err = s.store.Interventions.Update(ctx, iv)
	}
	if err != nil {
		return conflicts, fmt.Errorf("saving intervention: %w", err)
	}
	s.opts.notifier.InterventionChanged()
	return conflicts, nil
}

func (s *planningService) LinkCycles(ctx context.Context) ([]scheduler.LinkCycle, error) {
	links, err := s.store.Links.List(ctx)
	if err != nil {
		return nil, err
	}
	return scheduler.FindCycles(links), nil
}

func validateIntervention(iv *domain.Intervention) error {
	if iv.Name == "" {
		return fmt.Errorf("intervention name is required")
	}
	if iv.LotID == "" {
		return fmt.Errorf("intervention lot is required")
	}
	if iv.State == "" {
		iv.State = domain.StatePlanned
	}
	if !iv.State.IsValid() {
		return fmt.Errorf("unknown state %q", iv.State)
	}
	if iv.Start.IsZero() || iv.End.IsZero() {
		return fmt.Errorf("start and end dates are required")
	}
	if iv.End.Before(iv.Start) {
		return fmt.Errorf("end date is before start date")
	}
	if iv.StartTime == "" {
		iv.StartTime = domain.DefaultStartTime
	}
	if iv.EndTime == "" {
		iv.EndTime = domain.DefaultEndTime
	}
	return nil
}

func (s *planningService) loadIntervention(ctx context.Context, id string) (*scheduler.Snapshot, *domain.Intervention, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, nil, err
	}
	iv, ok := snap.Intervention(id)
	if !ok {
		return nil, nil, fmt.Errorf("intervention %s: %w", id, repository.ErrNotFound)
	}
	return snap, iv, nil
}

// load fetches every collection concurrently and builds a snapshot.
func (s *planningService) load(ctx context.Context) (*scheduler.Snapshot, error) {
	var (
		interventions []*domain.Intervention
		links         []*domain.Link
		lots          []*domain.Lot
		projects      []*domain.Project
		companies     []*domain.Company
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		interventions, err = s.store.Interventions.List(gctx)
		return wrap("loading interventions", err)
	})
	g.Go(func() (err error) {
		links, err = s.store.Links.List(gctx)
		return wrap("loading links", err)
	})
	g.Go(func() (err error) {
		lots, err = s.store.Lots.List(gctx)
		return wrap("loading lots", err)
	})
	g.Go(func() (err error) {
		projects, err = s.store.Projects.List(gctx)
		return wrap("loading projects", err)
	})
	g.Go(func() (err error) {
		companies, err = s.store.Companies.List(gctx)
		return wrap("loading companies", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scheduler.NewSnapshot(interventions, links, lots, projects, companies), nil
}

func wrap(msg string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}
