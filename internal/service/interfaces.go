package service

import (
	"context"
	"errors"
	"time"

	"github.com/alexanderramin/lotplan/internal/domain"
	"github.com/alexanderramin/lotplan/internal/scheduler"
)

var (
	// ErrNotConfirmed is returned when the user declines a destructive action.
	ErrNotConfirmed = errors.New("action not confirmed")
	// ErrConflictsNotConfirmed is returned by SaveIntervention when the
	// intervention double-books a company and the caller did not confirm.
	ErrConflictsNotConfirmed = errors.New("company conflicts not confirmed")
)

// PlanningService is the command interface of the planning engine. Every
// mutating command persists its changes, notifies the host and returns a
// freshly loaded snapshot.
type PlanningService interface {
	// Refresh reloads everything, rolling past-dated reminders forward first.
	Refresh(ctx context.Context) (*scheduler.Snapshot, error)
	// Snapshot reloads everything without writing.
	Snapshot(ctx context.Context) (*scheduler.Snapshot, error)
	MoveIntervention(ctx context.Context, id string, grabbedDay, droppedDay time.Time) (*CascadeResult, error)
	ResizeIntervention(ctx context.Context, id string, edge scheduler.Edge, day time.Time) (*CascadeResult, error)
	// CommitSpan sets a new span on id and cascades it through the links.
	CommitSpan(ctx context.Context, id string, span domain.Span) (*CascadeResult, error)
	LinkTasks(ctx context.Context, sourceID, targetID string, lt domain.LinkType) (*LinkResult, error)
	UnlinkTasks(ctx context.Context, linkID string) error
	CheckConflicts(ctx context.Context, cand scheduler.Candidate) (scheduler.Conflicts, error)
	// SaveIntervention creates or updates iv. When it conflicts with another
	// project's booking of the same company, nothing is written unless
	// confirmed is true; the conflicts are returned either way.
	SaveIntervention(ctx context.Context, iv *domain.Intervention, confirmed bool) (scheduler.Conflicts, error)
	LinkCycles(ctx context.Context) ([]scheduler.LinkCycle, error)
}

type LinkService interface {
	Create(ctx context.Context, sourceID, targetID string, lt domain.LinkType) (*LinkResult, error)
	// Delete asks the Confirmer first and returns ErrNotConfirmed on refusal.
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*domain.Link, error)
	Outgoing(ctx context.Context, interventionID string) ([]*domain.Link, error)
	Incoming(ctx context.Context, interventionID string) ([]*domain.Link, error)
}

// CatalogService manages the entities around the schedule.
type CatalogService interface {
	CreateProject(ctx context.Context, p *domain.Project) error
	CreateLot(ctx context.Context, l *domain.Lot) error
	CreateCompany(ctx context.Context, c *domain.Company) error
	AssignCompany(ctx context.Context, lotID string, companyID *string) error
	Projects(ctx context.Context) ([]*domain.Project, error)
	Lots(ctx context.Context) ([]*domain.Lot, error)
	Companies(ctx context.Context) ([]*domain.Company, error)
	Intervention(ctx context.Context, id string) (*domain.Intervention, error)
	SetVisible(ctx context.Context, interventionID string, visible bool) error
	DeleteIntervention(ctx context.Context, id string) error
}

// CascadeResult reports a committed move or resize.
type CascadeResult struct {
	Plan *scheduler.Plan
	// Changed is false for gestures that ended on the original span.
	Changed  bool
	Updated  int
	Failed   []FailedUpdate
	Snapshot *scheduler.Snapshot
}

type FailedUpdate struct {
	ID  string
	Err error
}

// LinkResult is the outcome of LinkTasks. Resolved is set when an identical
// link already existed and was returned instead of a new one.
type LinkResult struct {
	Link     *domain.Link
	Resolved bool
}

// Confirmer asks the user to approve a destructive or risky action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

var (
	AlwaysConfirm Confirmer = ConfirmFunc(func(context.Context, string) (bool, error) { return true, nil })
	NeverConfirm  Confirmer = ConfirmFunc(func(context.Context, string) (bool, error) { return false, nil })
)
