package repository

import (
	"context"
	"errors"

	"github.com/alexanderramin/lotplan/internal/domain"
)

var (
	// ErrNotFound is returned by lookups that match no row.
	ErrNotFound = errors.New("not found")
	// ErrLinkExists is returned by LinkRepo.Create when a link with the same
	// source, target and type is already stored.
	ErrLinkExists = errors.New("link already exists")
)

type InterventionRepo interface {
	Create(ctx context.Context, iv *domain.Intervention) error
	GetByID(ctx context.Context, id string) (*domain.Intervention, error)
	List(ctx context.Context) ([]*domain.Intervention, error)
	ListByLot(ctx context.Context, lotID string) ([]*domain.Intervention, error)
	Update(ctx context.Context, iv *domain.Intervention) error
	// UpdateSpan writes only the start and end dates.
	UpdateSpan(ctx context.Context, id string, span domain.Span) error
	SetVisible(ctx context.Context, id string, visible bool) error
	Delete(ctx context.Context, id string) error
}

type LinkRepo interface {
	Create(ctx context.Context, l *domain.Link) error
	GetByID(ctx context.Context, id string) (*domain.Link, error)
	// FindExact looks a link up by its uniqueness triple.
	FindExact(ctx context.Context, sourceID, targetID string, lt domain.LinkType) (*domain.Link, error)
	// List returns every link in insertion order.
	List(ctx context.Context) ([]*domain.Link, error)
	ListOutgoing(ctx context.Context, sourceID string) ([]*domain.Link, error)
	Delete(ctx context.Context, id string) error
}

type LotRepo interface {
	Create(ctx context.Context, l *domain.Lot) error
	GetByID(ctx context.Context, id string) (*domain.Lot, error)
	List(ctx context.Context) ([]*domain.Lot, error)
	ListByProject(ctx context.Context, projectID string) ([]*domain.Lot, error)
	AssignCompany(ctx context.Context, lotID string, companyID *string) error
}

type ProjectRepo interface {
	Create(ctx context.Context, p *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	List(ctx context.Context) ([]*domain.Project, error)
}

type CompanyRepo interface {
	Create(ctx context.Context, c *domain.Company) error
	GetByID(ctx context.Context, id string) (*domain.Company, error)
	List(ctx context.Context) ([]*domain.Company, error)
}
