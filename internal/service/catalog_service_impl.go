package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/lotplan/internal/domain"
	"github.com/alexanderramin/lotplan/internal/repository"
	"github.com/google/uuid"
)

type catalogService struct {
	store repository.Store
	opts  options
}

func NewCatalogService(store repository.Store, opts ...Option) CatalogService {
	return &catalogService{store: store, opts: buildOptions(opts)}
}

func (s *catalogService) CreateProject(ctx context.Context, p *domain.Project) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return fmt.Errorf("project name is required")
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	p.CreatedAt = time.Now().UTC()
	return s.store.Projects.Create(ctx, p)
}

func (s *catalogService) CreateLot(ctx context.Context, l *domain.Lot) error {
	l.Name = strings.TrimSpace(l.Name)
	if l.Name == "" {
		return fmt.Errorf("lot name is required")
	}
	if _, err := s.store.Projects.GetByID(ctx, l.ProjectID); err != nil {
		return fmt.Errorf("loading project: %w", err)
	}
	if l.HasCompany() {
		if _, err := s.store.Companies.GetByID(ctx, *l.CompanyID); err != nil {
			return fmt.Errorf("loading company: %w", err)
		}
	}
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	l.CreatedAt = time.Now().UTC()
	return s.store.Lots.Create(ctx, l)
}

func (s *catalogService) CreateCompany(ctx context.Context, c *domain.Company) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return fmt.Errorf("company name is required")
	}
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	c.CreatedAt = time.Now().UTC()
	return s.store.Companies.Create(ctx, c)
}

// AssignCompany sets or, with a nil companyID, clears the company of a lot.
func (s *catalogService) AssignCompany(ctx context.Context, lotID string, companyID *string) (err error) {
	done := track(ctx, s.opts.observer, "assign-company", map[string]any{"lot_id": lotID})
	defer func() { done(err) }()

	if companyID != nil && *companyID == "" {
		companyID = nil
	}
	if companyID != nil {
		if _, err := s.store.Companies.GetByID(ctx, *companyID); err != nil {
			return fmt.Errorf("loading company: %w", err)
		}
	}
	if err := s.store.Lots.AssignCompany(ctx, lotID, companyID); err != nil {
		return err
	}
	s.opts.notifier.InterventionChanged()
	return nil
}

func (s *catalogService) Projects(ctx context.Context) ([]*domain.Project, error) {
	return s.store.Projects.List(ctx)
}

func (s *catalogService) Lots(ctx context.Context) ([]*domain.Lot, error) {
	return s.store.Lots.List(ctx)
}

func (s *catalogService) Companies(ctx context.Context) ([]*domain.Company, error) {
	return s.store.Companies.List(ctx)
}

func (s *catalogService) Intervention(ctx context.Context, id string) (*domain.Intervention, error) {
	return s.store.Interventions.GetByID(ctx, id)
}

func (s *catalogService) SetVisible(ctx context.Context, interventionID string, visible bool) error {
	if err := s.store.Interventions.SetVisible(ctx, interventionID, visible); err != nil {
		return err
	}
	s.opts.notifier.InterventionChanged()
	return nil
}

// DeleteIntervention removes the intervention together with every link that
// touches it.
func (s *catalogService) DeleteIntervention(ctx context.Context, id string) (err error) {
	done := track(ctx, s.opts.observer, "delete-intervention", map[string]any{"intervention_id": id})
	defer func() { done(err) }()

	iv, err := s.store.Interventions.GetByID(ctx, id)
	if err != nil {
		return err
	}
	ok, err := s.opts.confirmer.Confirm(ctx, fmt.Sprintf("Delete intervention %q?", iv.Name))
	if err != nil {
		return fmt.Errorf("confirming deletion: %w", err)
	}
	if !ok {
		return ErrNotConfirmed
	}
	if err := s.store.Interventions.Delete(ctx, id); err != nil {
		return err
	}
	s.opts.notifier.InterventionChanged()
	return nil
}
