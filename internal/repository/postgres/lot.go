package postgres

import (
	"context"
	"fmt"

	"github.com/alexanderramin/lotplan/internal/domain"
	"github.com/jackc/pgx/v5"
)

// LotRepo implements repository.LotRepo.
type LotRepo struct {
	db querier
}

const lotColumns = `id, project_id, name, company_id, color, display_order, created_at`

func (r *LotRepo) Create(ctx context.Context, l *domain.Lot) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO lots (`+lotColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		l.ID, l.ProjectID, l.Name, l.CompanyID, l.Color, l.DisplayOrder, l.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting lot: %w", err)
	}
	return nil
}

func (r *LotRepo) GetByID(ctx context.Context, id string) (*domain.Lot, error) {
	l, err := scanLot(r.db.QueryRow(ctx, `SELECT `+lotColumns+` FROM lots WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("lot", id)
		}
		return nil, err
	}
	return l, nil
}

func (r *LotRepo) List(ctx context.Context) ([]*domain.Lot, error) {
	return r.list(ctx, `SELECT `+lotColumns+` FROM lots ORDER BY project_id, display_order, name`)
}

func (r *LotRepo) ListByProject(ctx context.Context, projectID string) ([]*domain.Lot, error) {
	return r.list(ctx, `SELECT `+lotColumns+` FROM lots WHERE project_id = $1 ORDER BY display_order, name`, projectID)
}

func (r *LotRepo) AssignCompany(ctx context.Context, lotID string, companyID *string) error {
	if companyID != nil && *companyID == "" {
		companyID = nil
	}
	tag, err := r.db.Exec(ctx, `UPDATE lots SET company_id = $1 WHERE id = $2`, companyID, lotID)
	if err != nil {
		return fmt.Errorf("assigning company to lot: %w", err)
	}
	return expectOne(tag, "lot", lotID)
}

func (r *LotRepo) list(ctx context.Context, query string, args ...any) ([]*domain.Lot, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing lots: %w", err)
	}
	defer rows.Close()

	lots := []*domain.Lot{}
	for rows.Next() {
		l, err := scanLot(rows)
		if err != nil {
			return nil, err
		}
		lots = append(lots, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating lots: %w", err)
	}
	return lots, nil
}

func scanLot(row pgx.Row) (*domain.Lot, error) {
	var l domain.Lot
	if err := row.Scan(&l.ID, &l.ProjectID, &l.Name, &l.CompanyID, &l.Color, &l.DisplayOrder, &l.CreatedAt); err != nil {
		if isNoRows(err) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning lot: %w", err)
	}
	return &l, nil
}

// ProjectRepo implements repository.ProjectRepo.
type ProjectRepo struct {
	db querier
}

func (r *ProjectRepo) Create(ctx context.Context, p *domain.Project) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO projects (id, name, owner_id, color, created_at) VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.Name, p.OwnerID, p.Color, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting project: %w", err)
	}
	return nil
}

func (r *ProjectRepo) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	var p domain.Project
	err := r.db.QueryRow(ctx, `SELECT id, name, owner_id, color, created_at FROM projects WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.OwnerID, &p.Color, &p.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("project", id)
		}
		return nil, fmt.Errorf("scanning project: %w", err)
	}
	return &p, nil
}

func (r *ProjectRepo) List(ctx context.Context) ([]*domain.Project, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, owner_id, color, created_at FROM projects ORDER BY name, created_at`)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	projects, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Project, error) {
		var p domain.Project
		err := row.Scan(&p.ID, &p.Name, &p.OwnerID, &p.Color, &p.CreatedAt)
		return &p, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning projects: %w", err)
	}
	return projects, nil
}

// CompanyRepo implements repository.CompanyRepo.
type CompanyRepo struct {
	db querier
}

func (r *CompanyRepo) Create(ctx context.Context, c *domain.Company) error {
	_, err := r.db.Exec(ctx, `INSERT INTO companies (id, name, created_at) VALUES ($1, $2, $3)`, c.ID, c.Name, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting company: %w", err)
	}
	return nil
}

func (r *CompanyRepo) GetByID(ctx context.Context, id string) (*domain.Company, error) {
	var c domain.Company
	err := r.db.QueryRow(ctx, `SELECT id, name, created_at FROM companies WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("company", id)
		}
		return nil, fmt.Errorf("scanning company: %w", err)
	}
	return &c, nil
}

func (r *CompanyRepo) List(ctx context.Context) ([]*domain.Company, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, created_at FROM companies ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing companies: %w", err)
	}
	companies, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Company, error) {
		var c domain.Company
		err := row.Scan(&c.ID, &c.Name, &c.CreatedAt)
		return &c, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning companies: %w", err)
	}
	return companies, nil
}
