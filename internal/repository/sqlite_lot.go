package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/lotplan/internal/db"
	"github.com/alexanderramin/lotplan/internal/domain"
)

// SQLiteLotRepo implements LotRepo using a SQLite database.
type SQLiteLotRepo struct {
	db db.DBTX
}

func NewSQLiteLotRepo(db db.DBTX) *SQLiteLotRepo {
	return &SQLiteLotRepo{db: db}
}

const lotColumns = `id, project_id, name, company_id, color, display_order, created_at`

func (r *SQLiteLotRepo) Create(ctx context.Context, l *domain.Lot) error {
	query := `INSERT INTO lots (` + lotColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		l.ID, l.ProjectID, l.Name, nullableString(l.CompanyID), l.Color, l.DisplayOrder,
		l.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("inserting lot: %w", err)
	}
	return nil
}

func (r *SQLiteLotRepo) GetByID(ctx context.Context, id string) (*domain.Lot, error) {
	l, err := scanLot(r.db.QueryRowContext(ctx, `SELECT `+lotColumns+` FROM lots WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lot %s: %w", id, ErrNotFound)
	}
	return l, err
}

func (r *SQLiteLotRepo) List(ctx context.Context) ([]*domain.Lot, error) {
	return r.query(ctx, `SELECT `+lotColumns+` FROM lots ORDER BY project_id, display_order, name`)
}

func (r *SQLiteLotRepo) ListByProject(ctx context.Context, projectID string) ([]*domain.Lot, error) {
	return r.query(ctx, `SELECT `+lotColumns+` FROM lots WHERE project_id = ? ORDER BY display_order, name`, projectID)
}

func (r *SQLiteLotRepo) AssignCompany(ctx context.Context, lotID string, companyID *string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE lots SET company_id = ? WHERE id = ?`, nullableString(companyID), lotID)
	if err != nil {
		return fmt.Errorf("assigning company to lot: %w", err)
	}
	return expectOneRow(res, "lot", lotID)
}

func (r *SQLiteLotRepo) query(ctx context.Context, query string, args ...any) ([]*domain.Lot, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing lots: %w", err)
	}
	defer rows.Close()

	var lots []*domain.Lot
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

func scanLot(row rowScanner) (*domain.Lot, error) {
	var l domain.Lot
	var company sql.NullString
	var created string
	if err := row.Scan(&l.ID, &l.ProjectID, &l.Name, &company, &l.Color, &l.DisplayOrder, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning lot: %w", err)
	}
	l.CompanyID = stringPtr(company)
	l.CreatedAt = parseTimestamp(created)
	return &l, nil
}
