package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/lotplan/internal/calendar"
	"github.com/alexanderramin/lotplan/internal/db"
	"github.com/alexanderramin/lotplan/internal/domain"
)

// SQLiteInterventionRepo implements InterventionRepo using a SQLite database.
type SQLiteInterventionRepo struct {
	db db.DBTX
}

func NewSQLiteInterventionRepo(db db.DBTX) *SQLiteInterventionRepo {
	return &SQLiteInterventionRepo{db: db}
}

const interventionColumns = `id, lot_id, name, start_date, end_date, start_time, end_time, state, visible, created_at, updated_at`

func (r *SQLiteInterventionRepo) Create(ctx context.Context, iv *domain.Intervention) error {
	query := `INSERT INTO interventions (` + interventionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		iv.ID,
		iv.LotID,
		iv.Name,
		storedDate(iv.Start, iv.RawStart),
		storedDate(iv.End, iv.RawEnd),
		iv.StartTime,
		iv.EndTime,
		string(iv.State),
		boolToInt(iv.Visible),
		iv.CreatedAt.Format(time.RFC3339),
		iv.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting intervention: %w", err)
	}
	return nil
}

func (r *SQLiteInterventionRepo) GetByID(ctx context.Context, id string) (*domain.Intervention, error) {
	query := `SELECT ` + interventionColumns + ` FROM interventions WHERE id = ?`
	iv, err := scanIntervention(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("intervention %s: %w", id, ErrNotFound)
	}
	return iv, err
}

func (r *SQLiteInterventionRepo) List(ctx context.Context) ([]*domain.Intervention, error) {
	query := `SELECT ` + interventionColumns + ` FROM interventions ORDER BY start_date, rowid`
	return r.query(ctx, query)
}

func (r *SQLiteInterventionRepo) ListByLot(ctx context.Context, lotID string) ([]*domain.Intervention, error) {
	query := `SELECT ` + interventionColumns + ` FROM interventions WHERE lot_id = ? ORDER BY start_date, rowid`
	return r.query(ctx, query, lotID)
}

func (r *SQLiteInterventionRepo) query(ctx context.Context, query string, args ...any) ([]*domain.Intervention, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing interventions: %w", err)
	}
	defer rows.Close()

	var out []*domain.Intervention
	for rows.Next() {
		iv, err := scanIntervention(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, iv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating interventions: %w", err)
	}
	return out, nil
}

func (r *SQLiteInterventionRepo) Update(ctx context.Context, iv *domain.Intervention) error {
	query := `UPDATE interventions
		SET lot_id = ?, name = ?, start_date = ?, end_date = ?, start_time = ?, end_time = ?,
		    state = ?, visible = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		iv.LotID,
		iv.Name,
		storedDate(iv.Start, iv.RawStart),
		storedDate(iv.End, iv.RawEnd),
		iv.StartTime,
		iv.EndTime,
		string(iv.State),
		boolToInt(iv.Visible),
		nowUTC(),
		iv.ID,
	)
	if err != nil {
		return fmt.Errorf("updating intervention: %w", err)
	}
	return expectOneRow(res, "intervention", iv.ID)
}

func (r *SQLiteInterventionRepo) UpdateSpan(ctx context.Context, id string, span domain.Span) error {
	query := `UPDATE interventions SET start_date = ?, end_date = ?, updated_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		calendar.Format(span.Start),
		calendar.Format(span.End),
		nowUTC(),
		id,
	)
	if err != nil {
		return fmt.Errorf("updating intervention dates: %w", err)
	}
	return expectOneRow(res, "intervention", id)
}

func (r *SQLiteInterventionRepo) SetVisible(ctx context.Context, id string, visible bool) error {
	query := `UPDATE interventions SET visible = ?, updated_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, boolToInt(visible), nowUTC(), id)
	if err != nil {
		return fmt.Errorf("updating intervention visibility: %w", err)
	}
	return expectOneRow(res, "intervention", id)
}

func (r *SQLiteInterventionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM interventions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting intervention: %w", err)
	}
	return nil
}

func scanIntervention(row rowScanner) (*domain.Intervention, error) {
	var iv domain.Intervention
	var startStr, endStr, stateStr, createdStr, updatedStr string
	var visible int

	err := row.Scan(
		&iv.ID, &iv.LotID, &iv.Name,
		&startStr, &endStr,
		&iv.StartTime, &iv.EndTime,
		&stateStr, &visible,
		&createdStr, &updatedStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning intervention: %w", err)
	}

	iv.Start, iv.RawStart = parseStoredDate(startStr)
	iv.End, iv.RawEnd = parseStoredDate(endStr)
	iv.State = domain.State(stateStr)
	iv.Visible = intToBool(visible)
	iv.CreatedAt = parseTimestamp(createdStr)
	iv.UpdatedAt = parseTimestamp(updatedStr)
	return &iv, nil
}

func expectOneRow(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking %s update: %w", entity, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", entity, id, ErrNotFound)
	}
	return nil
}
