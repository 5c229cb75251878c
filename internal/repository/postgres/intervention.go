package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/lotplan/internal/calendar"
	"github.com/alexanderramin/lotplan/internal/domain"
	"github.com/jackc/pgx/v5"
)

// InterventionRepo implements repository.InterventionRepo.
type InterventionRepo struct {
	db querier
}

const interventionColumns = `id, lot_id, name, start_date, end_date, start_time, end_time, state, visible, created_at, updated_at`

func (r *InterventionRepo) Create(ctx context.Context, iv *domain.Intervention) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO interventions (`+interventionColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		iv.ID, iv.LotID, iv.Name,
		dateText(iv.Start, iv.RawStart), dateText(iv.End, iv.RawEnd),
		iv.StartTime, iv.EndTime, string(iv.State), iv.Visible,
		iv.CreatedAt, iv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting intervention: %w", err)
	}
	return nil
}

func (r *InterventionRepo) GetByID(ctx context.Context, id string) (*domain.Intervention, error) {
	row := r.db.QueryRow(ctx, `SELECT `+interventionColumns+` FROM interventions WHERE id = $1`, id)
	iv, err := scanIntervention(row)
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("intervention", id)
		}
		return nil, err
	}
	return iv, nil
}

func (r *InterventionRepo) List(ctx context.Context) ([]*domain.Intervention, error) {
	return r.list(ctx, `SELECT `+interventionColumns+` FROM interventions ORDER BY start_date, seq`)
}

func (r *InterventionRepo) ListByLot(ctx context.Context, lotID string) ([]*domain.Intervention, error) {
	return r.list(ctx, `SELECT `+interventionColumns+` FROM interventions WHERE lot_id = $1 ORDER BY start_date, seq`, lotID)
}

func (r *InterventionRepo) list(ctx context.Context, query string, args ...any) ([]*domain.Intervention, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing interventions: %w", err)
	}
	defer rows.Close()

	out := []*domain.Intervention{}
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

func (r *InterventionRepo) Update(ctx context.Context, iv *domain.Intervention) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE interventions
		 SET lot_id = $1, name = $2, start_date = $3, end_date = $4, start_time = $5, end_time = $6,
		     state = $7, visible = $8, updated_at = NOW()
		 WHERE id = $9`,
		iv.LotID, iv.Name,
		dateText(iv.Start, iv.RawStart), dateText(iv.End, iv.RawEnd),
		iv.StartTime, iv.EndTime, string(iv.State), iv.Visible, iv.ID,
	)
	if err != nil {
		return fmt.Errorf("updating intervention: %w", err)
	}
	return expectOne(tag, "intervention", iv.ID)
}

func (r *InterventionRepo) UpdateSpan(ctx context.Context, id string, span domain.Span) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE interventions SET start_date = $1, end_date = $2, updated_at = NOW() WHERE id = $3`,
		calendar.Format(span.Start), calendar.Format(span.End), id)
	if err != nil {
		return fmt.Errorf("updating intervention dates: %w", err)
	}
	return expectOne(tag, "intervention", id)
}

func (r *InterventionRepo) SetVisible(ctx context.Context, id string, visible bool) error {
	tag, err := r.db.Exec(ctx, `UPDATE interventions SET visible = $1, updated_at = NOW() WHERE id = $2`, visible, id)
	if err != nil {
		return fmt.Errorf("updating intervention visibility: %w", err)
	}
	return expectOne(tag, "intervention", id)
}

func (r *InterventionRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM interventions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting intervention: %w", err)
	}
	return nil
}

func scanIntervention(row pgx.Row) (*domain.Intervention, error) {
	var iv domain.Intervention
	var start, end, state string
	err := row.Scan(&iv.ID, &iv.LotID, &iv.Name, &start, &end,
		&iv.StartTime, &iv.EndTime, &state, &iv.Visible, &iv.CreatedAt, &iv.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning intervention: %w", err)
	}
	iv.Start, iv.RawStart = parseDateText(start)
	iv.End, iv.RawEnd = parseDateText(end)
	iv.State = domain.State(state)
	return &iv, nil
}

func dateText(t time.Time, raw string) string {
	if t.IsZero() && raw != "" {
		return raw
	}
	return calendar.Format(t)
}

func parseDateText(s string) (time.Time, string) {
	t, err := calendar.Parse(s)
	if err != nil {
		return time.Time{}, s
	}
	return t, ""
}
