package postgres

import (
	"context"
	"fmt"

	"github.com/alexanderramin/lotplan/internal/domain"
	"github.com/alexanderramin/lotplan/internal/repository"
	"github.com/jackc/pgx/v5"
)

// LinkRepo implements repository.LinkRepo.
type LinkRepo struct {
	db querier
}

const linkColumns = `id, source_id, target_id, type, created_at`

// Create inserts l; a duplicate triple maps to repository.ErrLinkExists.
func (r *LinkRepo) Create(ctx context.Context, l *domain.Link) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO intervention_links (`+linkColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		l.ID, l.SourceID, l.TargetID, string(l.Type), l.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrLinkExists
		}
		return fmt.Errorf("inserting link: %w", err)
	}
	return nil
}

func (r *LinkRepo) GetByID(ctx context.Context, id string) (*domain.Link, error) {
	l, err := scanLink(r.db.QueryRow(ctx, `SELECT `+linkColumns+` FROM intervention_links WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("link", id)
		}
		return nil, err
	}
	return l, nil
}

func (r *LinkRepo) FindExact(ctx context.Context, sourceID, targetID string, lt domain.LinkType) (*domain.Link, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+linkColumns+` FROM intervention_links WHERE source_id = $1 AND target_id = $2 AND type = $3`,
		sourceID, targetID, string(lt))
	l, err := scanLink(row)
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("link", sourceID+"→"+targetID)
		}
		return nil, err
	}
	return l, nil
}

func (r *LinkRepo) List(ctx context.Context) ([]*domain.Link, error) {
	return r.list(ctx, `SELECT `+linkColumns+` FROM intervention_links ORDER BY seq`)
}

func (r *LinkRepo) ListOutgoing(ctx context.Context, sourceID string) ([]*domain.Link, error) {
	return r.list(ctx, `SELECT `+linkColumns+` FROM intervention_links WHERE source_id = $1 ORDER BY seq`, sourceID)
}

func (r *LinkRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM intervention_links WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting link: %w", err)
	}
	return nil
}

func (r *LinkRepo) list(ctx context.Context, query string, args ...any) ([]*domain.Link, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing links: %w", err)
	}
	defer rows.Close()

	links := []*domain.Link{}
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating links: %w", err)
	}
	return links, nil
}

func scanLink(row pgx.Row) (*domain.Link, error) {
	var l domain.Link
	var typ string
	if err := row.Scan(&l.ID, &l.SourceID, &l.TargetID, &typ, &l.CreatedAt); err != nil {
		if isNoRows(err) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning link: %w", err)
	}
	l.Type = domain.LinkType(typ)
	return &l, nil
}
