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

// SQLiteLinkRepo implements LinkRepo using a SQLite database.
type SQLiteLinkRepo struct {
	db db.DBTX
}

func NewSQLiteLinkRepo(db db.DBTX) *SQLiteLinkRepo {
	return &SQLiteLinkRepo{db: db}
}

const linkColumns = `id, source_id, target_id, type, created_at`

// Create inserts l. A duplicate (source, target, type) yields ErrLinkExists.
func (r *SQLiteLinkRepo) Create(ctx context.Context, l *domain.Link) error {
	query := `INSERT INTO intervention_links (` + linkColumns + `) VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		l.ID, l.SourceID, l.TargetID, string(l.Type), l.CreatedAt.Format(time.RFC3339))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrLinkExists
		}
		return fmt.Errorf("inserting link: %w", err)
	}
	return nil
}

func (r *SQLiteLinkRepo) GetByID(ctx context.Context, id string) (*domain.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM intervention_links WHERE id = ?`
	l, err := scanLink(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("link %s: %w", id, ErrNotFound)
	}
	return l, err
}

func (r *SQLiteLinkRepo) FindExact(ctx context.Context, sourceID, targetID string, lt domain.LinkType) (*domain.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM intervention_links
		WHERE source_id = ? AND target_id = ? AND type = ?`
	l, err := scanLink(r.db.QueryRowContext(ctx, query, sourceID, targetID, string(lt)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("link %s→%s (%s): %w", sourceID, targetID, lt, ErrNotFound)
	}
	return l, err
}

func (r *SQLiteLinkRepo) List(ctx context.Context) ([]*domain.Link, error) {
	return r.query(ctx, `SELECT `+linkColumns+` FROM intervention_links ORDER BY rowid`)
}

func (r *SQLiteLinkRepo) ListOutgoing(ctx context.Context, sourceID string) ([]*domain.Link, error) {
	return r.query(ctx, `SELECT `+linkColumns+` FROM intervention_links WHERE source_id = ? ORDER BY rowid`, sourceID)
}

func (r *SQLiteLinkRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM intervention_links WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting link: %w", err)
	}
	return nil
}

func (r *SQLiteLinkRepo) query(ctx context.Context, query string, args ...any) ([]*domain.Link, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing links: %w", err)
	}
	defer rows.Close()

	var links []*domain.Link
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

func scanLink(row rowScanner) (*domain.Link, error) {
	var l domain.Link
	var typ, created string
	if err := row.Scan(&l.ID, &l.SourceID, &l.TargetID, &typ, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning link: %w", err)
	}
	l.Type = domain.LinkType(typ)
	l.CreatedAt = parseTimestamp(created)
	return &l, nil
}
