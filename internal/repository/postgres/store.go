// Package postgres implements the repository interfaces on PostgreSQL via pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexanderramin/lotplan/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is the subset of *pgxpool.Pool and pgx.Tx the repos use.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store groups the PostgreSQL repositories over one connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store backed by the given pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Connect opens a pool for url and creates the schema.
func Connect(ctx context.Context, url string) (*Store, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	s := New(pool)
	if err := s.CreateSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Interventions() *InterventionRepo { return &InterventionRepo{db: s.pool} }
func (s *Store) Links() *LinkRepo                 { return &LinkRepo{db: s.pool} }
func (s *Store) Lots() *LotRepo                   { return &LotRepo{db: s.pool} }
func (s *Store) Projects() *ProjectRepo           { return &ProjectRepo{db: s.pool} }
func (s *Store) Companies() *CompanyRepo          { return &CompanyRepo{db: s.pool} }

// Repos returns the repositories as a repository.Store.
func (s *Store) Repos() repository.Store {
	return reposOver(s.pool)
}

// WithinTx implements repository.Transactor.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(ctx, reposOver(tx)); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func reposOver(q querier) repository.Store {
	return repository.Store{
		Interventions: &InterventionRepo{db: q},
		Links:         &LinkRepo{db: q},
		Lots:          &LotRepo{db: q},
		Projects:      &ProjectRepo{db: q},
		Companies:     &CompanyRepo{db: q},
	}
}

var (
	_ repository.InterventionRepo = (*InterventionRepo)(nil)
	_ repository.LinkRepo         = (*LinkRepo)(nil)
	_ repository.LotRepo          = (*LotRepo)(nil)
	_ repository.ProjectRepo      = (*ProjectRepo)(nil)
	_ repository.CompanyRepo      = (*CompanyRepo)(nil)
	_ repository.Transactor       = (*Store)(nil)
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func notFound(entity, id string) error {
	return fmt.Errorf("%s %s: %w", entity, id, repository.ErrNotFound)
}

func expectOne(tag pgconn.CommandTag, entity, id string) error {
	if tag.RowsAffected() == 0 {
		return notFound(entity, id)
	}
	return nil
}
