package repository

import (
	"context"

	"github.com/alexanderramin/lotplan/internal/db"
)

// Store bundles the repositories of one backend.
type Store struct {
	Interventions InterventionRepo
	Links         LinkRepo
	Lots          LotRepo
	Projects      ProjectRepo
	Companies     CompanyRepo
}

// Transactor runs fn against a Store whose repositories share a single
// transaction. An error from fn rolls everything back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

// NewSQLiteStore builds every SQLite repository over d.
func NewSQLiteStore(d db.DBTX) Store {
	return Store{
		Interventions: NewSQLiteInterventionRepo(d),
		Links:         NewSQLiteLinkRepo(d),
		Lots:          NewSQLiteLotRepo(d),
		Projects:      NewSQLiteProjectRepo(d),
		Companies:     NewSQLiteCompanyRepo(d),
	}
}

// SQLiteTransactor adapts a db.UnitOfWork to Transactor.
type SQLiteTransactor struct {
	uow db.UnitOfWork
}

func NewSQLiteTransactor(uow db.UnitOfWork) *SQLiteTransactor {
	return &SQLiteTransactor{uow: uow}
}

func (t *SQLiteTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	return t.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return fn(ctx, NewSQLiteStore(tx))
	})
}
