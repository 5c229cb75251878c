package testutil

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alexanderramin/lotplan/internal/db"
)

// FailingUoW runs transactions whose ExecContext calls fail with Err when
// FailWhen matches the statement. Reads pass through untouched.
type FailingUoW struct {
	DB       *sql.DB
	FailWhen func(query string, args []any) bool
	Err      error
}

// FailOnArg builds a FailWhen matcher that trips on any statement bound to
// the given argument value, typically a row ID.
func FailOnArg(v any) func(string, []any) bool {
	return func(_ string, args []any) bool {
		for _, a := range args {
			if a == v {
				return true
			}
		}
		return false
	}
}

func (u *FailingUoW) WithinTx(ctx context.Context, fn func(ctx context.Context, tx db.DBTX) error) error {
	tx, err := u.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(ctx, &failingExec{DBTX: tx, match: u.FailWhen, err: u.Err}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

type failingExec struct {
	db.DBTX
	match func(string, []any) bool
	err   error
}

func (f *failingExec) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if f.match != nil && f.match(query, args) {
		return nil, f.err
	}
	return f.DBTX.ExecContext(ctx, query, args...)
}
