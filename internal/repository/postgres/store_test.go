package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/alexanderramin/lotplan/internal/calendar"
	"github.com/alexanderramin/lotplan/internal/domain"
	"github.com/alexanderramin/lotplan/internal/repository"
	"github.com/alexanderramin/lotplan/internal/testutil"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.True(t, isUniqueViolation(fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23514"}), "check violation is not a duplicate")
	assert.False(t, isUniqueViolation(errors.New("boom")))
}

func TestIsNoRows(t *testing.T) {
	assert.True(t, isNoRows(pgx.ErrNoRows))
	assert.True(t, isNoRows(fmt.Errorf("x: %w", pgx.ErrNoRows)))
	assert.False(t, isNoRows(errors.New("other")))
}

func TestDateText_RawPreserved(t *testing.T) {
	assert.Equal(t, "2024-01-08", dateText(calendar.Date(2024, 1, 8), ""))
	assert.Equal(t, "bad", dateText(time.Time{}, "bad"))

	d, raw := parseDateText("2024-01-08")
	assert.Equal(t, calendar.Date(2024, 1, 8), d)
	assert.Empty(t, raw)

	d, raw = parseDateText("bad")
	assert.True(t, d.IsZero())
	assert.Equal(t, "bad", raw)
}

func TestSchema_DeclaresLinkUniqueness(t *testing.T) {
	assert.Contains(t, schemaSQL, "UNIQUE (source_id, target_id, type)")
	assert.Contains(t, schemaSQL, "CHECK (source_id <> target_id)")
}

// TestStore_LinkLifecycle runs against a live server when
// LOTPLAN_TEST_DATABASE_URL is set.
func TestStore_LinkLifecycle(t *testing.T) {
	url := os.Getenv("LOTPLAN_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("LOTPLAN_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	store, err := Connect(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.DropSchema(ctx)
		store.Close()
	})
	require.NoError(t, store.DropSchema(ctx))
	require.NoError(t, store.CreateSchema(ctx))

	proj := testutil.NewTestProject("PG")
	require.NoError(t, store.Projects().Create(ctx, proj))
	lot := testutil.NewTestLot(proj.ID, "Lot")
	require.NoError(t, store.Lots().Create(ctx, lot))

	a := testutil.NewTestIntervention(lot.ID, "A")
	b := testutil.NewTestIntervention(lot.ID, "B")
	require.NoError(t, store.Interventions().Create(ctx, a))
	require.NoError(t, store.Interventions().Create(ctx, b))

	links := store.Links()
	l := testutil.NewTestLink(a.ID, b.ID, domain.FinishToStart)
	require.NoError(t, links.Create(ctx, l))
	require.ErrorIs(t, links.Create(ctx, testutil.NewTestLink(a.ID, b.ID, domain.FinishToStart)), repository.ErrLinkExists)

	found, err := links.FindExact(ctx, a.ID, b.ID, domain.FinishToStart)
	require.NoError(t, err)
	assert.Equal(t, l.ID, found.ID)

	span := domain.NewSpan(calendar.Date(2024, 2, 5), calendar.Date(2024, 2, 6))
	require.NoError(t, store.Interventions().UpdateSpan(ctx, b.ID, span))
	got, err := store.Interventions().GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, got.Span().Equal(span))
}
