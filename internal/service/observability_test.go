package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogUseCaseObserver_SortsFieldsAndLevels(t *testing.T) {
	var buf bytes.Buffer
	obs := NewLogUseCaseObserver(&buf, slog.LevelInfo)

	obs.ObserveUseCase(context.Background(), UseCaseEvent{
		Name:    "move-intervention",
		Success: true,
		Fields:  map[string]any{"updated": 3, "seed_id": "abc"},
	})
	obs.ObserveUseCase(context.Background(), UseCaseEvent{
		Name: "unlink-tasks",
		Err:  errors.New("boom"),
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if assert.Len(t, lines, 2) {
		assert.Contains(t, lines[0], "level=INFO")
		assert.Less(t, strings.Index(lines[0], "seed_id="), strings.Index(lines[0], "updated="))
		assert.Contains(t, lines[1], "level=ERROR")
		assert.Contains(t, lines[1], "error=boom")
	}
}

func TestLogUseCaseObserver_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	obs := NewLogUseCaseObserver(&buf, slog.LevelError)
	obs.ObserveUseCase(context.Background(), UseCaseEvent{Name: "refresh", Success: true})
	assert.Empty(t, buf.String())
}

func TestNewLogUseCaseObserver_NilWriter(t *testing.T) {
	assert.IsType(t, NoopUseCaseObserver{}, NewLogUseCaseObserver(nil, slog.LevelInfo))
	assert.IsType(t, NoopUseCaseObserver{}, NewSlogUseCaseObserver(nil))
}

func TestTrack_ReportsOutcome(t *testing.T) {
	var got []UseCaseEvent
	obs := observerFunc(func(_ context.Context, e UseCaseEvent) { got = append(got, e) })

	done := track(context.Background(), obs, "link-tasks", map[string]any{"k": "v"})
	done(nil)
	done = track(context.Background(), obs, "link-tasks", nil)
	done(errors.New("nope"))

	if assert.Len(t, got, 2) {
		assert.True(t, got[0].Success)
		assert.Equal(t, "v", got[0].Fields["k"])
		assert.False(t, got[1].Success)
		assert.EqualError(t, got[1].Err, "nope")
	}
}

type observerFunc func(context.Context, UseCaseEvent)

func (f observerFunc) ObserveUseCase(ctx context.Context, e UseCaseEvent) { f(ctx, e) }

func TestContextConfirmer(t *testing.T) {
	ctx := context.Background()
	ok, err := ContextConfirmer.Confirm(ctx, "delete?")
	assert.NoError(t, err)
	assert.False(t, ok)

	ok, _ = ContextConfirmer.Confirm(WithConfirmation(ctx, true), "delete?")
	assert.True(t, ok)
	ok, _ = ContextConfirmer.Confirm(WithConfirmation(ctx, false), "delete?")
	assert.False(t, ok)

	_, given := Confirmation(ctx)
	assert.False(t, given)
	answer, given := Confirmation(WithConfirmation(ctx, false))
	assert.True(t, given)
	assert.False(t, answer)
}
