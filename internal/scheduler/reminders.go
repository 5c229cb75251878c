package scheduler

import (
	"time"

	"github.com/alexanderramin/lotplan/internal/calendar"
	"github.com/alexanderramin/lotplan/internal/domain"
)

// RollForwardReminders returns the span changes that keep reminder-style
// interventions from sliding into the past: any whose start is before today
// is moved to start today with the same calendar-day length. The input is
// not modified.
func RollForwardReminders(interventions []*domain.Intervention, today time.Time) []SpanUpdate {
	today = calendar.Truncate(today)
	var updates []SpanUpdate
	for _, iv := range interventions {
		if !iv.State.Info().RollsForward || iv.Start.IsZero() {
			continue
		}
		if !iv.Start.Before(today) {
			continue
		}
		end := today
		if iv.HasValidDates() {
			end = calendar.AddDays(today, calendar.DaysBetween(iv.Start, iv.End))
		}
		updates = append(updates, SpanUpdate{
			ID:   iv.ID,
			From: iv.Span(),
			To:   domain.NewSpan(today, end),
		})
	}
	return updates
}
