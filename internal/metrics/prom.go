// Package metrics exports planning engine events to Prometheus.
package metrics

import (
	"errors"
	"time"

	"github.com/alexanderramin/lotplan/internal/scheduler"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records cascade, link and conflict events.
type PromSink struct {
	cascades  *prometheus.CounterVec
	updates   *prometheus.CounterVec
	duration  prometheus.Histogram
	links     *prometheus.CounterVec
	conflicts prometheus.Counter
}

// NewPromSink registers the engine metrics on reg, or on the default
// registerer when reg is nil. Collectors that are already registered are
// reused.
func NewPromSink(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	cascades := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lotplan_cascades_total",
		Help: "Committed cascades by outcome",
	}, []string{"outcome"})
	updates := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lotplan_cascade_updates_total",
		Help: "Intervention span writes issued by cascades",
	}, []string{"result"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "lotplan_cascade_persist_seconds",
		Help:    "Time spent persisting one cascade batch",
		Buckets: prometheus.DefBuckets,
	})
	links := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lotplan_link_changes_total",
		Help: "Link changes by kind",
	}, []string{"kind"})
	conflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lotplan_company_conflicts_total",
		Help: "Conflicting bookings reported by conflict checks",
	})

	var err error
	if cascades, err = register(reg, cascades); err != nil {
		return nil, err
	}
	if updates, err = register(reg, updates); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	if links, err = register(reg, links); err != nil {
		return nil, err
	}
	if conflicts, err = register(reg, conflicts); err != nil {
		return nil, err
	}
	return &PromSink{
		cascades:  cascades,
		updates:   updates,
		duration:  duration,
		links:     links,
		conflicts: conflicts,
	}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (s *PromSink) CascadeCompleted(updated, failed int, d time.Duration) {
	outcome := "ok"
	if failed > 0 {
		outcome = "partial"
		if updated == 0 {
			outcome = "failed"
		}
	}
	s.cascades.WithLabelValues(outcome).Inc()
	s.updates.WithLabelValues("ok").Add(float64(updated))
	s.updates.WithLabelValues("failed").Add(float64(failed))
	s.duration.Observe(d.Seconds())
}

func (s *PromSink) LinkChanged(kind scheduler.LinkChangeKind) {
	s.links.WithLabelValues(string(kind)).Inc()
}

func (s *PromSink) ConflictsDetected(n int) {
	if n > 0 {
		s.conflicts.Add(float64(n))
	}
}
