package service

import (
	"sync"
	"time"

	"github.com/alexanderramin/lotplan/internal/scheduler"
)

// Notifier receives a callback after every mutation so the host can refetch
// and redraw.
type Notifier interface {
	InterventionChanged()
	LinkChanged(change scheduler.LinkChange)
}

type NoopNotifier struct{}

func (NoopNotifier) InterventionChanged()             {}
func (NoopNotifier) LinkChanged(scheduler.LinkChange) {}

// RecordingNotifier keeps every callback it receives. Safe for concurrent
// use.
type RecordingNotifier struct {
	mu            sync.Mutex
	interventions int
	links         []scheduler.LinkChange
}

func (n *RecordingNotifier) InterventionChanged() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.interventions++
}

func (n *RecordingNotifier) LinkChanged(c scheduler.LinkChange) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.links = append(n.links, c)
}

func (n *RecordingNotifier) InterventionChanges() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.interventions
}

func (n *RecordingNotifier) LinkChanges() []scheduler.LinkChange {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]scheduler.LinkChange(nil), n.links...)
}

// Recorder collects engine metrics.
type Recorder interface {
	CascadeCompleted(updated, failed int, d time.Duration)
	LinkChanged(kind scheduler.LinkChangeKind)
	ConflictsDetected(n int)
}

type NoopRecorder struct{}

func (NoopRecorder) CascadeCompleted(int, int, time.Duration) {}
func (NoopRecorder) LinkChanged(scheduler.LinkChangeKind)     {}
func (NoopRecorder) ConflictsDetected(int)                    {}
