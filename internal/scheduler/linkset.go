package scheduler

import (
	"github.com/alexanderramin/lotplan/internal/domain"
)

// LinkChangeKind is the kind of link mutation reported to the host.
type LinkChangeKind string

const (
	LinkAdded            LinkChangeKind = "add"
	LinkDeleted          LinkChangeKind = "delete"
	LinkConflictResolved LinkChangeKind = "conflict_resolved"
)

// LinkChange describes one link mutation. Link is set for additions and
// resolved conflicts.
type LinkChange struct {
	Kind LinkChangeKind
	ID   string
	Link *domain.Link
}

// LinkStatus is the lifecycle state of a link held by a LinkSet.
type LinkStatus int

const (
	LinkConfirmed LinkStatus = iota
	LinkPendingAdd
	LinkPendingDelete
)

func (s LinkStatus) String() string {
	switch s {
	case LinkPendingAdd:
		return "pending-add"
	case LinkPendingDelete:
		return "pending-delete"
	default:
		return "confirmed"
	}
}

type linkEntry struct {
	link   *domain.Link
	status LinkStatus
}

// LinkSet is the client-side view of the links. Local mutations show up
// immediately and are settled by the next full refetch: a pending deletion
// stays hidden until a refetch no longer returns the link, and a pending
// addition is shown until a refetch returns it or Revert drops it.
type LinkSet struct {
	order   []string
	entries map[string]*linkEntry
}

// NewLinkSet starts with every link confirmed.
func NewLinkSet(links []*domain.Link) *LinkSet {
	s := &LinkSet{entries: make(map[string]*linkEntry, len(links))}
	for _, l := range links {
		s.put(l, LinkConfirmed)
	}
	return s
}

// ApplyOptimistic records a local change ahead of the refetch.
func (s *LinkSet) ApplyOptimistic(c LinkChange) {
	switch c.Kind {
	case LinkDeleted:
		if e, ok := s.entries[c.ID]; ok {
			e.status = LinkPendingDelete
		}
	case LinkAdded, LinkConflictResolved:
		if e, ok := s.entries[c.ID]; ok {
			if e.status == LinkPendingDelete {
				e.status = LinkConfirmed
			}
			return
		}
		if c.Link != nil {
			s.put(c.Link, LinkPendingAdd)
		}
	}
}

// Revert undoes a pending change after its persistence failed.
func (s *LinkSet) Revert(id string) {
	e, ok := s.entries[id]
	if !ok {
		return
	}
	switch e.status {
	case LinkPendingDelete:
		e.status = LinkConfirmed
	case LinkPendingAdd:
		s.remove(id)
	}
}

// Reconcile settles every entry against a fresh authoritative list. A
// pending deletion is cleared once the list no longer holds the link. A
// pending addition is cleared once the list holds it, matched by id or by
// source, target and type, and is kept otherwise since its insert may still
// be in flight.
func (s *LinkSet) Reconcile(fresh []*domain.Link) {
	next := &LinkSet{entries: make(map[string]*linkEntry, len(fresh))}
	keys := make(map[domain.LinkKey]bool, len(fresh))
	for _, l := range fresh {
		status := LinkConfirmed
		if e, ok := s.entries[l.ID]; ok && e.status == LinkPendingDelete {
			status = LinkPendingDelete
		}
		next.put(l, status)
		keys[l.Key()] = true
	}
	for _, id := range s.order {
		e := s.entries[id]
		if e.status != LinkPendingAdd {
			continue
		}
		if _, ok := next.entries[id]; ok || keys[e.link.Key()] {
			continue
		}
		next.put(e.link, LinkPendingAdd)
	}
	*s = *next
}

// Visible returns the links to display, in fetch order followed by pending
// additions.
func (s *LinkSet) Visible() []*domain.Link {
	out := make([]*domain.Link, 0, len(s.order))
	for _, id := range s.order {
		if e := s.entries[id]; e.status != LinkPendingDelete {
			out = append(out, e.link)
		}
	}
	return out
}

// Status reports the lifecycle state of id.
func (s *LinkSet) Status(id string) (LinkStatus, bool) {
	e, ok := s.entries[id]
	if !ok {
		return 0, false
	}
	return e.status, true
}

// Pending counts entries not yet confirmed by a refetch.
func (s *LinkSet) Pending() int {
	n := 0
	for _, e := range s.entries {
		if e.status != LinkConfirmed {
			n++
		}
	}
	return n
}

func (s *LinkSet) put(l *domain.Link, status LinkStatus) {
	if _, ok := s.entries[l.ID]; !ok {
		s.order = append(s.order, l.ID)
	}
	s.entries[l.ID] = &linkEntry{link: l, status: status}
}

func (s *LinkSet) remove(id string) {
	delete(s.entries, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}
