package scheduler

import (
	"errors"
	"fmt"

	"github.com/alexanderramin/lotplan/internal/domain"
)

var (
	ErrSelfLink        = errors.New("an intervention cannot be linked to itself")
	ErrInvalidLinkType = errors.New("invalid link type")
)

// ValidateLink checks the parts of a link request the store cannot check
// on its own terms.
func ValidateLink(sourceID, targetID string, lt domain.LinkType) error {
	if sourceID == "" || targetID == "" {
		return fmt.Errorf("link needs both a source and a target")
	}
	if sourceID == targetID {
		return ErrSelfLink
	}
	if !lt.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidLinkType, lt)
	}
	return nil
}

// LinkGraph indexes links by endpoint. Adjacency lists keep insertion order
// so traversal is deterministic.
type LinkGraph struct {
	links    []*domain.Link
	outgoing map[string][]*domain.Link
	incoming map[string][]*domain.Link
	byKey    map[domain.LinkKey]*domain.Link
}

func NewLinkGraph(links []*domain.Link) *LinkGraph {
	g := &LinkGraph{
		links:    links,
		outgoing: make(map[string][]*domain.Link),
		incoming: make(map[string][]*domain.Link),
		byKey:    make(map[domain.LinkKey]*domain.Link, len(links)),
	}
	for _, l := range links {
		g.outgoing[l.SourceID] = append(g.outgoing[l.SourceID], l)
		g.incoming[l.TargetID] = append(g.incoming[l.TargetID], l)
		g.byKey[l.Key()] = l
	}
	return g
}

// Outgoing returns the links whose source is id.
func (g *LinkGraph) Outgoing(id string) []*domain.Link {
	return g.outgoing[id]
}

// Incoming returns the links whose target is id.
func (g *LinkGraph) Incoming(id string) []*domain.Link {
	return g.incoming[id]
}

func (g *LinkGraph) Find(key domain.LinkKey) (*domain.Link, bool) {
	l, ok := g.byKey[key]
	return l, ok
}

func (g *LinkGraph) Links() []*domain.Link {
	return g.links
}

func (g *LinkGraph) Len() int {
	return len(g.links)
}
