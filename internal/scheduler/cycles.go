package scheduler

import (
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/alexanderramin/lotplan/internal/domain"
)

// LinkCycle is a group of interventions that reach each other through links.
// Cascades over such a group stop after one pass, so the group's dates can
// disagree with some of its links.
type LinkCycle struct {
	InterventionIDs []string
}

// FindCycles reports every strongly connected group of two or more linked
// interventions. IDs inside a group and the groups themselves are sorted.
func FindCycles(links []*domain.Link) []LinkCycle {
	g := simple.NewDirectedGraph()
	ids := make(map[string]int64)
	names := make(map[int64]string)
	node := func(id string) simple.Node {
		n, ok := ids[id]
		if !ok {
			n = int64(len(ids))
			ids[id] = n
			names[n] = id
			g.AddNode(simple.Node(n))
		}
		return simple.Node(n)
	}
	for _, l := range links {
		from, to := node(l.SourceID), node(l.TargetID)
		if from == to || g.HasEdgeFromTo(from.ID(), to.ID()) {
			continue
		}
		g.SetEdge(g.NewEdge(from, to))
	}

	var cycles []LinkCycle
	for _, scc := range topo.TarjanSCC(g) {
		if len(scc) < 2 {
			continue
		}
		members := make([]string, 0, len(scc))
		for _, n := range scc {
			members = append(members, names[n.ID()])
		}
		sort.Strings(members)
		cycles = append(cycles, LinkCycle{InterventionIDs: members})
	}
	sort.Slice(cycles, func(i, j int) bool {
		return cycles[i].InterventionIDs[0] < cycles[j].InterventionIDs[0]
	})
	return cycles
}
