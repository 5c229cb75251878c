// Package scheduler is the scheduling engine: the precedence-link graph,
// cascade propagation, the drag and resize controllers, company conflict
// detection and the day-column grid model. Everything here is pure and works
// on an in-memory Snapshot; persistence lives in the service layer.
package scheduler

import (
	"github.com/alexanderramin/lotplan/internal/domain"
)

// Snapshot is an immutable view of the planning data taken after a full
// refetch. It is replaced wholesale on every refresh.
type Snapshot struct {
	Interventions []*domain.Intervention
	Links         []*domain.Link
	Lots          []*domain.Lot
	Projects      []*domain.Project
	Companies     []*domain.Company

	interventions map[string]*domain.Intervention
	lots          map[string]*domain.Lot
	projects      map[string]*domain.Project
	companies     map[string]*domain.Company
	graph         *LinkGraph
}

func NewSnapshot(
	interventions []*domain.Intervention,
	links []*domain.Link,
	lots []*domain.Lot,
	projects []*domain.Project,
	companies []*domain.Company,
) *Snapshot {
	s := &Snapshot{
		Interventions: interventions,
		Links:         links,
		Lots:          lots,
		Projects:      projects,
		Companies:     companies,
		interventions: make(map[string]*domain.Intervention, len(interventions)),
		lots:          make(map[string]*domain.Lot, len(lots)),
		projects:      make(map[string]*domain.Project, len(projects)),
		companies:     make(map[string]*domain.Company, len(companies)),
		graph:         NewLinkGraph(links),
	}
	for _, iv := range interventions {
		s.interventions[iv.ID] = iv
	}
	for _, l := range lots {
		s.lots[l.ID] = l
	}
	for _, p := range projects {
		s.projects[p.ID] = p
	}
	for _, c := range companies {
		s.companies[c.ID] = c
	}
	return s
}

func (s *Snapshot) Intervention(id string) (*domain.Intervention, bool) {
	iv, ok := s.interventions[id]
	return iv, ok
}

func (s *Snapshot) Lot(id string) (*domain.Lot, bool) {
	l, ok := s.lots[id]
	return l, ok
}

func (s *Snapshot) Project(id string) (*domain.Project, bool) {
	p, ok := s.projects[id]
	return p, ok
}

func (s *Snapshot) Company(id string) (*domain.Company, bool) {
	c, ok := s.companies[id]
	return c, ok
}

// ProjectOf resolves the project an intervention belongs to through its lot.
func (s *Snapshot) ProjectOf(iv *domain.Intervention) (*domain.Project, bool) {
	lot, ok := s.lots[iv.LotID]
	if !ok {
		return nil, false
	}
	return s.Project(lot.ProjectID)
}

func (s *Snapshot) Graph() *LinkGraph {
	return s.graph
}
