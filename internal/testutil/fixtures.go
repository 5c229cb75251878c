package testutil

import (
	"time"

	"github.com/alexanderramin/lotplan/internal/calendar"
	"github.com/alexanderramin/lotplan/internal/domain"
	"github.com/google/uuid"
)

// Project options
type ProjectOption func(*domain.Project)

func WithOwner(id string) ProjectOption {
	return func(p *domain.Project) {
		p.OwnerID = id
	}
}

func NewTestProject(name string, opts ...ProjectOption) *domain.Project {
	p := &domain.Project{
		ID:        uuid.New().String(),
		Name:      name,
		OwnerID:   "owner-1",
		Color:     "#83a598",
		CreatedAt: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func NewTestCompany(name string) *domain.Company {
	return &domain.Company{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
}

// Lot options
type LotOption func(*domain.Lot)

func WithCompany(id string) LotOption {
	return func(l *domain.Lot) {
		l.CompanyID = &id
	}
}

func WithDisplayOrder(n int) LotOption {
	return func(l *domain.Lot) {
		l.DisplayOrder = n
	}
}

func WithLotColor(c string) LotOption {
	return func(l *domain.Lot) {
		l.Color = c
	}
}

func NewTestLot(projectID, name string, opts ...LotOption) *domain.Lot {
	l := &domain.Lot{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		Name:      name,
		Color:     "#d3869b",
		CreatedAt: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Intervention options
type InterventionOption func(*domain.Intervention)

// WithSpan sets the dates from "YYYY-MM-DD" strings. It panics on bad input.
func WithSpan(start, end string) InterventionOption {
	return func(iv *domain.Intervention) {
		iv.Start = MustDate(start)
		iv.End = MustDate(end)
	}
}

func WithState(s domain.State) InterventionOption {
	return func(iv *domain.Intervention) {
		iv.State = s
	}
}

func Hidden() InterventionOption {
	return func(iv *domain.Intervention) {
		iv.Visible = false
	}
}

// WithRawDates stores unparseable date text instead of real dates.
func WithRawDates(start, end string) InterventionOption {
	return func(iv *domain.Intervention) {
		iv.Start, iv.End = time.Time{}, time.Time{}
		iv.RawStart, iv.RawEnd = start, end
	}
}

func WithID(id string) InterventionOption {
	return func(iv *domain.Intervention) {
		iv.ID = id
	}
}

// NewTestIntervention defaults to a planned, visible, one-day intervention on
// Monday 2024-01-08.
func NewTestIntervention(lotID, name string, opts ...InterventionOption) *domain.Intervention {
	now := time.Now().UTC()
	iv := &domain.Intervention{
		ID:        uuid.New().String(),
		Name:      name,
		LotID:     lotID,
		Start:     calendar.Date(2024, 1, 8),
		End:       calendar.Date(2024, 1, 8),
		StartTime: domain.DefaultStartTime,
		EndTime:   domain.DefaultEndTime,
		State:     domain.StatePlanned,
		Visible:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(iv)
	}
	return iv
}

func NewTestLink(sourceID, targetID string, lt domain.LinkType) *domain.Link {
	return &domain.Link{
		ID:        uuid.New().String(),
		SourceID:  sourceID,
		TargetID:  targetID,
		Type:      lt,
		CreatedAt: time.Now().UTC(),
	}
}

// MustDate parses "YYYY-MM-DD" or panics.
func MustDate(s string) time.Time {
	d, err := calendar.Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}
