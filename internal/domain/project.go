package domain

import "time"

type Project struct {
	ID        string
	Name      string
	OwnerID   string
	Color     string
	CreatedAt time.Time
}

// DisplayID returns the first 8 characters of the ID.
func (p *Project) DisplayID() string {
	return shortID(p.ID)
}

// Lot is a trade package within a project, optionally assigned to a company.
type Lot struct {
	ID           string
	ProjectID    string
	Name         string
	CompanyID    *string
	Color        string
	DisplayOrder int
	CreatedAt    time.Time
}

func (l *Lot) DisplayID() string {
	return shortID(l.ID)
}

// HasCompany reports whether a company is assigned.
func (l *Lot) HasCompany() bool {
	return l.CompanyID != nil && *l.CompanyID != ""
}

type Company struct {
	ID        string
	Name      string
	CreatedAt time.Time
}
