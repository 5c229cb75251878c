package domain

import (
	"fmt"
	"strings"
	"time"
)

// LinkType names the precedence relationship between two interventions.
type LinkType string

const (
	FinishToStart  LinkType = "finish-to-start"
	StartToFinish  LinkType = "start-to-finish"
	FinishToFinish LinkType = "finish-to-finish"
	StartToStart   LinkType = "start-to-start"
)

// Endpoint selects one edge of an intervention's span.
type Endpoint int

const (
	EndpointStart Endpoint = iota
	EndpointEnd
)

func (e Endpoint) String() string {
	if e == EndpointEnd {
		return "end"
	}
	return "start"
}

// Of returns the date of this endpoint within s.
func (e Endpoint) Of(s Span) time.Time {
	if e == EndpointEnd {
		return s.End
	}
	return s.Start
}

// LinkTypes lists every supported type.
func LinkTypes() []LinkType {
	return []LinkType{FinishToStart, StartToFinish, FinishToFinish, StartToStart}
}

func (t LinkType) IsValid() bool {
	switch t {
	case FinishToStart, StartToFinish, FinishToFinish, StartToStart:
		return true
	}
	return false
}

// Endpoints returns which edge of the source drives which edge of the target.
func (t LinkType) Endpoints() (source, target Endpoint) {
	switch t {
	case StartToFinish:
		return EndpointStart, EndpointEnd
	case FinishToFinish:
		return EndpointEnd, EndpointEnd
	case StartToStart:
		return EndpointStart, EndpointStart
	default:
		return EndpointEnd, EndpointStart
	}
}

// Abbrev returns the two-letter form, e.g. "FS".
func (t LinkType) Abbrev() string {
	switch t {
	case FinishToStart:
		return "FS"
	case StartToFinish:
		return "SF"
	case FinishToFinish:
		return "FF"
	case StartToStart:
		return "SS"
	}
	return "??"
}

// ParseLinkType accepts the long form or the two-letter abbreviation.
func ParseLinkType(v string) (LinkType, error) {
	lt := LinkType(strings.ToLower(strings.TrimSpace(v)))
	if lt.IsValid() {
		return lt, nil
	}
	for _, t := range LinkTypes() {
		if strings.EqualFold(v, t.Abbrev()) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown link type %q (want one of FS, SF, FF, SS)", v)
}

// LinkTypeForHandles maps the dragged-from and dropped-on handles of a
// connection gesture to a link type.
func LinkTypeForHandles(source, target Endpoint) LinkType {
	switch {
	case source == EndpointEnd && target == EndpointStart:
		return FinishToStart
	case source == EndpointStart && target == EndpointEnd:
		return StartToFinish
	case source == EndpointEnd && target == EndpointEnd:
		return FinishToFinish
	default:
		return StartToStart
	}
}

// Link is a directed precedence edge between two interventions.
type Link struct {
	ID        string
	SourceID  string
	TargetID  string
	Type      LinkType
	CreatedAt time.Time
}

// Key identifies a link by its natural uniqueness triple.
func (l *Link) Key() LinkKey {
	return LinkKey{SourceID: l.SourceID, TargetID: l.TargetID, Type: l.Type}
}

type LinkKey struct {
	SourceID string
	TargetID string
	Type     LinkType
}
