package domain

import "fmt"

// State is the lifecycle stage of an intervention.
type State string

const (
	StateQuoteRequested        State = "quote_requested"
	StateQuotePending          State = "quote_pending"
	StateQuoteApproved         State = "quote_approved"
	StatePlanned               State = "planned"
	StateConfirmedByContractor State = "confirmed_by_contractor"
	StateMaterialsOK           State = "materials_ok"
	StateReminder              State = "reminder"
	StateDone                  State = "done"
)

// Category groups states for display and for conflict detection.
type Category string

const (
	CategoryPreparation Category = "preparation"
	CategoryPlanning    Category = "planning"
	CategoryAnnex       Category = "annex"
)

// StateInfo carries the display metadata of a state.
type StateInfo struct {
	State    State
	Label    string
	Category Category
	Hatched  bool
	Dashed   bool
	Faded    bool
	// RollsForward marks states whose past-dated interventions are moved to
	// today on refresh.
	RollsForward bool
}

var stateTable = []StateInfo{
	{State: StateQuoteRequested, Label: "Demande du devis", Category: CategoryPreparation, Hatched: true, Dashed: true},
	{State: StateQuotePending, Label: "Attente validation devis", Category: CategoryPreparation, Hatched: true, Dashed: true},
	{State: StateQuoteApproved, Label: "Devis validé", Category: CategoryPreparation, Hatched: true},
	{State: StatePlanned, Label: "Prévision d'intervention", Category: CategoryPlanning, Dashed: true},
	{State: StateConfirmedByContractor, Label: "Intervention validée artisan", Category: CategoryPlanning, Dashed: true},
	{State: StateMaterialsOK, Label: "Ok matériaux", Category: CategoryPlanning},
	{State: StateReminder, Label: "A ne pas oublier", Category: CategoryAnnex, RollsForward: true},
	{State: StateDone, Label: "Terminé", Category: CategoryAnnex, Faded: true},
}

// States returns every lifecycle state in display order.
func States() []StateInfo {
	out := make([]StateInfo, len(stateTable))
	copy(out, stateTable)
	return out
}

// Categories returns the categories in display order.
func Categories() []Category {
	return []Category{CategoryPreparation, CategoryPlanning, CategoryAnnex}
}

// Info returns the display metadata for s. Unknown states get a bare entry
// labelled with the raw value.
func (s State) Info() StateInfo {
	for _, info := range stateTable {
		if info.State == s {
			return info
		}
	}
	return StateInfo{State: s, Label: string(s)}
}

func (s State) IsValid() bool {
	for _, info := range stateTable {
		if info.State == s {
			return true
		}
	}
	return false
}

// IsActivePlanning reports whether s belongs to the planning category. Only
// these states take part in company double-booking checks.
func (s State) IsActivePlanning() bool {
	return s.Info().Category == CategoryPlanning
}

// ParseState accepts either the state key or its display label.
func ParseState(v string) (State, error) {
	for _, info := range stateTable {
		if string(info.State) == v || info.Label == v {
			return info.State, nil
		}
	}
	return "", fmt.Errorf("unknown intervention state %q", v)
}
