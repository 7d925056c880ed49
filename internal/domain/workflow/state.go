package workflow

// State is a position in the invoice draft lifecycle
type State string

const (
	StateNoDraft      State = "NO_DRAFT"
	StateDraftPending State = "DRAFT_PENDING"
)

var validStates = map[State]bool{
	StateNoDraft:      true,
	StateDraftPending: true,
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a known lifecycle state
func (s State) IsValid() bool {
	return validStates[s]
}

// HasDraft returns true if a composed invoice awaits a decision in this state
func (s State) HasDraft() bool {
	return s == StateDraftPending
}
