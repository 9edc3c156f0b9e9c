package workflow

import "github.com/councilworks/finance-portal/internal/domain/entity"

// State is a review-lifecycle state. States mirror entity.StaffStatus so
// the machine can validate transitions on the persisted value directly.
type State string

const (
	StatePending     State = State(entity.StatusPending)
	StateUnderReview State = State(entity.StatusUnderReview)
	StateApproved    State = State(entity.StatusApproved)
	StateRejected    State = State(entity.StatusRejected)
)

var validStates = map[State]bool{
	StatePending:     true,
	StateUnderReview: true,
	StateApproved:    true,
	StateRejected:    true,
}

// Approved is terminal. Rejected is terminal for review purposes, but an
// edit moves the document back to pending through TriggerEdit.
var terminalStates = map[State]bool{
	StateApproved: true,
}

// IsTerminal returns true when no trigger can leave the state.
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// IsValid returns true if the state is a known lifecycle state.
func (s State) IsValid() bool {
	return validStates[s]
}

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}
