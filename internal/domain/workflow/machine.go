package workflow

import "fmt"

// Machine validates review-lifecycle transitions. It is a value type:
// callers build one from a persisted status, fire triggers against it and
// write the resulting state back inside the same database transaction.
type Machine struct {
	current     State
	transitions map[State]map[Trigger]State
}

// reviewTransitions is the fixed transition table for the document
// review lifecycle.
var reviewTransitions = map[State]map[Trigger]State{
	StatePending: {
		TriggerSubmit: StateUnderReview,
		TriggerEdit:   StatePending,
	},
	StateUnderReview: {
		TriggerAdvance: StateUnderReview,
		TriggerApprove: StateApproved,
		TriggerReject:  StateRejected,
		TriggerEdit:    StatePending,
	},
	StateRejected: {
		TriggerEdit: StatePending,
	},
}

// NewMachine creates a machine positioned at the given state.
func NewMachine(initial State) (*Machine, error) {
	if !initial.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidState, initial)
	}
	return &Machine{current: initial, transitions: reviewTransitions}, nil
}

// State returns the current state.
func (m *Machine) State() State {
	return m.current
}

// CanFire returns true if the trigger is permitted in the current state.
func (m *Machine) CanFire(trigger Trigger) bool {
	_, ok := m.transitions[m.current][trigger]
	return ok
}

// Fire executes the trigger, moving to the new state if permitted.
func (m *Machine) Fire(trigger Trigger) error {
	next, ok := m.transitions[m.current][trigger]
	if !ok {
		return fmt.Errorf("%w: cannot fire %s from %s", ErrInvalidTransition, trigger, m.current)
	}
	m.current = next
	return nil
}

// PermittedTriggers returns the triggers that can fire in the current
// state.
func (m *Machine) PermittedTriggers() []Trigger {
	perms := m.transitions[m.current]
	triggers := make([]Trigger, 0, len(perms))
	for t := range perms {
		triggers = append(triggers, t)
	}
	return triggers
}
