package workflow

import (
	"errors"
	"testing"
)

func TestMachineTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    State
		trigger Trigger
		want    State
		wantErr bool
	}{
		{name: "submit pending", from: StatePending, trigger: TriggerSubmit, want: StateUnderReview},
		{name: "edit pending stays pending", from: StatePending, trigger: TriggerEdit, want: StatePending},
		{name: "advance under review", from: StateUnderReview, trigger: TriggerAdvance, want: StateUnderReview},
		{name: "approve under review", from: StateUnderReview, trigger: TriggerApprove, want: StateApproved},
		{name: "reject under review", from: StateUnderReview, trigger: TriggerReject, want: StateRejected},
		{name: "edit under review restarts", from: StateUnderReview, trigger: TriggerEdit, want: StatePending},
		{name: "edit rejected restarts", from: StateRejected, trigger: TriggerEdit, want: StatePending},
		{name: "approve pending refused", from: StatePending, trigger: TriggerApprove, wantErr: true},
		{name: "reject pending refused", from: StatePending, trigger: TriggerReject, wantErr: true},
		{name: "submit rejected refused", from: StateRejected, trigger: TriggerSubmit, wantErr: true},
		{name: "edit approved refused", from: StateApproved, trigger: TriggerEdit, wantErr: true},
		{name: "approve approved refused", from: StateApproved, trigger: TriggerApprove, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMachine(tt.from)
			if err != nil {
				t.Fatalf("NewMachine(%s): %v", tt.from, err)
			}

			err = m.Fire(tt.trigger)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTransition) {
					t.Fatalf("Fire(%s) from %s: expected ErrInvalidTransition, got %v", tt.trigger, tt.from, err)
				}
				if m.State() != tt.from {
					t.Errorf("failed fire moved state to %s", m.State())
				}
				return
			}
			if err != nil {
				t.Fatalf("Fire(%s) from %s: %v", tt.trigger, tt.from, err)
			}
			if m.State() != tt.want {
				t.Errorf("state = %s, want %s", m.State(), tt.want)
			}
		})
	}
}

func TestNewMachineRejectsUnknownState(t *testing.T) {
	if _, err := NewMachine(State("lost")); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestCanFire(t *testing.T) {
	m, err := NewMachine(StateApproved)
	if err != nil {
		t.Fatal(err)
	}
	if len(m.PermittedTriggers()) != 0 {
		t.Errorf("approved is terminal, got triggers %v", m.PermittedTriggers())
	}

	m, err = NewMachine(StateUnderReview)
	if err != nil {
		t.Fatal(err)
	}
	if !m.CanFire(TriggerApprove) || !m.CanFire(TriggerReject) {
		t.Error("under_review should permit approve and reject")
	}
	if m.CanFire(TriggerSubmit) {
		t.Error("under_review should not permit submit")
	}
}
