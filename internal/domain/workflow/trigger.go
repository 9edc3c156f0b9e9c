package workflow

// Trigger is an event that can cause a state transition.
type Trigger string

const (
	// TriggerSubmit moves a pending document into review at its current
	// reviewer stage.
	TriggerSubmit Trigger = "SUBMIT"

	// TriggerAdvance records an intermediate approval: the document stays
	// under review while the reviewer chain moves to the next role.
	TriggerAdvance Trigger = "ADVANCE"

	// TriggerApprove records the final-stage approval.
	TriggerApprove Trigger = "APPROVE"

	// TriggerReject records a rejection at any stage.
	TriggerReject Trigger = "REJECT"

	// TriggerEdit restarts the review chain after the document content
	// changed.
	TriggerEdit Trigger = "EDIT"
)

// String returns the string representation of the trigger.
func (t Trigger) String() string {
	return string(t)
}
