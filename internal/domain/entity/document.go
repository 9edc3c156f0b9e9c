package entity

import "time"

// EventDetails describes the council event the expenses belong to.
type EventDetails struct {
	EventName        string    `json:"event_name"`
	EventDate        time.Time `json:"event_date"`
	EventDescription string    `json:"event_description"`
	CouncilName      string    `json:"council_name"`
}

// BankDetails is the payout account for an approved reimbursement.
type BankDetails struct {
	AccountHolderName string `json:"account_holder_name"`
	AccountNumber     string `json:"account_number"`
	IFSCCode          string `json:"ifsc_code"`
	BankName          string `json:"bank_name"`
}

// Bill is one itemized expense backed by a receipt file.
type Bill struct {
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	AmountPaise int64     `json:"amount_paise"`
	FileURL     string    `json:"file_url"`
}

// BillLineItem is a bill with its portal-wide unique identifier.
// Position preserves the submission order for display.
type BillLineItem struct {
	BillID   string `json:"bill_id"`
	Position int    `json:"position"`
	Bill     Bill   `json:"bill"`
}

// ReimbursementDocument is the aggregate root for one reimbursement
// request. TotalPaise is derived: it always equals the sum of the line
// item amounts and is recomputed server-side before every persist.
type ReimbursementDocument struct {
	ID               int64                 `json:"id"`
	DocumentID       string                `json:"document_id"`
	StudentID        string                `json:"student_id"`
	Event            EventDetails          `json:"event_details"`
	Items            []BillLineItem        `json:"reimbursement_items"`
	TotalPaise       int64                 `json:"total_paise"`
	Bank             BankDetails           `json:"bank_details"`
	StaffType        StaffRole             `json:"staff_type"`
	StaffStatus      StaffStatus           `json:"staff_status"`
	RejectionRemarks string                `json:"rejection_remarks"`
	Version          int64                 `json:"version"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
}

// TotalAmount returns the derived total as a decimal rupee string.
func (d *ReimbursementDocument) TotalAmount() string {
	return FormatPaise(d.TotalPaise)
}

// ApprovalHistoryEntry is one immutable record of a review transition.
type ApprovalHistoryEntry struct {
	ID             int64       `json:"id"`
	DocumentID     string      `json:"document_id"`
	ActorRole      string      `json:"actor_role"`
	PreviousStatus StaffStatus `json:"previous_status"`
	NewStatus      StaffStatus `json:"new_status"`
	PreviousRole   StaffRole   `json:"previous_role"`
	NewRole        StaffRole   `json:"new_role"`
	Remarks        string      `json:"remarks"`
	CreatedAt      time.Time   `json:"created_at"`
}
