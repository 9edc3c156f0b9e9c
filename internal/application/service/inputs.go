package service

import (
	"time"

	"github.com/councilworks/finance-portal/internal/domain/apperr"
	"github.com/councilworks/finance-portal/internal/domain/entity"
)

// Logger is the minimal logging dependency for application services.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// EventInput carries event details for create/update requests.
type EventInput struct {
	EventName        string `json:"event_name" validate:"required"`
	EventDate        string `json:"event_date" validate:"required"`
	EventDescription string `json:"event_description" validate:"required"`
	CouncilName      string `json:"council_name" validate:"required"`
}

// BankInput carries payout account details for create/update requests.
type BankInput struct {
	AccountHolderName string `json:"account_holder_name" validate:"required"`
	AccountNumber     string `json:"account_number" validate:"required,bank_account"`
	IFSCCode          string `json:"ifsc_code" validate:"required,ifsc"`
	BankName          string `json:"bank_name" validate:"required"`
}

// ItemInput is one bill line item as submitted by the client. The bill
// ID is assigned server-side when absent. Amount is a decimal string.
type ItemInput struct {
	BillID      string `json:"bill_id"`
	Description string `json:"description" validate:"required"`
	Date        string `json:"date" validate:"required"`
	Amount      string `json:"amount" validate:"required"`
}

// FileInput is one uploaded receipt, order-aligned with the item list.
type FileInput struct {
	Name    string
	Content []byte
}

// CreateInput is the payload for creating a reimbursement document.
type CreateInput struct {
	Event EventInput  `json:"event_details" validate:"required"`
	Bank  BankInput   `json:"bank_details" validate:"required"`
	Items []ItemInput `json:"reimbursement_items" validate:"required,min=1,dive"`
}

// UpdateInput is a partial patch. Nil sections are left untouched. A
// non-nil Items list uses replacement semantics and must be accompanied
// by one file per item.
type UpdateInput struct {
	ExpectedVersion  int64
	Event            *EventInput
	Bank             *BankInput
	Items            []ItemInput
	Files            []FileInput
	RejectionRemarks *string
}

const dateLayout = "2006-01-02"

func parseDate(s, field string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, apperr.Validation("invalid date, expected YYYY-MM-DD", field)
	}
	return t, nil
}

func (in EventInput) toEntity() (entity.EventDetails, error) {
	date, err := parseDate(in.EventDate, "event_details.event_date")
	if err != nil {
		return entity.EventDetails{}, err
	}
	return entity.EventDetails{
		EventName:        in.EventName,
		EventDate:        date,
		EventDescription: in.EventDescription,
		CouncilName:      in.CouncilName,
	}, nil
}

func (in BankInput) toEntity() entity.BankDetails {
	return entity.BankDetails{
		AccountHolderName: in.AccountHolderName,
		AccountNumber:     in.AccountNumber,
		IFSCCode:          in.IFSCCode,
		BankName:          in.BankName,
	}
}
