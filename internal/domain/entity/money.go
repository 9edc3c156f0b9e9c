package entity

import (
	"github.com/shopspring/decimal"

	"github.com/councilworks/finance-portal/internal/domain/apperr"
)

// Amounts are stored as int64 paise so that summation is exact. Decimal
// values only appear at the API boundary.

var paiseFactor = decimal.NewFromInt(100)

// ParseAmount converts a decimal rupee string (e.g. "150.50") to paise.
// Rejects negative amounts and more than two fractional digits.
func ParseAmount(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, apperr.Validation("amount is not a valid decimal number", "bill.amount")
	}
	if d.IsNegative() {
		return 0, apperr.Validation("amount must not be negative", "bill.amount")
	}
	if d.Exponent() < -2 {
		return 0, apperr.Validation("amount has more than two decimal places", "bill.amount")
	}
	return d.Mul(paiseFactor).IntPart(), nil
}

// FormatPaise renders paise as a two-decimal rupee string.
func FormatPaise(p int64) string {
	return decimal.New(p, -2).StringFixed(2)
}

// TotalPaise sums the bill amounts of all line items. Returns 0 for an
// empty sequence. Pure function: callers recompute the document total
// with it before every persist.
func TotalPaise(items []BillLineItem) int64 {
	var total int64
	for _, it := range items {
		total += it.Bill.AmountPaise
	}
	return total
}
