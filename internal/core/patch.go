package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExpensePatch enumerates the fields of an edit explicitly. A nil field means
// "unchanged"; a non-nil field carries the new value (which may be the zero
// value, e.g. clearing the label). This replaces dynamic field-name indexing
// with a concrete change set.
type ExpensePatch struct {
	Label      *string
	Recipient  *string
	Ref        *string
	Collection *string
	Amount     *decimal.NullDecimal
	Currency   *string
	Date       *time.Time
	Receipt    *string
	Image      *string
}

// Apply copies the set fields onto the expense and stamps ModifiedAt.
func (p ExpensePatch) Apply(e *Expense, now time.Time) {
	if p.Label != nil {
		e.Label = *p.Label
	}
	if p.Recipient != nil {
		e.Recipient = NormalizeRecipient(*p.Recipient)
	}
	if p.Ref != nil {
		e.Ref = *p.Ref
	}
	if p.Collection != nil {
		e.Collection = *p.Collection
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Currency != nil {
		e.Currency = *p.Currency
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.Receipt != nil {
		e.Receipt = *p.Receipt
	}
	if p.Image != nil {
		e.Image = *p.Image
	}
	e.ModifiedAt = now
}

// ChangesLabel reports whether the patch sets a label different from the
// expense's current one.
func (p ExpensePatch) ChangesLabel(e Expense) bool {
	return p.Label != nil && *p.Label != e.Label
}

// String returns a pointer to s, a convenience for building patches.
func String(s string) *string { return &s }

// Time returns a pointer to t, a convenience for building patches.
func Time(t time.Time) *time.Time { return &t }

// Decimal wraps d in a valid NullDecimal pointer, a convenience for building
// patches.
func Decimal(d decimal.Decimal) *decimal.NullDecimal {
	return &decimal.NullDecimal{Decimal: d, Valid: true}
}
