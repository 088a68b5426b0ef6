package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Reserved collection names. Everything else is either a user-defined
// collection or an exclusion sub-bucket (see ExclusionCollection).
const (
	CollectionExpenses   = "expenses"
	CollectionFailed     = "failed"
	CollectionTrash      = "trash"
	CollectionExclusions = "exclusions"
	CollectionKeywords   = "keywords"
	CollectionRecipients = "recipients"
)

// ExclusionPrefix namespaces the per-recipient exclusion buckets.
const ExclusionPrefix = "exclusion/"

const (
	DictionaryKeyword   = "keyword"
	DictionaryRecipient = "recipient"
)

const (
	DurationYear   = "year"
	DurationMonth  = "month"
	DurationWeek   = "week"
	DurationCustom = "custom"
)

// Direction selects whether an aggregate delta adds or removes an expense's
// amount. The statistics aggregator and the budget updater are both driven
// off the same direction within one transaction.
type Direction string

const (
	DirectionAdd    Direction = "add"
	DirectionDelete Direction = "delete"
)

type (
	// Expense is a single transaction record. Amount, Date and Recipient are
	// optional until the record is completed; see Complete.
	Expense struct {
		ID         string
		Label      string // comma-separated label list, may be empty
		Recipient  string // normalized lowercase, empty = absent
		Ref        string
		Collection string
		Amount     decimal.NullDecimal
		Currency   string
		Date       time.Time // zero = absent
		Receipt    string
		Image      string
		ModifiedAt time.Time
	}

	// DictionaryItem maps a match string to a label. Identity is (Match, Type);
	// ID is a secondary stable identifier.
	DictionaryItem struct {
		ID         string
		Match      string
		Type       string // DictionaryKeyword or DictionaryRecipient
		Label      string
		ModifiedAt time.Time
	}

	// Budget is a date-bounded, optionally label-filtered spending envelope.
	// Current is denormalized and maintained by the budget updater.
	Budget struct {
		ID       string
		Label    string // substring filter against expense labels, empty = all
		Title    string
		Total    decimal.Decimal
		Current  decimal.Decimal
		Start    time.Time
		End      time.Time
		Duration string // DurationYear, DurationMonth, DurationWeek, DurationCustom
		Repeat   bool
	}

	// Report is the aggregate outcome of an import run. A zero-valued report
	// means "found nothing" and is not an error.
	Report struct {
		Complete   int
		Incomplete int
		Excluded   int
		// CurrencyChange carries the newly observed currency token when it
		// differs from the configured one; empty otherwise.
		CurrencyChange string
	}
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidCollection = errors.New("invalid collection")
	ErrNotDeletable      = errors.New("only trash and failed expenses can be hard deleted")
)

// ExclusionCollection returns the per-recipient exclusion bucket name.
func ExclusionCollection(recipient string) string {
	return ExclusionPrefix + recipient
}

// IsExclusionCollection reports whether name is a per-recipient exclusion bucket.
func IsExclusionCollection(name string) bool {
	return strings.HasPrefix(name, ExclusionPrefix)
}

// Complete reports whether the expense has all the fields needed to take part
// in totals: date, recipient and amount.
func (e Expense) Complete() bool {
	return !e.Date.IsZero() && e.Recipient != "" && e.Amount.Valid
}

// InLedger reports whether the expense counts towards spending totals, i.e.
// it is not trashed, failed or excluded.
func (e Expense) InLedger() bool {
	switch e.Collection {
	case CollectionTrash, CollectionFailed, CollectionExclusions:
		return false
	}
	return !IsExclusionCollection(e.Collection)
}

// Labels splits the comma-separated label field into trimmed tokens,
// dropping empties.
func (e Expense) Labels() []string {
	if e.Label == "" {
		return nil
	}
	parts := strings.Split(e.Label, ",")
	labels := make([]string, 0, len(parts))
	for _, p := range parts {
		if l := strings.TrimSpace(p); l != "" {
			labels = append(labels, l)
		}
	}
	return labels
}

// HasLabel reports whether the expense label list contains filter as a
// substring. An empty filter matches everything. Substring semantics can
// false-positive across label boundaries ("art" matches "mart"); this mirrors
// how budgets have always matched and is covered by tests.
func (e Expense) HasLabel(filter string) bool {
	if filter == "" {
		return true
	}
	return strings.Contains(e.Label, filter)
}

// Matches reports whether the budget applies to the given expense at time now:
// the window contains the expense date, the window is still active, and the
// label filter matches.
func (b Budget) Matches(e Expense, now time.Time) bool {
	if e.Date.IsZero() {
		return false
	}
	if e.Date.Before(b.Start) || e.Date.After(b.End) {
		return false
	}
	if b.End.Before(now) {
		return false
	}
	return e.HasLabel(b.Label)
}

// Expired reports whether the budget window has fully passed at time now.
func (b Budget) Expired(now time.Time) bool {
	return b.End.Before(now)
}

// Add folds another report into r.
func (r *Report) Add(other Report) {
	r.Complete += other.Complete
	r.Incomplete += other.Incomplete
	r.Excluded += other.Excluded
	if other.CurrencyChange != "" {
		r.CurrencyChange = other.CurrencyChange
	}
}

// Empty reports whether the run found nothing at all.
func (r Report) Empty() bool {
	return r.Complete == 0 && r.Incomplete == 0 && r.Excluded == 0
}

// DictionaryTypePriority orders dictionary match types: keyword entries win
// over recipient entries, which win over anything else.
func DictionaryTypePriority(t string) int {
	switch t {
	case DictionaryKeyword:
		return 2
	case DictionaryRecipient:
		return 1
	}
	return 0
}
