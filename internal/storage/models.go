package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"pesa/internal/core"
)

// timeFormat is how timestamps are stored. RFC 3339 in UTC keeps string
// comparison and date range queries consistent.
const timeFormat = time.RFC3339

type expenseRow struct {
	ID         string
	Label      string
	Recipient  string
	Ref        string
	Collection string
	Amount     sql.NullString
	Currency   string
	Date       sql.NullString
	Receipt    string
	Image      string
	ModifiedAt string
}

func (r expenseRow) toCore() (core.Expense, error) {
	e := core.Expense{
		ID:         r.ID,
		Label:      r.Label,
		Recipient:  r.Recipient,
		Ref:        r.Ref,
		Collection: r.Collection,
		Currency:   r.Currency,
		Receipt:    r.Receipt,
		Image:      r.Image,
	}

	if r.Amount.Valid {
		amount, err := decimal.NewFromString(r.Amount.String)
		if err != nil {
			return core.Expense{}, fmt.Errorf("parse stored amount %q: %w", r.Amount.String, err)
		}
		e.Amount = decimal.NullDecimal{Decimal: amount, Valid: true}
	}

	if r.Date.Valid {
		date, err := time.Parse(timeFormat, r.Date.String)
		if err != nil {
			return core.Expense{}, fmt.Errorf("parse stored date %q: %w", r.Date.String, err)
		}
		e.Date = date
	}

	modifiedAt, err := time.Parse(timeFormat, r.ModifiedAt)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse stored modified_at %q: %w", r.ModifiedAt, err)
	}
	e.ModifiedAt = modifiedAt

	return e, nil
}

func fromCoreExpense(e core.Expense) expenseRow {
	row := expenseRow{
		ID:         e.ID,
		Label:      e.Label,
		Recipient:  e.Recipient,
		Ref:        e.Ref,
		Collection: e.Collection,
		Currency:   e.Currency,
		Receipt:    e.Receipt,
		Image:      e.Image,
		ModifiedAt: e.ModifiedAt.UTC().Format(timeFormat),
	}
	if e.Amount.Valid {
		row.Amount = sql.NullString{String: e.Amount.Decimal.String(), Valid: true}
	}
	if !e.Date.IsZero() {
		row.Date = sql.NullString{String: e.Date.UTC().Format(timeFormat), Valid: true}
	}
	return row
}

type budgetRow struct {
	ID       string
	Label    string
	Title    string
	Total    string
	Current  string
	Start    string
	End      string
	Duration string
	Repeat   int64
}

func (r budgetRow) toCore() (core.Budget, error) {
	total, err := decimal.NewFromString(r.Total)
	if err != nil {
		return core.Budget{}, fmt.Errorf("parse stored budget total %q: %w", r.Total, err)
	}
	current, err := decimal.NewFromString(r.Current)
	if err != nil {
		return core.Budget{}, fmt.Errorf("parse stored budget current %q: %w", r.Current, err)
	}
	start, err := time.Parse(timeFormat, r.Start)
	if err != nil {
		return core.Budget{}, fmt.Errorf("parse stored budget start %q: %w", r.Start, err)
	}
	end, err := time.Parse(timeFormat, r.End)
	if err != nil {
		return core.Budget{}, fmt.Errorf("parse stored budget end %q: %w", r.End, err)
	}

	return core.Budget{
		ID:       r.ID,
		Label:    r.Label,
		Title:    r.Title,
		Total:    total,
		Current:  current,
		Start:    start,
		End:      end,
		Duration: r.Duration,
		Repeat:   r.Repeat != 0,
	}, nil
}

func fromCoreBudget(b core.Budget) budgetRow {
	repeat := int64(0)
	if b.Repeat {
		repeat = 1
	}
	return budgetRow{
		ID:       b.ID,
		Label:    b.Label,
		Title:    b.Title,
		Total:    b.Total.String(),
		Current:  b.Current.String(),
		Start:    b.Start.UTC().Format(timeFormat),
		End:      b.End.UTC().Format(timeFormat),
		Duration: b.Duration,
		Repeat:   repeat,
	}
}

// Statistic is a materialized aggregate row. The composite columns are the
// query key; Path is the rendered unique string form.
type Statistic struct {
	Path  string
	Level string
	Year  sql.NullInt64
	Month sql.NullInt64
	Day   sql.NullInt64
	Label sql.NullString
	Value string
	Total decimal.Decimal
}
