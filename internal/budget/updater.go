// Package budget maintains the denormalized running totals of spending
// envelopes and rolls expired repeating budgets forward to new windows.
package budget

import (
	"context"
	"fmt"
	"time"

	"pesa/internal/core"
	"pesa/internal/storage"
)

// Updater applies expense deltas to matching budgets. Stateless; every call
// runs against the caller's transaction.
type Updater struct {
	// now is swappable for tests.
	now func() time.Time
}

func NewUpdater() *Updater {
	return &Updater{now: time.Now}
}

// NewUpdaterAt pins "now" for deterministic tests.
func NewUpdaterAt(now func() time.Time) *Updater {
	return &Updater{now: now}
}

// ApplyDelta adjusts `current` on every budget whose window contains the
// expense's date, whose window is still active, and whose label filter
// matches. Expired budgets are never retroactively updated by this path;
// rollover recomputes them from scratch.
func (u *Updater) ApplyDelta(ctx context.Context, q *storage.Queries, e core.Expense, dir core.Direction) error {
	if e.Date.IsZero() || !e.Amount.Valid {
		return nil
	}

	budgets, err := q.ListBudgets(ctx)
	if err != nil {
		return fmt.Errorf("load budgets: %w", err)
	}

	now := u.now().UTC()
	delta := e.Amount.Decimal
	if dir == core.DirectionDelete {
		delta = delta.Neg()
	}

	for _, b := range budgets {
		if !b.Matches(e, now) {
			continue
		}
		if err := q.UpdateBudgetCurrent(ctx, b.ID, b.Current.Add(delta)); err != nil {
			return fmt.Errorf("budget %s: %w", b.ID, err)
		}
	}
	return nil
}
