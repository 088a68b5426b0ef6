package budget

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"pesa/internal/core"
	"pesa/internal/log"
	"pesa/internal/storage"
)

// NextWindow computes the replacement window for a repeating budget at time
// now. Year and month windows snap to calendar boundaries, week windows are
// Sunday-start, and custom windows keep their original span, advanced by
// whole years until the window covers now.
func NextWindow(b core.Budget, now time.Time) (time.Time, time.Time) {
	now = now.UTC()

	switch b.Duration {
	case core.DurationYear:
		start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(now.Year(), time.December, 31, 23, 59, 59, 0, time.UTC)
		return start, end

	case core.DurationMonth:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 1, -1)
		end = time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, 0, time.UTC)
		return start, end

	case core.DurationWeek:
		day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		start := day.AddDate(0, 0, -int(day.Weekday())) // back to Sunday
		end := start.AddDate(0, 0, 6)
		end = time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, 0, time.UTC)
		return start, end

	default: // custom span
		start, end := b.Start.UTC(), b.End.UTC()
		for end.Before(now) {
			start = start.AddDate(1, 0, 0)
			end = end.AddDate(1, 0, 0)
		}
		return start, end
	}
}

// Rollover advances every expired repeating budget to its next window and
// recomputes `current` by resumming the matching ledger expenses in the new
// window. Run at process start. Each budget moves in its own transaction so
// one bad row cannot wedge the rest.
func Rollover(ctx context.Context, repo *storage.SQLiteRepository, logger *log.Logger) error {
	return RolloverAt(ctx, repo, logger, time.Now().UTC())
}

// RolloverAt is Rollover with a pinned clock, for tests.
func RolloverAt(ctx context.Context, repo *storage.SQLiteRepository, logger *log.Logger, now time.Time) error {
	budgets, err := repo.Queries().ListBudgets(ctx)
	if err != nil {
		return fmt.Errorf("list budgets: %w", err)
	}

	for _, b := range budgets {
		if !b.Repeat || !b.Expired(now) {
			continue
		}

		start, end := NextWindow(b, now)
		err := repo.RunInTransaction(ctx, func(q *storage.Queries) error {
			current, err := sumMatching(ctx, q, b.Label, start, end)
			if err != nil {
				return err
			}
			return q.UpdateBudgetWindow(ctx, b.ID, start, end, current)
		})
		if err != nil {
			return fmt.Errorf("roll over budget %s: %w", b.ID, err)
		}

		logger.InfoContext(ctx, "Rolled over budget",
			log.FieldBudgetID, b.ID,
			"start", start.Format(time.RFC3339),
			"end", end.Format(time.RFC3339))
	}
	return nil
}

// sumMatching freshly sums the amounts of ledger expenses inside the window
// whose labels match the filter. The stale prior total is never carried over.
func sumMatching(ctx context.Context, q *storage.Queries, labelFilter string, start, end time.Time) (decimal.Decimal, error) {
	expenses, err := q.ListLedgerExpensesBetween(ctx, start, end)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, e := range expenses {
		if !e.Amount.Valid || !e.HasLabel(labelFilter) {
			continue
		}
		total = total.Add(e.Amount.Decimal)
	}
	return total, nil
}
