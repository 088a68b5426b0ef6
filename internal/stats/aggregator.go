package stats

import (
	"context"
	"fmt"

	"pesa/internal/core"
	"pesa/internal/storage"
)

// Aggregator applies expense deltas to the statistics rows. It has no state
// of its own; every call runs against the caller's transaction.
type Aggregator struct{}

func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// ApplyDelta upserts-and-adjusts every path the expense contributes to.
// Only expenses with date, label and amount all present participate; others
// are a silent no-op. Callers must pass the expense's original values when
// deleting, so the inverse deltas land on the exact path set the add touched.
func (a *Aggregator) ApplyDelta(ctx context.Context, q *storage.Queries, e core.Expense, dir core.Direction) error {
	labels := e.Labels()
	if e.Date.IsZero() || !e.Amount.Valid || len(labels) == 0 {
		return nil
	}

	delta := e.Amount.Decimal
	if dir == core.DirectionDelete {
		delta = delta.Neg()
	}

	for _, stat := range PathSet(e.Date, labels) {
		if err := q.AddToStatistic(ctx, stat, delta); err != nil {
			return fmt.Errorf("statistic %s: %w", stat.Path, err)
		}
	}
	return nil
}
