// Package services sequences expense mutations: every operation runs inside
// one store transaction that updates the expense row, the collection
// counters, the statistics paths and the budget totals together, so a
// failure at any step leaves no partial effect.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pesa/internal/budget"
	"pesa/internal/core"
	"pesa/internal/dictionary"
	"pesa/internal/exclusion"
	"pesa/internal/log"
	"pesa/internal/stats"
	"pesa/internal/storage"
)

// ExpenseService orchestrates expense lifecycle operations and keeps every
// derived aggregate consistent with the expense rows.
type ExpenseService struct {
	repo    *storage.SQLiteRepository
	stats   *stats.Aggregator
	budgets *budget.Updater
	dict    *dictionary.Resolver
	filter  *exclusion.Filter
	logger  *log.Logger
	now     func() time.Time
}

func NewExpenseService(repo *storage.SQLiteRepository, dict *dictionary.Resolver, logger *log.Logger) *ExpenseService {
	return &ExpenseService{
		repo:    repo,
		stats:   stats.NewAggregator(),
		budgets: budget.NewUpdater(),
		dict:    dict,
		filter:  exclusion.NewFilter(),
		logger:  logger.WithComponent(log.ComponentExpense),
		now:     time.Now,
	}
}

// route picks the bucket for an expense that has no explicit collection:
// complete records go to the ledger, partial ones to failed for manual
// completion.
func route(e core.Expense) string {
	if e.Complete() {
		return core.CollectionExpenses
	}
	return core.CollectionFailed
}

// Create persists a new expense and applies its aggregate deltas.
func (s *ExpenseService) Create(ctx context.Context, e core.Expense) (core.Expense, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.Recipient = core.NormalizeRecipient(e.Recipient)
	if e.Collection == "" {
		e.Collection = route(e)
	}
	e.ModifiedAt = s.now().UTC()

	err := s.repo.RunInTransaction(ctx, func(q *storage.Queries) error {
		if err := q.AdjustCollectionCount(ctx, e.Collection, 1); err != nil {
			return err
		}
		if err := q.CreateExpense(ctx, e); err != nil {
			return err
		}
		return s.applyAggregates(ctx, q, e, core.DirectionAdd)
	})
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}

	s.logger.InfoContext(ctx, "Expense created",
		log.FieldExpenseID, e.ID,
		log.FieldCollection, e.Collection)
	return e, nil
}

// Update edits an expense. The previous row is snapshotted first so the
// aggregate reversal uses the original date, labels and amount, then the new
// values are added back; both phases run in the same transaction. When
// learnDictionary is set and the label changed, the recipient-to-label
// association is written back to the dictionary.
func (s *ExpenseService) Update(ctx context.Context, id string, patch core.ExpensePatch, learnDictionary bool) (core.Expense, error) {
	var next core.Expense

	err := s.repo.RunInTransaction(ctx, func(q *storage.Queries) error {
		prev, err := q.GetExpense(ctx, id)
		if err != nil {
			return err
		}

		next = prev
		patch.Apply(&next, s.now().UTC())

		// Completing a failed record promotes it; breaking a ledger record
		// demotes it. Explicit collection moves are left alone.
		if patch.Collection == nil {
			switch next.Collection {
			case core.CollectionFailed, core.CollectionExpenses:
				next.Collection = route(next)
			}
		}

		if err := s.transition(ctx, q, prev, next); err != nil {
			return err
		}

		if learnDictionary && patch.ChangesLabel(prev) {
			recipient := next.Recipient
			if recipient == "" {
				recipient = prev.Recipient
			}
			if err := s.dict.Learn(ctx, q, recipient, next.Label); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}

	s.logger.InfoContext(ctx, "Expense updated",
		log.FieldExpenseID, id,
		log.FieldCollection, next.Collection)
	return next, nil
}

// SoftDelete moves an expense to trash, reversing its aggregate
// contributions.
func (s *ExpenseService) SoftDelete(ctx context.Context, id string) error {
	err := s.repo.RunInTransaction(ctx, func(q *storage.Queries) error {
		return s.moveTo(ctx, q, id, core.CollectionTrash)
	})
	if err != nil {
		return fmt.Errorf("soft delete expense: %w", err)
	}
	s.logger.InfoContext(ctx, "Expense trashed", log.FieldExpenseID, id)
	return nil
}

// SoftDeleteBatch trashes several expenses in one transaction so the
// aggregates never observe a partially-applied batch.
func (s *ExpenseService) SoftDeleteBatch(ctx context.Context, ids []string) error {
	err := s.repo.RunInTransaction(ctx, func(q *storage.Queries) error {
		for _, id := range ids {
			if err := s.moveTo(ctx, q, id, core.CollectionTrash); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("soft delete batch: %w", err)
	}
	s.logger.InfoContext(ctx, "Expenses trashed", log.FieldCount, len(ids))
	return nil
}

// Restore brings a trashed expense back, re-routing it by completeness and
// re-applying its aggregate contributions. A recipient still on the
// exclusion list reroutes the restore into the excluded bucket, the same
// override imports apply.
func (s *ExpenseService) Restore(ctx context.Context, id string) error {
	err := s.repo.RunInTransaction(ctx, func(q *storage.Queries) error {
		prev, err := q.GetExpense(ctx, id)
		if err != nil {
			return err
		}
		next := prev
		next.Collection = route(next)
		excluded, err := s.filter.IsExcluded(ctx, q, next.Recipient)
		if err != nil {
			return err
		}
		if excluded {
			next.Collection = core.CollectionExclusions
		}
		next.ModifiedAt = s.now().UTC()
		return s.transition(ctx, q, prev, next)
	})
	if err != nil {
		return fmt.Errorf("restore expense: %w", err)
	}
	s.logger.InfoContext(ctx, "Expense restored", log.FieldExpenseID, id)
	return nil
}

// HardDelete permanently removes an expense. Only trash and failed rows can
// be hard deleted; everything else must be soft-deleted first.
func (s *ExpenseService) HardDelete(ctx context.Context, id string) error {
	err := s.repo.RunInTransaction(ctx, func(q *storage.Queries) error {
		e, err := q.GetExpense(ctx, id)
		if err != nil {
			return err
		}
		if e.Collection != core.CollectionTrash && e.Collection != core.CollectionFailed {
			return core.ErrNotDeletable
		}
		if err := q.AdjustCollectionCount(ctx, e.Collection, -1); err != nil {
			return err
		}
		return q.DeleteExpense(ctx, e.ID)
	})
	if err != nil {
		return fmt.Errorf("hard delete expense: %w", err)
	}
	s.logger.InfoContext(ctx, "Expense deleted", log.FieldExpenseID, id)
	return nil
}

// MoveToCollection moves an expense into a (possibly user-defined) bucket.
func (s *ExpenseService) MoveToCollection(ctx context.Context, id, collection string) error {
	if collection == "" || core.IsExclusionCollection(collection) {
		return core.ErrInvalidCollection
	}
	err := s.repo.RunInTransaction(ctx, func(q *storage.Queries) error {
		return s.moveTo(ctx, q, id, collection)
	})
	if err != nil {
		return fmt.Errorf("move expense: %w", err)
	}
	return nil
}

// ExcludeRecipient puts a recipient on the exclusion list and diverts every
// non-trashed expense of theirs into the excluded bucket, reversing ledger
// aggregates as it goes. Consistent for any number of expenses sharing the
// recipient: the whole move is one transaction.
func (s *ExpenseService) ExcludeRecipient(ctx context.Context, recipient string) error {
	recipient = core.NormalizeRecipient(recipient)
	if recipient == "" {
		return core.ErrInvalidCollection
	}
	bucket := core.ExclusionCollection(recipient)

	err := s.repo.RunInTransaction(ctx, func(q *storage.Queries) error {
		// Creates the marker row; its existence is what IsExcluded checks.
		if err := q.AdjustCollectionCount(ctx, bucket, 0); err != nil {
			return err
		}

		expenses, err := q.ListExpensesByRecipient(ctx, recipient)
		if err != nil {
			return err
		}
		for _, prev := range expenses {
			if prev.Collection == core.CollectionTrash || prev.Collection == core.CollectionExclusions {
				continue
			}
			next := prev
			next.Collection = core.CollectionExclusions
			next.ModifiedAt = s.now().UTC()
			if err := s.transition(ctx, q, prev, next); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("exclude recipient: %w", err)
	}

	s.logger.InfoContext(ctx, "Recipient excluded", log.FieldRecipient, recipient)
	return nil
}

// UnexcludeRecipient removes the exclusion and restores the recipient's
// excluded expenses back to the ledger, reversing every counter.
func (s *ExpenseService) UnexcludeRecipient(ctx context.Context, recipient string) error {
	recipient = core.NormalizeRecipient(recipient)
	if recipient == "" {
		return core.ErrInvalidCollection
	}
	bucket := core.ExclusionCollection(recipient)

	err := s.repo.RunInTransaction(ctx, func(q *storage.Queries) error {
		expenses, err := q.ListExpensesByRecipient(ctx, recipient)
		if err != nil {
			return err
		}
		for _, prev := range expenses {
			if prev.Collection != core.CollectionExclusions {
				continue
			}
			next := prev
			next.Collection = core.CollectionExpenses
			next.ModifiedAt = s.now().UTC()
			if err := s.transition(ctx, q, prev, next); err != nil {
				return err
			}
		}
		return q.DeleteCollection(ctx, bucket)
	})
	if err != nil {
		return fmt.Errorf("unexclude recipient: %w", err)
	}

	s.logger.InfoContext(ctx, "Recipient exclusion removed", log.FieldRecipient, recipient)
	return nil
}

// moveTo loads the expense and transitions it to the target bucket.
func (s *ExpenseService) moveTo(ctx context.Context, q *storage.Queries, id, collection string) error {
	prev, err := q.GetExpense(ctx, id)
	if err != nil {
		return err
	}
	if prev.Collection == collection {
		return nil
	}
	next := prev
	next.Collection = collection
	next.ModifiedAt = s.now().UTC()
	return s.transition(ctx, q, prev, next)
}

// transition writes the new expense state and reconciles every derived
// aggregate against the previous state: bucket counters move symmetrically,
// and the aggregates are reversed with the old values before being
// re-applied with the new ones. The per-recipient exclusion bucket mirrors
// membership in exclusions, so it is adjusted here too and no caller tracks
// it separately.
func (s *ExpenseService) transition(ctx context.Context, q *storage.Queries, prev, next core.Expense) error {
	if prev.Collection != next.Collection {
		if err := q.AdjustCollectionCount(ctx, prev.Collection, -1); err != nil {
			return err
		}
		if err := q.AdjustCollectionCount(ctx, next.Collection, 1); err != nil {
			return err
		}
	}

	leaving := prev.Collection == core.CollectionExclusions &&
		(next.Collection != core.CollectionExclusions || prev.Recipient != next.Recipient)
	entering := next.Collection == core.CollectionExclusions &&
		(prev.Collection != core.CollectionExclusions || prev.Recipient != next.Recipient)
	if leaving && prev.Recipient != "" {
		if err := q.AdjustCollectionCount(ctx, core.ExclusionCollection(prev.Recipient), -1); err != nil {
			return err
		}
	}
	if entering && next.Recipient != "" {
		if err := q.AdjustCollectionCount(ctx, core.ExclusionCollection(next.Recipient), 1); err != nil {
			return err
		}
	}

	if err := q.UpdateExpense(ctx, next); err != nil {
		return err
	}

	if err := s.applyAggregates(ctx, q, prev, core.DirectionDelete); err != nil {
		return err
	}
	return s.applyAggregates(ctx, q, next, core.DirectionAdd)
}

// applyAggregates drives the statistics and budget deltas for a ledger
// expense; non-ledger expenses contribute nothing.
func (s *ExpenseService) applyAggregates(ctx context.Context, q *storage.Queries, e core.Expense, dir core.Direction) error {
	if !e.InLedger() {
		return nil
	}
	if err := s.stats.ApplyDelta(ctx, q, e, dir); err != nil {
		return err
	}
	return s.budgets.ApplyDelta(ctx, q, e, dir)
}
