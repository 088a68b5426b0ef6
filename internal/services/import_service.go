package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"pesa/internal/budget"
	"pesa/internal/core"
	"pesa/internal/dictionary"
	"pesa/internal/exclusion"
	"pesa/internal/log"
	"pesa/internal/parse"
	"pesa/internal/stats"
	"pesa/internal/storage"
)

// ImportService runs the shared finalization step behind all three import
// paths: id assignment, completeness routing, dictionary labeling, exclusion
// rerouting, and batched transactions that persist the records and drive
// the aggregates. Candidates are persisted in chunks of at most batchSize
// records per transaction; each chunk commits or rolls back whole.
type ImportService struct {
	repo      *storage.SQLiteRepository
	dict      *dictionary.Resolver
	filter    *exclusion.Filter
	stats     *stats.Aggregator
	budgets   *budget.Updater
	logger    *log.Logger
	currency  string
	batchSize int
	now       func() time.Time
}

func NewImportService(repo *storage.SQLiteRepository, dict *dictionary.Resolver, currency string, batchSize int, logger *log.Logger) *ImportService {
	return &ImportService{
		repo:      repo,
		dict:      dict,
		filter:    exclusion.NewFilter(),
		stats:     stats.NewAggregator(),
		budgets:   budget.NewUpdater(),
		logger:    logger.WithComponent(log.ComponentImport),
		currency:  currency,
		batchSize: batchSize,
		now:       time.Now,
	}
}

// ImportSMS parses a pasted block of transaction messages.
func (s *ImportService) ImportSMS(ctx context.Context, text string) (core.Report, error) {
	result := parse.NewSMSParser(s.currency).Parse(text)
	return s.finalize(ctx, result)
}

// ImportStatement parses text extracted from a PDF account statement.
func (s *ImportService) ImportStatement(ctx context.Context, text string) (core.Report, error) {
	result := parse.NewStatementParser(s.currency).Parse(text)
	return s.finalize(ctx, result)
}

// ImportRows parses a row-oriented spreadsheet export.
func (s *ImportService) ImportRows(ctx context.Context, r io.Reader) (core.Report, error) {
	result, err := parse.NewRowsParser(s.currency).Parse(r)
	if err != nil {
		return core.Report{}, err
	}
	return s.finalize(ctx, result)
}

// Import finalizes candidates produced by a caller-run parser. The CLI uses
// this to parse several files concurrently while keeping persistence
// sequential.
func (s *ImportService) Import(ctx context.Context, result parse.Result) (core.Report, error) {
	return s.finalize(ctx, result)
}

// finalize persists the candidates in chunks of at most batchSize records,
// one transaction per chunk. An empty candidate set returns a zero-count
// report, which callers surface as "no expenses found", never as an error.
func (s *ImportService) finalize(ctx context.Context, result parse.Result) (core.Report, error) {
	report := core.Report{CurrencyChange: result.CurrencyChange}
	if len(result.Candidates) == 0 {
		return report, nil
	}

	size := s.batchSize
	if size <= 0 {
		size = len(result.Candidates)
	}
	for start := 0; start < len(result.Candidates); start += size {
		chunk := result.Candidates[start:min(start+size, len(result.Candidates))]
		err := s.repo.RunInTransaction(ctx, func(q *storage.Queries) error {
			for _, candidate := range chunk {
				e := candidate
				e.ID = uuid.NewString()
				e.ModifiedAt = s.now().UTC()
				e.Collection = route(e)

				if e.Recipient != "" && e.Label == "" {
					label, err := s.dict.Resolve(ctx, q, e.Recipient)
					if err != nil {
						return err
					}
					e.Label = label
				}

				// Exclusion is decided after completeness and overrides it.
				excluded, err := s.filter.IsExcluded(ctx, q, e.Recipient)
				if err != nil {
					return err
				}
				if excluded {
					e.Collection = core.CollectionExclusions
					if err := q.AdjustCollectionCount(ctx, core.ExclusionCollection(e.Recipient), 1); err != nil {
						return err
					}
				}

				if err := q.AdjustCollectionCount(ctx, e.Collection, 1); err != nil {
					return err
				}
				if err := q.CreateExpense(ctx, e); err != nil {
					return err
				}

				if e.InLedger() {
					if err := s.stats.ApplyDelta(ctx, q, e, core.DirectionAdd); err != nil {
						return err
					}
					if err := s.budgets.ApplyDelta(ctx, q, e, core.DirectionAdd); err != nil {
						return err
					}
				}

				switch {
				case excluded:
					report.Excluded++
				case e.Complete():
					report.Complete++
				default:
					report.Incomplete++
				}
			}
			return nil
		})
		if err != nil {
			return core.Report{}, fmt.Errorf("finalize import: %w", err)
		}
	}

	s.logger.InfoContext(ctx, "Import finished",
		log.FieldComplete, report.Complete,
		log.FieldIncomplete, report.Incomplete,
		log.FieldExcluded, report.Excluded)
	return report, nil
}
