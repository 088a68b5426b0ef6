package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"pesa/internal/core"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so every query can run
// standalone or inside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns Queries bound to the given transaction.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const expenseColumns = `id, label, recipient, ref, collection, amount, currency, date, receipt, image, modified_at`

func scanExpense(row interface{ Scan(dest ...any) error }) (core.Expense, error) {
	var r expenseRow
	err := row.Scan(&r.ID, &r.Label, &r.Recipient, &r.Ref, &r.Collection,
		&r.Amount, &r.Currency, &r.Date, &r.Receipt, &r.Image, &r.ModifiedAt)
	if err != nil {
		return core.Expense{}, err
	}
	return r.toCore()
}

func (q *Queries) collectExpenses(rows *sql.Rows) ([]core.Expense, error) {
	defer rows.Close()
	var expenses []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// CreateExpense inserts a new expense row.
func (q *Queries) CreateExpense(ctx context.Context, e core.Expense) error {
	r := fromCoreExpense(e)
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO expenses (`+expenseColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Label, r.Recipient, r.Ref, r.Collection,
		r.Amount, r.Currency, r.Date, r.Receipt, r.Image, r.ModifiedAt)
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}
	return nil
}

// GetExpense retrieves a single expense by ID.
func (q *Queries) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, fmt.Errorf("expense %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

// UpdateExpense rewrites every column of the expense row.
func (q *Queries) UpdateExpense(ctx context.Context, e core.Expense) error {
	r := fromCoreExpense(e)
	res, err := q.db.ExecContext(ctx, `
		UPDATE expenses
		SET label = ?, recipient = ?, ref = ?, collection = ?, amount = ?,
		    currency = ?, date = ?, receipt = ?, image = ?, modified_at = ?
		WHERE id = ?`,
		r.Label, r.Recipient, r.Ref, r.Collection, r.Amount,
		r.Currency, r.Date, r.Receipt, r.Image, r.ModifiedAt, r.ID)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("expense %s: %w", e.ID, core.ErrNotFound)
	}
	return nil
}

// DeleteExpense removes the row permanently.
func (q *Queries) DeleteExpense(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return nil
}

// ListExpensesByCollection returns all expenses in the given bucket.
func (q *Queries) ListExpensesByCollection(ctx context.Context, collection string) ([]core.Expense, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE collection = ? ORDER BY date DESC`, collection)
	if err != nil {
		return nil, fmt.Errorf("list expenses by collection: %w", err)
	}
	return q.collectExpenses(rows)
}

// ListExpensesByRecipient returns all expenses for a recipient across buckets.
func (q *Queries) ListExpensesByRecipient(ctx context.Context, recipient string) ([]core.Expense, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE recipient = ?`, recipient)
	if err != nil {
		return nil, fmt.Errorf("list expenses by recipient: %w", err)
	}
	return q.collectExpenses(rows)
}

// ListLedgerExpensesBetween returns dated expenses inside [start, end] that
// count towards spending totals (not trashed, failed or excluded).
func (q *Queries) ListLedgerExpensesBetween(ctx context.Context, start, end time.Time) ([]core.Expense, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+expenseColumns+` FROM expenses
		WHERE date IS NOT NULL
		  AND date >= ? AND date <= ?
		  AND collection NOT IN (?, ?, ?)
		  AND collection NOT LIKE ?`,
		start.UTC().Format(timeFormat), end.UTC().Format(timeFormat),
		core.CollectionTrash, core.CollectionFailed, core.CollectionExclusions,
		core.ExclusionPrefix+"%")
	if err != nil {
		return nil, fmt.Errorf("list ledger expenses: %w", err)
	}
	return q.collectExpenses(rows)
}

// CountExpensesInCollection counts live rows, used to verify the denormalized
// collection counters.
func (q *Queries) CountExpensesInCollection(ctx context.Context, collection string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM expenses WHERE collection = ?`, collection).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count expenses: %w", err)
	}
	return n, nil
}

// CollectionExists reports whether a collection row exists.
func (q *Queries) CollectionExists(ctx context.Context, name string) (bool, error) {
	var one int
	err := q.db.QueryRowContext(ctx,
		`SELECT 1 FROM collections WHERE name = ?`, name).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("collection exists: %w", err)
	}
	return true, nil
}

// GetCollectionCount returns the denormalized count for a bucket. Missing
// collections count as zero.
func (q *Queries) GetCollectionCount(ctx context.Context, name string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT count FROM collections WHERE name = ?`, name).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get collection count: %w", err)
	}
	return n, nil
}

// AdjustCollectionCount applies a +/- delta to a bucket's counter, creating
// the collection row if needed.
func (q *Queries) AdjustCollectionCount(ctx context.Context, name string, delta int64) error {
	now := time.Now().UTC().Format(timeFormat)
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO collections (name, count, modified_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET count = count + excluded.count, modified_at = excluded.modified_at`,
		name, delta, now)
	if err != nil {
		return fmt.Errorf("adjust collection count: %w", err)
	}
	return nil
}

// DeleteCollection removes a collection row (its expenses are moved by the
// caller beforehand).
func (q *Queries) DeleteCollection(ctx context.Context, name string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM collections WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	return nil
}

// ListCollections returns all bucket names with their counters.
func (q *Queries) ListCollections(ctx context.Context) (map[string]int64, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT name, count FROM collections`)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var name string
		var n int64
		if err := rows.Scan(&name, &n); err != nil {
			return nil, err
		}
		counts[name] = n
	}
	return counts, rows.Err()
}

// GetDictionaryItem looks up an entry by its (match, type) identity.
func (q *Queries) GetDictionaryItem(ctx context.Context, match, typ string) (core.DictionaryItem, error) {
	var item core.DictionaryItem
	var modifiedAt string
	err := q.db.QueryRowContext(ctx, `
		SELECT id, match, type, label, modified_at FROM dictionary
		WHERE match = ? AND type = ?`, match, typ).
		Scan(&item.ID, &item.Match, &item.Type, &item.Label, &modifiedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.DictionaryItem{}, fmt.Errorf("dictionary entry %q/%s: %w", match, typ, core.ErrNotFound)
	}
	if err != nil {
		return core.DictionaryItem{}, fmt.Errorf("get dictionary item: %w", err)
	}
	item.ModifiedAt, _ = time.Parse(timeFormat, modifiedAt)
	return item, nil
}

// ListDictionary returns every dictionary entry.
func (q *Queries) ListDictionary(ctx context.Context) ([]core.DictionaryItem, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, match, type, label, modified_at FROM dictionary`)
	if err != nil {
		return nil, fmt.Errorf("list dictionary: %w", err)
	}
	defer rows.Close()

	var items []core.DictionaryItem
	for rows.Next() {
		var item core.DictionaryItem
		var modifiedAt string
		if err := rows.Scan(&item.ID, &item.Match, &item.Type, &item.Label, &modifiedAt); err != nil {
			return nil, err
		}
		item.ModifiedAt, _ = time.Parse(timeFormat, modifiedAt)
		items = append(items, item)
	}
	return items, rows.Err()
}

// CreateDictionaryItem inserts a new entry.
func (q *Queries) CreateDictionaryItem(ctx context.Context, item core.DictionaryItem) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO dictionary (id, match, type, label, modified_at)
		VALUES (?, ?, ?, ?, ?)`,
		item.ID, item.Match, item.Type, item.Label,
		item.ModifiedAt.UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("insert dictionary item: %w", err)
	}
	return nil
}

// UpdateDictionaryLabel rewrites the label of an existing entry in place.
func (q *Queries) UpdateDictionaryLabel(ctx context.Context, match, typ, label string, modifiedAt time.Time) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE dictionary SET label = ?, modified_at = ?
		WHERE match = ? AND type = ?`,
		label, modifiedAt.UTC().Format(timeFormat), match, typ)
	if err != nil {
		return fmt.Errorf("update dictionary label: %w", err)
	}
	return nil
}

// DeleteDictionaryItem removes an entry by its stable ID.
func (q *Queries) DeleteDictionaryItem(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM dictionary WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete dictionary item: %w", err)
	}
	return nil
}

const budgetColumns = `id, label, title, total, current, start_date, end_date, duration, repeat`

// CreateBudget inserts a budget row.
func (q *Queries) CreateBudget(ctx context.Context, b core.Budget) error {
	r := fromCoreBudget(b)
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO budgets (`+budgetColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Label, r.Title, r.Total, r.Current, r.Start, r.End, r.Duration, r.Repeat)
	if err != nil {
		return fmt.Errorf("insert budget: %w", err)
	}
	return nil
}

// GetBudget retrieves a budget by ID.
func (q *Queries) GetBudget(ctx context.Context, id string) (core.Budget, error) {
	var r budgetRow
	err := q.db.QueryRowContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE id = ?`, id).
		Scan(&r.ID, &r.Label, &r.Title, &r.Total, &r.Current, &r.Start, &r.End, &r.Duration, &r.Repeat)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, fmt.Errorf("budget %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	return r.toCore()
}

// ListBudgets returns every budget row.
func (q *Queries) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+budgetColumns+` FROM budgets`)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		var r budgetRow
		if err := rows.Scan(&r.ID, &r.Label, &r.Title, &r.Total, &r.Current, &r.Start, &r.End, &r.Duration, &r.Repeat); err != nil {
			return nil, err
		}
		b, err := r.toCore()
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

// UpdateBudgetCurrent rewrites only the running total.
func (q *Queries) UpdateBudgetCurrent(ctx context.Context, id string, current decimal.Decimal) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE budgets SET current = ? WHERE id = ?`, current.String(), id)
	if err != nil {
		return fmt.Errorf("update budget current: %w", err)
	}
	return nil
}

// UpdateBudgetWindow moves a repeating budget to a new date window with a
// freshly computed running total.
func (q *Queries) UpdateBudgetWindow(ctx context.Context, id string, start, end time.Time, current decimal.Decimal) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE budgets SET start_date = ?, end_date = ?, current = ? WHERE id = ?`,
		start.UTC().Format(timeFormat), end.UTC().Format(timeFormat), current.String(), id)
	if err != nil {
		return fmt.Errorf("update budget window: %w", err)
	}
	return nil
}

// DeleteBudget removes a budget row.
func (q *Queries) DeleteBudget(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return nil
}

// GetStatisticTotal returns the running total for a statistic path, zero if
// the path has never been touched.
func (q *Queries) GetStatisticTotal(ctx context.Context, path string) (decimal.Decimal, error) {
	var total string
	err := q.db.QueryRowContext(ctx,
		`SELECT total FROM statistics WHERE path = ?`, path).Scan(&total)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("get statistic total: %w", err)
	}
	d, err := decimal.NewFromString(total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse statistic total %q: %w", total, err)
	}
	return d, nil
}

// AddToStatistic applies a +/- delta to a statistic row, creating it if the
// path has never been touched. Runs read-modify-write; callers hold a
// transaction.
func (q *Queries) AddToStatistic(ctx context.Context, stat Statistic, delta decimal.Decimal) error {
	current, err := q.GetStatisticTotal(ctx, stat.Path)
	if err != nil {
		return err
	}
	next := current.Add(delta)
	_, err = q.db.ExecContext(ctx, `
		INSERT INTO statistics (path, level, year, month, day, label, value, total)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET total = excluded.total`,
		stat.Path, stat.Level, stat.Year, stat.Month, stat.Day, stat.Label,
		stat.Value, next.String())
	if err != nil {
		return fmt.Errorf("add to statistic: %w", err)
	}
	return nil
}

// MonthTotal returns the aggregate total for a calendar month (1-12).
func (q *Queries) MonthTotal(ctx context.Context, year, month int) (decimal.Decimal, error) {
	var total string
	err := q.db.QueryRowContext(ctx, `
		SELECT total FROM statistics WHERE level = 'month' AND year = ? AND month = ?`,
		year, month).Scan(&total)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("month total: %w", err)
	}
	return decimal.NewFromString(total)
}

// LabelTotalsForYear returns per-label totals for a year, for overview screens.
func (q *Queries) LabelTotalsForYear(ctx context.Context, year int) (map[string]decimal.Decimal, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT label, total FROM statistics
		WHERE level = 'label' AND year = ? AND month IS NULL AND day IS NULL`,
		year)
	if err != nil {
		return nil, fmt.Errorf("label totals: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]decimal.Decimal)
	for rows.Next() {
		var label, total string
		if err := rows.Scan(&label, &total); err != nil {
			return nil, err
		}
		d, err := decimal.NewFromString(total)
		if err != nil {
			return nil, fmt.Errorf("parse label total %q: %w", total, err)
		}
		totals[label] = d
	}
	return totals, rows.Err()
}
