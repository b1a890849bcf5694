package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/NT912/FinWise-sub000/internal/core"
)

const transactionColumns = `id, owner_id, title, amount, occurred_on, category_id, kind, note, created_at, updated_at`

// InsertTransaction stores a new transaction and fills in its generated id
// and timestamps.
func (q *Queries) InsertTransaction(ctx context.Context, t *core.Transaction) error {
	now := time.Now().UTC()
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO transactions (owner_id, title, amount, occurred_on, category_id, kind, note, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.OwnerID, t.Title, t.Amount.String(), t.OccurredOn.String(),
		t.CategoryID, string(t.Kind), t.Note, now, now)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert transaction id: %w", err)
	}
	t.ID = id
	t.CreatedAt = now
	t.UpdatedAt = now
	return nil
}

// GetTransaction returns the transaction only if it belongs to owner.
func (q *Queries) GetTransaction(ctx context.Context, owner string, id int64) (*core.Transaction, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE id = ? AND owner_id = ?`, id, owner)

	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.NewNotFoundError("transaction", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// UpdateTransaction rewrites the mutable fields of an owned transaction.
func (q *Queries) UpdateTransaction(ctx context.Context, t *core.Transaction) error {
	now := time.Now().UTC()
	res, err := q.db.ExecContext(ctx, `
		UPDATE transactions
		SET title = ?, amount = ?, occurred_on = ?, category_id = ?, kind = ?, note = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?`,
		t.Title, t.Amount.String(), t.OccurredOn.String(), t.CategoryID,
		string(t.Kind), t.Note, now, t.ID, t.OwnerID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.NewNotFoundError("transaction", strconv.FormatInt(t.ID, 10))
	}
	t.UpdatedAt = now
	return nil
}

// DeleteTransaction removes an owned transaction.
func (q *Queries) DeleteTransaction(ctx context.Context, owner string, id int64) error {
	res, err := q.db.ExecContext(ctx, `
		DELETE FROM transactions WHERE id = ? AND owner_id = ?`, id, owner)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.NewNotFoundError("transaction", strconv.FormatInt(id, 10))
	}
	return nil
}

// ListTransactions returns the owner's transactions newest-first, optionally
// narrowed by category or date range.
func (q *Queries) ListTransactions(ctx context.Context, owner string, f core.TransactionFilter) ([]core.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE owner_id = ?`
	args := []any{owner}

	if f.CategoryID > 0 {
		query += ` AND category_id = ?`
		args = append(args, f.CategoryID)
	}
	if !f.From.IsZero() {
		query += ` AND occurred_on >= ?`
		args = append(args, f.From.String())
	}
	if !f.To.IsZero() {
		query += ` AND occurred_on <= ?`
		args = append(args, f.To.String())
	}
	query += ` ORDER BY occurred_on DESC, id DESC`

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// SummarizeMonth sums income and expense over one calendar month. This is a
// plain range read; amounts are summed in Go to keep decimal arithmetic
// exact.
func (q *Queries) SummarizeMonth(ctx context.Context, owner string, year, month int) (core.MonthlySummary, error) {
	s := core.MonthlySummary{OwnerID: owner, Year: year, Month: month}
	from, to := monthBounds(year, month)

	rows, err := q.db.QueryContext(ctx, `
		SELECT amount, kind
		FROM transactions
		WHERE owner_id = ? AND occurred_on >= ? AND occurred_on < ?`,
		owner, from, to)
	if err != nil {
		return s, fmt.Errorf("summarize month: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var amountStr, kind string
		if err := rows.Scan(&amountStr, &kind); err != nil {
			return s, fmt.Errorf("scan summary row: %w", err)
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return s, fmt.Errorf("parse amount %q: %w", amountStr, err)
		}
		if core.Kind(kind) == core.Expense {
			s.Expense = s.Expense.Add(amount)
		} else {
			s.Income = s.Income.Add(amount)
		}
	}
	return s, rows.Err()
}

// monthBounds returns the first day of the month and the first day of the
// next month as sortable date strings.
func monthBounds(year, month int) (from, to string) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return start.Format("2006-01-02"), start.AddDate(0, 1, 0).Format("2006-01-02")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*core.Transaction, error) {
	var (
		t          core.Transaction
		amountStr  string
		occurredOn string
		kind       string
	)
	err := row.Scan(&t.ID, &t.OwnerID, &t.Title, &amountStr, &occurredOn,
		&t.CategoryID, &kind, &t.Note, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if t.Amount, err = decimal.NewFromString(amountStr); err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", amountStr, err)
	}
	if t.OccurredOn, err = core.ParseDate(occurredOn); err != nil {
		return nil, fmt.Errorf("parse occurred_on %q: %w", occurredOn, err)
	}
	t.Kind = core.Kind(kind)
	return &t, nil
}
