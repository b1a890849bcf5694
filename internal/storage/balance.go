package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/NT912/FinWise-sub000/internal/core"
)

// GetBalance returns the owner's balance, zero if no row exists yet.
func (q *Queries) GetBalance(ctx context.Context, owner string) (core.Balance, error) {
	b := core.Balance{OwnerID: owner}
	var totalStr string
	err := q.db.QueryRowContext(ctx, `
		SELECT total_balance, updated_at FROM balances WHERE owner_id = ?`,
		owner).Scan(&totalStr, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return b, nil
		}
		return b, fmt.Errorf("get balance: %w", err)
	}
	if b.TotalBalance, err = decimal.NewFromString(totalStr); err != nil {
		return b, fmt.Errorf("parse total_balance %q: %w", totalStr, err)
	}
	return b, nil
}

// ApplyBalanceDelta adds a signed delta to the owner's running balance,
// creating the row on first use.
func (q *Queries) ApplyBalanceDelta(ctx context.Context, owner string, signedDelta decimal.Decimal) error {
	current, err := q.GetBalance(ctx, owner)
	if err != nil {
		return err
	}
	_, err = q.db.ExecContext(ctx, `
		INSERT INTO balances (owner_id, total_balance, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (owner_id) DO UPDATE SET total_balance = excluded.total_balance, updated_at = excluded.updated_at`,
		owner, current.TotalBalance.Add(signedDelta).String(), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("apply balance delta: %w", err)
	}
	return nil
}
