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

// GetBudgetLedger returns the owner's budget ledger record.
func (q *Queries) GetBudgetLedger(ctx context.Context, owner string) (*core.BudgetLedger, error) {
	var (
		l                              core.BudgetLedger
		totalStr, savingStr, targetStr string
	)
	err := q.db.QueryRowContext(ctx, `
		SELECT owner_id, total_budget, saving_amount, target_saving_amount, created_at, updated_at
		FROM budget_ledgers
		WHERE owner_id = ?`, owner).Scan(
		&l.OwnerID, &totalStr, &savingStr, &targetStr, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.NewNotFoundError("budget ledger", owner)
		}
		return nil, fmt.Errorf("get budget ledger: %w", err)
	}
	if l.TotalBudget, err = decimal.NewFromString(totalStr); err != nil {
		return nil, fmt.Errorf("parse total_budget %q: %w", totalStr, err)
	}
	if l.SavingAmount, err = decimal.NewFromString(savingStr); err != nil {
		return nil, fmt.Errorf("parse saving_amount %q: %w", savingStr, err)
	}
	if l.TargetSavingAmount, err = decimal.NewFromString(targetStr); err != nil {
		return nil, fmt.Errorf("parse target_saving_amount %q: %w", targetStr, err)
	}
	return &l, nil
}

// InsertBudgetLedger creates the owner's ledger record if it does not exist
// yet. Losing a creation race is not an error; the caller re-reads.
func (q *Queries) InsertBudgetLedger(ctx context.Context, l *core.BudgetLedger) error {
	now := time.Now().UTC()
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO budget_ledgers (owner_id, total_budget, saving_amount, target_saving_amount, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (owner_id) DO NOTHING`,
		l.OwnerID, l.TotalBudget.String(), l.SavingAmount.String(),
		l.TargetSavingAmount.String(), now, now)
	if err != nil {
		return fmt.Errorf("insert budget ledger: %w", err)
	}
	return nil
}

// UpdateBudgetLedger rewrites the three scalar fields of the ledger record.
func (q *Queries) UpdateBudgetLedger(ctx context.Context, l *core.BudgetLedger) error {
	now := time.Now().UTC()
	res, err := q.db.ExecContext(ctx, `
		UPDATE budget_ledgers
		SET total_budget = ?, saving_amount = ?, target_saving_amount = ?, updated_at = ?
		WHERE owner_id = ?`,
		l.TotalBudget.String(), l.SavingAmount.String(),
		l.TargetSavingAmount.String(), now, l.OwnerID)
	if err != nil {
		return fmt.Errorf("update budget ledger: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.NewNotFoundError("budget ledger", l.OwnerID)
	}
	l.UpdatedAt = now
	return nil
}

// GetMonthlyBudget returns the (owner, year, month) entry if present.
func (q *Queries) GetMonthlyBudget(ctx context.Context, owner string, year, month int) (*core.MonthlyBudget, error) {
	var (
		b         core.MonthlyBudget
		amountStr string
	)
	err := q.db.QueryRowContext(ctx, `
		SELECT owner_id, year, month, amount, updated_at
		FROM monthly_budgets
		WHERE owner_id = ? AND year = ? AND month = ?`,
		owner, year, month).Scan(&b.OwnerID, &b.Year, &b.Month, &amountStr, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.NewNotFoundError("monthly budget", fmt.Sprintf("%04d-%02d", year, month))
		}
		return nil, fmt.Errorf("get monthly budget: %w", err)
	}
	if b.Amount, err = decimal.NewFromString(amountStr); err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", amountStr, err)
	}
	return &b, nil
}

// UpsertMonthlyBudget inserts or overwrites the single (owner, year, month)
// entry; the unique constraint guarantees at most one survives.
func (q *Queries) UpsertMonthlyBudget(ctx context.Context, b *core.MonthlyBudget) error {
	now := time.Now().UTC()
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO monthly_budgets (owner_id, year, month, amount, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (owner_id, year, month) DO UPDATE SET amount = excluded.amount, updated_at = excluded.updated_at`,
		b.OwnerID, b.Year, b.Month, b.Amount.String(), now)
	if err != nil {
		return fmt.Errorf("upsert monthly budget: %w", err)
	}
	b.UpdatedAt = now
	return nil
}

// ListMonthlyBudgets returns all of the owner's entries ordered by period.
func (q *Queries) ListMonthlyBudgets(ctx context.Context, owner string) ([]core.MonthlyBudget, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT owner_id, year, month, amount, updated_at
		FROM monthly_budgets
		WHERE owner_id = ?
		ORDER BY year, month`, owner)
	if err != nil {
		return nil, fmt.Errorf("list monthly budgets: %w", err)
	}
	defer rows.Close()

	var out []core.MonthlyBudget
	for rows.Next() {
		var (
			b         core.MonthlyBudget
			amountStr string
		)
		if err := rows.Scan(&b.OwnerID, &b.Year, &b.Month, &amountStr, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan monthly budget: %w", err)
		}
		if b.Amount, err = decimal.NewFromString(amountStr); err != nil {
			return nil, fmt.Errorf("parse amount %q: %w", amountStr, err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// InsertSavingGoal appends a goal under the owner's ledger.
func (q *Queries) InsertSavingGoal(ctx context.Context, g *core.SavingGoal) error {
	now := time.Now().UTC()
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO saving_goals (id, owner_id, name, target_amount, current_amount, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		g.ID, g.OwnerID, g.Name, g.TargetAmount.String(), g.CurrentAmount.String(), now)
	if err != nil {
		return fmt.Errorf("insert saving goal: %w", err)
	}
	g.CreatedAt = now
	return nil
}

// GetSavingGoal returns the goal only if it belongs to owner.
func (q *Queries) GetSavingGoal(ctx context.Context, owner, goalID string) (*core.SavingGoal, error) {
	var (
		g                     core.SavingGoal
		targetStr, currentStr string
	)
	err := q.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, target_amount, current_amount, created_at
		FROM saving_goals
		WHERE id = ? AND owner_id = ?`, goalID, owner).Scan(
		&g.ID, &g.OwnerID, &g.Name, &targetStr, &currentStr, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.NewNotFoundError("saving goal", goalID)
		}
		return nil, fmt.Errorf("get saving goal: %w", err)
	}
	if g.TargetAmount, err = decimal.NewFromString(targetStr); err != nil {
		return nil, fmt.Errorf("parse target_amount %q: %w", targetStr, err)
	}
	if g.CurrentAmount, err = decimal.NewFromString(currentStr); err != nil {
		return nil, fmt.Errorf("parse current_amount %q: %w", currentStr, err)
	}
	return &g, nil
}

// UpdateSavingGoal rewrites the goal's amounts and name.
func (q *Queries) UpdateSavingGoal(ctx context.Context, g *core.SavingGoal) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE saving_goals
		SET name = ?, target_amount = ?, current_amount = ?
		WHERE id = ? AND owner_id = ?`,
		g.Name, g.TargetAmount.String(), g.CurrentAmount.String(), g.ID, g.OwnerID)
	if err != nil {
		return fmt.Errorf("update saving goal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.NewNotFoundError("saving goal", g.ID)
	}
	return nil
}

// ListSavingGoals returns the owner's goals oldest-first.
func (q *Queries) ListSavingGoals(ctx context.Context, owner string) ([]core.SavingGoal, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, owner_id, name, target_amount, current_amount, created_at
		FROM saving_goals
		WHERE owner_id = ?
		ORDER BY created_at, id`, owner)
	if err != nil {
		return nil, fmt.Errorf("list saving goals: %w", err)
	}
	defer rows.Close()

	var out []core.SavingGoal
	for rows.Next() {
		var (
			g                     core.SavingGoal
			targetStr, currentStr string
		)
		if err := rows.Scan(&g.ID, &g.OwnerID, &g.Name, &targetStr, &currentStr, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan saving goal: %w", err)
		}
		if g.TargetAmount, err = decimal.NewFromString(targetStr); err != nil {
			return nil, fmt.Errorf("parse target_amount %q: %w", targetStr, err)
		}
		if g.CurrentAmount, err = decimal.NewFromString(currentStr); err != nil {
			return nil, fmt.Errorf("parse current_amount %q: %w", currentStr, err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
