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

const categoryColumns = `id, owner_id, name, icon, color, kind, is_default, transaction_count, total_amount, created_at, updated_at`

// InsertCategory stores a new category. A duplicate (owner, name) pair comes
// back as a ValidationError.
func (q *Queries) InsertCategory(ctx context.Context, c *core.Category) error {
	now := time.Now().UTC()
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO categories (owner_id, name, icon, color, kind, is_default, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.OwnerID, c.Name, c.Icon, c.Color, string(c.Kind), c.IsDefault, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return core.NewValidationError("name", "already exists")
		}
		return fmt.Errorf("insert category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert category id: %w", err)
	}
	c.ID = id
	c.CreatedAt = now
	c.UpdatedAt = now
	return nil
}

// GetCategory returns the category only if it belongs to owner.
func (q *Queries) GetCategory(ctx context.Context, owner string, id int64) (*core.Category, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+categoryColumns+`
		FROM categories
		WHERE id = ? AND owner_id = ?`, id, owner)

	c, err := scanCategory(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.NewNotFoundError("category", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

// ListCategories returns the owner's categories ordered by name.
func (q *Queries) ListCategories(ctx context.Context, owner string) ([]core.Category, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+categoryColumns+`
		FROM categories
		WHERE owner_id = ?
		ORDER BY name`, owner)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// CountCategories returns the number of categories the owner has.
func (q *Queries) CountCategories(ctx context.Context, owner string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM categories WHERE owner_id = ?`, owner).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count categories: %w", err)
	}
	return n, nil
}

// UpdateCategoryFields rewrites the user-editable fields (name, icon, color).
// Kind and aggregates are never touched here.
func (q *Queries) UpdateCategoryFields(ctx context.Context, c *core.Category) error {
	now := time.Now().UTC()
	res, err := q.db.ExecContext(ctx, `
		UPDATE categories
		SET name = ?, icon = ?, color = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?`,
		c.Name, c.Icon, c.Color, now, c.ID, c.OwnerID)
	if err != nil {
		if isUniqueViolation(err) {
			return core.NewValidationError("name", "already exists")
		}
		return fmt.Errorf("update category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.NewNotFoundError("category", strconv.FormatInt(c.ID, 10))
	}
	c.UpdatedAt = now
	return nil
}

// DeleteCategory removes an owned category row.
func (q *Queries) DeleteCategory(ctx context.Context, owner string, id int64) error {
	res, err := q.db.ExecContext(ctx, `
		DELETE FROM categories WHERE id = ? AND owner_id = ?`, id, owner)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.NewNotFoundError("category", strconv.FormatInt(id, 10))
	}
	return nil
}

// ApplyCategoryDelta adjusts a category's running transaction count and total
// amount. A delta that would drive the count negative is a programming error
// and fails loudly; it is never clamped.
func (q *Queries) ApplyCategoryDelta(ctx context.Context, categoryID, countDelta int64, amountDelta decimal.Decimal) error {
	var (
		count    int64
		totalStr string
	)
	err := q.db.QueryRowContext(ctx, `
		SELECT transaction_count, total_amount FROM categories WHERE id = ?`,
		categoryID).Scan(&count, &totalStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.NewNotFoundError("category", strconv.FormatInt(categoryID, 10))
		}
		return fmt.Errorf("read category aggregates: %w", err)
	}

	newCount := count + countDelta
	if newCount < 0 {
		return core.NewInvariantError("category %d transaction count would become %d", categoryID, newCount)
	}
	total, err := decimal.NewFromString(totalStr)
	if err != nil {
		return fmt.Errorf("parse total_amount %q: %w", totalStr, err)
	}

	_, err = q.db.ExecContext(ctx, `
		UPDATE categories
		SET transaction_count = ?, total_amount = ?, updated_at = ?
		WHERE id = ?`,
		newCount, total.Add(amountDelta).String(), time.Now().UTC(), categoryID)
	if err != nil {
		if isCheckViolation(err) {
			return core.NewInvariantError("category %d aggregate update rejected: %v", categoryID, err)
		}
		return fmt.Errorf("apply category delta: %w", err)
	}
	return nil
}

func scanCategory(row rowScanner) (*core.Category, error) {
	var (
		c        core.Category
		kind     string
		totalStr string
	)
	err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Icon, &c.Color, &kind,
		&c.IsDefault, &c.TransactionCount, &totalStr, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if c.TotalAmount, err = decimal.NewFromString(totalStr); err != nil {
		return nil, fmt.Errorf("parse total_amount %q: %w", totalStr, err)
	}
	c.Kind = core.Kind(kind)
	return &c, nil
}
