// Package category manages transaction categories, including the immutable
// default set seeded per owner on first access.
package category

import (
	"context"
	"strings"

	"github.com/NT912/FinWise-sub000/internal/core"
	applog "github.com/NT912/FinWise-sub000/internal/log"
	"github.com/NT912/FinWise-sub000/internal/storage"
)

// Store is the slice of the storage layer the category service needs.
type Store interface {
	RunInTx(ctx context.Context, fn func(q *storage.Queries) error) error
	GetCategory(ctx context.Context, owner string, id int64) (*core.Category, error)
	ListCategories(ctx context.Context, owner string) ([]core.Category, error)
	CountCategories(ctx context.Context, owner string) (int64, error)
}

// defaultCategories is seeded for every owner. Default categories cannot be
// renamed or deleted.
var defaultCategories = []core.Category{
	{Name: "Food", Icon: "food", Color: "#FF6B6B", Kind: core.Expense},
	{Name: "Transport", Icon: "car", Color: "#4ECDC4", Kind: core.Expense},
	{Name: "Housing", Icon: "home", Color: "#45B7D1", Kind: core.Expense},
	{Name: "Shopping", Icon: "shopping", Color: "#F7B801", Kind: core.Expense},
	{Name: "Entertainment", Icon: "entertainment", Color: "#A06CD5", Kind: core.Expense},
	{Name: "Bills", Icon: "bills", Color: "#5C80BC", Kind: core.Expense},
	{Name: "Health", Icon: "health", Color: "#6BCB77", Kind: core.Expense},
	{Name: "Other Expense", Icon: "other", Color: "#9E9E9E", Kind: core.Expense},
	{Name: "Salary", Icon: "salary", Color: "#2EC4B6", Kind: core.Income},
	{Name: "Freelance", Icon: "freelance", Color: "#3D9970", Kind: core.Income},
	{Name: "Investment", Icon: "investment", Color: "#FF9F1C", Kind: core.Income},
	{Name: "Other Income", Icon: "other", Color: "#9E9E9E", Kind: core.Income},
}

type Service struct {
	store  Store
	logger *applog.Logger
}

func NewService(store Store, logger *applog.Logger) *Service {
	return &Service{store: store, logger: logger.WithComponent("category")}
}

// Patch holds the user-editable category fields.
type Patch struct {
	Name  *string
	Icon  *string
	Color *string
}

// EnsureDefaults seeds the default categories for owner if it has none yet.
func (s *Service) EnsureDefaults(ctx context.Context, owner string) error {
	if strings.TrimSpace(owner) == "" {
		return core.NewValidationError("owner", "must not be empty")
	}
	return s.store.RunInTx(ctx, func(q *storage.Queries) error {
		n, err := q.CountCategories(ctx, owner)
		if err != nil || n > 0 {
			return err
		}
		for _, d := range defaultCategories {
			c := d
			c.OwnerID = owner
			c.IsDefault = true
			if err := q.InsertCategory(ctx, &c); err != nil {
				return err
			}
		}
		s.logger.InfoContext(ctx, "default categories seeded",
			applog.FieldOwnerID, owner)
		return nil
	})
}

// Create adds a custom category for the owner.
func (s *Service) Create(ctx context.Context, owner, name, icon, color string, kind core.Kind) (*core.Category, error) {
	c := &core.Category{
		OwnerID: owner,
		Name:    strings.TrimSpace(name),
		Icon:    icon,
		Color:   color,
		Kind:    kind,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := s.EnsureDefaults(ctx, owner); err != nil {
		return nil, err
	}
	err := s.store.RunInTx(ctx, func(q *storage.Queries) error {
		return q.InsertCategory(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Get returns one owned category.
func (s *Service) Get(ctx context.Context, owner string, id int64) (*core.Category, error) {
	return s.store.GetCategory(ctx, owner, id)
}

// List returns the owner's categories, seeding defaults on first access.
func (s *Service) List(ctx context.Context, owner string) ([]core.Category, error) {
	if err := s.EnsureDefaults(ctx, owner); err != nil {
		return nil, err
	}
	return s.store.ListCategories(ctx, owner)
}

// Update patches name, icon, or color. Default categories are immutable.
func (s *Service) Update(ctx context.Context, owner string, id int64, p Patch) (*core.Category, error) {
	var updated *core.Category
	err := s.store.RunInTx(ctx, func(q *storage.Queries) error {
		c, err := q.GetCategory(ctx, owner, id)
		if err != nil {
			return err
		}
		if c.IsDefault {
			return core.NewValidationError("category", "default categories cannot be modified")
		}
		if p.Name != nil {
			c.Name = strings.TrimSpace(*p.Name)
		}
		if p.Icon != nil {
			c.Icon = *p.Icon
		}
		if p.Color != nil {
			c.Color = *p.Color
		}
		if err := c.Validate(); err != nil {
			return err
		}
		if err := q.UpdateCategoryFields(ctx, c); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a custom, unused category. Default categories and categories
// that still have transactions are rejected.
func (s *Service) Delete(ctx context.Context, owner string, id int64) error {
	return s.store.RunInTx(ctx, func(q *storage.Queries) error {
		c, err := q.GetCategory(ctx, owner, id)
		if err != nil {
			return err
		}
		if c.IsDefault {
			return core.NewValidationError("category", "default categories cannot be deleted")
		}
		if c.TransactionCount > 0 {
			return core.NewValidationError("category", "still has transactions")
		}
		return q.DeleteCategory(ctx, owner, id)
	})
}
