// Package budget implements the per-owner budget ledger: a lazily created
// record holding the default budget, monthly budget entries keyed by
// (year, month), savings goals, and the quick-savings scalars.
package budget

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/NT912/FinWise-sub000/internal/core"
	applog "github.com/NT912/FinWise-sub000/internal/log"
	"github.com/NT912/FinWise-sub000/internal/storage"
)

// Store is the slice of the storage layer the budget service needs.
type Store interface {
	RunInTx(ctx context.Context, fn func(q *storage.Queries) error) error
	GetBudgetLedger(ctx context.Context, owner string) (*core.BudgetLedger, error)
	ListMonthlyBudgets(ctx context.Context, owner string) ([]core.MonthlyBudget, error)
	ListSavingGoals(ctx context.Context, owner string) ([]core.SavingGoal, error)
	GetSavingGoal(ctx context.Context, owner, goalID string) (*core.SavingGoal, error)
	SummarizeMonth(ctx context.Context, owner string, year, month int) (core.MonthlySummary, error)
}

// Defaults are applied when an owner's ledger record is first created.
type Defaults struct {
	TotalBudget  decimal.Decimal
	SavingTarget decimal.Decimal
}

type Service struct {
	store    Store
	defaults Defaults
	logger   *applog.Logger
}

func NewService(store Store, defaults Defaults, logger *applog.Logger) *Service {
	return &Service{
		store:    store,
		defaults: defaults,
		logger:   logger.WithComponent(applog.ComponentBudget),
	}
}

// GoalPatch holds the updatable fields of a savings goal.
type GoalPatch struct {
	Name          *string
	TargetAmount  *decimal.Decimal
	CurrentAmount *decimal.Decimal
}

// GetOrCreate returns the owner's budget ledger, creating it with configured
// defaults on first access.
func (s *Service) GetOrCreate(ctx context.Context, owner string) (*core.BudgetLedger, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, core.NewValidationError("owner", "must not be empty")
	}

	var ledger *core.BudgetLedger
	err := s.store.RunInTx(ctx, func(q *storage.Queries) error {
		if err := q.InsertBudgetLedger(ctx, &core.BudgetLedger{
			OwnerID:            owner,
			TotalBudget:        s.defaults.TotalBudget,
			SavingAmount:       decimal.Zero,
			TargetSavingAmount: s.defaults.SavingTarget,
		}); err != nil {
			return err
		}
		var err error
		ledger, err = q.GetBudgetLedger(ctx, owner)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ledger, nil
}

// GetMonthlyBudget returns the (year, month) entry, creating one defaulting
// to the ledger's total budget when absent.
func (s *Service) GetMonthlyBudget(ctx context.Context, owner string, year, month int) (*core.MonthlyBudget, error) {
	if err := validatePeriod(year, month); err != nil {
		return nil, err
	}
	ledger, err := s.GetOrCreate(ctx, owner)
	if err != nil {
		return nil, err
	}

	var entry *core.MonthlyBudget
	err = s.store.RunInTx(ctx, func(q *storage.Queries) error {
		var err error
		entry, err = q.GetMonthlyBudget(ctx, owner, year, month)
		if err == nil {
			return nil
		}
		if !core.IsNotFound(err) {
			return err
		}
		entry = &core.MonthlyBudget{
			OwnerID: owner,
			Year:    year,
			Month:   month,
			Amount:  ledger.TotalBudget,
		}
		return q.UpsertMonthlyBudget(ctx, entry)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// SetMonthlyBudget upserts the single (year, month) entry.
func (s *Service) SetMonthlyBudget(ctx context.Context, owner string, year, month int, amount decimal.Decimal) (*core.MonthlyBudget, error) {
	if err := validatePeriod(year, month); err != nil {
		return nil, err
	}
	if amount.IsNegative() {
		return nil, core.NewValidationError("amount", "must not be negative")
	}
	if _, err := s.GetOrCreate(ctx, owner); err != nil {
		return nil, err
	}

	entry := &core.MonthlyBudget{OwnerID: owner, Year: year, Month: month, Amount: amount}
	err := s.store.RunInTx(ctx, func(q *storage.Queries) error {
		return q.UpsertMonthlyBudget(ctx, entry)
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "monthly budget set",
		applog.FieldOwnerID, owner,
		applog.FieldYear, year,
		applog.FieldMonth, month,
		applog.FieldAmount, amount.String())
	return entry, nil
}

// ListMonthlyBudgets returns all the owner's monthly entries ordered by
// period.
func (s *Service) ListMonthlyBudgets(ctx context.Context, owner string) ([]core.MonthlyBudget, error) {
	if _, err := s.GetOrCreate(ctx, owner); err != nil {
		return nil, err
	}
	return s.store.ListMonthlyBudgets(ctx, owner)
}

// AddSavingGoal appends a goal with a freshly generated id.
func (s *Service) AddSavingGoal(ctx context.Context, owner, name string, target, current decimal.Decimal) (*core.SavingGoal, error) {
	if strings.TrimSpace(name) == "" {
		return nil, core.NewValidationError("name", "must not be empty")
	}
	if !target.IsPositive() {
		return nil, core.NewValidationError("target amount", "must be greater than zero")
	}
	if current.IsNegative() {
		return nil, core.NewValidationError("current amount", "must not be negative")
	}
	if _, err := s.GetOrCreate(ctx, owner); err != nil {
		return nil, err
	}

	goal := &core.SavingGoal{
		ID:            uuid.NewString(),
		OwnerID:       owner,
		Name:          name,
		TargetAmount:  target,
		CurrentAmount: current,
	}
	err := s.store.RunInTx(ctx, func(q *storage.Queries) error {
		return q.InsertSavingGoal(ctx, goal)
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "saving goal added",
		applog.FieldOwnerID, owner,
		applog.FieldGoalID, goal.ID)
	return goal, nil
}

// UpdateSavingGoal patches the matching goal; NotFound if no goal matches.
func (s *Service) UpdateSavingGoal(ctx context.Context, owner, goalID string, p GoalPatch) (*core.SavingGoal, error) {
	var goal *core.SavingGoal
	err := s.store.RunInTx(ctx, func(q *storage.Queries) error {
		var err error
		goal, err = q.GetSavingGoal(ctx, owner, goalID)
		if err != nil {
			return err
		}
		if p.Name != nil {
			if strings.TrimSpace(*p.Name) == "" {
				return core.NewValidationError("name", "must not be empty")
			}
			goal.Name = *p.Name
		}
		if p.TargetAmount != nil {
			if !p.TargetAmount.IsPositive() {
				return core.NewValidationError("target amount", "must be greater than zero")
			}
			goal.TargetAmount = *p.TargetAmount
		}
		if p.CurrentAmount != nil {
			if p.CurrentAmount.IsNegative() {
				return core.NewValidationError("current amount", "must not be negative")
			}
			goal.CurrentAmount = *p.CurrentAmount
		}
		return q.UpdateSavingGoal(ctx, goal)
	})
	if err != nil {
		return nil, err
	}
	return goal, nil
}

// ListSavingGoals returns the owner's goals oldest-first.
func (s *Service) ListSavingGoals(ctx context.Context, owner string) ([]core.SavingGoal, error) {
	if _, err := s.GetOrCreate(ctx, owner); err != nil {
		return nil, err
	}
	return s.store.ListSavingGoals(ctx, owner)
}

// SetSavingAmount sets the quick-savings current figure.
func (s *Service) SetSavingAmount(ctx context.Context, owner string, amount decimal.Decimal) (*core.BudgetLedger, error) {
	if amount.IsNegative() {
		return nil, core.NewValidationError("amount", "must not be negative")
	}
	return s.setScalar(ctx, owner, func(l *core.BudgetLedger) {
		l.SavingAmount = amount
	})
}

// SetTargetSavingAmount sets the quick-savings target figure.
func (s *Service) SetTargetSavingAmount(ctx context.Context, owner string, amount decimal.Decimal) (*core.BudgetLedger, error) {
	if !amount.IsPositive() {
		return nil, core.NewValidationError("amount", "must be greater than zero")
	}
	return s.setScalar(ctx, owner, func(l *core.BudgetLedger) {
		l.TargetSavingAmount = amount
	})
}

// SetTotalBudget sets the default budget used for new monthly entries.
func (s *Service) SetTotalBudget(ctx context.Context, owner string, amount decimal.Decimal) (*core.BudgetLedger, error) {
	if amount.IsNegative() {
		return nil, core.NewValidationError("amount", "must not be negative")
	}
	return s.setScalar(ctx, owner, func(l *core.BudgetLedger) {
		l.TotalBudget = amount
	})
}

// RecomputeSavingAmount sums income minus expense over the calendar month and
// overwrites the quick-savings figure with the result, which may be negative.
// The range read and the write are two independent steps, not one atomic
// unit: concurrent transaction writes may land between them. That staleness
// window is part of the operation's contract; the value holds exactly what
// the log contained at read time and a later recompute refreshes it.
func (s *Service) RecomputeSavingAmount(ctx context.Context, owner string, year, month int) (*core.BudgetLedger, error) {
	if err := validatePeriod(year, month); err != nil {
		return nil, err
	}
	if _, err := s.GetOrCreate(ctx, owner); err != nil {
		return nil, err
	}

	summary, err := s.store.SummarizeMonth(ctx, owner, year, month)
	if err != nil {
		return nil, err
	}

	ledger, err := s.setScalar(ctx, owner, func(l *core.BudgetLedger) {
		l.SavingAmount = summary.Net()
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "saving amount recomputed",
		applog.FieldOwnerID, owner,
		applog.FieldYear, year,
		applog.FieldMonth, month,
		applog.FieldAmount, ledger.SavingAmount.String())
	return ledger, nil
}

// setScalar applies mutate to the ledger record inside one transaction,
// creating the record first if needed.
func (s *Service) setScalar(ctx context.Context, owner string, mutate func(*core.BudgetLedger)) (*core.BudgetLedger, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, core.NewValidationError("owner", "must not be empty")
	}

	var ledger *core.BudgetLedger
	err := s.store.RunInTx(ctx, func(q *storage.Queries) error {
		if err := q.InsertBudgetLedger(ctx, &core.BudgetLedger{
			OwnerID:            owner,
			TotalBudget:        s.defaults.TotalBudget,
			SavingAmount:       decimal.Zero,
			TargetSavingAmount: s.defaults.SavingTarget,
		}); err != nil {
			return err
		}
		var err error
		ledger, err = q.GetBudgetLedger(ctx, owner)
		if err != nil {
			return err
		}
		mutate(ledger)
		return q.UpdateBudgetLedger(ctx, ledger)
	})
	if err != nil {
		return nil, err
	}
	return ledger, nil
}

func validatePeriod(year, month int) error {
	if year < 1970 || year > 9999 {
		return core.NewValidationError("year", "out of range")
	}
	if month < 1 || month > 12 {
		return core.NewValidationError("month", "must be between 1 and 12")
	}
	return nil
}
