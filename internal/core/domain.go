package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

// TitleMaxLen bounds transaction titles and category names.
const TitleMaxLen = 100

type (
	// Kind classifies a transaction or category as money in or money out.
	Kind string

	// Date is a calendar date; the time-of-day portion is ignored everywhere.
	Date struct {
		time.Time
	}

	// Transaction is a single monetary event owned by exactly one user.
	// Amount is always positive; the sign lives in Kind.
	Transaction struct {
		ID         int64
		OwnerID    string
		Title      string
		Amount     decimal.Decimal
		OccurredOn Date
		CategoryID int64
		Kind       Kind
		Note       string
		CreatedAt  time.Time
		UpdatedAt  time.Time
	}

	// Category groups transactions and carries running aggregates that are
	// maintained as a side effect of transaction writes.
	Category struct {
		ID               int64
		OwnerID          string
		Name             string
		Icon             string
		Color            string
		Kind             Kind
		IsDefault        bool
		TransactionCount int64
		TotalAmount      decimal.Decimal
		CreatedAt        time.Time
		UpdatedAt        time.Time
	}

	// Balance is the derived running balance for one owner.
	Balance struct {
		OwnerID      string
		TotalBalance decimal.Decimal
		UpdatedAt    time.Time
	}

	// BudgetLedger is the per-owner budget record, created lazily on first
	// access. SavingAmount is a reconciliation value, not a live aggregate.
	BudgetLedger struct {
		OwnerID            string
		TotalBudget        decimal.Decimal
		SavingAmount       decimal.Decimal
		TargetSavingAmount decimal.Decimal
		CreatedAt          time.Time
		UpdatedAt          time.Time
	}

	// MonthlyBudget is one (owner, year, month) budget entry.
	MonthlyBudget struct {
		OwnerID   string
		Year      int
		Month     int
		Amount    decimal.Decimal
		UpdatedAt time.Time
	}

	// SavingGoal is one named savings target.
	SavingGoal struct {
		ID            string
		OwnerID       string
		Name          string
		TargetAmount  decimal.Decimal
		CurrentAmount decimal.Decimal
		CreatedAt     time.Time
	}

	// MonthlySummary holds income/expense totals for one calendar month.
	MonthlySummary struct {
		OwnerID string
		Year    int
		Month   int
		Income  decimal.Decimal
		Expense decimal.Decimal
	}

	// TransactionFilter narrows a transaction listing. The zero value lists
	// everything. CategoryID > 0 filters by category; a non-zero From/To pair
	// filters by date range (inclusive).
	TransactionFilter struct {
		CategoryID int64
		From       Date
		To         Date
	}
)

// Valid reports whether k is a known transaction kind.
func (k Kind) Valid() bool {
	return k == Income || k == Expense
}

// Sign returns +1 for income and -1 for expense.
func (k Kind) Sign() int {
	if k == Expense {
		return -1
	}
	return 1
}

// NewDate creates a Date from year, month, day in UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, NewValidationError("date", "must be YYYY-MM-DD")
	}
	return Date{Time: t}, nil
}

// YearMonth returns the calendar year and month of the date.
func (d Date) YearMonth() (year, month int) {
	return d.Time.Year(), int(d.Time.Month())
}

func (d Date) String() string {
	return d.Time.Format("2006-01-02")
}

// Validate rejects the zero date.
func (d Date) Validate() error {
	if d.IsZero() {
		return NewValidationError("date", "must not be empty")
	}
	return nil
}

// SignedAmount combines the stored positive amount with the kind: +amount for
// income, -amount for expense. All balance arithmetic goes through this.
func (t Transaction) SignedAmount() decimal.Decimal {
	return Signed(t.Kind, t.Amount)
}

// Signed applies kind to a raw positive amount.
func Signed(kind Kind, amount decimal.Decimal) decimal.Decimal {
	if kind == Expense {
		return amount.Neg()
	}
	return amount
}

// Validate checks the fields a caller controls on create.
func (t Transaction) Validate() error {
	if strings.TrimSpace(t.OwnerID) == "" {
		return NewValidationError("owner", "must not be empty")
	}
	if strings.TrimSpace(t.Title) == "" {
		return NewValidationError("title", "must not be empty")
	}
	if len(t.Title) > TitleMaxLen {
		return NewValidationError("title", "too long")
	}
	if !t.Amount.IsPositive() {
		return NewValidationError("amount", "must be greater than zero")
	}
	if !t.Kind.Valid() {
		return NewValidationError("kind", "must be income or expense")
	}
	if t.CategoryID <= 0 {
		return NewValidationError("category", "must be set")
	}
	return t.OccurredOn.Validate()
}

// Validate checks caller-controlled category fields.
func (c Category) Validate() error {
	if strings.TrimSpace(c.OwnerID) == "" {
		return NewValidationError("owner", "must not be empty")
	}
	if strings.TrimSpace(c.Name) == "" {
		return NewValidationError("name", "must not be empty")
	}
	if len(c.Name) > TitleMaxLen {
		return NewValidationError("name", "too long")
	}
	if !c.Kind.Valid() {
		return NewValidationError("kind", "must be income or expense")
	}
	return nil
}

// Net returns income minus expense for the month; may be negative.
func (s MonthlySummary) Net() decimal.Decimal {
	return s.Income.Sub(s.Expense)
}
