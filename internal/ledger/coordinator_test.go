package ledger

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/NT912/FinWise-sub000/internal/core"
	"github.com/NT912/FinWise-sub000/internal/events"
	applog "github.com/NT912/FinWise-sub000/internal/log"
	"github.com/NT912/FinWise-sub000/internal/storage"
)

func testLogger() *applog.Logger {
	return applog.New(applog.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.LedgerEvent
}

func (p *recordingPublisher) PublishLedgerEvent(_ context.Context, ev events.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) all() []events.LedgerEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.LedgerEvent(nil), p.events...)
}

type fixture struct {
	repo      *storage.Repository
	coord     *Coordinator
	publisher *recordingPublisher
	expense   *core.Category
	income    *core.Category
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo, err := storage.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	ctx := context.Background()
	expense := &core.Category{OwnerID: "u1", Name: "Food", Kind: core.Expense}
	require.NoError(t, repo.InsertCategory(ctx, expense))
	income := &core.Category{OwnerID: "u1", Name: "Salary", Kind: core.Income}
	require.NoError(t, repo.InsertCategory(ctx, income))

	publisher := &recordingPublisher{}
	coord := New(repo, publisher, DefaultConfig(), testLogger())
	return &fixture{repo: repo, coord: coord, publisher: publisher, expense: expense, income: income}
}

func (f *fixture) create(t *testing.T, amount string, kind core.Kind, catID int64) *core.Transaction {
	t.Helper()
	tx, err := f.coord.Create(context.Background(), CreateParams{
		OwnerID:    "u1",
		Title:      "entry",
		Amount:     decimal.RequireFromString(amount),
		OccurredOn: core.NewDate(2026, 6, 15),
		CategoryID: catID,
		Kind:       kind,
	})
	require.NoError(t, err)
	return tx
}

func (f *fixture) balance(t *testing.T) decimal.Decimal {
	t.Helper()
	b, err := f.repo.GetBalance(context.Background(), "u1")
	require.NoError(t, err)
	return b.TotalBalance
}

func (f *fixture) category(t *testing.T, id int64) *core.Category {
	t.Helper()
	c, err := f.repo.GetCategory(context.Background(), "u1", id)
	require.NoError(t, err)
	return c
}

func TestCreateExpenseAppliesAllThreeWrites(t *testing.T) {
	f := newFixture(t)

	tx := f.create(t, "42.50", core.Expense, f.expense.ID)
	require.NotZero(t, tx.ID)

	assert.True(t, f.balance(t).Equal(decimal.RequireFromString("-42.50")),
		"balance = %s", f.balance(t))

	cat := f.category(t, f.expense.ID)
	assert.Equal(t, int64(1), cat.TransactionCount)
	assert.True(t, cat.TotalAmount.Equal(decimal.RequireFromString("42.50")))

	evs := f.publisher.all()
	require.Len(t, evs, 1)
	assert.Equal(t, events.OpCreate, evs[0].Op)
	assert.Equal(t, tx.ID, evs[0].TransactionID)
	assert.Equal(t, 2026, evs[0].Year)
	assert.Equal(t, 6, evs[0].Month)
}

func TestCreateIncomeRaisesBalance(t *testing.T) {
	f := newFixture(t)

	f.create(t, "1000", core.Income, f.income.ID)
	assert.True(t, f.balance(t).Equal(decimal.RequireFromString("1000")))
}

func TestCreateRejectsKindMismatch(t *testing.T) {
	f := newFixture(t)

	_, err := f.coord.Create(context.Background(), CreateParams{
		OwnerID:    "u1",
		Title:      "wrong",
		Amount:     decimal.RequireFromString("10"),
		OccurredOn: core.NewDate(2026, 6, 1),
		CategoryID: f.income.ID,
		Kind:       core.Expense,
	})
	require.Error(t, err)
	assert.True(t, core.IsValidation(err), "got %v", err)

	// nothing committed
	assert.True(t, f.balance(t).IsZero())
	assert.Equal(t, int64(0), f.category(t, f.income.ID).TransactionCount)
}

func TestCreateRejectsUnknownCategory(t *testing.T) {
	f := newFixture(t)

	_, err := f.coord.Create(context.Background(), CreateParams{
		OwnerID:    "u1",
		Title:      "orphan",
		Amount:     decimal.RequireFromString("10"),
		OccurredOn: core.NewDate(2026, 6, 1),
		CategoryID: 999,
		Kind:       core.Expense,
	})
	assert.True(t, core.IsNotFound(err), "got %v", err)
	assert.Empty(t, f.publisher.all())
}

func TestUpdateAmountAdjustsAggregatesByDelta(t *testing.T) {
	f := newFixture(t)
	tx := f.create(t, "30", core.Expense, f.expense.ID)

	amount := decimal.RequireFromString("50")
	updated, err := f.coord.Update(context.Background(), "u1", tx.ID, Patch{Amount: &amount})
	require.NoError(t, err)
	assert.True(t, updated.Amount.Equal(amount))

	assert.True(t, f.balance(t).Equal(decimal.RequireFromString("-50")))

	cat := f.category(t, f.expense.ID)
	assert.Equal(t, int64(1), cat.TransactionCount, "count must not change on amount-only update")
	assert.True(t, cat.TotalAmount.Equal(amount))
}

func TestUpdateMovesBetweenCategories(t *testing.T) {
	f := newFixture(t)
	tx := f.create(t, "30", core.Expense, f.expense.ID)

	other := &core.Category{OwnerID: "u1", Name: "Transport", Kind: core.Expense}
	require.NoError(t, f.repo.InsertCategory(context.Background(), other))

	_, err := f.coord.Update(context.Background(), "u1", tx.ID, Patch{CategoryID: &other.ID})
	require.NoError(t, err)

	old := f.category(t, f.expense.ID)
	assert.Equal(t, int64(0), old.TransactionCount)
	assert.True(t, old.TotalAmount.IsZero(), "old total = %s", old.TotalAmount)

	moved := f.category(t, other.ID)
	assert.Equal(t, int64(1), moved.TransactionCount)
	assert.True(t, moved.TotalAmount.Equal(decimal.RequireFromString("30")))

	// balance unchanged: same amount, same kind
	assert.True(t, f.balance(t).Equal(decimal.RequireFromString("-30")))
}

func TestUpdateKindFlipsBalanceContribution(t *testing.T) {
	f := newFixture(t)
	tx := f.create(t, "100", core.Expense, f.expense.ID)

	kind := core.Income
	_, err := f.coord.Update(context.Background(), "u1", tx.ID, Patch{
		Kind:       &kind,
		CategoryID: &f.income.ID,
	})
	require.NoError(t, err)

	// -100 before, +100 after
	assert.True(t, f.balance(t).Equal(decimal.RequireFromString("100")), "balance = %s", f.balance(t))
}

func TestUpdateUnknownTransaction(t *testing.T) {
	f := newFixture(t)
	title := "x"
	_, err := f.coord.Update(context.Background(), "u1", 12345, Patch{Title: &title})
	assert.True(t, core.IsNotFound(err), "got %v", err)
}

func TestDeleteReversesContributions(t *testing.T) {
	f := newFixture(t)
	tx := f.create(t, "75.25", core.Expense, f.expense.ID)

	require.NoError(t, f.coord.Delete(context.Background(), "u1", tx.ID))

	assert.True(t, f.balance(t).IsZero(), "balance = %s", f.balance(t))
	cat := f.category(t, f.expense.ID)
	assert.Equal(t, int64(0), cat.TransactionCount)
	assert.True(t, cat.TotalAmount.IsZero())

	// second delete of the same id reports not found and changes nothing
	err := f.coord.Delete(context.Background(), "u1", tx.ID)
	assert.True(t, core.IsNotFound(err), "got %v", err)
	assert.True(t, f.balance(t).IsZero())
}

func TestSequenceOfOperationsKeepsInvariants(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.create(t, "1000", core.Income, f.income.ID)
	e1 := f.create(t, "200", core.Expense, f.expense.ID)
	f.create(t, "50.50", core.Expense, f.expense.ID)

	amount := decimal.RequireFromString("250")
	_, err := f.coord.Update(ctx, "u1", e1.ID, Patch{Amount: &amount})
	require.NoError(t, err)

	// 1000 - 250 - 50.50
	assert.True(t, f.balance(t).Equal(decimal.RequireFromString("699.50")), "balance = %s", f.balance(t))

	list, err := f.coord.List(ctx, "u1", core.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, list, 3)

	// balance equals the sum of signed amounts
	sum := decimal.Zero
	for _, tx := range list {
		sum = sum.Add(tx.SignedAmount())
	}
	assert.True(t, f.balance(t).Equal(sum))

	// category totals equal the sum of their member amounts
	cat := f.category(t, f.expense.ID)
	assert.Equal(t, int64(2), cat.TransactionCount)
	assert.True(t, cat.TotalAmount.Equal(decimal.RequireFromString("300.50")))
}

func TestConcurrentCreatesAllLand(t *testing.T) {
	f := newFixture(t)

	const n = 8
	g := new(errgroup.Group)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			_, err := f.coord.Create(context.Background(), CreateParams{
				OwnerID:    "u1",
				Title:      "concurrent",
				Amount:     decimal.RequireFromString("10"),
				OccurredOn: core.NewDate(2026, 6, 20),
				CategoryID: f.expense.ID,
				Kind:       core.Expense,
			})
			return err
		})
	}
	require.NoError(t, g.Wait())

	list, err := f.coord.List(context.Background(), "u1", core.TransactionFilter{})
	require.NoError(t, err)
	assert.Len(t, list, n)
	assert.True(t, f.balance(t).Equal(decimal.RequireFromString("-80")), "balance = %s", f.balance(t))

	cat := f.category(t, f.expense.ID)
	assert.Equal(t, int64(n), cat.TransactionCount)
	assert.True(t, cat.TotalAmount.Equal(decimal.RequireFromString("80")))
}

func TestConcurrentUpdateAndDelete(t *testing.T) {
	f := newFixture(t)
	tx := f.create(t, "40", core.Expense, f.expense.ID)

	g := new(errgroup.Group)
	var updateErr, deleteErr error
	g.Go(func() error {
		amount := decimal.RequireFromString("60")
		_, updateErr = f.coord.Update(context.Background(), "u1", tx.ID, Patch{Amount: &amount})
		return nil
	})
	g.Go(func() error {
		deleteErr = f.coord.Delete(context.Background(), "u1", tx.ID)
		return nil
	})
	require.NoError(t, g.Wait())

	// whichever interleaving happened, the invariants must hold
	list, err := f.coord.List(context.Background(), "u1", core.TransactionFilter{})
	require.NoError(t, err)

	cat := f.category(t, f.expense.ID)
	if deleteErr == nil && len(list) == 0 {
		assert.True(t, f.balance(t).IsZero(), "balance = %s", f.balance(t))
		assert.Equal(t, int64(0), cat.TransactionCount)
		assert.True(t, cat.TotalAmount.IsZero())
	} else {
		require.NoError(t, updateErr)
		require.Len(t, list, 1)
		assert.True(t, f.balance(t).Equal(list[0].SignedAmount()))
		assert.Equal(t, int64(1), cat.TransactionCount)
		assert.True(t, cat.TotalAmount.Equal(list[0].Amount))
	}
}

func TestListRejectsInvertedRange(t *testing.T) {
	f := newFixture(t)
	_, err := f.coord.List(context.Background(), "u1", core.TransactionFilter{
		From: core.NewDate(2026, 6, 30),
		To:   core.NewDate(2026, 6, 1),
	})
	assert.True(t, core.IsValidation(err), "got %v", err)
}

// conflictingStore reports contention on every commit attempt.
type conflictingStore struct {
	mu    sync.Mutex
	calls int
}

func (s *conflictingStore) RunInTx(_ context.Context, _ func(q *storage.Queries) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return core.NewConflictError("commit", nil)
}

func (s *conflictingStore) GetTransaction(context.Context, string, int64) (*core.Transaction, error) {
	return nil, core.NewNotFoundError("transaction", "0")
}

func (s *conflictingStore) ListTransactions(context.Context, string, core.TransactionFilter) ([]core.Transaction, error) {
	return nil, nil
}

func TestRetryStopsAfterMaxAttempts(t *testing.T) {
	store := &conflictingStore{}
	coord := New(store, nil, Config{
		MaxAttempts:   3,
		RetryBase:     time.Millisecond,
		CommitTimeout: time.Second,
	}, testLogger())

	err := coord.Delete(context.Background(), "u1", 1)
	require.Error(t, err)
	assert.True(t, core.IsConflict(err), "got %v", err)
	assert.True(t, core.IsRetryable(err))
	assert.Equal(t, 3, store.calls, "first attempt plus two retries")
}

func TestValidationNeverRetried(t *testing.T) {
	store := &conflictingStore{}
	coord := New(store, nil, DefaultConfig(), testLogger())

	// an invalid create fails before any commit attempt
	_, err := coord.Create(context.Background(), CreateParams{OwnerID: "u1"})
	assert.True(t, core.IsValidation(err), "got %v", err)
	assert.Equal(t, 0, store.calls)
}
