package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/NT912/FinWise-sub000/internal/core"
)

func openTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedCategory(t *testing.T, repo *Repository, owner, name string, kind core.Kind) *core.Category {
	t.Helper()
	c := &core.Category{OwnerID: owner, Name: name, Kind: kind}
	if err := repo.InsertCategory(context.Background(), c); err != nil {
		t.Fatalf("insert category: %v", err)
	}
	return c
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	return decimal.RequireFromString(s)
}

func TestTransactionCRUD(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	cat := seedCategory(t, repo, "u1", "Food", core.Expense)

	tx := &core.Transaction{
		OwnerID:    "u1",
		Title:      "groceries",
		Amount:     dec(t, "42.50"),
		OccurredOn: core.NewDate(2026, 3, 15),
		CategoryID: cat.ID,
		Kind:       core.Expense,
		Note:       "weekly shop",
	}
	if err := repo.InsertTransaction(ctx, tx); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if tx.ID == 0 {
		t.Fatal("insert must assign an ID")
	}

	got, err := repo.GetTransaction(ctx, "u1", tx.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "groceries" || !got.Amount.Equal(dec(t, "42.50")) {
		t.Fatalf("got %+v", got)
	}
	if got.OccurredOn.String() != "2026-03-15" {
		t.Fatalf("date round-trip got %s", got.OccurredOn)
	}

	got.Title = "supermarket"
	got.Amount = dec(t, "50")
	if err := repo.UpdateTransaction(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	got2, err := repo.GetTransaction(ctx, "u1", tx.ID)
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if got2.Title != "supermarket" || !got2.Amount.Equal(dec(t, "50")) {
		t.Fatalf("update not persisted: %+v", got2)
	}

	if err := repo.DeleteTransaction(ctx, "u1", tx.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetTransaction(ctx, "u1", tx.ID); !core.IsNotFound(err) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestTransactionOwnerScoping(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	cat := seedCategory(t, repo, "alice", "Food", core.Expense)

	tx := &core.Transaction{
		OwnerID:    "alice",
		Title:      "lunch",
		Amount:     dec(t, "12"),
		OccurredOn: core.NewDate(2026, 1, 10),
		CategoryID: cat.ID,
		Kind:       core.Expense,
	}
	if err := repo.InsertTransaction(ctx, tx); err != nil {
		t.Fatalf("insert: %v", err)
	}

	if _, err := repo.GetTransaction(ctx, "bob", tx.ID); !core.IsNotFound(err) {
		t.Fatalf("foreign owner get must report not found, got %v", err)
	}
	if err := repo.DeleteTransaction(ctx, "bob", tx.ID); !core.IsNotFound(err) {
		t.Fatalf("foreign owner delete must report not found, got %v", err)
	}
	if _, err := repo.GetTransaction(ctx, "alice", tx.ID); err != nil {
		t.Fatalf("owner must still see the row: %v", err)
	}
}

func TestListTransactionsFilters(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	food := seedCategory(t, repo, "u1", "Food", core.Expense)
	salary := seedCategory(t, repo, "u1", "Salary", core.Income)

	insert := func(title string, day int, catID int64, kind core.Kind) {
		t.Helper()
		err := repo.InsertTransaction(ctx, &core.Transaction{
			OwnerID: "u1", Title: title, Amount: dec(t, "10"),
			OccurredOn: core.NewDate(2026, 2, day), CategoryID: catID, Kind: kind,
		})
		if err != nil {
			t.Fatalf("insert %s: %v", title, err)
		}
	}
	insert("a", 1, food.ID, core.Expense)
	insert("b", 10, food.ID, core.Expense)
	insert("c", 20, salary.ID, core.Income)

	all, err := repo.ListTransactions(ctx, "u1", core.TransactionFilter{})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("list all: got %d", len(all))
	}
	// newest first
	if all[0].Title != "c" || all[2].Title != "a" {
		t.Fatalf("wrong order: %s, %s, %s", all[0].Title, all[1].Title, all[2].Title)
	}

	byCat, err := repo.ListTransactions(ctx, "u1", core.TransactionFilter{CategoryID: food.ID})
	if err != nil {
		t.Fatalf("list by category: %v", err)
	}
	if len(byCat) != 2 {
		t.Fatalf("category filter: got %d", len(byCat))
	}

	ranged, err := repo.ListTransactions(ctx, "u1", core.TransactionFilter{
		From: core.NewDate(2026, 2, 10),
		To:   core.NewDate(2026, 2, 20),
	})
	if err != nil {
		t.Fatalf("list by range: %v", err)
	}
	if len(ranged) != 2 {
		t.Fatalf("range filter must be inclusive on both ends: got %d", len(ranged))
	}

	other, err := repo.ListTransactions(ctx, "u2", core.TransactionFilter{})
	if err != nil {
		t.Fatalf("list other owner: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("other owner sees %d rows", len(other))
	}
}

func TestSummarizeMonth(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	food := seedCategory(t, repo, "u1", "Food", core.Expense)
	salary := seedCategory(t, repo, "u1", "Salary", core.Income)

	rows := []struct {
		amount string
		day    int
		month  int
		catID  int64
		kind   core.Kind
	}{
		{"1000", 1, 4, salary.ID, core.Income},
		{"250.25", 5, 4, food.ID, core.Expense},
		{"100", 28, 3, food.ID, core.Expense}, // previous month, excluded
	}
	for _, r := range rows {
		err := repo.InsertTransaction(ctx, &core.Transaction{
			OwnerID: "u1", Title: "t", Amount: dec(t, r.amount),
			OccurredOn: core.NewDate(2026, r.month, r.day), CategoryID: r.catID, Kind: r.kind,
		})
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	s, err := repo.SummarizeMonth(ctx, "u1", 2026, 4)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if !s.Income.Equal(dec(t, "1000")) {
		t.Fatalf("income = %s", s.Income)
	}
	if !s.Expense.Equal(dec(t, "250.25")) {
		t.Fatalf("expense = %s", s.Expense)
	}
	if !s.Net().Equal(dec(t, "749.75")) {
		t.Fatalf("net = %s", s.Net())
	}

	empty, err := repo.SummarizeMonth(ctx, "u1", 2026, 12)
	if err != nil {
		t.Fatalf("summarize empty month: %v", err)
	}
	if !empty.Income.IsZero() || !empty.Expense.IsZero() {
		t.Fatalf("empty month must be zero, got %+v", empty)
	}
}

func TestCategoryUniqueName(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	seedCategory(t, repo, "u1", "Food", core.Expense)

	err := repo.InsertCategory(ctx, &core.Category{OwnerID: "u1", Name: "Food", Kind: core.Expense})
	if !core.IsValidation(err) {
		t.Fatalf("duplicate name must be a validation error, got %v", err)
	}

	// same name under another owner is fine
	if err := repo.InsertCategory(ctx, &core.Category{OwnerID: "u2", Name: "Food", Kind: core.Expense}); err != nil {
		t.Fatalf("same name for other owner: %v", err)
	}
}

func TestApplyCategoryDelta(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	cat := seedCategory(t, repo, "u1", "Food", core.Expense)

	if err := repo.ApplyCategoryDelta(ctx, cat.ID, 1, dec(t, "30")); err != nil {
		t.Fatalf("first delta: %v", err)
	}
	if err := repo.ApplyCategoryDelta(ctx, cat.ID, 1, dec(t, "20.50")); err != nil {
		t.Fatalf("second delta: %v", err)
	}

	got, err := repo.GetCategory(ctx, "u1", cat.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.TransactionCount != 2 || !got.TotalAmount.Equal(dec(t, "50.50")) {
		t.Fatalf("aggregates: count=%d total=%s", got.TransactionCount, got.TotalAmount)
	}

	if err := repo.ApplyCategoryDelta(ctx, cat.ID, -1, dec(t, "-30")); err != nil {
		t.Fatalf("negative delta: %v", err)
	}
	got, err = repo.GetCategory(ctx, "u1", cat.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.TransactionCount != 1 || !got.TotalAmount.Equal(dec(t, "20.50")) {
		t.Fatalf("aggregates after removal: count=%d total=%s", got.TransactionCount, got.TotalAmount)
	}

	// driving the count below zero is a bug, not a clamp
	if err := repo.ApplyCategoryDelta(ctx, cat.ID, -2, dec(t, "-20.50")); !core.IsInvariant(err) {
		t.Fatalf("expected invariant violation, got %v", err)
	}
}

func TestBalanceDelta(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	b, err := repo.GetBalance(ctx, "u1")
	if err != nil {
		t.Fatalf("get empty balance: %v", err)
	}
	if !b.TotalBalance.IsZero() {
		t.Fatalf("fresh owner balance = %s", b.TotalBalance)
	}

	if err := repo.ApplyBalanceDelta(ctx, "u1", dec(t, "100")); err != nil {
		t.Fatalf("apply +100: %v", err)
	}
	if err := repo.ApplyBalanceDelta(ctx, "u1", dec(t, "-250.75")); err != nil {
		t.Fatalf("apply -250.75: %v", err)
	}

	b, err = repo.GetBalance(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !b.TotalBalance.Equal(dec(t, "-150.75")) {
		t.Fatalf("balance = %s, negative balances must be allowed", b.TotalBalance)
	}
}

func TestBudgetLedgerLazyCreate(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	if _, err := repo.GetBudgetLedger(ctx, "u1"); !core.IsNotFound(err) {
		t.Fatalf("expected not found before create, got %v", err)
	}

	l := &core.BudgetLedger{OwnerID: "u1", TotalBudget: dec(t, "1000"), TargetSavingAmount: dec(t, "100")}
	if err := repo.InsertBudgetLedger(ctx, l); err != nil {
		t.Fatalf("insert: %v", err)
	}
	// second insert is a no-op, not an error
	if err := repo.InsertBudgetLedger(ctx, l); err != nil {
		t.Fatalf("repeat insert: %v", err)
	}

	got, err := repo.GetBudgetLedger(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.TotalBudget.Equal(dec(t, "1000")) || !got.SavingAmount.IsZero() {
		t.Fatalf("got %+v", got)
	}
}

func TestMonthlyBudgetUpsert(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	b := &core.MonthlyBudget{OwnerID: "u1", Year: 2026, Month: 6, Amount: dec(t, "500")}
	if err := repo.UpsertMonthlyBudget(ctx, b); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	b.Amount = dec(t, "750")
	if err := repo.UpsertMonthlyBudget(ctx, b); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	list, err := repo.ListMonthlyBudgets(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("upsert must keep a single row per period, got %d", len(list))
	}
	if !list[0].Amount.Equal(dec(t, "750")) {
		t.Fatalf("amount = %s", list[0].Amount)
	}
}

func TestSavingGoalCRUD(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	g := &core.SavingGoal{
		ID: "goal-1", OwnerID: "u1", Name: "Vacation",
		TargetAmount: dec(t, "2000"), CurrentAmount: dec(t, "150"),
	}
	if err := repo.InsertSavingGoal(ctx, g); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := repo.GetSavingGoal(ctx, "u1", "goal-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Vacation" || !got.TargetAmount.Equal(dec(t, "2000")) {
		t.Fatalf("got %+v", got)
	}

	got.CurrentAmount = dec(t, "300")
	if err := repo.UpdateSavingGoal(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}

	list, err := repo.ListSavingGoals(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || !list[0].CurrentAmount.Equal(dec(t, "300")) {
		t.Fatalf("list: %+v", list)
	}

	if _, err := repo.GetSavingGoal(ctx, "u2", "goal-1"); !core.IsNotFound(err) {
		t.Fatalf("foreign owner must get not found, got %v", err)
	}
}

func TestRunInTxRollsBackOnError(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	cat := seedCategory(t, repo, "u1", "Food", core.Expense)

	boom := core.NewInvariantError("forced failure")
	err := repo.RunInTx(ctx, func(q *Queries) error {
		if err := q.InsertTransaction(ctx, &core.Transaction{
			OwnerID: "u1", Title: "t", Amount: dec(t, "10"),
			OccurredOn: core.NewDate(2026, 5, 1), CategoryID: cat.ID, Kind: core.Expense,
		}); err != nil {
			return err
		}
		if err := q.ApplyBalanceDelta(ctx, "u1", dec(t, "-10")); err != nil {
			return err
		}
		return boom
	})
	if !core.IsInvariant(err) {
		t.Fatalf("expected forced error back, got %v", err)
	}

	list, err := repo.ListTransactions(ctx, "u1", core.TransactionFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("insert must have rolled back, found %d rows", len(list))
	}
	b, err := repo.GetBalance(ctx, "u1")
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if !b.TotalBalance.IsZero() {
		t.Fatalf("balance must have rolled back, got %s", b.TotalBalance)
	}
}
