package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"finance/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "nested", "finance.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func mustUser(t *testing.T, repo *SQLiteRepository, email string) int64 {
	t.Helper()
	id, err := repo.CreateUser(context.Background(), email, "hash")
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", email, err)
	}
	return id
}

func TestSQLiteRepository_Users(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	id := mustUser(t, repo, "a@x.com")

	if _, err := repo.CreateUser(ctx, "a@x.com", "other"); !errors.Is(err, core.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}

	byEmail, err := repo.UserByEmail(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("UserByEmail: %v", err)
	}
	if byEmail.ID != id || byEmail.PasswordHash != "hash" {
		t.Fatalf("unexpected user %+v", byEmail)
	}

	if _, err := repo.UserByID(ctx, id+100); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteRepository_TransactionsOrderAndSums(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	alice := mustUser(t, repo, "alice@x.com")
	bob := mustUser(t, repo, "bob@x.com")

	rows := []core.Transaction{
		{UserID: alice, Title: "salary", Amount: core.Money{Cents: 100000}, Date: core.NewDate(2025, 1, 1)},
		{UserID: alice, Title: "rent", IsExpense: true, Amount: core.Money{Cents: 20000}, Category: "home", Date: core.NewDate(2025, 1, 3)},
		{UserID: alice, Title: "coffee", IsExpense: true, Amount: core.Money{Cents: 300}, Date: core.NewDate(2025, 1, 3)},
		{UserID: bob, Title: "bonus", Amount: core.Money{Cents: 999900}, Date: core.NewDate(2025, 2, 1)},
	}
	for _, tx := range rows {
		if _, err := repo.InsertTransaction(ctx, tx); err != nil {
			t.Fatalf("InsertTransaction: %v", err)
		}
	}

	list, err := repo.ListTransactions(ctx, alice, 0)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	want := []string{"coffee", "rent", "salary"} // date desc, then id desc
	if len(list) != len(want) {
		t.Fatalf("got %d rows, want %d", len(list), len(want))
	}
	for i, title := range want {
		if list[i].Title != title {
			t.Errorf("row %d = %s, want %s", i, list[i].Title, title)
		}
		if list[i].UserID != alice {
			t.Errorf("row %d leaked from user %d", i, list[i].UserID)
		}
	}
	if list[1].Category != "home" || list[0].Category != "" {
		t.Errorf("category round trip failed: %q %q", list[1].Category, list[0].Category)
	}

	limited, err := repo.ListTransactions(ctx, alice, 2)
	if err != nil || len(limited) != 2 {
		t.Fatalf("limit 2: got %d rows (err=%v)", len(limited), err)
	}

	income, err := repo.SumTransactions(ctx, alice, false)
	if err != nil || income.Cents != 100000 {
		t.Fatalf("income = %d (err=%v)", income.Cents, err)
	}
	expense, err := repo.SumTransactions(ctx, alice, true)
	if err != nil || expense.Cents != 20300 {
		t.Fatalf("expense = %d (err=%v)", expense.Cents, err)
	}
	none, err := repo.SumTransactions(ctx, bob, true)
	if err != nil || none.Cents != 0 {
		t.Fatalf("empty sum = %d (err=%v)", none.Cents, err)
	}
}

func TestSQLiteRepository_GoalsOwnership(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	alice := mustUser(t, repo, "alice@x.com")
	bob := mustUser(t, repo, "bob@x.com")

	goalID, err := repo.InsertGoal(ctx, core.Goal{
		UserID: alice, Title: "bike", Target: core.Money{Cents: 50000}, Saved: core.Money{Cents: 10000}, Date: core.NewDate(2025, 1, 1),
	})
	if err != nil {
		t.Fatalf("InsertGoal: %v", err)
	}

	if err := repo.UpdateGoalSaving(ctx, bob, goalID, core.Money{Cents: 1}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("cross-user update: expected ErrNotFound, got %v", err)
	}
	if err := repo.DeleteGoal(ctx, bob, goalID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("cross-user delete: expected ErrNotFound, got %v", err)
	}

	if err := repo.UpdateGoalSaving(ctx, alice, goalID, core.Money{Cents: 70000}); err != nil {
		t.Fatalf("UpdateGoalSaving: %v", err)
	}
	saved, err := repo.SumGoalSavings(ctx, alice)
	if err != nil || saved.Cents != 70000 {
		t.Fatalf("saved = %d (err=%v)", saved.Cents, err)
	}

	goals, err := repo.ListGoals(ctx, bob, 0)
	if err != nil || len(goals) != 0 {
		t.Fatalf("bob sees %d goals (err=%v)", len(goals), err)
	}

	if err := repo.DeleteGoal(ctx, alice, goalID); err != nil {
		t.Fatalf("DeleteGoal: %v", err)
	}
	if err := repo.DeleteGoal(ctx, alice, goalID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "finance.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	repo.Close()

	if err := RunMigrations(DSN(path)); err != nil {
		t.Fatalf("second migration run: %v", err)
	}
}
