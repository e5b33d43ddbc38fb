package memory

import (
	"context"
	"errors"
	"testing"

	"finance/internal/core"
)

func TestStore_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	s := New()
	if _, err := s.CreateUser(ctx, "a@x.com", "h"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.CreateUser(ctx, "a@x.com", "h"); !errors.Is(err, core.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestStore_ListOrderingAndLimit(t *testing.T) {
	ctx := context.Background()
	s := New()
	uid, _ := s.CreateUser(ctx, "a@x.com", "h")

	add := func(title string, d core.Date) {
		t.Helper()
		if _, err := s.InsertTransaction(ctx, core.Transaction{UserID: uid, Title: title, Amount: core.Money{Cents: 1}, Date: d}); err != nil {
			t.Fatalf("insert %s: %v", title, err)
		}
	}
	add("old", core.NewDate(2024, 12, 31))
	add("first", core.NewDate(2025, 1, 2))
	add("second", core.NewDate(2025, 1, 2))

	got, err := s.ListTransactions(ctx, uid, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].Title != "second" || got[1].Title != "first" {
		t.Fatalf("unexpected order: %+v", got)
	}
}

func TestStore_GoalOwnership(t *testing.T) {
	ctx := context.Background()
	s := New()
	alice, _ := s.CreateUser(ctx, "alice@x.com", "h")
	bob, _ := s.CreateUser(ctx, "bob@x.com", "h")

	gid, err := s.InsertGoal(ctx, core.Goal{UserID: alice, Title: "trip", Target: core.Money{Cents: 100}, Date: core.NewDate(2025, 1, 1)})
	if err != nil {
		t.Fatalf("insert goal: %v", err)
	}
	if err := s.UpdateGoalSaving(ctx, bob, gid, core.Money{Cents: 5}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteGoal(ctx, bob, gid); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteGoal(ctx, alice, gid); err != nil {
		t.Fatalf("delete: %v", err)
	}
	total, _ := s.SumGoalSavings(ctx, alice)
	if total.Cents != 0 {
		t.Fatalf("expected 0 savings after delete, got %d", total.Cents)
	}
}
