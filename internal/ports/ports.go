package ports

import (
	"context"

	"finance/internal/core"
)

// Ports for the persistence adapters. Every record query takes the owning
// user id; implementations must apply it as a predicate.
type (
	UserStore interface {
		// CreateUser persists a user and returns core.ErrDuplicateEmail when
		// the normalized email already exists.
		CreateUser(ctx context.Context, email, passwordHash string) (int64, error)
		UserByEmail(ctx context.Context, email string) (core.User, error)
		UserByID(ctx context.Context, id int64) (core.User, error)
	}

	TransactionStore interface {
		InsertTransaction(ctx context.Context, t core.Transaction) (int64, error)
		// ListTransactions orders by date then id, newest first. A limit
		// of zero or less returns every row.
		ListTransactions(ctx context.Context, userID int64, limit int) ([]core.Transaction, error)
		SumTransactions(ctx context.Context, userID int64, isExpense bool) (core.Money, error)
	}

	GoalStore interface {
		InsertGoal(ctx context.Context, g core.Goal) (int64, error)
		ListGoals(ctx context.Context, userID int64, limit int) ([]core.Goal, error)
		// UpdateGoalSaving and DeleteGoal return core.ErrNotFound when no
		// goal with that id belongs to userID.
		UpdateGoalSaving(ctx context.Context, userID, goalID int64, saved core.Money) error
		DeleteGoal(ctx context.Context, userID, goalID int64) error
		SumGoalSavings(ctx context.Context, userID int64) (core.Money, error)
	}

	HealthChecker interface {
		Ping(ctx context.Context) error
	}
)
