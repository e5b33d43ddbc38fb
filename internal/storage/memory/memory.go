package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"finance/internal/core"
)

// Store keeps users, transactions and goals in process memory. It backs the
// "memory" data backend and the service tests.
type Store struct {
	mu     sync.Mutex
	users  []core.User
	txs    []core.Transaction
	goals  []core.Goal
	nextID int64
}

func New() *Store {
	return &Store{}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// Ping implements ports.HealthChecker
func (s *Store) Ping(context.Context) error { return nil }

// CreateUser implements ports.UserStore
func (s *Store) CreateUser(_ context.Context, email, passwordHash string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return 0, core.ErrDuplicateEmail
		}
	}
	u := core.User{ID: s.id(), Email: email, PasswordHash: passwordHash, CreatedAt: time.Now().UTC()}
	s.users = append(s.users, u)
	return u.ID, nil
}

// UserByEmail implements ports.UserStore
func (s *Store) UserByEmail(_ context.Context, email string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return core.User{}, core.ErrNotFound
}

// UserByID implements ports.UserStore
func (s *Store) UserByID(_ context.Context, id int64) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return core.User{}, core.ErrNotFound
}

// InsertTransaction implements ports.TransactionStore
func (s *Store) InsertTransaction(_ context.Context, t core.Transaction) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.id()
	s.txs = append(s.txs, t)
	return t.ID, nil
}

// ListTransactions implements ports.TransactionStore
func (s *Store) ListTransactions(_ context.Context, userID int64, limit int) ([]core.Transaction, error) {
	s.mu.Lock()
	var out []core.Transaction
	for _, t := range s.txs {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return newer(out[i].Date, out[i].ID, out[j].Date, out[j].ID)
	})
	return truncate(out, limit), nil
}

// SumTransactions implements ports.TransactionStore
func (s *Store) SumTransactions(_ context.Context, userID int64, isExpense bool) (core.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total core.Money
	for _, t := range s.txs {
		if t.UserID == userID && t.IsExpense == isExpense {
			total = total.Add(t.Amount)
		}
	}
	return total, nil
}

// InsertGoal implements ports.GoalStore
func (s *Store) InsertGoal(_ context.Context, g core.Goal) (int64, error) {
	if err := g.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g.ID = s.id()
	s.goals = append(s.goals, g)
	return g.ID, nil
}

// ListGoals implements ports.GoalStore
func (s *Store) ListGoals(_ context.Context, userID int64, limit int) ([]core.Goal, error) {
	s.mu.Lock()
	var out []core.Goal
	for _, g := range s.goals {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return newer(out[i].Date, out[i].ID, out[j].Date, out[j].ID)
	})
	return truncate(out, limit), nil
}

// UpdateGoalSaving implements ports.GoalStore
func (s *Store) UpdateGoalSaving(_ context.Context, userID, goalID int64, saved core.Money) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.goals {
		if s.goals[i].ID == goalID && s.goals[i].UserID == userID {
			s.goals[i].Saved = saved
			return nil
		}
	}
	return core.ErrNotFound
}

// DeleteGoal implements ports.GoalStore
func (s *Store) DeleteGoal(_ context.Context, userID, goalID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, g := range s.goals {
		if g.ID == goalID && g.UserID == userID {
			s.goals = append(s.goals[:i], s.goals[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

// SumGoalSavings implements ports.GoalStore
func (s *Store) SumGoalSavings(_ context.Context, userID int64) (core.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total core.Money
	for _, g := range s.goals {
		if g.UserID == userID {
			total = total.Add(g.Saved)
		}
	}
	return total, nil
}

func newer(da core.Date, ida int64, db core.Date, idb int64) bool {
	if !da.Equal(db.Time) {
		return da.After(db.Time)
	}
	return ida > idb
}

func truncate[T any](in []T, limit int) []T {
	if limit > 0 && len(in) > limit {
		return in[:limit]
	}
	return in
}
