package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"finance/internal/core"
	"finance/internal/ports"
)

// NewGoal is the input for GoalService.AddGoal. A zero Date means "today".
type NewGoal struct {
	Title  string
	Target core.Money
	Saved  core.Money
	Date   core.Date
}

// GoalService manages savings goals. A goal owned by another user is
// reported as core.ErrNotFound.
type GoalService struct {
	store ports.GoalStore
	now   func() time.Time
}

func NewGoalService(store ports.GoalStore) *GoalService {
	return &GoalService{store: store, now: time.Now}
}

func clampSaving(m core.Money) core.Money {
	if m.Cents < 0 {
		return core.Money{}
	}
	return m
}

// AddGoal stores a new goal. A negative initial saving is clamped to 0.
func (s *GoalService) AddGoal(ctx context.Context, userID int64, in NewGoal) (int64, error) {
	date := in.Date
	if date.IsZero() {
		date = core.DateOf(s.now())
	}
	g := core.Goal{
		UserID: userID,
		Title:  strings.TrimSpace(in.Title),
		Target: in.Target,
		Saved:  clampSaving(in.Saved),
		Date:   date,
	}
	if err := g.Validate(); err != nil {
		return 0, err
	}

	id, err := s.store.InsertGoal(ctx, g)
	if err != nil {
		return 0, fmt.Errorf("save goal: %w", err)
	}

	slog.InfoContext(ctx, "Goal created",
		"goal_id", id,
		"user_id", userID,
		"target_cents", g.Target.Cents,
		"saved_cents", g.Saved.Cents,
		"component", "goals",
		"operation", "create")
	return id, nil
}

// ListGoals returns all goals of userID, newest first.
func (s *GoalService) ListGoals(ctx context.Context, userID int64) ([]core.Goal, error) {
	return s.RecentGoals(ctx, userID, 0)
}

// RecentGoals returns at most limit goals, newest first.
func (s *GoalService) RecentGoals(ctx context.Context, userID int64, limit int) ([]core.Goal, error) {
	goals, err := s.store.ListGoals(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list goals for user %d: %w", userID, err)
	}
	return goals, nil
}

// UpdateSaving sets the saved amount of a goal. Negative values become 0.
func (s *GoalService) UpdateSaving(ctx context.Context, userID, goalID int64, saved core.Money) error {
	saved = clampSaving(saved)
	if err := s.store.UpdateGoalSaving(ctx, userID, goalID, saved); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.ErrNotFound
		}
		return fmt.Errorf("update goal %d: %w", goalID, err)
	}

	slog.InfoContext(ctx, "Goal saving updated",
		"goal_id", goalID,
		"user_id", userID,
		"saved_cents", saved.Cents,
		"component", "goals",
		"operation", "update")
	return nil
}

// DeleteGoal removes a goal of userID.
func (s *GoalService) DeleteGoal(ctx context.Context, userID, goalID int64) error {
	if err := s.store.DeleteGoal(ctx, userID, goalID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.ErrNotFound
		}
		return fmt.Errorf("delete goal %d: %w", goalID, err)
	}

	slog.InfoContext(ctx, "Goal deleted",
		"goal_id", goalID,
		"user_id", userID,
		"component", "goals",
		"operation", "delete")
	return nil
}

// TotalSaved sums the saved amounts over every goal of userID.
func (s *GoalService) TotalSaved(ctx context.Context, userID int64) (core.Money, error) {
	total, err := s.store.SumGoalSavings(ctx, userID)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum goal savings for user %d: %w", userID, err)
	}
	return total, nil
}

// WithProgress attaches the progress percentage to each goal.
func WithProgress(goals []core.Goal) []core.GoalProgress {
	out := make([]core.GoalProgress, len(goals))
	for i, g := range goals {
		out[i] = core.GoalProgress{Goal: g, Progress: core.Progress(g.Saved, g.Target)}
	}
	return out
}
