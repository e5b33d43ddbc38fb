package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"finance/internal/core"
)

const (
	LatestTransactionsLimit = 5
	RecentGoalsLimit        = 3
)

// SummaryService is the aggregation engine behind the dashboard. Every call
// recomputes from the user's rows.
type SummaryService struct {
	ledger *LedgerService
	goals  *GoalService
}

func NewSummaryService(ledger *LedgerService, goals *GoalService) *SummaryService {
	return &SummaryService{ledger: ledger, goals: goals}
}

// ComputeSummary returns totals, balance, the latest transactions and the
// most recent goals with progress for userID.
func (s *SummaryService) ComputeSummary(ctx context.Context, userID int64) (core.Summary, error) {
	var (
		sum    core.Summary
		recent []core.Goal
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		sum.TotalIncome, err = s.ledger.SumByFlag(gctx, userID, false)
		return err
	})
	g.Go(func() (err error) {
		sum.TotalExpense, err = s.ledger.SumByFlag(gctx, userID, true)
		return err
	})
	g.Go(func() (err error) {
		sum.CommittedSavings, err = s.goals.TotalSaved(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		sum.LatestTransactions, err = s.ledger.LatestTransactions(gctx, userID, LatestTransactionsLimit)
		return err
	})
	g.Go(func() (err error) {
		recent, err = s.goals.RecentGoals(gctx, userID, RecentGoalsLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.Summary{}, fmt.Errorf("compute summary for user %d: %w", userID, err)
	}

	sum.Balance = core.Balance(sum.TotalIncome, sum.TotalExpense, sum.CommittedSavings)
	sum.Goals = WithProgress(recent)
	return sum, nil
}
