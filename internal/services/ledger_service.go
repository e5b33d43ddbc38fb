package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"finance/internal/core"
	"finance/internal/ports"
)

// NewTransaction is the input for LedgerService.AddTransaction. A zero Date
// means "today".
type NewTransaction struct {
	Title     string
	IsExpense bool
	Amount    core.Money
	Category  string
	Date      core.Date
}

// LedgerService records and lists a user's income and expense transactions.
type LedgerService struct {
	store ports.TransactionStore
	now   func() time.Time
}

func NewLedgerService(store ports.TransactionStore) *LedgerService {
	return &LedgerService{store: store, now: time.Now}
}

// AddTransaction validates and stores a transaction owned by userID.
func (s *LedgerService) AddTransaction(ctx context.Context, userID int64, in NewTransaction) (int64, error) {
	date := in.Date
	if date.IsZero() {
		date = core.DateOf(s.now())
	}
	t := core.Transaction{
		UserID:    userID,
		Title:     strings.TrimSpace(in.Title),
		IsExpense: in.IsExpense,
		Amount:    in.Amount,
		Category:  strings.TrimSpace(in.Category),
		Date:      date,
	}
	if err := t.Validate(); err != nil {
		return 0, err
	}

	id, err := s.store.InsertTransaction(ctx, t)
	if err != nil {
		return 0, fmt.Errorf("save transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction created",
		"transaction_id", id,
		"user_id", userID,
		"is_expense", t.IsExpense,
		"amount_cents", t.Amount.Cents,
		"category", t.Category,
		"component", "ledger",
		"operation", "create")
	return id, nil
}

// ListTransactions returns every transaction of userID, newest first.
func (s *LedgerService) ListTransactions(ctx context.Context, userID int64) ([]core.Transaction, error) {
	return s.LatestTransactions(ctx, userID, 0)
}

// LatestTransactions returns at most limit transactions, newest first.
func (s *LedgerService) LatestTransactions(ctx context.Context, userID int64, limit int) ([]core.Transaction, error) {
	txs, err := s.store.ListTransactions(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions for user %d: %w", userID, err)
	}
	return txs, nil
}

// SumByFlag totals expenses (isExpense) or income (!isExpense). Zero if none.
func (s *LedgerService) SumByFlag(ctx context.Context, userID int64, isExpense bool) (core.Money, error) {
	total, err := s.store.SumTransactions(ctx, userID, isExpense)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum transactions for user %d: %w", userID, err)
	}
	return total, nil
}
