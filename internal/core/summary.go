package core

import "github.com/shopspring/decimal"

// GoalProgress pairs a goal with its saved/target percentage.
type GoalProgress struct {
	Goal
	Progress float64
}

// Summary is the dashboard view of one user's records.
type Summary struct {
	TotalIncome        Money
	TotalExpense       Money
	CommittedSavings   Money
	Balance            Money
	LatestTransactions []Transaction
	Goals              []GoalProgress
}

// Progress returns saved/target as a percentage rounded to one decimal.
// A zero target yields 0. Values above 100 are kept.
func Progress(saved, target Money) float64 {
	if target.Cents == 0 {
		return 0
	}
	pct := decimal.NewFromInt(saved.Cents).
		Mul(hundred).
		DivRound(decimal.NewFromInt(target.Cents), 1)
	f, _ := pct.Float64()
	return f
}

// Balance is income minus expenses minus money committed to goals.
func Balance(income, expense, savings Money) Money {
	return income.Sub(expense).Sub(savings)
}
