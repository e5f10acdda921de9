// Package calculator derives figures from stored transactions and budgets.
package calculator

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/finanza/finanza-api/internal/models"
)

// Balance returns the sum of income amounts minus the sum of expense amounts.
// The arithmetic is exact; no rounding is applied.
func Balance(txs []models.Transaction) decimal.Decimal {
	balance := decimal.Zero
	for _, tx := range txs {
		switch tx.Kind {
		case models.KindIncome:
			balance = balance.Add(tx.Amount)
		case models.KindExpense:
			balance = balance.Sub(tx.Amount)
		}
	}
	return balance
}

// BudgetStatus is one budget with what has been spent against it.
type BudgetStatus struct {
	Budget    models.Budget
	Spent     decimal.Decimal
	Remaining decimal.Decimal // Negative when the limit is exceeded
	// Percentage is Spent/Limit*100 rounded to two places; 0 for a zero limit.
	Percentage decimal.Decimal
}

// BudgetSummary aggregates every budget of a user.
type BudgetSummary struct {
	Budgets        []BudgetStatus
	TotalBudget    decimal.Decimal
	TotalSpent     decimal.Decimal
	TotalRemaining decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// SummarizeBudgets compares each budget with the expenses in its category
// recorded at or after since.
func SummarizeBudgets(budgets []models.Budget, txs []models.Transaction, since time.Time) BudgetSummary {
	spentByCategory := make(map[string]decimal.Decimal)
	for _, tx := range txs {
		if tx.Kind != models.KindExpense || tx.CreatedAt.Before(since) {
			continue
		}
		spentByCategory[tx.Category] = spentByCategory[tx.Category].Add(tx.Amount)
	}

	summary := BudgetSummary{
		Budgets:     make([]BudgetStatus, 0, len(budgets)),
		TotalBudget: decimal.Zero,
		TotalSpent:  decimal.Zero,
	}
	for _, b := range budgets {
		spent := spentByCategory[b.Category]
		status := BudgetStatus{
			Budget:     b,
			Spent:      spent,
			Remaining:  b.Limit.Sub(spent),
			Percentage: decimal.Zero,
		}
		if b.Limit.IsPositive() {
			status.Percentage = spent.Div(b.Limit).Mul(hundred).Round(2)
		}

		summary.Budgets = append(summary.Budgets, status)
		summary.TotalBudget = summary.TotalBudget.Add(b.Limit)
		summary.TotalSpent = summary.TotalSpent.Add(spent)
	}
	summary.TotalRemaining = summary.TotalBudget.Sub(summary.TotalSpent)

	return summary
}

// StartOfMonth returns midnight UTC on the first day of t's month.
func StartOfMonth(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
