package calculator

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finanza/finanza-api/internal/models"
)

func tx(kind models.Kind, amount, category string, at time.Time) models.Transaction {
	return models.Transaction{
		Kind:      kind,
		Amount:    decimal.RequireFromString(amount),
		Category:  category,
		CreatedAt: at,
	}
}

func TestBalance(t *testing.T) {
	now := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		txs  []models.Transaction
		want string
	}{
		{
			name: "no transactions",
			txs:  nil,
			want: "0",
		},
		{
			name: "income and expense",
			txs: []models.Transaction{
				tx(models.KindIncome, "100", "", now),
				tx(models.KindExpense, "30", "", now),
			},
			want: "70",
		},
		{
			name: "no float drift",
			txs: []models.Transaction{
				tx(models.KindIncome, "0.1", "", now),
				tx(models.KindIncome, "0.2", "", now),
			},
			want: "0.3",
		},
		{
			name: "negative balance",
			txs: []models.Transaction{
				tx(models.KindIncome, "10.005", "", now),
				tx(models.KindExpense, "20", "", now),
			},
			want: "-9.995",
		},
		{
			name: "unknown kinds are ignored",
			txs: []models.Transaction{
				tx(models.KindIncome, "5", "", now),
				tx(models.Kind("transfer"), "100", "", now),
			},
			want: "5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Balance(tt.txs)
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("Balance = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSummarizeBudgets(t *testing.T) {
	now := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
	since := StartOfMonth(now)
	lastMonth := since.Add(-time.Hour)

	budgets := []models.Budget{
		{Category: "food", Limit: decimal.RequireFromString("1500")},
		{Category: "health", Limit: decimal.RequireFromString("500")},
		{Category: "gifts", Limit: decimal.Zero},
	}
	txs := []models.Transaction{
		tx(models.KindExpense, "300", "food", now),
		tx(models.KindExpense, "75.50", "food", now),
		tx(models.KindExpense, "999", "food", lastMonth),   // before the window
		tx(models.KindIncome, "5000", "food", now),         // income never counts
		tx(models.KindExpense, "600", "health", now),       // over budget
		tx(models.KindExpense, "20", "uncategorized", now), // no budget
		tx(models.KindExpense, "10", "gifts", now),
	}

	summary := SummarizeBudgets(budgets, txs, since)

	if len(summary.Budgets) != 3 {
		t.Fatalf("expected 3 statuses, got %d", len(summary.Budgets))
	}

	checks := []struct {
		category   string
		spent      string
		remaining  string
		percentage string
	}{
		{"food", "375.50", "1124.50", "25.03"},
		{"health", "600", "-100", "120"},
		{"gifts", "10", "-10", "0"},
	}
	for i, c := range checks {
		s := summary.Budgets[i]
		if s.Budget.Category != c.category {
			t.Errorf("status %d: category %q, want %q", i, s.Budget.Category, c.category)
		}
		if !s.Spent.Equal(decimal.RequireFromString(c.spent)) {
			t.Errorf("%s spent = %s, want %s", c.category, s.Spent, c.spent)
		}
		if !s.Remaining.Equal(decimal.RequireFromString(c.remaining)) {
			t.Errorf("%s remaining = %s, want %s", c.category, s.Remaining, c.remaining)
		}
		if !s.Percentage.Equal(decimal.RequireFromString(c.percentage)) {
			t.Errorf("%s percentage = %s, want %s", c.category, s.Percentage, c.percentage)
		}
	}

	if !summary.TotalBudget.Equal(decimal.RequireFromString("2000")) {
		t.Errorf("TotalBudget = %s, want 2000", summary.TotalBudget)
	}
	if !summary.TotalSpent.Equal(decimal.RequireFromString("985.50")) {
		t.Errorf("TotalSpent = %s, want 985.50", summary.TotalSpent)
	}
	if !summary.TotalRemaining.Equal(decimal.RequireFromString("1014.50")) {
		t.Errorf("TotalRemaining = %s, want 1014.50", summary.TotalRemaining)
	}
}

func TestStartOfMonth(t *testing.T) {
	loc := time.FixedZone("UTC-3", -3*60*60)
	got := StartOfMonth(time.Date(2025, 3, 31, 23, 0, 0, 0, loc)) // April 1st 02:00 UTC
	want := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("StartOfMonth = %v, want %v", got, want)
	}
}
