package sqlite

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finanza/finanza-api/internal/models"
	"github.com/finanza/finanza-api/internal/storage"
)

// ListBudgets returns the user's budgets in insertion order.
func (s *SQLiteStore) ListBudgets(ctx context.Context, userID string) ([]models.Budget, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, category, limit_amount, created_at
		 FROM budgets WHERE user_id = ? ORDER BY seq`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}
	defer rows.Close()

	budgets := []models.Budget{}
	for rows.Next() {
		var (
			b         models.Budget
			limit     string
			createdAt int64
		)
		if err := rows.Scan(&b.ID, &b.UserID, &b.Category, &limit, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan budget: %w", err)
		}
		b.Limit, err = decimal.NewFromString(limit)
		if err != nil {
			return nil, fmt.Errorf("failed to parse limit of budget %s: %w", b.ID, err)
		}
		b.CreatedAt = fromUnix(createdAt)
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate budgets: %w", err)
	}

	return budgets, nil
}

// InsertBudget persists a new budget; the (user_id, category) constraint
// rejects a second budget for the same category.
func (s *SQLiteStore) InsertBudget(ctx context.Context, b *models.Budget) (string, error) {
	id := uuid.New().String()
	createdAt := b.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO budgets (id, user_id, category, limit_amount, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		id, b.UserID, b.Category, b.Limit.String(), toUnix(createdAt),
	)
	if isUniqueViolation(err) {
		return "", storage.ErrDuplicateCategory
	}
	if err != nil {
		return "", fmt.Errorf("failed to insert budget: %w", err)
	}

	b.ID = id
	b.CreatedAt = createdAt
	return id, nil
}

// UpdateBudgetLimit changes the limit of the user's budget for category.
func (s *SQLiteStore) UpdateBudgetLimit(ctx context.Context, userID, category string, limit decimal.Decimal) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE budgets SET limit_amount = ? WHERE user_id = ? AND category = ?",
		limit.String(), userID, category,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update budget: %w", err)
	}
	return affected(res)
}

// DeleteBudget removes the user's budget for category.
func (s *SQLiteStore) DeleteBudget(ctx context.Context, userID, category string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM budgets WHERE user_id = ? AND category = ?",
		userID, category,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete budget: %w", err)
	}
	return affected(res)
}
