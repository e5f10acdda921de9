package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finanza/finanza-api/internal/models"
)

// ListTransactions returns the user's transactions in insertion order.
func (s *SQLiteStore) ListTransactions(ctx context.Context, userID string) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, kind, amount, category, created_at
		 FROM transactions WHERE user_id = ? ORDER BY seq`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	txs := []models.Transaction{}
	for rows.Next() {
		var (
			tx        models.Transaction
			kind      string
			amount    string
			createdAt int64
		)
		if err := rows.Scan(&tx.ID, &tx.UserID, &kind, &amount, &tx.Category, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		tx.Kind = models.Kind(kind)
		tx.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("failed to parse amount of transaction %s: %w", tx.ID, err)
		}
		tx.CreatedAt = fromUnix(createdAt)
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return txs, nil
}

// InsertTransaction persists a new transaction and assigns its ID.
func (s *SQLiteStore) InsertTransaction(ctx context.Context, tx *models.Transaction) (string, error) {
	id := uuid.New().String()
	createdAt := tx.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (id, user_id, kind, amount, category, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, tx.UserID, string(tx.Kind), tx.Amount.String(), tx.Category, toUnix(createdAt),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert transaction: %w", err)
	}

	tx.ID = id
	tx.CreatedAt = createdAt
	return id, nil
}

// UpdateTransaction applies the set fields of patch to the user's transaction.
func (s *SQLiteStore) UpdateTransaction(ctx context.Context, userID, txID string, patch models.TransactionPatch) (bool, error) {
	if patch.IsEmpty() {
		var one int
		err := s.db.QueryRowContext(ctx,
			"SELECT 1 FROM transactions WHERE id = ? AND user_id = ?",
			txID, userID,
		).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("failed to look up transaction: %w", err)
		}
		return true, nil
	}

	var (
		sets []string
		args []any
	)
	if patch.Kind != nil {
		sets = append(sets, "kind = ?")
		args = append(args, string(*patch.Kind))
	}
	if patch.Amount != nil {
		sets = append(sets, "amount = ?")
		args = append(args, patch.Amount.String())
	}
	if patch.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, *patch.Category)
	}
	args = append(args, txID, userID)

	res, err := s.db.ExecContext(ctx,
		"UPDATE transactions SET "+strings.Join(sets, ", ")+" WHERE id = ? AND user_id = ?",
		args...,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update transaction: %w", err)
	}
	return affected(res)
}

// DeleteTransaction removes the user's transaction.
func (s *SQLiteStore) DeleteTransaction(ctx context.Context, userID, txID string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM transactions WHERE id = ? AND user_id = ?",
		txID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete transaction: %w", err)
	}
	return affected(res)
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}
