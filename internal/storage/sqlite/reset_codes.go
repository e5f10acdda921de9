package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/finanza/finanza-api/internal/models"
)

// UpsertResetCode stores the code for email. The email primary key means the
// conflict clause replaces the previous code in the same statement.
func (s *SQLiteStore) UpsertResetCode(ctx context.Context, email, code string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reset_codes (email, code, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(email) DO UPDATE SET code = excluded.code, expires_at = excluded.expires_at`,
		email, code, toUnix(expiresAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert reset code: %w", err)
	}
	return nil
}

// ConsumeResetCode returns the code record for (email, code) without deleting it.
func (s *SQLiteStore) ConsumeResetCode(ctx context.Context, email, code string) (*models.ResetCode, error) {
	rc := &models.ResetCode{}
	var expiresAt int64
	err := s.db.QueryRowContext(ctx,
		"SELECT email, code, expires_at FROM reset_codes WHERE email = ? AND code = ?",
		email, code,
	).Scan(&rc.Email, &rc.Code, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reset code: %w", err)
	}

	rc.ExpiresAt = fromUnix(expiresAt)
	return rc, nil
}

// DeleteResetCode removes the row matching email and code. SQLite serializes
// writers, so only one concurrent caller sees a deleted row.
func (s *SQLiteStore) DeleteResetCode(ctx context.Context, email, code string) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM reset_codes WHERE email = ? AND code = ?", email, code)
	if err != nil {
		return false, fmt.Errorf("failed to delete reset code: %w", err)
	}
	return affected(res)
}

// DeleteResetCodes removes every code for email.
func (s *SQLiteStore) DeleteResetCodes(ctx context.Context, email string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM reset_codes WHERE email = ?", email); err != nil {
		return fmt.Errorf("failed to delete reset codes: %w", err)
	}
	return nil
}
