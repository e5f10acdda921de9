// Package memory provides an in-process implementation of storage.Store.
//
// It is the fallback used when the durable backend cannot be reached at
// startup. Data lives for the lifetime of the process and IDs restart from 1
// on every run; nothing is persisted.
package memory

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finanza/finanza-api/internal/models"
	"github.com/finanza/finanza-api/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// collection is an ordered slice guarded by its own lock, with a
// per-collection ID sequence.
type collection[T any] struct {
	mu     sync.RWMutex
	items  []T
	lastID int64
}

func (c *collection[T]) nextID() string {
	c.lastID++
	return strconv.FormatInt(c.lastID, 10)
}

// Store implements storage.Store in memory.
type Store struct {
	users        collection[models.User]
	transactions collection[models.Transaction]
	budgets      collection[models.Budget]
	resetCodes   collection[models.ResetCode]
	now          func() time.Time
}

// New creates an empty Store with every collection initialized.
func New() *Store {
	return &Store{
		users:        collection[models.User]{items: []models.User{}},
		transactions: collection[models.Transaction]{items: []models.Transaction{}},
		budgets:      collection[models.Budget]{items: []models.Budget{}},
		resetCodes:   collection[models.ResetCode]{items: []models.ResetCode{}},
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

// FindUserByEmail returns a copy of the user with the given email.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.users.mu.RLock()
	defer s.users.mu.RUnlock()

	for _, u := range s.users.items {
		if u.Email == email {
			found := u
			return &found, nil
		}
	}
	return nil, nil
}

// InsertUser appends a new user unless the email is taken.
func (s *Store) InsertUser(ctx context.Context, email, passwordHash string) (string, error) {
	s.users.mu.Lock()
	defer s.users.mu.Unlock()

	for _, u := range s.users.items {
		if u.Email == email {
			return "", storage.ErrDuplicateEmail
		}
	}

	id := s.users.nextID()
	s.users.items = append(s.users.items, models.User{
		ID:           id,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    s.now(),
	})
	return id, nil
}

// UpdateUserPassword replaces the hash of an existing user.
func (s *Store) UpdateUserPassword(ctx context.Context, email, passwordHash string) error {
	s.users.mu.Lock()
	defer s.users.mu.Unlock()

	for i := range s.users.items {
		if s.users.items[i].Email == email {
			s.users.items[i].PasswordHash = passwordHash
			return nil
		}
	}
	return storage.ErrNotFound
}

// ListTransactions returns copies of the user's transactions in insertion order.
func (s *Store) ListTransactions(ctx context.Context, userID string) ([]models.Transaction, error) {
	s.transactions.mu.RLock()
	defer s.transactions.mu.RUnlock()

	result := []models.Transaction{}
	for _, tx := range s.transactions.items {
		if tx.UserID == userID {
			result = append(result, tx)
		}
	}
	return result, nil
}

// InsertTransaction appends tx and assigns its ID.
func (s *Store) InsertTransaction(ctx context.Context, tx *models.Transaction) (string, error) {
	s.transactions.mu.Lock()
	defer s.transactions.mu.Unlock()

	stored := *tx
	stored.ID = s.transactions.nextID()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = s.now()
	}
	s.transactions.items = append(s.transactions.items, stored)

	tx.ID = stored.ID
	tx.CreatedAt = stored.CreatedAt
	return stored.ID, nil
}

// UpdateTransaction applies patch if the transaction exists and is owned by userID.
func (s *Store) UpdateTransaction(ctx context.Context, userID, txID string, patch models.TransactionPatch) (bool, error) {
	s.transactions.mu.Lock()
	defer s.transactions.mu.Unlock()

	for i := range s.transactions.items {
		tx := &s.transactions.items[i]
		if tx.ID == txID && tx.UserID == userID {
			patch.Apply(tx)
			return true, nil
		}
	}
	return false, nil
}

// DeleteTransaction removes the transaction if it is owned by userID.
func (s *Store) DeleteTransaction(ctx context.Context, userID, txID string) (bool, error) {
	s.transactions.mu.Lock()
	defer s.transactions.mu.Unlock()

	for i, tx := range s.transactions.items {
		if tx.ID == txID && tx.UserID == userID {
			s.transactions.items = append(s.transactions.items[:i], s.transactions.items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// ListBudgets returns copies of the user's budgets in insertion order.
func (s *Store) ListBudgets(ctx context.Context, userID string) ([]models.Budget, error) {
	s.budgets.mu.RLock()
	defer s.budgets.mu.RUnlock()

	result := []models.Budget{}
	for _, b := range s.budgets.items {
		if b.UserID == userID {
			result = append(result, b)
		}
	}
	return result, nil
}

// InsertBudget appends b unless the user already budgets that category.
func (s *Store) InsertBudget(ctx context.Context, b *models.Budget) (string, error) {
	s.budgets.mu.Lock()
	defer s.budgets.mu.Unlock()

	for _, existing := range s.budgets.items {
		if existing.UserID == b.UserID && existing.Category == b.Category {
			return "", storage.ErrDuplicateCategory
		}
	}

	stored := *b
	stored.ID = s.budgets.nextID()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = s.now()
	}
	s.budgets.items = append(s.budgets.items, stored)

	b.ID = stored.ID
	b.CreatedAt = stored.CreatedAt
	return stored.ID, nil
}

// UpdateBudgetLimit sets the limit of the user's budget for category.
func (s *Store) UpdateBudgetLimit(ctx context.Context, userID, category string, limit decimal.Decimal) (bool, error) {
	s.budgets.mu.Lock()
	defer s.budgets.mu.Unlock()

	for i := range s.budgets.items {
		b := &s.budgets.items[i]
		if b.UserID == userID && b.Category == category {
			b.Limit = limit
			return true, nil
		}
	}
	return false, nil
}

// DeleteBudget removes the user's budget for category.
func (s *Store) DeleteBudget(ctx context.Context, userID, category string) (bool, error) {
	s.budgets.mu.Lock()
	defer s.budgets.mu.Unlock()

	for i, b := range s.budgets.items {
		if b.UserID == userID && b.Category == category {
			s.budgets.items = append(s.budgets.items[:i], s.budgets.items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// UpsertResetCode drops every code for email and appends the new one under a
// single lock, so no reader can observe both.
func (s *Store) UpsertResetCode(ctx context.Context, email, code string, expiresAt time.Time) error {
	s.resetCodes.mu.Lock()
	defer s.resetCodes.mu.Unlock()

	s.resetCodes.items = withoutEmail(s.resetCodes.items, email)
	s.resetCodes.items = append(s.resetCodes.items, models.ResetCode{
		Email:     email,
		Code:      code,
		ExpiresAt: expiresAt,
	})
	return nil
}

// ConsumeResetCode returns a copy of the matching code without deleting it.
func (s *Store) ConsumeResetCode(ctx context.Context, email, code string) (*models.ResetCode, error) {
	s.resetCodes.mu.RLock()
	defer s.resetCodes.mu.RUnlock()

	for _, rc := range s.resetCodes.items {
		if rc.Email == email && rc.Code == code {
			found := rc
			return &found, nil
		}
	}
	return nil, nil
}

// DeleteResetCode removes the matching code under the collection lock.
func (s *Store) DeleteResetCode(ctx context.Context, email, code string) (bool, error) {
	s.resetCodes.mu.Lock()
	defer s.resetCodes.mu.Unlock()

	for i, rc := range s.resetCodes.items {
		if rc.Email == email && rc.Code == code {
			s.resetCodes.items = append(s.resetCodes.items[:i], s.resetCodes.items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// DeleteResetCodes removes every code for email.
func (s *Store) DeleteResetCodes(ctx context.Context, email string) error {
	s.resetCodes.mu.Lock()
	defer s.resetCodes.mu.Unlock()

	s.resetCodes.items = withoutEmail(s.resetCodes.items, email)
	return nil
}

func withoutEmail(codes []models.ResetCode, email string) []models.ResetCode {
	kept := codes[:0]
	for _, rc := range codes {
		if rc.Email != email {
			kept = append(kept, rc)
		}
	}
	return kept
}
