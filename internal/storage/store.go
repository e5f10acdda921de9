// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finanza/finanza-api/internal/models"
)

var (
	// ErrDuplicateEmail is returned when a user with the same normalized email exists.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrDuplicateCategory is returned when the user already has a budget for the category.
	ErrDuplicateCategory = errors.New("budget for category already exists")
	// ErrNotFound is returned when a record is absent or not owned by the caller.
	// The two cases are deliberately indistinguishable.
	ErrNotFound = errors.New("not found")
)

// Users is the user collection.
type Users interface {
	// FindUserByEmail returns the user with the given normalized email,
	// or nil and no error if there is none.
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)

	// InsertUser creates a user and returns its ID.
	// Returns ErrDuplicateEmail if the email is taken.
	InsertUser(ctx context.Context, email, passwordHash string) (string, error)

	// UpdateUserPassword replaces the password hash of an existing user.
	// Returns ErrNotFound if no user has that email.
	UpdateUserPassword(ctx context.Context, email, passwordHash string) error
}

// Transactions is the transaction collection. Every operation is scoped by
// the owning user ID.
type Transactions interface {
	// ListTransactions returns the user's transactions in insertion order.
	ListTransactions(ctx context.Context, userID string) ([]models.Transaction, error)

	// InsertTransaction stores tx and returns the assigned ID.
	// tx.UserID must be set; tx.CreatedAt defaults to now (UTC).
	InsertTransaction(ctx context.Context, tx *models.Transaction) (string, error)

	// UpdateTransaction applies patch to the user's transaction.
	// Returns false if the transaction does not exist or belongs to someone else.
	UpdateTransaction(ctx context.Context, userID, txID string, patch models.TransactionPatch) (bool, error)

	// DeleteTransaction removes the user's transaction.
	// Returns false if the transaction does not exist or belongs to someone else.
	DeleteTransaction(ctx context.Context, userID, txID string) (bool, error)
}

// Budgets is the budget collection, keyed by (user ID, category).
type Budgets interface {
	// ListBudgets returns the user's budgets in insertion order.
	ListBudgets(ctx context.Context, userID string) ([]models.Budget, error)

	// InsertBudget stores b and returns the assigned ID.
	// Returns ErrDuplicateCategory if the user already has a budget for b.Category.
	InsertBudget(ctx context.Context, b *models.Budget) (string, error)

	// UpdateBudgetLimit changes the limit of the user's budget for category.
	UpdateBudgetLimit(ctx context.Context, userID, category string, limit decimal.Decimal) (bool, error)

	// DeleteBudget removes the user's budget for category.
	DeleteBudget(ctx context.Context, userID, category string) (bool, error)
}

// ResetCodes is the password reset code collection, keyed by email.
type ResetCodes interface {
	// UpsertResetCode stores code for email, replacing any previous code.
	// Once it returns, no earlier code for the email can be found.
	UpsertResetCode(ctx context.Context, email, code string, expiresAt time.Time) error

	// ConsumeResetCode returns the record matching email and code, or nil.
	// The record is returned whether or not it has expired and is not deleted;
	// callers check expiry and then claim it with DeleteResetCode.
	ConsumeResetCode(ctx context.Context, email, code string) (*models.ResetCode, error)

	// DeleteResetCode removes the record matching email and code and reports
	// whether it existed. Of concurrent calls for the same record exactly one
	// returns true, which makes a code single use.
	DeleteResetCode(ctx context.Context, email, code string) (bool, error)

	// DeleteResetCodes removes every code for email.
	DeleteResetCodes(ctx context.Context, email string) error
}

// Store defines the interface for a complete storage backend.
// This abstraction allows swapping storage backends (MongoDB, SQLite, memory)
// without changing the service layer. Implementations must behave identically
// for every operation, including ownership scoping and duplicate detection.
type Store interface {
	Users
	Transactions
	Budgets
	ResetCodes

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
