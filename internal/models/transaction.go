package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind distinguishes money coming in from money going out.
type Kind string

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

// Transaction is a single income or expense entry owned by one user.
type Transaction struct {
	// ID is the backend-assigned identifier for the transaction.
	ID string

	// UserID is the owner. Every read and write is scoped by it.
	UserID string

	// Kind is income or expense.
	Kind Kind

	// Amount is the non-negative value of the entry.
	Amount decimal.Decimal

	// Category is free text and may be empty.
	Category string

	// CreatedAt is the UTC time the transaction was recorded.
	CreatedAt time.Time
}

// TransactionPatch carries the fields of a partial update.
// Nil fields are left unchanged.
type TransactionPatch struct {
	Kind     *Kind
	Amount   *decimal.Decimal
	Category *string
}

// IsEmpty reports whether the patch changes nothing.
func (p TransactionPatch) IsEmpty() bool {
	return p.Kind == nil && p.Amount == nil && p.Category == nil
}

// Apply copies the set fields of p onto tx.
func (p TransactionPatch) Apply(tx *Transaction) {
	if p.Kind != nil {
		tx.Kind = *p.Kind
	}
	if p.Amount != nil {
		tx.Amount = *p.Amount
	}
	if p.Category != nil {
		tx.Category = *p.Category
	}
}
