package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Budget is a spending limit for one category.
// A user has at most one budget per category.
type Budget struct {
	// ID is the backend-assigned identifier for the budget.
	ID string

	// UserID is the owner.
	UserID string

	// Category is the trimmed category name, compared exactly.
	Category string

	// Limit is the spending ceiling for the category.
	Limit decimal.Decimal

	// CreatedAt is the UTC time the budget was created.
	CreatedAt time.Time
}
