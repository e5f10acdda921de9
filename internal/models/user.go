package models

import (
	"strings"
	"time"
)

// User represents a registered user account.
type User struct {
	// ID is the backend-assigned identifier for the user.
	ID string

	// Email is the normalized email address (unique across the active backend).
	// Used for login and password reset.
	Email string

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string

	// CreatedAt is the UTC time the account was registered.
	CreatedAt time.Time
}

// NormalizeEmail trims surrounding whitespace and lowercases the address.
// Every lookup and insert goes through it so uniqueness is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
