package models

import "time"

// ResetCode is a six digit password reset code issued for an email.
// Issuing a new code for the same email replaces the old one.
type ResetCode struct {
	Email     string
	Code      string
	ExpiresAt time.Time
}

// Expired reports whether the code is no longer usable at now.
func (r ResetCode) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}
