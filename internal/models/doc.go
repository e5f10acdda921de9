// Package models defines the core domain models for Finanza.
//
// # Models
//
//   - User: Registered account, identified by a normalized email
//   - Transaction: Income or expense recorded by one user
//   - Budget: Per-category spending limit, unique per (user, category)
//   - ResetCode: Short-lived password reset code, at most one live code per email
//
// # Design Principles
//
// 1. **Backend-local IDs**: IDs are opaque strings assigned by the storage backend
// that created the record; they are never compared across backends
// 2. **Exact money**: amounts and limits are decimal.Decimal, never float64
// 3. **UTC everywhere**: every timestamp is written in UTC and compared directly
// 4. **Ownership by ID string**: records reference their owner through UserID,
// not through pointers
package models
