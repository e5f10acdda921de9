package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/finanza/finanza-api/internal/models"
	"github.com/finanza/finanza-api/internal/storage"
)

// ErrInvalidEmail is returned for an email that is empty after normalization.
var ErrInvalidEmail = errors.New("email is required")

// Authenticator defines the interface for authentication implementations.
// This abstraction allows swapping between different auth methods (password, passkeys, OAuth, etc.)
// without changing the service layer code.
type Authenticator interface {
	// Register creates a new user account with the given email and credential.
	// Returns storage.ErrDuplicateEmail if the normalized email is taken.
	Register(ctx context.Context, email, credential string) (*models.User, error)

	// Authenticate verifies the user's credentials and returns the user if successful.
	// Returns ErrInvalidCredentials if authentication fails.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)
}

// Ensure PasswordAuthenticator implements Authenticator
var _ Authenticator = (*PasswordAuthenticator)(nil)

// PasswordAuthenticator implements password-based authentication using bcrypt.
type PasswordAuthenticator struct {
	users storage.Users
	creds *CredentialStore
	// dummyHash is compared against when the email is unknown so both
	// branches of Authenticate cost one bcrypt comparison.
	dummyHash string
}

// NewPasswordAuthenticator creates a new password-based authenticator.
func NewPasswordAuthenticator(users storage.Users, creds *CredentialStore) (*PasswordAuthenticator, error) {
	dummy, err := creds.Hash("finanza-dummy-password")
	if err != nil {
		return nil, err
	}
	return &PasswordAuthenticator{
		users:     users,
		creds:     creds,
		dummyHash: dummy,
	}, nil
}

// Register creates a new user account with a hashed password.
func (a *PasswordAuthenticator) Register(ctx context.Context, email, credential string) (*models.User, error) {
	email = models.NormalizeEmail(email)
	if email == "" {
		return nil, ErrInvalidEmail
	}

	// Validate password strength
	if err := ValidatePassword(credential); err != nil {
		return nil, err
	}

	hashed, err := a.creds.Hash(credential)
	if err != nil {
		return nil, err
	}

	// The backend enforces uniqueness; no separate existence check is needed.
	id, err := a.users.InsertUser(ctx, email, hashed)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &models.User{ID: id, Email: email, PasswordHash: hashed}, nil
}

// Authenticate verifies the email and password, returning the user if valid.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, email, credential string) (*models.User, error) {
	user, err := a.users.FindUserByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if user == nil {
		a.creds.Verify(a.dummyHash, credential)
		return nil, ErrInvalidCredentials
	}

	if !a.creds.Verify(user.PasswordHash, credential) {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}
