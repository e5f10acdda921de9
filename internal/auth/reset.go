package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"github.com/finanza/finanza-api/internal/models"
	"github.com/finanza/finanza-api/internal/storage"
)

var (
	ErrInvalidCode = errors.New("invalid or expired code")
	ErrCodeExpired = errors.New("code expired")
)

// DefaultResetCodeTTL is how long a reset code stays usable.
const DefaultResetCodeTTL = 15 * time.Minute

// deliveryTimeout bounds one background delivery attempt.
const deliveryTimeout = 30 * time.Second

const (
	minCode = 100000
	maxCode = 999999
)

// CodeDeliverer sends a reset code to the account owner out of band.
type CodeDeliverer interface {
	Deliver(ctx context.Context, email, code string) error
}

// LogDeliverer writes reset codes to the log. It is a development stand-in
// for a real mail or SMS channel.
type LogDeliverer struct {
	Logger *slog.Logger
}

// Deliver logs the code.
func (d LogDeliverer) Deliver(ctx context.Context, email, code string) error {
	d.Logger.InfoContext(ctx, "Password reset code issued", "email", email, "code", code)
	return nil
}

// ResetFlow implements "forgot password": issuing short-lived numeric codes
// and exchanging a valid code for a new password.
type ResetFlow struct {
	users     storage.Users
	codes     storage.ResetCodes
	creds     *CredentialStore
	deliverer CodeDeliverer
	logger    *slog.Logger
	ttl       time.Duration
	now       func() time.Time
	intN      func(n int) int
	pending   sync.WaitGroup
}

// ResetOption configures a ResetFlow.
type ResetOption func(*ResetFlow)

// WithResetClock replaces the time source used for expiry.
func WithResetClock(now func() time.Time) ResetOption {
	return func(f *ResetFlow) { f.now = now }
}

// WithResetTTL overrides DefaultResetCodeTTL.
func WithResetTTL(ttl time.Duration) ResetOption {
	return func(f *ResetFlow) { f.ttl = ttl }
}

// WithCodeSource replaces the random source; intN must return a value in [0, n).
func WithCodeSource(intN func(n int) int) ResetOption {
	return func(f *ResetFlow) { f.intN = intN }
}

// WithDeliverer sets where generated codes are sent.
func WithDeliverer(d CodeDeliverer) ResetOption {
	return func(f *ResetFlow) { f.deliverer = d }
}

// NewResetFlow creates a reset flow over the given collections.
func NewResetFlow(users storage.Users, codes storage.ResetCodes, creds *CredentialStore, logger *slog.Logger, opts ...ResetOption) *ResetFlow {
	if logger == nil {
		logger = slog.Default()
	}
	f := &ResetFlow{
		users:     users,
		codes:     codes,
		creds:     creds,
		deliverer: LogDeliverer{Logger: logger},
		logger:    logger,
		ttl:       DefaultResetCodeTTL,
		now:       time.Now,
		intN:      rand.IntN,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// generateCode returns a code uniformly distributed over [100000, 999999].
// Codes are low value and short lived, so math/rand is sufficient.
func (f *ResetFlow) generateCode() string {
	return strconv.Itoa(minCode + f.intN(maxCode-minCode+1))
}

// RequestReset issues a new code for email, superseding any earlier one, and
// returns it. For an unknown email it returns "" and no error; callers must
// answer both cases identically so account existence is not revealed.
//
// Both branches look the user up and store a code, so they cost the same
// backend work. A code stored for an unknown email can never be redeemed.
// Delivery runs in the background; Wait blocks until it has finished.
func (f *ResetFlow) RequestReset(ctx context.Context, email string) (string, error) {
	email = models.NormalizeEmail(email)
	if email == "" {
		return "", ErrInvalidEmail
	}

	user, err := f.users.FindUserByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("failed to look up user: %w", err)
	}

	code := f.generateCode()
	expiresAt := f.now().UTC().Add(f.ttl)
	if err := f.codes.UpsertResetCode(ctx, email, code, expiresAt); err != nil {
		return "", fmt.Errorf("failed to store reset code: %w", err)
	}

	if user == nil {
		return "", nil
	}

	f.deliver(ctx, email, code)
	return code, nil
}

func (f *ResetFlow) deliver(ctx context.Context, email, code string) {
	ctx = context.WithoutCancel(ctx)
	f.pending.Add(1)
	go func() {
		defer f.pending.Done()

		ctx, cancel := context.WithTimeout(ctx, deliveryTimeout)
		defer cancel()

		if err := f.deliverer.Deliver(ctx, email, code); err != nil {
			// Failing the request would reveal that the account exists.
			f.logger.ErrorContext(ctx, "Failed to deliver reset code", "email", email, "error", err)
		}
	}()
}

// Wait blocks until every background delivery has returned.
func (f *ResetFlow) Wait() {
	f.pending.Wait()
}

// ConfirmReset sets a new password if code is the live code for email.
// The code is claimed before the password changes, so of several concurrent
// calls with the same code at most one succeeds. On success every
// outstanding code for email is deleted.
func (f *ResetFlow) ConfirmReset(ctx context.Context, email, code, newPassword string) error {
	email = models.NormalizeEmail(email)
	if email == "" {
		return ErrInvalidEmail
	}
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}

	rc, err := f.codes.ConsumeResetCode(ctx, email, code)
	if err != nil {
		return fmt.Errorf("failed to look up reset code: %w", err)
	}
	if rc == nil {
		return ErrInvalidCode
	}
	if rc.Expired(f.now().UTC()) {
		return ErrCodeExpired
	}

	claimed, err := f.codes.DeleteResetCode(ctx, email, code)
	if err != nil {
		return fmt.Errorf("failed to claim reset code: %w", err)
	}
	if !claimed {
		return ErrInvalidCode
	}

	hashed, err := f.creds.Hash(newPassword)
	if err != nil {
		return err
	}

	if err := f.users.UpdateUserPassword(ctx, email, hashed); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrInvalidCode
		}
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := f.codes.DeleteResetCodes(ctx, email); err != nil {
		return fmt.Errorf("failed to delete reset codes: %w", err)
	}

	return nil
}
