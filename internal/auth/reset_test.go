package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/finanza/finanza-api/internal/models"
	"github.com/finanza/finanza-api/internal/storage/memory"
)

type recordingDeliverer struct {
	mu    sync.Mutex
	codes map[string]string
	err   error
}

func (d *recordingDeliverer) Deliver(ctx context.Context, email, code string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.codes[email] = code
	return d.err
}

func (d *recordingDeliverer) delivered(email string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	code, ok := d.codes[email]
	return code, ok
}

func (d *recordingDeliverer) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.codes)
}

// recordingStore logs the user and reset code calls made through it.
type recordingStore struct {
	*memory.Store
	mu    sync.Mutex
	calls []string
}

func (s *recordingStore) record(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, name)
}

func (s *recordingStore) takeCalls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	calls := s.calls
	s.calls = nil
	return calls
}

func (s *recordingStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.record("FindUserByEmail")
	return s.Store.FindUserByEmail(ctx, email)
}

func (s *recordingStore) UpdateUserPassword(ctx context.Context, email, hash string) error {
	s.record("UpdateUserPassword")
	return s.Store.UpdateUserPassword(ctx, email, hash)
}

func (s *recordingStore) UpsertResetCode(ctx context.Context, email, code string, expiresAt time.Time) error {
	s.record("UpsertResetCode")
	return s.Store.UpsertResetCode(ctx, email, code, expiresAt)
}

func (s *recordingStore) ConsumeResetCode(ctx context.Context, email, code string) (*models.ResetCode, error) {
	s.record("ConsumeResetCode")
	return s.Store.ConsumeResetCode(ctx, email, code)
}

func (s *recordingStore) DeleteResetCode(ctx context.Context, email, code string) (bool, error) {
	s.record("DeleteResetCode")
	return s.Store.DeleteResetCode(ctx, email, code)
}

func (s *recordingStore) DeleteResetCodes(ctx context.Context, email string) error {
	s.record("DeleteResetCodes")
	return s.Store.DeleteResetCodes(ctx, email)
}

type resetFixture struct {
	flow      *ResetFlow
	auth      *PasswordAuthenticator
	clock     *fakeClock
	delivered *recordingDeliverer
}

func newResetFixture(t *testing.T, opts ...ResetOption) *resetFixture {
	t.Helper()

	store := memory.New()
	creds := NewCredentialStore(bcrypt.MinCost)
	clock := newFakeClock()
	delivered := &recordingDeliverer{codes: map[string]string{}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	opts = append([]ResetOption{WithResetClock(clock.Now), WithDeliverer(delivered)}, opts...)
	flow := NewResetFlow(store, store, creds, logger, opts...)

	a, err := NewPasswordAuthenticator(store, creds)
	if err != nil {
		t.Fatalf("NewPasswordAuthenticator failed: %v", err)
	}
	if _, err := a.Register(context.Background(), "alice@example.com", "old-password"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	return &resetFixture{flow: flow, auth: a, clock: clock, delivered: delivered}
}

func TestResetFlow_HappyPath(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()

	code, err := f.flow.RequestReset(ctx, " Alice@Example.com")
	if err != nil {
		t.Fatalf("RequestReset failed: %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("expected 6 digit code, got %q", code)
	}
	f.flow.Wait()
	if got, _ := f.delivered.delivered("alice@example.com"); got != code {
		t.Errorf("code was not delivered")
	}

	if err := f.flow.ConfirmReset(ctx, "alice@example.com", code, "new-password"); err != nil {
		t.Fatalf("ConfirmReset failed: %v", err)
	}

	if _, err := f.auth.Authenticate(ctx, "alice@example.com", "new-password"); err != nil {
		t.Errorf("new password should work: %v", err)
	}
	if _, err := f.auth.Authenticate(ctx, "alice@example.com", "old-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("old password should fail, got %v", err)
	}

	// the code is single use
	if err := f.flow.ConfirmReset(ctx, "alice@example.com", code, "another-password"); !errors.Is(err, ErrInvalidCode) {
		t.Errorf("reused code: expected ErrInvalidCode, got %v", err)
	}
}

func TestResetFlow_SecondRequestInvalidatesFirst(t *testing.T) {
	codes := []int{111111 - minCode, 222222 - minCode}
	f := newResetFixture(t, WithCodeSource(func(n int) int {
		c := codes[0]
		codes = codes[1:]
		return c
	}))
	ctx := context.Background()

	first, err := f.flow.RequestReset(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("RequestReset failed: %v", err)
	}
	second, err := f.flow.RequestReset(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("RequestReset failed: %v", err)
	}
	if first != "111111" || second != "222222" {
		t.Fatalf("unexpected codes %q, %q", first, second)
	}

	if err := f.flow.ConfirmReset(ctx, "alice@example.com", first, "new-password"); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("first code: expected ErrInvalidCode, got %v", err)
	}
	if err := f.flow.ConfirmReset(ctx, "alice@example.com", second, "new-password"); err != nil {
		t.Fatalf("second code should work: %v", err)
	}
}

func TestResetFlow_ExpiredCode(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()

	code, err := f.flow.RequestReset(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("RequestReset failed: %v", err)
	}

	f.clock.Advance(DefaultResetCodeTTL + time.Second)

	if err := f.flow.ConfirmReset(ctx, "alice@example.com", code, "new-password"); !errors.Is(err, ErrCodeExpired) {
		t.Fatalf("expected ErrCodeExpired, got %v", err)
	}

	// password is unchanged
	if _, err := f.auth.Authenticate(ctx, "alice@example.com", "old-password"); err != nil {
		t.Errorf("old password should still work: %v", err)
	}
}

func TestResetFlow_UnknownEmail(t *testing.T) {
	f := newResetFixture(t)

	code, err := f.flow.RequestReset(context.Background(), "nobody@example.com")
	if err != nil {
		t.Fatalf("RequestReset should not fail for unknown email: %v", err)
	}
	if code != "" {
		t.Errorf("expected no code for unknown email, got %q", code)
	}
	f.flow.Wait()
	if n := f.delivered.count(); n != 0 {
		t.Errorf("nothing should be delivered, got %d deliveries", n)
	}
}

func TestResetFlow_UnknownEmailDoesSameStorageWork(t *testing.T) {
	store := &recordingStore{Store: memory.New()}
	creds := NewCredentialStore(bcrypt.MinCost)
	delivered := &recordingDeliverer{codes: map[string]string{}}
	flow := NewResetFlow(store, store, creds, slog.New(slog.NewTextHandler(io.Discard, nil)), WithDeliverer(delivered))
	ctx := context.Background()

	a, err := NewPasswordAuthenticator(store, creds)
	if err != nil {
		t.Fatalf("NewPasswordAuthenticator failed: %v", err)
	}
	if _, err := a.Register(ctx, "alice@example.com", "old-password"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	store.takeCalls()

	if _, err := flow.RequestReset(ctx, "alice@example.com"); err != nil {
		t.Fatalf("RequestReset failed: %v", err)
	}
	known := store.takeCalls()

	if _, err := flow.RequestReset(ctx, "nobody@example.com"); err != nil {
		t.Fatalf("RequestReset failed: %v", err)
	}
	unknown := store.takeCalls()
	flow.Wait()

	if !slices.Equal(known, unknown) {
		t.Errorf("storage calls differ: known %v, unknown %v", known, unknown)
	}
	if want := []string{"FindUserByEmail", "UpsertResetCode"}; !slices.Equal(known, want) {
		t.Errorf("calls: got %v, want %v", known, want)
	}
}

func TestResetFlow_CodeForUnknownEmailCannotBeRedeemed(t *testing.T) {
	f := newResetFixture(t, WithCodeSource(func(n int) int { return 345678 - minCode }))
	ctx := context.Background()

	if _, err := f.flow.RequestReset(ctx, "nobody@example.com"); err != nil {
		t.Fatalf("RequestReset failed: %v", err)
	}
	if err := f.flow.ConfirmReset(ctx, "nobody@example.com", "345678", "new-password"); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode, got %v", err)
	}
}

func TestResetFlow_ConcurrentConfirmRedeemsOnce(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()

	code, err := f.flow.RequestReset(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("RequestReset failed: %v", err)
	}

	const workers = 8
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = f.flow.ConfirmReset(ctx, "alice@example.com", code, "new-password-"+strconv.Itoa(i))
		}(i)
	}
	wg.Wait()

	winner := -1
	for i, err := range errs {
		switch {
		case err == nil:
			if winner != -1 {
				t.Fatalf("code redeemed by both %d and %d", winner, i)
			}
			winner = i
		case !errors.Is(err, ErrInvalidCode):
			t.Errorf("worker %d: expected ErrInvalidCode, got %v", i, err)
		}
	}
	if winner == -1 {
		t.Fatal("no worker redeemed the code")
	}

	if _, err := f.auth.Authenticate(ctx, "alice@example.com", "new-password-"+strconv.Itoa(winner)); err != nil {
		t.Errorf("winning password should work: %v", err)
	}
}

func TestResetFlow_DeliveryFailureIsNotDisclosed(t *testing.T) {
	f := newResetFixture(t)
	f.delivered.err = errors.New("smtp down")

	code, err := f.flow.RequestReset(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("delivery failure must not surface: %v", err)
	}
	if code == "" {
		t.Error("expected a code to be issued")
	}
	f.flow.Wait()
}

func TestResetFlow_WrongCodeAndWeakPassword(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()

	code, err := f.flow.RequestReset(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("RequestReset failed: %v", err)
	}

	wrong := "000000"
	if code == wrong {
		wrong = "000001"
	}
	if err := f.flow.ConfirmReset(ctx, "alice@example.com", wrong, "new-password"); !errors.Is(err, ErrInvalidCode) {
		t.Errorf("wrong code: expected ErrInvalidCode, got %v", err)
	}
	if err := f.flow.ConfirmReset(ctx, "alice@example.com", code, "short"); !errors.Is(err, ErrWeakPassword) {
		t.Errorf("weak password: expected ErrWeakPassword, got %v", err)
	}
	// neither failure consumed the code
	if err := f.flow.ConfirmReset(ctx, "alice@example.com", code, "new-password"); err != nil {
		t.Errorf("valid confirm after failures: %v", err)
	}
}

func TestGenerateCodeRange(t *testing.T) {
	tests := []struct {
		draw int
		want string
	}{
		{0, "100000"},
		{899999, "999999"},
		{23456, "123456"},
	}

	for _, tt := range tests {
		f := &ResetFlow{intN: func(n int) int {
			if n != 900000 {
				t.Fatalf("intN bound: got %d, want 900000", n)
			}
			return tt.draw
		}}
		if got := f.generateCode(); got != tt.want {
			t.Errorf("draw %d: got %s, want %s", tt.draw, got, tt.want)
		}
	}

	f := NewResetFlow(nil, nil, nil, nil)
	for i := 0; i < 1000; i++ {
		n, err := strconv.Atoi(f.generateCode())
		if err != nil || n < minCode || n > maxCode {
			t.Fatalf("code out of range: %d (%v)", n, err)
		}
	}
}
