package auth

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{"too short", "short", ErrWeakPassword},
		{"minimum length", "12345678", nil},
		{"too long", strings.Repeat("a", 73), ErrPasswordTooLong},
		{"maximum length", strings.Repeat("a", 72), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidatePassword(tt.password); !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidatePassword(%q): got %v, want %v", tt.password, err, tt.wantErr)
			}
		})
	}
}

func TestHashAndVerify(t *testing.T) {
	creds := NewCredentialStore(bcrypt.MinCost)

	hash, err := creds.Hash("correct horse")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if hash == "correct horse" {
		t.Fatal("hash must not equal the password")
	}

	if !creds.Verify(hash, "correct horse") {
		t.Error("expected matching password to verify")
	}
	if creds.Verify(hash, "wrong horse") {
		t.Error("expected wrong password to fail")
	}
	if creds.Verify("not-a-hash", "correct horse") {
		t.Error("expected malformed hash to fail")
	}
}

func TestDefaultCost(t *testing.T) {
	creds := NewCredentialStore(0)
	if creds.cost != bcrypt.DefaultCost {
		t.Errorf("cost: got %d, want %d", creds.cost, bcrypt.DefaultCost)
	}
}
