package memory

import (
	"context"
	"testing"

	"github.com/finanza/finanza-api/internal/models"
	"github.com/finanza/finanza-api/internal/storage"
	"github.com/finanza/finanza-api/internal/storage/storagetest"
)

func TestStore(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store {
		return New()
	})
}

func TestIDsAreSequentialPerCollection(t *testing.T) {
	s := New()
	ctx := context.Background()

	userID, err := s.InsertUser(ctx, "a@example.com", "h")
	if err != nil {
		t.Fatalf("InsertUser failed: %v", err)
	}
	if userID != "1" {
		t.Errorf("first user ID: got %q, want %q", userID, "1")
	}

	for _, want := range []string{"1", "2", "3"} {
		got, err := s.InsertTransaction(ctx, &models.Transaction{UserID: userID, Kind: models.KindIncome})
		if err != nil {
			t.Fatalf("InsertTransaction failed: %v", err)
		}
		if got != want {
			t.Errorf("transaction ID: got %q, want %q", got, want)
		}
	}

	// deleting does not free an ID for reuse
	if _, err := s.DeleteTransaction(ctx, userID, "3"); err != nil {
		t.Fatalf("DeleteTransaction failed: %v", err)
	}
	got, _ := s.InsertTransaction(ctx, &models.Transaction{UserID: userID, Kind: models.KindIncome})
	if got != "4" {
		t.Errorf("ID after delete: got %q, want %q", got, "4")
	}
}

func TestListReturnsCopies(t *testing.T) {
	s := New()
	ctx := context.Background()

	if _, err := s.InsertTransaction(ctx, &models.Transaction{UserID: "u", Kind: models.KindIncome, Category: "salary"}); err != nil {
		t.Fatalf("InsertTransaction failed: %v", err)
	}

	txs, _ := s.ListTransactions(ctx, "u")
	txs[0].Category = "changed"

	txs, _ = s.ListTransactions(ctx, "u")
	if txs[0].Category != "salary" {
		t.Errorf("stored transaction was mutated through a listed copy: %q", txs[0].Category)
	}
}
