// Package storagetest holds the behavioural suite every storage.Store
// implementation must pass. Backends call Run from their own tests.
package storagetest

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finanza/finanza-api/internal/models"
	"github.com/finanza/finanza-api/internal/storage"
)

// Factory returns a fresh, empty store. The suite closes it.
type Factory func(t *testing.T) storage.Store

// Run executes the full suite against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("Users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("Transactions", func(t *testing.T) { testTransactions(t, newStore(t)) })
	t.Run("TransactionIsolation", func(t *testing.T) { testTransactionIsolation(t, newStore(t)) })
	t.Run("Budgets", func(t *testing.T) { testBudgets(t, newStore(t)) })
	t.Run("ResetCodes", func(t *testing.T) { testResetCodes(t, newStore(t)) })
	t.Run("ResetCodeClaim", func(t *testing.T) { testResetCodeClaim(t, newStore(t)) })
	t.Run("ConcurrentInserts", func(t *testing.T) { testConcurrentInserts(t, newStore(t)) })
}

func closeStore(t *testing.T, s storage.Store) {
	t.Helper()
	t.Cleanup(func() { _ = s.Close() })
}

func testUsers(t *testing.T, s storage.Store) {
	closeStore(t, s)
	ctx := context.Background()

	require.NoError(t, s.Ping(ctx))

	missing, err := s.FindUserByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)

	id, err := s.InsertUser(ctx, "alice@example.com", "hash-1")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	_, err = s.InsertUser(ctx, "alice@example.com", "hash-2")
	require.ErrorIs(t, err, storage.ErrDuplicateEmail)

	u, err := s.FindUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, "hash-1", u.PasswordHash)
	assert.False(t, u.CreatedAt.IsZero())

	require.NoError(t, s.UpdateUserPassword(ctx, "alice@example.com", "hash-3"))
	u, err = s.FindUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "hash-3", u.PasswordHash)

	err = s.UpdateUserPassword(ctx, "nobody@example.com", "hash")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func insertTx(t *testing.T, s storage.Store, userID string, kind models.Kind, amount, category string) string {
	t.Helper()
	id, err := s.InsertTransaction(context.Background(), &models.Transaction{
		UserID:   userID,
		Kind:     kind,
		Amount:   decimal.RequireFromString(amount),
		Category: category,
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)
	return id
}

func testTransactions(t *testing.T, s storage.Store) {
	closeStore(t, s)
	ctx := context.Background()

	empty, err := s.ListTransactions(ctx, "user-a")
	require.NoError(t, err)
	assert.Empty(t, empty)

	first := insertTx(t, s, "user-a", models.KindIncome, "500", "salary")
	second := insertTx(t, s, "user-a", models.KindExpense, "12.345", "")
	third := insertTx(t, s, "user-a", models.KindExpense, "30", "food")

	txs, err := s.ListTransactions(ctx, "user-a")
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.Equal(t, []string{first, second, third}, []string{txs[0].ID, txs[1].ID, txs[2].ID})
	assert.True(t, txs[1].Amount.Equal(decimal.RequireFromString("12.345")), "amount must not be rounded")
	assert.Equal(t, "user-a", txs[0].UserID)
	assert.Equal(t, models.KindIncome, txs[0].Kind)
	assert.Equal(t, time.UTC, txs[0].CreatedAt.Location())

	t.Run("partial update keeps other fields", func(t *testing.T) {
		amount := decimal.RequireFromString("45.50")
		found, err := s.UpdateTransaction(ctx, "user-a", third, models.TransactionPatch{Amount: &amount})
		require.NoError(t, err)
		require.True(t, found)

		txs, err := s.ListTransactions(ctx, "user-a")
		require.NoError(t, err)
		assert.True(t, txs[2].Amount.Equal(amount))
		assert.Equal(t, "food", txs[2].Category)
		assert.Equal(t, models.KindExpense, txs[2].Kind)
	})

	t.Run("empty patch reports existence", func(t *testing.T) {
		found, err := s.UpdateTransaction(ctx, "user-a", first, models.TransactionPatch{})
		require.NoError(t, err)
		assert.True(t, found)
	})

	t.Run("other user cannot update or delete", func(t *testing.T) {
		category := "stolen"
		found, err := s.UpdateTransaction(ctx, "user-b", first, models.TransactionPatch{Category: &category})
		require.NoError(t, err)
		assert.False(t, found)

		found, err = s.DeleteTransaction(ctx, "user-b", first)
		require.NoError(t, err)
		assert.False(t, found)

		txs, err := s.ListTransactions(ctx, "user-a")
		require.NoError(t, err)
		require.Len(t, txs, 3)
		assert.Equal(t, "salary", txs[0].Category)
	})

	t.Run("unknown IDs are not found", func(t *testing.T) {
		found, err := s.DeleteTransaction(ctx, "user-a", "does-not-exist")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("delete", func(t *testing.T) {
		found, err := s.DeleteTransaction(ctx, "user-a", second)
		require.NoError(t, err)
		assert.True(t, found)

		found, err = s.DeleteTransaction(ctx, "user-a", second)
		require.NoError(t, err)
		assert.False(t, found)

		txs, err := s.ListTransactions(ctx, "user-a")
		require.NoError(t, err)
		assert.Equal(t, []string{first, third}, []string{txs[0].ID, txs[1].ID})
	})
}

// testTransactionIsolation runs a random sequence of writes as user A and
// checks user B's view never changes.
func testTransactionIsolation(t *testing.T, s storage.Store) {
	closeStore(t, s)
	ctx := context.Background()

	var bIDs []string
	for i := 0; i < 5; i++ {
		bIDs = append(bIDs, insertTx(t, s, "user-b", models.KindExpense, fmt.Sprintf("%d.25", i+1), "rent"))
	}
	before, err := s.ListTransactions(ctx, "user-b")
	require.NoError(t, err)

	rng := rand.New(rand.NewPCG(42, 7))
	var aIDs []string
	for step := 0; step < 200; step++ {
		switch op := rng.IntN(4); {
		case op == 0 || len(aIDs) == 0:
			aIDs = append(aIDs, insertTx(t, s, "user-a", models.KindIncome, fmt.Sprintf("%d", rng.IntN(1000)), "misc"))
		case op == 1:
			i := rng.IntN(len(aIDs))
			_, err := s.DeleteTransaction(ctx, "user-a", aIDs[i])
			require.NoError(t, err)
			aIDs = append(aIDs[:i], aIDs[i+1:]...)
		case op == 2:
			amount := decimal.NewFromInt(int64(rng.IntN(1000)))
			_, err := s.UpdateTransaction(ctx, "user-a", aIDs[rng.IntN(len(aIDs))], models.TransactionPatch{Amount: &amount})
			require.NoError(t, err)
		default:
			// user A aiming at user B's records
			target := bIDs[rng.IntN(len(bIDs))]
			kind := models.KindIncome
			found, err := s.UpdateTransaction(ctx, "user-a", target, models.TransactionPatch{Kind: &kind})
			require.NoError(t, err)
			assert.False(t, found)
			found, err = s.DeleteTransaction(ctx, "user-a", target)
			require.NoError(t, err)
			assert.False(t, found)
		}
	}

	after, err := s.ListTransactions(ctx, "user-b")
	require.NoError(t, err)
	require.Len(t, after, len(before))
	for i := range before {
		assert.Equal(t, before[i].ID, after[i].ID)
		assert.Equal(t, before[i].Kind, after[i].Kind)
		assert.True(t, before[i].Amount.Equal(after[i].Amount))
		assert.Equal(t, before[i].Category, after[i].Category)
	}

	aTxs, err := s.ListTransactions(ctx, "user-a")
	require.NoError(t, err)
	assert.Len(t, aTxs, len(aIDs))
}

func testBudgets(t *testing.T, s storage.Store) {
	closeStore(t, s)
	ctx := context.Background()

	food := &models.Budget{UserID: "user-a", Category: "food", Limit: decimal.RequireFromString("1500")}
	id, err := s.InsertBudget(ctx, food)
	require.NoError(t, err)
	require.NotEmpty(t, id)
	assert.Equal(t, id, food.ID)

	_, err = s.InsertBudget(ctx, &models.Budget{UserID: "user-a", Category: "food", Limit: decimal.NewFromInt(1)})
	require.ErrorIs(t, err, storage.ErrDuplicateCategory)

	_, err = s.InsertBudget(ctx, &models.Budget{UserID: "user-b", Category: "food", Limit: decimal.NewFromInt(200)})
	require.NoError(t, err, "same category for a different user must succeed")

	_, err = s.InsertBudget(ctx, &models.Budget{UserID: "user-a", Category: "health", Limit: decimal.RequireFromString("500.10")})
	require.NoError(t, err)

	budgets, err := s.ListBudgets(ctx, "user-a")
	require.NoError(t, err)
	require.Len(t, budgets, 2)
	assert.Equal(t, "food", budgets[0].Category)
	assert.Equal(t, "health", budgets[1].Category)
	assert.True(t, budgets[1].Limit.Equal(decimal.RequireFromString("500.10")))

	found, err := s.UpdateBudgetLimit(ctx, "user-a", "food", decimal.NewFromInt(1200))
	require.NoError(t, err)
	assert.True(t, found)

	found, err = s.UpdateBudgetLimit(ctx, "user-a", "travel", decimal.NewFromInt(1))
	require.NoError(t, err)
	assert.False(t, found)

	bBudgets, err := s.ListBudgets(ctx, "user-b")
	require.NoError(t, err)
	require.Len(t, bBudgets, 1)
	assert.True(t, bBudgets[0].Limit.Equal(decimal.NewFromInt(200)), "user B's budget must not change")

	found, err = s.DeleteBudget(ctx, "user-a", "food")
	require.NoError(t, err)
	assert.True(t, found)

	found, err = s.DeleteBudget(ctx, "user-a", "food")
	require.NoError(t, err)
	assert.False(t, found)

	bBudgets, err = s.ListBudgets(ctx, "user-b")
	require.NoError(t, err)
	assert.Len(t, bBudgets, 1)

	// the category is free again
	_, err = s.InsertBudget(ctx, &models.Budget{UserID: "user-a", Category: "food", Limit: decimal.NewFromInt(10)})
	require.NoError(t, err)
}

func testResetCodes(t *testing.T, s storage.Store) {
	closeStore(t, s)
	ctx := context.Background()
	expiry := time.Now().UTC().Add(15 * time.Minute)

	rc, err := s.ConsumeResetCode(ctx, "alice@example.com", "123456")
	require.NoError(t, err)
	assert.Nil(t, rc)

	require.NoError(t, s.UpsertResetCode(ctx, "alice@example.com", "123456", expiry))
	rc, err = s.ConsumeResetCode(ctx, "alice@example.com", "123456")
	require.NoError(t, err)
	require.NotNil(t, rc)
	assert.Equal(t, "123456", rc.Code)
	assert.WithinDuration(t, expiry, rc.ExpiresAt, time.Millisecond)

	// consuming does not delete
	rc, err = s.ConsumeResetCode(ctx, "alice@example.com", "123456")
	require.NoError(t, err)
	require.NotNil(t, rc)

	require.NoError(t, s.UpsertResetCode(ctx, "alice@example.com", "654321", expiry))
	rc, err = s.ConsumeResetCode(ctx, "alice@example.com", "123456")
	require.NoError(t, err)
	assert.Nil(t, rc, "superseded code must not be found")

	rc, err = s.ConsumeResetCode(ctx, "alice@example.com", "654321")
	require.NoError(t, err)
	require.NotNil(t, rc)

	// expired codes are still returned; expiry is the caller's decision
	require.NoError(t, s.UpsertResetCode(ctx, "bob@example.com", "111111", time.Now().UTC().Add(-time.Minute)))
	rc, err = s.ConsumeResetCode(ctx, "bob@example.com", "111111")
	require.NoError(t, err)
	require.NotNil(t, rc)
	assert.True(t, rc.Expired(time.Now().UTC()))

	require.NoError(t, s.DeleteResetCodes(ctx, "alice@example.com"))
	rc, err = s.ConsumeResetCode(ctx, "alice@example.com", "654321")
	require.NoError(t, err)
	assert.Nil(t, rc)

	rc, err = s.ConsumeResetCode(ctx, "bob@example.com", "111111")
	require.NoError(t, err)
	assert.NotNil(t, rc, "deleting one email's codes must leave others")
}

func testResetCodeClaim(t *testing.T, s storage.Store) {
	closeStore(t, s)
	ctx := context.Background()
	expiry := time.Now().UTC().Add(15 * time.Minute)

	claimed, err := s.DeleteResetCode(ctx, "alice@example.com", "123456")
	require.NoError(t, err)
	assert.False(t, claimed, "nothing stored yet")

	require.NoError(t, s.UpsertResetCode(ctx, "alice@example.com", "123456", expiry))
	require.NoError(t, s.UpsertResetCode(ctx, "bob@example.com", "123456", expiry))

	claimed, err = s.DeleteResetCode(ctx, "alice@example.com", "000000")
	require.NoError(t, err)
	assert.False(t, claimed, "wrong code")

	const workers = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.DeleteResetCode(ctx, "alice@example.com", "123456")
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins, "exactly one concurrent claim may succeed")

	rc, err := s.ConsumeResetCode(ctx, "alice@example.com", "123456")
	require.NoError(t, err)
	assert.Nil(t, rc)

	rc, err = s.ConsumeResetCode(ctx, "bob@example.com", "123456")
	require.NoError(t, err)
	assert.NotNil(t, rc, "claiming one email's code must leave others")
}

func testConcurrentInserts(t *testing.T, s storage.Store) {
	closeStore(t, s)
	ctx := context.Background()

	const workers = 8
	const perWorker = 10

	var wg sync.WaitGroup
	ids := make(chan string, workers*perWorker)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				id, err := s.InsertTransaction(ctx, &models.Transaction{
					UserID: "user-a",
					Kind:   models.KindIncome,
					Amount: decimal.NewFromInt(1),
				})
				assert.NoError(t, err)
				ids <- id
				_, err = s.ListTransactions(ctx, "user-a")
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[string]bool{}
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}

	txs, err := s.ListTransactions(ctx, "user-a")
	require.NoError(t, err)
	assert.Len(t, txs, workers*perWorker)
}
