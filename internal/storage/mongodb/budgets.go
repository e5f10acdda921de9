package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/finanza/finanza-api/internal/models"
	"github.com/finanza/finanza-api/internal/storage"
)

type budgetDoc struct {
	ID        bson.ObjectID   `bson:"_id"`
	UserID    string          `bson:"user_id"`
	Category  string          `bson:"category"`
	Limit     bson.Decimal128 `bson:"limit"`
	CreatedAt time.Time       `bson:"created_at"`
}

// ListBudgets returns the user's budgets in insertion order.
func (s *MongoStore) ListBudgets(ctx context.Context, userID string) ([]models.Budget, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.budgets.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}

	var docs []budgetDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode budgets: %w", err)
	}

	budgets := make([]models.Budget, 0, len(docs))
	for _, doc := range docs {
		limit, err := fromDecimal128(doc.Limit)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, models.Budget{
			ID:        doc.ID.Hex(),
			UserID:    doc.UserID,
			Category:  doc.Category,
			Limit:     limit,
			CreatedAt: doc.CreatedAt.UTC(),
		})
	}
	return budgets, nil
}

// InsertBudget persists a new budget; the (user_id, category) unique index
// rejects a second budget for the same category.
func (s *MongoStore) InsertBudget(ctx context.Context, b *models.Budget) (string, error) {
	limit, err := toDecimal128(b.Limit)
	if err != nil {
		return "", err
	}

	doc := budgetDoc{
		ID:        bson.NewObjectID(),
		UserID:    b.UserID,
		Category:  b.Category,
		Limit:     limit,
		CreatedAt: b.CreatedAt,
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = s.now()
	}

	_, err = s.budgets.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return "", storage.ErrDuplicateCategory
	}
	if err != nil {
		return "", fmt.Errorf("failed to insert budget: %w", err)
	}

	b.ID = doc.ID.Hex()
	b.CreatedAt = doc.CreatedAt
	return b.ID, nil
}

// UpdateBudgetLimit changes the limit of the user's budget for category.
func (s *MongoStore) UpdateBudgetLimit(ctx context.Context, userID, category string, limit decimal.Decimal) (bool, error) {
	value, err := toDecimal128(limit)
	if err != nil {
		return false, err
	}

	res, err := s.budgets.UpdateOne(ctx,
		bson.M{"user_id": userID, "category": category},
		bson.M{"$set": bson.M{"limit": value}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to update budget: %w", err)
	}
	return res.MatchedCount > 0, nil
}

// DeleteBudget removes the user's budget for category.
func (s *MongoStore) DeleteBudget(ctx context.Context, userID, category string) (bool, error) {
	res, err := s.budgets.DeleteOne(ctx, bson.M{"user_id": userID, "category": category})
	if err != nil {
		return false, fmt.Errorf("failed to delete budget: %w", err)
	}
	return res.DeletedCount > 0, nil
}
