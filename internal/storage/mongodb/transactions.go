package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/finanza/finanza-api/internal/models"
)

type transactionDoc struct {
	ID        bson.ObjectID   `bson:"_id"`
	UserID    string          `bson:"user_id"`
	Kind      string          `bson:"type"`
	Amount    bson.Decimal128 `bson:"amount"`
	Category  string          `bson:"category"`
	CreatedAt time.Time       `bson:"created_at"`
}

func (d transactionDoc) model() (models.Transaction, error) {
	amount, err := fromDecimal128(d.Amount)
	if err != nil {
		return models.Transaction{}, err
	}
	return models.Transaction{
		ID:        d.ID.Hex(),
		UserID:    d.UserID,
		Kind:      models.Kind(d.Kind),
		Amount:    amount,
		Category:  d.Category,
		CreatedAt: d.CreatedAt.UTC(),
	}, nil
}

// ListTransactions returns the user's transactions in insertion order.
func (s *MongoStore) ListTransactions(ctx context.Context, userID string) ([]models.Transaction, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.transactions.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	var docs []transactionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode transactions: %w", err)
	}

	txs := make([]models.Transaction, 0, len(docs))
	for _, doc := range docs {
		tx, err := doc.model()
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// InsertTransaction persists a new transaction and assigns its ID.
func (s *MongoStore) InsertTransaction(ctx context.Context, tx *models.Transaction) (string, error) {
	amount, err := toDecimal128(tx.Amount)
	if err != nil {
		return "", err
	}

	doc := transactionDoc{
		ID:        bson.NewObjectID(),
		UserID:    tx.UserID,
		Kind:      string(tx.Kind),
		Amount:    amount,
		Category:  tx.Category,
		CreatedAt: tx.CreatedAt,
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = s.now()
	}

	if _, err := s.transactions.InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("failed to insert transaction: %w", err)
	}

	tx.ID = doc.ID.Hex()
	tx.CreatedAt = doc.CreatedAt
	return tx.ID, nil
}

// UpdateTransaction applies the set fields of patch to the user's transaction.
func (s *MongoStore) UpdateTransaction(ctx context.Context, userID, txID string, patch models.TransactionPatch) (bool, error) {
	oid, ok := objectID(txID)
	if !ok {
		return false, nil
	}
	filter := bson.M{"_id": oid, "user_id": userID}

	if patch.IsEmpty() {
		n, err := s.transactions.CountDocuments(ctx, filter)
		if err != nil {
			return false, fmt.Errorf("failed to look up transaction: %w", err)
		}
		return n > 0, nil
	}

	set := bson.M{}
	if patch.Kind != nil {
		set["type"] = string(*patch.Kind)
	}
	if patch.Amount != nil {
		amount, err := toDecimal128(*patch.Amount)
		if err != nil {
			return false, err
		}
		set["amount"] = amount
	}
	if patch.Category != nil {
		set["category"] = *patch.Category
	}

	res, err := s.transactions.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return false, fmt.Errorf("failed to update transaction: %w", err)
	}
	return res.MatchedCount > 0, nil
}

// DeleteTransaction removes the user's transaction.
func (s *MongoStore) DeleteTransaction(ctx context.Context, userID, txID string) (bool, error) {
	oid, ok := objectID(txID)
	if !ok {
		return false, nil
	}

	res, err := s.transactions.DeleteOne(ctx, bson.M{"_id": oid, "user_id": userID})
	if err != nil {
		return false, fmt.Errorf("failed to delete transaction: %w", err)
	}
	return res.DeletedCount > 0, nil
}
