package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/finanza/finanza-api/internal/models"
)

type resetCodeDoc struct {
	Email     string    `bson:"email"`
	Code      string    `bson:"code"`
	ExpiresAt time.Time `bson:"exp"`
}

// UpsertResetCode replaces the code document for email in a single write,
// so the previous code stops matching the moment the new one is stored.
func (s *MongoStore) UpsertResetCode(ctx context.Context, email, code string, expiresAt time.Time) error {
	_, err := s.resetCodes.ReplaceOne(ctx,
		bson.M{"email": email},
		resetCodeDoc{Email: email, Code: code, ExpiresAt: expiresAt.UTC()},
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert reset code: %w", err)
	}
	return nil
}

// ConsumeResetCode returns the code record for (email, code) without deleting it.
func (s *MongoStore) ConsumeResetCode(ctx context.Context, email, code string) (*models.ResetCode, error) {
	var doc resetCodeDoc
	err := s.resetCodes.FindOne(ctx, bson.M{"email": email, "code": code}).Decode(&doc)
	if isNoDocuments(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reset code: %w", err)
	}

	return &models.ResetCode{
		Email:     doc.Email,
		Code:      doc.Code,
		ExpiresAt: doc.ExpiresAt.UTC(),
	}, nil
}

// DeleteResetCode removes the document matching email and code.
// DeleteOne is atomic, so only one concurrent caller sees DeletedCount == 1.
func (s *MongoStore) DeleteResetCode(ctx context.Context, email, code string) (bool, error) {
	res, err := s.resetCodes.DeleteOne(ctx, bson.M{"email": email, "code": code})
	if err != nil {
		return false, fmt.Errorf("failed to delete reset code: %w", err)
	}
	return res.DeletedCount > 0, nil
}

// DeleteResetCodes removes every code for email.
func (s *MongoStore) DeleteResetCodes(ctx context.Context, email string) error {
	if _, err := s.resetCodes.DeleteMany(ctx, bson.M{"email": email}); err != nil {
		return fmt.Errorf("failed to delete reset codes: %w", err)
	}
	return nil
}
