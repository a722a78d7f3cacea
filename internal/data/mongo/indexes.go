package mongo

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the transaction record store depends on.
// The unique constraints back the duplicate checks in Create and
// GetByIdempotencyKey; the account index serves history lookups.
func EnsureIndexes(ctx context.Context, logger *slog.Logger, db *mongo.Database) error {
	collection := db.Collection(TransactionCollectionName)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "transaction_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_transaction_id"),
		},
		{
			Keys:    bson.D{{Key: "idempotency_key", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_idempotency_key"),
		},
		{
			Keys:    bson.D{{Key: "account_number", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("account_history"),
		},
	}

	names, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create transaction record indexes: %w", err)
	}

	logger.Info("Ensured transaction record indexes", "indexes", names)
	return nil
}
