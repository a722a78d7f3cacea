package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/investor-account-ledger/internal/domain/transaction"
)

const (
	// TransactionCollectionName is the name of the transaction records collection
	TransactionCollectionName = "transactions"
)

// TransactionRepository implements the transaction.Repository interface for MongoDB
type TransactionRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewTransactionRepository creates a new MongoDB transaction repository
func NewTransactionRepository(logger *slog.Logger, db *mongo.Database) transaction.Repository {
	return &TransactionRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores a new transaction record after checking for duplicates.
// Returns ErrDuplicateRecord if a record with the same transaction ID exists,
// which the reconciler treats as already-completed work.
func (r *TransactionRepository) Create(ctx context.Context, txn *transaction.Transaction) error {
	collection := r.db.Collection(TransactionCollectionName)

	existing, err := r.GetByID(ctx, txn.ID)
	if err != nil && !errors.Is(err, transaction.ErrRecordNotFound{}) {
		r.logger.Error("Failed to check for existing transaction record",
			"transaction_id", txn.ID.String(),
			"error", err)
		return fmt.Errorf("failed to check for existing transaction record: %w", err)
	}

	if existing != nil {
		return transaction.ErrDuplicateRecord{ID: txn.ID}
	}

	_, err = collection.InsertOne(ctx, txn)
	if err != nil {
		r.logger.Error("Failed to create transaction record",
			"transaction_id", txn.ID.String(),
			"error", err)
		return fmt.Errorf("failed to create transaction record: %w", err)
	}

	return nil
}

// GetByID retrieves a transaction record by its identifier.
// Returns ErrRecordNotFound if no record exists.
func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	collection := r.db.Collection(TransactionCollectionName)

	filter := bson.M{"transaction_id": id}
	var txn transaction.Transaction
	err := collection.FindOne(ctx, filter).Decode(&txn)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, transaction.ErrRecordNotFound{ID: id}
		}
		r.logger.Error("Failed to get transaction record",
			"transaction_id", id.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get transaction record: %w", err)
	}

	return &txn, nil
}

// GetByIdempotencyKey retrieves a transaction record by its idempotency key.
// Returns nil if no record exists, enabling the fast duplicate-rejection path.
func (r *TransactionRepository) GetByIdempotencyKey(ctx context.Context, idempotencyKey string) (*transaction.Transaction, error) {
	if idempotencyKey == "" {
		return nil, errors.New("idempotency key cannot be empty")
	}

	collection := r.db.Collection(TransactionCollectionName)

	filter := bson.M{"idempotency_key": idempotencyKey}
	var txn transaction.Transaction
	err := collection.FindOne(ctx, filter).Decode(&txn)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil // No record carries this idempotency key
		}
		r.logger.Error("Failed to get transaction record by idempotency key",
			"idempotency_key", idempotencyKey,
			"error", err)
		return nil, fmt.Errorf("failed to get transaction record by idempotency key: %w", err)
	}

	return &txn, nil
}

// GetByAccountNumber retrieves paginated transaction records for an account.
// Results are sorted by creation time in descending order (newest first).
func (r *TransactionRepository) GetByAccountNumber(ctx context.Context, accountNumber int64, limit, offset int) ([]*transaction.Transaction, error) {
	collection := r.db.Collection(TransactionCollectionName)

	filter := bson.M{"account_number": accountNumber}
	opts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to get transaction records",
			"account_number", accountNumber,
			"error", err)
		return nil, fmt.Errorf("failed to get transaction records: %w", err)
	}
	defer cursor.Close(ctx)

	var txns []*transaction.Transaction
	if err := cursor.All(ctx, &txns); err != nil {
		r.logger.Error("Failed to decode transaction records",
			"account_number", accountNumber,
			"error", err)
		return nil, fmt.Errorf("failed to decode transaction records: %w", err)
	}

	return txns, nil
}

// MarkApplied flips a record to applied status and stamps the applied time.
// Records are otherwise immutable; no other field is ever updated.
func (r *TransactionRepository) MarkApplied(ctx context.Context, id uuid.UUID) error {
	collection := r.db.Collection(TransactionCollectionName)

	filter := bson.M{"transaction_id": id}
	update := bson.M{
		"$set": bson.M{
			"status":     transaction.StatusApplied,
			"applied_at": time.Now().UTC(),
		},
	}

	result, err := collection.UpdateOne(ctx, filter, update)
	if err != nil {
		r.logger.Error("Failed to mark transaction record applied",
			"transaction_id", id.String(),
			"error", err)
		return fmt.Errorf("failed to mark transaction record applied: %w", err)
	}

	if result.MatchedCount == 0 {
		return transaction.ErrRecordNotFound{ID: id}
	}

	return nil
}
