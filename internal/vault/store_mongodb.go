package vault

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoDBStore implements TokenStore for MongoDB.
type MongoDBStore struct {
	collection *mongo.Collection
}

// NewMongoDBStore creates a new MongoDB token store.
// It ensures a unique index on token so the upsert's conditional write
// is enforced by the database, not by application logic.
func NewMongoDBStore(database *mongo.Database) (*MongoDBStore, error) {
	if database == nil {
		return nil, fmt.Errorf("database is required")
	}

	collection := database.Collection("token_records")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "token", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		// Index may already exist
		slog.Warn("failed to create token index", "error", err)
	}

	return &MongoDBStore{collection: collection}, nil
}

// UpsertIfAbsent performs an upsert whose update document only has
// $setOnInsert fields: a new record is written in full, an existing record
// is left byte-for-byte untouched.
func (s *MongoDBStore) UpsertIfAbsent(ctx context.Context, rec Record) error {
	filter := bson.D{{Key: "token", Value: rec.Token}}
	update := bson.D{{Key: "$setOnInsert", Value: bson.D{
		{Key: "token", Value: rec.Token},
		{Key: "original", Value: rec.Original},
		{Key: "category", Value: string(rec.Category)},
		{Key: "created_at", Value: rec.CreatedAt},
	}}}

	_, err := s.collection.UpdateOne(ctx, filter, update, options.UpdateOne().SetUpsert(true))
	if err != nil {
		// A duplicate-key race between the filter check and the insert is
		// still a successful no-op for our contract.
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("failed to upsert token record: %w", err)
	}
	return nil
}

// FetchMany resolves tokens with a single $in query.
func (s *MongoDBStore) FetchMany(ctx context.Context, tokens []string) (map[string]string, error) {
	if len(tokens) == 0 {
		return map[string]string{}, nil
	}

	cursor, err := s.collection.Find(ctx, bson.D{
		{Key: "token", Value: bson.D{{Key: "$in", Value: tokens}}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query token records: %w", err)
	}
	defer cursor.Close(ctx)

	out := make(map[string]string, len(tokens))
	for cursor.Next(ctx) {
		var rec Record
		if err := cursor.Decode(&rec); err != nil {
			return nil, fmt.Errorf("failed to decode token record: %w", err)
		}
		out[rec.Token] = rec.Original
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to read token records: %w", err)
	}
	return out, nil
}

// Close is a no-op; the client is managed by the storage layer.
func (s *MongoDBStore) Close() error {
	return nil
}
