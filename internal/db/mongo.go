// Package db owns the MongoDB connection and collection bootstrap.
package db

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/synapaxon/question-bank/internal/config"
)

// Collection names.
const (
	UsersCollection     = "users"
	QuestionsCollection = "questions"
)

// Connect opens a Mongo client, verifies the connection and returns the
// application database handle.
func Connect(ctx context.Context, cfg config.Mongo) (*mongo.Client, *mongo.Database, error) {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		return nil, nil, fmt.Errorf("ping mongo: %w", err)
	}

	return client, client.Database(cfg.Database), nil
}

// EnsureIndexes creates the indexes the question listing paths rely on.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	questionIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdBy", Value: 1}}},
		{Keys: bson.D{{Key: "category", Value: 1}}},
		{Keys: bson.D{{Key: "subjects.name", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	}
	if _, err := database.Collection(QuestionsCollection).Indexes().CreateMany(ctx, questionIndexes); err != nil {
		return fmt.Errorf("create question indexes: %w", err)
	}

	unique := true
	sparse := true
	userIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: &options.IndexOptions{Unique: &unique}},
		{Keys: bson.D{{Key: "googleId", Value: 1}}, Options: &options.IndexOptions{Unique: &unique, Sparse: &sparse}},
	}
	if _, err := database.Collection(UsersCollection).Indexes().CreateMany(ctx, userIndexes); err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}
