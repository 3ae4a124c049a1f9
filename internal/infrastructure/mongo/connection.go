package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	productsCollection       = "products"
	ordersCollection         = "orders"
	reconciliationCollection = "reconciliation"
)

func Connect(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100).
		SetMinPoolSize(10)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: ping: %w", err)
	}
	return client.Database(database), nil
}

// EnsureIndexes creates the indexes the order queries rely on. It is idempotent.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	orders := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "customerId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("customer_created"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: 1}},
			Options: options.Index().SetName("status_created"),
		},
	}
	if _, err := db.Collection(ordersCollection).Indexes().CreateMany(ctx, orders); err != nil {
		return fmt.Errorf("mongo: create order indexes: %w", err)
	}

	recon := mongo.IndexModel{
		Keys:    bson.D{{Key: "recordedAt", Value: -1}},
		Options: options.Index().SetName("recorded_at"),
	}
	if _, err := db.Collection(reconciliationCollection).Indexes().CreateOne(ctx, recon); err != nil {
		return fmt.Errorf("mongo: create reconciliation index: %w", err)
	}
	return nil
}
