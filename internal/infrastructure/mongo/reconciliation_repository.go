package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
)

type reconciliationDocument struct {
	ID         string    `bson:"_id"`
	OrderID    string    `bson:"orderId"`
	ProductID  string    `bson:"productId"`
	Quantity   int       `bson:"quantity"`
	Reason     string    `bson:"reason"`
	RecordedAt time.Time `bson:"recordedAt"`
}

type ReconciliationRepository struct {
	collection *mongo.Collection
}

func NewReconciliationRepository(db *mongo.Database) *ReconciliationRepository {
	return &ReconciliationRepository{collection: db.Collection(reconciliationCollection)}
}

func (r *ReconciliationRepository) Record(ctx context.Context, e domain.ReconciliationEntry) error {
	_, err := r.collection.InsertOne(ctx, reconciliationDocument{
		ID:         e.ID,
		OrderID:    e.OrderID,
		ProductID:  e.ProductID,
		Quantity:   e.Quantity,
		Reason:     e.Reason,
		RecordedAt: e.RecordedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to record reconciliation entry: %w", err)
	}
	return nil
}

func (r *ReconciliationRepository) List(ctx context.Context, limit int) ([]domain.ReconciliationEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "recordedAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list reconciliation entries: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []reconciliationDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode reconciliation entries: %w", err)
	}

	out := make([]domain.ReconciliationEntry, 0, len(docs))
	for _, d := range docs {
		out = append(out, domain.ReconciliationEntry{
			ID:         d.ID,
			OrderID:    d.OrderID,
			ProductID:  d.ProductID,
			Quantity:   d.Quantity,
			Reason:     d.Reason,
			RecordedAt: d.RecordedAt.UTC(),
		})
	}
	return out, nil
}
