package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
)

type productDocument struct {
	ID          any       `bson:"_id"`
	Name        string    `bson:"name"`
	Price       amount    `bson:"price"`
	Images      []string  `bson:"images,omitempty"`
	Stock       int       `bson:"stock"`
	OrdersCount int       `bson:"ordersCount"`
	IsActive    bool      `bson:"isActive"`
	UpdatedAt   time.Time `bson:"updatedAt"`
}

func newProductDocument(p domain.Product) productDocument {
	return productDocument{
		ID:          idKey(p.ID),
		Name:        p.Name,
		Price:       newAmount(p.UnitPrice),
		Images:      p.Images,
		Stock:       p.Stock,
		OrdersCount: p.OrdersCount,
		IsActive:    p.IsActive,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (d productDocument) toDomain() domain.Product {
	return domain.Product{
		ID:          idString(d.ID),
		Name:        d.Name,
		UnitPrice:   d.Price.Decimal,
		Images:      d.Images,
		Stock:       d.Stock,
		OrdersCount: d.OrdersCount,
		IsActive:    d.IsActive,
		UpdatedAt:   d.UpdatedAt,
	}
}

type ProductRepository struct {
	collection *mongo.Collection
	now        func() time.Time
}

func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{
		collection: db.Collection(productsCollection),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (r *ProductRepository) FindManyByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]any, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, idKey(id))
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": keys}})
	if err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []productDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}

	out := make([]domain.Product, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

// DecrementStock is a conditional FindOneAndUpdate: the filter only matches
// while enough stock remains, so concurrent orders cannot oversell.
func (r *ProductRepository) DecrementStock(ctx context.Context, id string, quantity int) (*domain.Product, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("product %s: %w", id, domain.ErrInvalidQuantity)
	}

	filter := bson.M{"_id": idKey(id), "stock": bson.M{"$gte": quantity}}
	update := bson.M{
		"$inc": bson.M{"stock": -quantity, "ordersCount": quantity},
		"$set": bson.M{"updatedAt": r.now()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc productDocument
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		n, cerr := r.collection.CountDocuments(ctx, bson.M{"_id": idKey(id)})
		if cerr != nil {
			return nil, fmt.Errorf("failed to check product %s: %w", id, cerr)
		}
		if n == 0 {
			return nil, fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("product %s: %w", id, domain.ErrInsufficientStock)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decrement stock for %s: %w", id, err)
	}

	p := doc.toDomain()
	return &p, nil
}

func (r *ProductRepository) Deactivate(ctx context.Context, id string) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": idKey(id)},
		bson.M{"$set": bson.M{"isActive": false, "updatedAt": r.now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate product %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// Seed inserts products that are not stored yet and leaves existing ones untouched.
func (r *ProductRepository) Seed(ctx context.Context, products ...domain.Product) error {
	for _, p := range products {
		doc := newProductDocument(p)
		_, err := r.collection.UpdateOne(ctx,
			bson.M{"_id": doc.ID},
			bson.M{"$setOnInsert": bson.M{
				"name":        doc.Name,
				"price":       doc.Price,
				"images":      doc.Images,
				"stock":       doc.Stock,
				"ordersCount": doc.OrdersCount,
				"isActive":    doc.IsActive,
				"updatedAt":   doc.UpdatedAt,
			}},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return fmt.Errorf("failed to seed product %s: %w", p.ID, err)
		}
	}
	return nil
}
