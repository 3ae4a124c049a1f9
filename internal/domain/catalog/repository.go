package catalog

import (
	"context"
)

type Repository interface {
	// FindManyByIDs loads all requested products in one round trip. Unknown ids are omitted.
	FindManyByIDs(ctx context.Context, ids []string) ([]Product, error)
	// DecrementStock atomically takes quantity off stock and adds it to the orders count,
	// returning the product as it is after the update.
	DecrementStock(ctx context.Context, id string, quantity int) (*Product, error)
	Deactivate(ctx context.Context, id string) error
}
