package memory

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
)

// ProductRepository keeps the catalog in memory. A single mutex makes each
// decrement one linearizable read-modify-write.
type ProductRepository struct {
	mu       sync.RWMutex
	products map[string]*domain.Product
}

func NewProductRepository(seed ...domain.Product) *ProductRepository {
	r := &ProductRepository{
		products: make(map[string]*domain.Product, len(seed)),
	}
	for i := range seed {
		r.products[seed[i].ID] = seed[i].Clone()
	}
	return r
}

// Put inserts or replaces a product.
func (r *ProductRepository) Put(p domain.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[p.ID] = p.Clone()
}

func (r *ProductRepository) Get(ctx context.Context, id string) (*domain.Product, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p.Clone(), nil
}

func (r *ProductRepository) FindManyByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{}, len(ids))
	out := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if p, ok := r.products[id]; ok {
			out = append(out, *p.Clone())
		}
	}
	return out, nil
}

func (r *ProductRepository) DecrementStock(ctx context.Context, id string, quantity int) (*domain.Product, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if err := p.Deduct(quantity); err != nil {
		return nil, fmt.Errorf("product %s: %w", id, err)
	}
	return p.Clone(), nil
}

func (r *ProductRepository) Deactivate(ctx context.Context, id string) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Deactivate()
	return nil
}
