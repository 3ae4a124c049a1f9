package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func product(id string, stock int) domain.Product {
	return domain.Product{ID: id, Name: id, UnitPrice: decimal.NewFromInt(10), Stock: stock, IsActive: true}
}

func TestProductRepository_FindManyByIDs(t *testing.T) {
	repo := NewProductRepository(product("a", 1), product("b", 2))

	got, err := repo.FindManyByIDs(context.Background(), []string{"a", "missing", "b", "a"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID)
}

func TestProductRepository_DecrementStock(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepository(product("a", 3))

	p, err := repo.DecrementStock(ctx, "a", 2)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Stock)
	assert.Equal(t, 2, p.OrdersCount)

	_, err = repo.DecrementStock(ctx, "a", 2)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	_, err = repo.DecrementStock(ctx, "nope", 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	stored, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Stock)
}

func TestProductRepository_ConcurrentDecrementsNeverOversell(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepository(product("a", 50))

	var ok atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.DecrementStock(ctx, "a", 1); err == nil {
				ok.Add(1)
			}
		}()
	}
	wg.Wait()

	stored, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int32(50), ok.Load())
	assert.Equal(t, 0, stored.Stock)
	assert.Equal(t, 50, stored.OrdersCount)
}

func TestProductRepository_Deactivate(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepository(product("a", 0))

	require.NoError(t, repo.Deactivate(ctx, "a"))
	stored, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
	assert.ErrorIs(t, repo.Deactivate(ctx, "missing"), domain.ErrNotFound)
}
