package order

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-storefront/internal/domain/outbox"
	"github.com/shopspring/decimal"
)

var testNow = time.Date(2025, 5, 1, 9, 30, 0, 0, time.UTC)

type seqIDs struct{ n atomic.Int64 }

func (s *seqIDs) NewID() string { return fmt.Sprintf("id-%d", s.n.Add(1)) }

func fixedClock() Clock { return ClockFunc(func() time.Time { return testNow }) }

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func snapshot(id, price string, stock int) catalog.Product {
	return catalog.Product{ID: id, Name: "Product " + id, UnitPrice: money(price), Stock: stock, IsActive: true, Images: []string{id + ".png"}}
}

// countingProducts wraps a product store, counting calls and injecting failures.
type countingProducts struct {
	catalog.Repository

	finds       atomic.Int32
	decrements  atomic.Int32
	deactivates atomic.Int32

	findErr       error
	decrementErrs map[string]error
	deactivateErr error
	panicOnDeact  bool
}

func (c *countingProducts) FindManyByIDs(ctx context.Context, ids []string) ([]catalog.Product, error) {
	c.finds.Add(1)
	if c.findErr != nil {
		return nil, c.findErr
	}
	return c.Repository.FindManyByIDs(ctx, ids)
}

func (c *countingProducts) DecrementStock(ctx context.Context, id string, qty int) (*catalog.Product, error) {
	c.decrements.Add(1)
	if err, ok := c.decrementErrs[id]; ok {
		return nil, err
	}
	return c.Repository.DecrementStock(ctx, id, qty)
}

func (c *countingProducts) Deactivate(ctx context.Context, id string) error {
	c.deactivates.Add(1)
	if c.panicOnDeact {
		panic("deactivate exploded")
	}
	if c.deactivateErr != nil {
		return c.deactivateErr
	}
	return c.Repository.Deactivate(ctx, id)
}

func (c *countingProducts) calls() int32 {
	return c.finds.Load() + c.decrements.Load() + c.deactivates.Load()
}

type failingOrders struct {
	domain.Repository
	err error
}

func (f failingOrders) Create(context.Context, *domain.Order) error { return f.err }

type unholdableOrders struct{ domain.Repository }

func (unholdableOrders) HoldForReconciliation(context.Context, string) error {
	panic("hold exploded")
}

type fakeCache struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (f *fakeCache) Invalidate(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, keys...)
	return f.err
}

type fakeIdentity map[string]Principal

func (f fakeIdentity) Resolve(_ context.Context, credential string) Principal { return f[credential] }

type recordingBus struct {
	mu       sync.Mutex
	events   []domoutbox.Event
	handlers map[string][]domoutbox.Handler
}

func (b *recordingBus) Publish(ctx context.Context, e domoutbox.Event) error {
	b.mu.Lock()
	b.events = append(b.events, e)
	hs := append([]domoutbox.Handler(nil), b.handlers[e.EventName()]...)
	b.mu.Unlock()
	var errs []error
	for _, h := range hs {
		errs = append(errs, h(ctx, e))
	}
	return errors.Join(errs...)
}

func (b *recordingBus) Subscribe(name string, h domoutbox.Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.handlers == nil {
		b.handlers = make(map[string][]domoutbox.Handler)
	}
	b.handlers[name] = append(b.handlers[name], h)
}

func (b *recordingBus) published() []domoutbox.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domoutbox.Event(nil), b.events...)
}
