package order

import (
	"context"
	"testing"

	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type otherEvent struct{}

func (otherEvent) EventName() string { return domain.ReservationIncompleteEvent{}.EventName() }

func TestReconciliationWorker_RecordsIncompleteReservations(t *testing.T) {
	ctx := context.Background()
	bus := &recordingBus{}
	repo := memory.NewReconciliationRepository()
	w := NewReconciliationWorker(repo, bus, &seqIDs{}, fixedClock(), nil)
	w.Start()

	require.NoError(t, bus.Publish(ctx, domain.NewReservationIncompleteEvent("o1", "p1", 2, "insufficient_stock")))
	require.NoError(t, bus.Publish(ctx, otherEvent{}))

	pending, err := w.Pending(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "o1", pending[0].OrderID)
	assert.Equal(t, "p1", pending[0].ProductID)
	assert.Equal(t, 2, pending[0].Quantity)
	assert.Equal(t, testNow, pending[0].RecordedAt)
}

func TestPlaceOrder_FeedsReconciliationWorker(t *testing.T) {
	p := newPipeline(t, snapshot("a", "10.00", 5))
	p.products.decrementErrs = map[string]error{"a": assert.AnError}
	repo := memory.NewReconciliationRepository()
	NewReconciliationWorker(repo, p.bus, &seqIDs{}, fixedClock(), nil).Start()

	_, err := p.uc.Execute(context.Background(), guestCart(RawLine{"productId": "a"}))
	require.Error(t, err)

	entries, err := repo.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "persist_error", entries[0].Reason)
}
