package outbox

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	domoutbox "github.com/Zhima-Mochi/minishop-storefront/internal/domain/outbox"
	infraobs "github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pinged struct{}

func (pinged) EventName() string { return "test.pinged" }

func TestBus_FansOutToEverySubscriber(t *testing.T) {
	bus := NewBus(nil, WithConcurrency(2))
	var calls atomic.Int32
	for i := 0; i < 3; i++ {
		bus.Subscribe("test.pinged", func(context.Context, domoutbox.Event) error {
			calls.Add(1)
			return nil
		})
	}
	bus.Start(context.Background())

	require.NoError(t, bus.Publish(context.Background(), pinged{}))
	bus.Stop(context.Background())

	assert.Equal(t, int32(3), calls.Load())
}

func TestBus_SurvivesFailingAndPanickingHandlers(t *testing.T) {
	bus := NewBus(nil)
	var ok atomic.Int32
	bus.Subscribe("test.pinged", func(context.Context, domoutbox.Event) error { panic("boom") })
	bus.Subscribe("test.pinged", func(context.Context, domoutbox.Event) error { return errors.New("nope") })
	bus.Subscribe("test.pinged", func(context.Context, domoutbox.Event) error {
		ok.Add(1)
		return nil
	})
	bus.Start(context.Background())

	require.NoError(t, bus.Publish(context.Background(), pinged{}))
	require.NoError(t, bus.Publish(context.Background(), pinged{}))
	bus.Stop(context.Background())

	assert.Equal(t, int32(2), ok.Load())
}

func TestBus_PublishAfterStop(t *testing.T) {
	bus := NewBus(nil)
	bus.Start(context.Background())
	bus.Stop(context.Background())

	assert.ErrorIs(t, bus.Publish(context.Background(), pinged{}), ErrStopped)
}

func TestBus_PublishHonoursContextWhenQueueIsFull(t *testing.T) {
	bus := NewBus(nil, WithQueueSize(1))
	require.NoError(t, bus.Publish(context.Background(), pinged{}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, bus.Publish(ctx, pinged{}), context.DeadlineExceeded)
}

func TestBus_CountsHandlerOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	bus := NewBus(infraobs.NewPrometheus(reg, nil, nil))
	bus.Subscribe("test.pinged", func(context.Context, domoutbox.Event) error { panic("boom") })
	bus.Subscribe("test.pinged", func(context.Context, domoutbox.Event) error { return errors.New("nope") })
	bus.Subscribe("test.pinged", func(context.Context, domoutbox.Event) error { return nil })
	bus.Start(context.Background())

	require.NoError(t, bus.Publish(context.Background(), pinged{}))
	bus.Stop(context.Background())

	expected := `
# HELP external_requests_total Calls to stores, caches and the event bus.
# TYPE external_requests_total counter
external_requests_total{endpoint="test.pinged",outcome="error",peer="outbox"} 1
external_requests_total{endpoint="test.pinged",outcome="panic",peer="outbox"} 1
external_requests_total{endpoint="test.pinged",outcome="success",peer="outbox"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "external_requests_total"))

	n, err := testutil.GatherAndCount(reg, "external_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
