package workerpresentation

import (
	"context"
	"sort"

	domoutbox "github.com/Zhima-Mochi/minishop-storefront/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability/logctx"
	"github.com/google/uuid"
)

// WithEventContext injects an event-scoped logger for background executions:
// event_id (generated if empty), the active trace ids and caller attributes.
// Keep attrs low-cardinality: event name, queue, etc.
func WithEventContext(ctx context.Context, base observability.Logger, attrs map[string]string) context.Context {
	evtID := attrs["event_id"]
	if evtID == "" {
		evtID = uuid.NewString()
	}
	fields := []observability.Field{observability.F("event_id", evtID)}

	keys := make([]string, 0, len(attrs))
	for k, v := range attrs {
		if k == "event_id" || v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fields = append(fields, observability.F(k, attrs[k]))
	}

	ctx, _ = logctx.Enrich(ctx, base, fields...)
	return ctx
}

type subscriber struct {
	next domoutbox.Subscriber
	base observability.Logger
}

// Subscriber decorates next so every handler it registers runs with an
// event-scoped logger in its context.
func Subscriber(next domoutbox.Subscriber, base observability.Logger) domoutbox.Subscriber {
	return &subscriber{next: next, base: base}
}

func (s *subscriber) Subscribe(eventName string, h domoutbox.Handler) {
	s.next.Subscribe(eventName, func(ctx context.Context, e domoutbox.Event) error {
		ctx = WithEventContext(ctx, logctx.FromOr(ctx, s.base), map[string]string{"event": e.EventName()})
		return h(ctx, e)
	})
}
