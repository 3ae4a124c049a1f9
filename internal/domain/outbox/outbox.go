// Package outbox declares the in-process event contract between the order
// pipeline and its background consumers.
package outbox

import "context"

// Event is any domain event with a stable name used for routing.
type Event interface {
	EventName() string
}

// Handler processes one delivered event. Returned errors are logged by the bus,
// never retried.
type Handler func(ctx context.Context, e Event) error

// Publisher hands events to the bus. Delivery is asynchronous and at-most-once.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, e Event) error

func (f PublisherFunc) Publish(ctx context.Context, e Event) error { return f(ctx, e) }

// Subscriber registers handlers by event name.
type Subscriber interface {
	Subscribe(eventName string, h Handler)
}

// Bus is both ends of the channel.
type Bus interface {
	Publisher
	Subscriber
}
