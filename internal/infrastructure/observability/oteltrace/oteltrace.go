package oteltrace

import (
	"context"

	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const defaultName = "minishop-storefront"

type tracer struct {
	t      trace.Tracer
	kind   trace.SpanKind
	common []attribute.KeyValue
}

type Option func(*config)

type config struct {
	provider trace.TracerProvider
	kind     trace.SpanKind
	common   []attribute.KeyValue
}

// WithTracerProvider replaces the global provider, which stays a no-op until
// an SDK provider is installed with otel.SetTracerProvider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *config) { c.provider = tp }
}

// WithSpanKind sets the kind of every span started. Default: internal.
func WithSpanKind(kind trace.SpanKind) Option {
	return func(c *config) { c.kind = kind }
}

// WithAttributes adds attributes to every span, e.g. the store backend.
func WithAttributes(attrs ...attribute.KeyValue) Option {
	return func(c *config) { c.common = append(c.common, attrs...) }
}

func New(name string, opts ...Option) observability.Tracer {
	if name == "" {
		name = defaultName
	}
	cfg := config{kind: trace.SpanKindInternal}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.provider == nil {
		cfg.provider = otel.GetTracerProvider()
	}
	return &tracer{t: cfg.provider.Tracer(name), kind: cfg.kind, common: cfg.common}
}

func (t *tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := attrs
	if len(t.common) > 0 {
		all = make([]attribute.KeyValue, 0, len(t.common)+len(attrs))
		all = append(all, t.common...)
		all = append(all, attrs...)
	}
	return t.t.Start(ctx, name, trace.WithSpanKind(t.kind), trace.WithAttributes(all...))
}
