package order

import (
	"context"
	"time"
)

type IDGenerator interface {
	NewID() string
}

type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reports wall-clock time in UTC.
var SystemClock Clock = ClockFunc(func() time.Time { return time.Now().UTC() })

// Principal is the caller as resolved from a credential. The zero value is anonymous.
type Principal struct {
	CustomerID string
	Role       string
}

func (p Principal) Anonymous() bool { return p.CustomerID == "" }

// IdentityVerifier resolves an opaque credential. Invalid or missing
// credentials resolve to an anonymous principal, never to an error.
type IdentityVerifier interface {
	Resolve(ctx context.Context, credential string) Principal
}

// CacheInvalidator drops derived read models. Failures are the caller's to swallow.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, keys ...string) error
}
