// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// The ledger core receives an already-authenticated caller identity per call;
// middleware sets it here and services read it back without importing
// net/http. Time is also request-scoped so an operation's record mutations
// and its emitted event share one timestamp, and tests can pin the clock.
//
// Usage in services (read values):
//
//	caller := requestcontext.CallerID(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in middleware (set values):
//
//	ctx = requestcontext.WithCallerID(ctx, caller)
//	ctx = requestcontext.WithRequestID(ctx, requestID)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"

	id "prophecy/pkg/domain"
)

// Context key types (unexported for encapsulation).
type (
	callerIDKey    struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Exported context keys for tests that need raw context.WithValue.
var (
	ContextKeyCallerID    = callerIDKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// CallerID retrieves the authenticated caller identity from the context.
// Returns the zero identity if not set.
func CallerID(ctx context.Context) id.Identity {
	if caller, ok := ctx.Value(ContextKeyCallerID).(id.Identity); ok {
		return caller
	}
	return ""
}

// WithCallerID injects a caller identity into the context.
func WithCallerID(ctx context.Context, caller id.Identity) context.Context {
	return context.WithValue(ctx, ContextKeyCallerID, caller)
}

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now retrieves the request-scoped time from context. Falls back to
// time.Now() for non-HTTP contexts (workers, CLI, tests without a pin).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
