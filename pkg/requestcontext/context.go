// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Middleware sets values, services read them. Keeping this package free of
// net/http lets services import only what they need.
package requestcontext

import (
	"context"
	"time"

	id "rotalog/pkg/domain"
)

// Context key types (unexported for encapsulation).
type (
	actorIDKey     struct{}
	mayReviewKey   struct{}
	clientIPKey    struct{}
	userAgentKey   struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// ActorID retrieves the authenticated reviewer ID from the context.
// Returns the zero value if not set.
func ActorID(ctx context.Context) id.VerifierID {
	if actor, ok := ctx.Value(actorIDKey{}).(id.VerifierID); ok {
		return actor
	}
	return id.VerifierID{}
}

// WithActorID injects an authenticated reviewer ID into the context.
func WithActorID(ctx context.Context, actor id.VerifierID) context.Context {
	return context.WithValue(ctx, actorIDKey{}, actor)
}

// MayReview reports whether the authenticated actor holds reviewer capability.
// The authorization middleware resolves this from role claims; domain services
// only ever see the boolean.
func MayReview(ctx context.Context) bool {
	allowed, _ := ctx.Value(mayReviewKey{}).(bool)
	return allowed
}

// WithMayReview injects the reviewer capability flag into the context.
func WithMayReview(ctx context.Context, allowed bool) context.Context {
	return context.WithValue(ctx, mayReviewKey{}, allowed)
}

// ClientIP retrieves the client IP address from the context.
func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(clientIPKey{}).(string); ok {
		return ip
	}
	return ""
}

// UserAgent retrieves the parsed User-Agent summary from the context.
func UserAgent(ctx context.Context) string {
	if ua, ok := ctx.Value(userAgentKey{}).(string); ok {
		return ua
	}
	return ""
}

// WithClientMetadata injects client IP and User-Agent summary into a context.
// Useful for service unit tests that don't run the full middleware chain.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, clientIPKey{}, clientIP)
	ctx = context.WithValue(ctx, userAgentKey{}, userAgent)
	return ctx
}

// RequestID retrieves the request correlation ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(requestIDKey{}).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request correlation ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() for non-HTTP contexts (workers, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context so tests and batch jobs see
// a consistent clock.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
