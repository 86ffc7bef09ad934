package auth

import (
	"context"

	"github.com/crowdcraft/payments/internal/domain"
)

// Context keys for authentication data
type contextKey string

const (
	actorKey     contextKey = "actor"
	RequestIDKey contextKey = "request_id"
)

// WithActor returns a context carrying the authenticated actor
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFrom extracts the authenticated actor from the context.
// The second return is false when no authentication middleware ran.
func ActorFrom(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(domain.Actor)
	return actor, ok
}

// RequestIDFrom extracts the request id set by middleware, if any
func RequestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}
