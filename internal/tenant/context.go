// Package tenant holds the request-scoped tenant identity and the middleware
// that resolves it. The tenant id is only ever read from the request context;
// nothing in the codebase may infer it from row data. Because the id lives on
// a per-request context.Context, it cannot survive the request: every exit
// path, including panics recovered upstream, discards it with the context.
package tenant

import (
	"context"

	"github.com/google/uuid"
)

type contextKey struct{}

// WithID returns a context carrying the tenant id for the current request.
func WithID(ctx context.Context, id uuid.UUID) context.Context {
	if id == uuid.Nil {
		return ctx
	}
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext reports the tenant id for the current request. The second
// return is false when the request is not tenant-scoped; callers must treat
// that as "no tenant", never as a wildcard.
func FromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(contextKey{}).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// IDFromContext returns the tenant id or uuid.Nil when absent.
func IDFromContext(ctx context.Context) uuid.UUID {
	id, _ := FromContext(ctx)
	return id
}
