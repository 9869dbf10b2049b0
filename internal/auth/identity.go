package auth

import "context"

// Identity is the per-request principal established by the bearer-token
// middleware. Services receive the owner ID as an explicit argument; the
// context value exists only to carry it from middleware to handler.
type Identity struct {
	UserID string
}

type contextKey struct{}

// WithIdentity returns a child context carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext extracts the request identity, if any.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}
