package auth

import "context"

// ContextKey is the context key for the authenticated identity.
var ContextKey = &struct{ string }{"identity"}

// FromContext returns the identity from the context, or nil.
func FromContext(ctx context.Context) Identity {
	if id, ok := ctx.Value(ContextKey).(Identity); ok {
		return id
	}

	return nil
}

// WithContext returns a new context with the given identity.
func WithContext(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ContextKey, id)
}

// ChainContextKey is the context key for the authenticator chain.
var ChainContextKey = &struct{ string }{"auth-chain"}

// ChainFromContext returns the authenticator chain from the context, or nil.
func ChainFromContext(ctx context.Context) *Chain {
	if c, ok := ctx.Value(ChainContextKey).(*Chain); ok {
		return c
	}

	return nil
}

// ChainWithContext returns a new context with the given authenticator chain.
func ChainWithContext(ctx context.Context, c *Chain) context.Context {
	return context.WithValue(ctx, ChainContextKey, c)
}
