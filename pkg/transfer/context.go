package transfer

import "context"

// ContextKey is the context key for the configured adapter registry.
var ContextKey = &struct{ string }{"transfer"}

// FromContext returns the adapter registry from the context, or nil.
func FromContext(ctx context.Context) *Registry {
	if r, ok := ctx.Value(ContextKey).(*Registry); ok {
		return r
	}

	return nil
}

// WithContext returns a new context with the given adapter registry.
func WithContext(ctx context.Context, r *Registry) context.Context {
	return context.WithValue(ctx, ContextKey, r)
}
