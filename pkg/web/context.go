package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/freighter-sh/freighter/pkg/auth"
	"github.com/freighter-sh/freighter/pkg/config"
	"github.com/freighter-sh/freighter/pkg/storage"
	"github.com/freighter-sh/freighter/pkg/transfer"
)

// NewContextHandler returns a new context middleware.
// This middleware adds the config, storage backend, adapter registry,
// authenticator chain and logger to the request context.
func NewContextHandler(ctx context.Context) func(http.Handler) http.Handler {
	cfg := config.FromContext(ctx)
	strg := storage.FromContext(ctx)
	registry := transfer.FromContext(ctx)
	chain := auth.ChainFromContext(ctx)
	logger := log.FromContext(ctx).WithPrefix("http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ctx = config.WithContext(ctx, cfg)
			ctx = storage.WithContext(ctx, strg)
			ctx = transfer.WithContext(ctx, registry)
			ctx = auth.ChainWithContext(ctx, chain)
			ctx = log.WithContext(ctx, logger.With(
				"method", r.Method,
				"path", r.URL,
				"addr", r.RemoteAddr,
			))
			r = r.WithContext(ctx)

			next.ServeHTTP(w, r)
		})
	}
}

// withIdentity runs the authenticator chain and stores the resulting
// identity in the request context. Requests nobody can identify pass
// through without one; handlers decide what that means.
func withIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if chain := auth.ChainFromContext(ctx); chain != nil {
			id, err := chain.Authenticate(r)
			if err != nil && !errors.Is(err, auth.ErrNoIdentity) {
				log.FromContext(ctx).Error("authentication failed", "err", err)
				renderInternalServerError(w, r)
				return
			}
			if id != nil {
				r = r.WithContext(auth.WithContext(ctx, id))
			}
		}

		next.ServeHTTP(w, r)
	})
}
