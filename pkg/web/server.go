package web

import (
	"context"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// NewRouter returns a new HTTP router.
func NewRouter(ctx context.Context) http.Handler {
	logger := log.FromContext(ctx).WithPrefix("http")
	router := mux.NewRouter()

	HealthController(ctx, router)

	router.HandleFunc("/{org}/{repo}/objects/batch", serviceBatch).Methods(http.MethodPost)
	router.HandleFunc("/{org}/{repo}/objects/storage/verify", serviceVerifyObject).Methods(http.MethodPost)
	router.HandleFunc("/{org}/{repo}/objects/storage/{oid}", serviceGetObject).Methods(http.MethodGet)
	router.HandleFunc("/{org}/{repo}/objects/storage/{oid}", servicePutObject).Methods(http.MethodPut)
	router.HandleFunc("/{org}/{repo}/objects/multipart/{oid}/commit", serviceMultipartCommit).Methods(http.MethodPost)
	router.HandleFunc("/{org}/{repo}/objects/multipart/{oid}/abort", serviceMultipartAbort).Methods(http.MethodPost)

	router.PathPrefix("/").HandlerFunc(renderNotFound)

	// Context handler
	// Adds context to the request
	h := NewLoggingMiddleware(router, logger)
	h = withIdentity(h)
	h = NewContextHandler(ctx)(h)
	h = handlers.CompressHandler(h)
	h = handlers.RecoveryHandler()(h)

	return h
}
