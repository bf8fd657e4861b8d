package web

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
)

// HealthController registers the health check routes for the web server.
func HealthController(_ context.Context, r *mux.Router) {
	r.HandleFunc("/healthz", getHealthz)
}

func getHealthz(w http.ResponseWriter, r *http.Request) {
	renderStatus(http.StatusOK)(w, r)
}
