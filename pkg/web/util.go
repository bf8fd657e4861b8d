package web

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/freighter-sh/freighter/pkg/access"
	"github.com/freighter-sh/freighter/pkg/auth"
	"github.com/freighter-sh/freighter/pkg/lfs"
)

func renderStatus(code int) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(code)
		io.WriteString(w, fmt.Sprintf("%d %s", code, http.StatusText(code))) //nolint:errcheck,gosec
	}
}

func renderNotFound(w http.ResponseWriter, r *http.Request) {
	renderStatus(http.StatusNotFound)(w, r)
}

func renderInternalServerError(w http.ResponseWriter, r *http.Request) {
	renderStatus(http.StatusInternalServerError)(w, r)
}

func renderJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	hdrLfs(w)
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("error encoding json", "err", err)
	}
}

func renderNotAcceptable(w http.ResponseWriter) {
	renderStatus(http.StatusNotAcceptable)(w, nil)
}

func askCredentials(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("LFS-Authenticate", `Basic realm="Git LFS" charset="UTF-8", Token, Bearer`)
}

// authorize checks the request identity for perm on one object and renders
// the failure if it lacks it. Callers without metadata visibility are told
// the object does not exist.
func authorize(w http.ResponseWriter, r *http.Request, org, repo, oid string, perm access.Permission) bool {
	id := auth.FromContext(r.Context())
	if id == nil {
		askCredentials(w, r)
		renderJSON(w, http.StatusUnauthorized, lfs.ErrorResponse{
			Message: "authentication required",
		})
		return false
	}

	if id.IsAuthorized(org, repo, perm, oid) {
		return true
	}

	if id.IsAuthorized(org, repo, access.ReadMetaPermission, oid) {
		renderJSON(w, http.StatusForbidden, lfs.ErrorResponse{Message: "forbidden"})
	} else {
		renderJSON(w, http.StatusNotFound, lfs.ErrorResponse{Message: "not found"})
	}
	return false
}

func isLfs(r *http.Request) bool {
	contentType := r.Header.Get("Content-Type")
	accept := r.Header.Get("Accept")
	return strings.HasPrefix(contentType, lfs.MediaType) || strings.HasPrefix(accept, lfs.MediaType)
}

func isBinary(r *http.Request) bool {
	contentType := r.Header.Get("Content-Type")
	return strings.HasPrefix(contentType, "application/octet-stream")
}

func hdrLfs(w http.ResponseWriter) {
	w.Header().Set("Content-Type", lfs.MediaType)
	w.Header().Set("Accept", lfs.MediaType)
}
