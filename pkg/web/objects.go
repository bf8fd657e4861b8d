package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path"

	"github.com/charmbracelet/log"
	"github.com/freighter-sh/freighter/pkg/access"
	"github.com/freighter-sh/freighter/pkg/lfs"
	"github.com/freighter-sh/freighter/pkg/storage"
	"github.com/gorilla/mux"
)

// serviceGetObject streams an object to the client.
// GET: /{org}/{repo}/objects/storage/{oid}.
func serviceGetObject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx).WithPrefix("http.storage")
	vars := mux.Vars(r)
	org, repo, oid := vars["org"], vars["repo"], vars["oid"]

	if !authorize(w, r, org, repo, oid, access.ReadPermission) {
		return
	}

	strg, ok := storage.FromContext(ctx).(storage.Streaming)
	if !ok {
		logger.Error("storage backend is not streaming")
		renderInternalServerError(w, r)
		return
	}

	obj, err := strg.Get(ctx, path.Join(org, repo), oid)
	if errors.Is(err, storage.ErrObjectNotFound) {
		renderNotFound(w, r)
		return
	}
	if err != nil {
		logger.Error("error opening object", "oid", oid, "err", err)
		renderInternalServerError(w, r)
		return
	}
	defer obj.Close() //nolint: errcheck

	storageCounter.WithLabelValues(lfs.ActionDownload).Inc()
	w.Header().Set("Content-Type", "application/octet-stream")
	if _, err := io.Copy(w, obj); err != nil {
		logger.Error("error writing object", "oid", oid, "err", err)
	}
}

// servicePutObject stores an object uploaded by the client.
// PUT: /{org}/{repo}/objects/storage/{oid}.
func servicePutObject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx).WithPrefix("http.storage")
	vars := mux.Vars(r)
	org, repo, oid := vars["org"], vars["repo"], vars["oid"]

	if !isBinary(r) {
		logger.Errorf("invalid content type: %s", r.Header.Get("Content-Type"))
		renderNotAcceptable(w)
		return
	}

	if !authorize(w, r, org, repo, oid, access.WritePermission) {
		return
	}

	strg, ok := storage.FromContext(ctx).(storage.Streaming)
	if !ok {
		logger.Error("storage backend is not streaming")
		renderInternalServerError(w, r)
		return
	}

	defer r.Body.Close() //nolint: errcheck
	written, err := strg.Put(ctx, path.Join(org, repo), oid, r.Body)
	if err != nil {
		logger.Error("error storing object", "oid", oid, "err", err)
		renderInternalServerError(w, r)
		return
	}

	logger.Debug("stored object", "oid", oid, "bytes", written)
	storageCounter.WithLabelValues(lfs.ActionUpload).Inc()
	renderStatus(http.StatusOK)(w, r)
}

// serviceVerifyObject asserts that an uploaded object is durably stored with
// the expected size.
// POST: /{org}/{repo}/objects/storage/verify.
func serviceVerifyObject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx).WithPrefix("http.verify")
	vars := mux.Vars(r)
	org, repo := vars["org"], vars["repo"]

	if !isLfs(r) {
		renderNotAcceptable(w)
		return
	}

	var pointer lfs.Pointer
	defer r.Body.Close() //nolint: errcheck
	if err := json.NewDecoder(r.Body).Decode(&pointer); err != nil {
		renderJSON(w, http.StatusUnprocessableEntity, lfs.ErrorResponse{
			Message: "validation error in request: " + err.Error(),
		})
		return
	}

	if !authorize(w, r, org, repo, pointer.Oid, access.ReadMetaPermission) {
		return
	}

	strg, ok := storage.FromContext(ctx).(storage.Verifiable)
	if !ok {
		logger.Error("storage backend is not verifiable")
		renderInternalServerError(w, r)
		return
	}

	err := strg.Verify(ctx, path.Join(org, repo), pointer.Oid, pointer.Size)
	switch {
	case errors.Is(err, storage.ErrObjectNotFound):
		renderJSON(w, http.StatusNotFound, lfs.ErrorResponse{
			Message: "object does not exist",
		})
	case errors.Is(err, storage.ErrSizeMismatch):
		renderJSON(w, http.StatusUnprocessableEntity, lfs.ErrorResponse{
			Message: "object size does not match",
		})
	case err != nil:
		logger.Error("error verifying object", "oid", pointer.Oid, "err", err)
		renderInternalServerError(w, r)
	default:
		renderStatus(http.StatusOK)(w, r)
	}
}
