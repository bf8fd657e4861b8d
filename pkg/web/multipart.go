package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"path"

	"github.com/charmbracelet/log"
	"github.com/freighter-sh/freighter/pkg/access"
	"github.com/freighter-sh/freighter/pkg/lfs"
	"github.com/freighter-sh/freighter/pkg/storage"
	"github.com/freighter-sh/freighter/pkg/transfer"
	"github.com/gorilla/mux"
)

// serviceMultipartCommit finalizes a multipart upload from its stored parts.
// The request body is the self-describing document planned into the commit
// action, so no upload state is looked up on this server.
// POST: /{org}/{repo}/objects/multipart/{oid}/commit.
func serviceMultipartCommit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx).WithPrefix("http.multipart")

	commit, strg, ok := multipartRequest(w, r)
	if !ok {
		return
	}

	vars := mux.Vars(r)
	org, repo := vars["org"], vars["repo"]

	err := strg.CompleteMultipart(ctx, path.Join(org, repo), commit.Oid, commit.UploadID, commit.Size)
	switch {
	case errors.Is(err, storage.ErrObjectNotFound), errors.Is(err, storage.ErrSizeMismatch):
		// Parts are missing or corrupt; the client is expected to re-batch
		// and retry the remaining parts.
		renderJSON(w, http.StatusUnprocessableEntity, lfs.ErrorResponse{
			Message: "upload incomplete",
		})
	case err != nil:
		logger.Error("error completing multipart upload", "oid", commit.Oid, "err", err)
		renderInternalServerError(w, r)
	default:
		logger.Debug("committed multipart upload", "oid", commit.Oid, "parts", commit.Parts)
		multipartCounter.WithLabelValues(lfs.ActionCommit).Inc()
		renderStatus(http.StatusOK)(w, r)
	}
}

// serviceMultipartAbort discards a multipart upload and its stored parts.
// POST: /{org}/{repo}/objects/multipart/{oid}/abort.
func serviceMultipartAbort(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx).WithPrefix("http.multipart")

	abort, strg, ok := multipartRequest(w, r)
	if !ok {
		return
	}

	vars := mux.Vars(r)
	org, repo := vars["org"], vars["repo"]

	if err := strg.AbortMultipart(ctx, path.Join(org, repo), abort.Oid, abort.UploadID); err != nil {
		logger.Error("error aborting multipart upload", "oid", abort.Oid, "err", err)
		renderInternalServerError(w, r)
		return
	}

	logger.Debug("aborted multipart upload", "oid", abort.Oid)
	multipartCounter.WithLabelValues(lfs.ActionAbort).Inc()
	renderStatus(http.StatusOK)(w, r)
}

// multipartRequest validates and authorizes a commit or abort request. The
// oid in the path must agree with the body, and the caller needs write
// access to that object.
func multipartRequest(w http.ResponseWriter, r *http.Request) (transfer.CommitRequest, storage.Multipart, bool) {
	ctx := r.Context()
	vars := mux.Vars(r)
	org, repo, oid := vars["org"], vars["repo"], vars["oid"]

	var req transfer.CommitRequest
	if !isLfs(r) {
		renderNotAcceptable(w)
		return req, nil, false
	}

	defer r.Body.Close() //nolint: errcheck
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderJSON(w, http.StatusUnprocessableEntity, lfs.ErrorResponse{
			Message: "validation error in request: " + err.Error(),
		})
		return req, nil, false
	}

	if req.Oid != oid {
		renderJSON(w, http.StatusUnprocessableEntity, lfs.ErrorResponse{
			Message: "oid mismatch between path and body",
		})
		return req, nil, false
	}

	if req.UploadID == "" {
		renderJSON(w, http.StatusUnprocessableEntity, lfs.ErrorResponse{
			Message: "missing upload_id",
		})
		return req, nil, false
	}

	if !authorize(w, r, org, repo, oid, access.WritePermission) {
		return req, nil, false
	}

	strg, ok := storage.FromContext(ctx).(storage.Multipart)
	if !ok {
		log.FromContext(ctx).Error("storage backend is not multipart")
		renderInternalServerError(w, r)
		return req, nil, false
	}

	return req, strg, true
}
