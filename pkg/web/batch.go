package web

import (
	"encoding/json"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/freighter-sh/freighter/pkg/access"
	"github.com/freighter-sh/freighter/pkg/auth"
	"github.com/freighter-sh/freighter/pkg/lfs"
	"github.com/freighter-sh/freighter/pkg/transfer"
	"github.com/gorilla/mux"
)

// serviceBatch handles Git LFS batch requests.
// https://github.com/git-lfs/git-lfs/blob/main/docs/api/batch.md
// POST: /{org}/{repo}/objects/batch.
func serviceBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx).WithPrefix("http.batch")

	if !isLfs(r) {
		logger.Errorf("invalid content type: %s", r.Header.Get("Content-Type"))
		renderNotAcceptable(w)
		return
	}

	var batchRequest lfs.BatchRequest
	defer r.Body.Close() //nolint: errcheck
	if err := json.NewDecoder(r.Body).Decode(&batchRequest); err != nil {
		logger.Errorf("error decoding json: %s", err)
		renderJSON(w, http.StatusUnprocessableEntity, lfs.ErrorResponse{
			Message: "validation error in request: " + err.Error(),
		})
		return
	}

	if batchRequest.Operation != lfs.OperationUpload && batchRequest.Operation != lfs.OperationDownload {
		renderJSON(w, http.StatusUnprocessableEntity, lfs.ErrorResponse{
			Message: "unsupported operation: " + batchRequest.Operation,
		})
		return
	}

	if len(batchRequest.Objects) == 0 {
		renderJSON(w, http.StatusUnprocessableEntity, lfs.ErrorResponse{
			Message: "no objects found",
		})
		return
	}

	if batchRequest.HashAlgo != "" && batchRequest.HashAlgo != lfs.HashAlgorithmSHA256 {
		renderJSON(w, http.StatusConflict, lfs.ErrorResponse{
			Message: "unsupported hash algorithm: " + batchRequest.HashAlgo,
		})
		return
	}

	vars := mux.Vars(r)
	org, repo := vars["org"], vars["repo"]

	id := auth.FromContext(ctx)
	if id == nil {
		askCredentials(w, r)
		renderJSON(w, http.StatusUnauthorized, lfs.ErrorResponse{
			Message: "authentication required",
		})
		return
	}

	name, adapter, err := transfer.FromContext(ctx).Match(batchRequest.Transfers)
	if err != nil {
		logger.Error("negotiation failed", "transfers", batchRequest.Transfers, "err", err)
		renderJSON(w, http.StatusInternalServerError, lfs.ErrorResponse{
			Message: "internal server error",
		})
		return
	}

	required := access.ReadPermission
	if batchRequest.Operation == lfs.OperationUpload {
		required = access.WritePermission
	}
	// Callers with metadata visibility get told they lack permission;
	// everyone else gets told nothing exists.
	canReadMeta := id.IsAuthorized(org, repo, access.ReadMetaPermission, "")

	objects := make([]*lfs.ObjectResponse, 0, len(batchRequest.Objects))
	for _, o := range batchRequest.Objects {
		if !o.IsValid() {
			objects = append(objects, &lfs.ObjectResponse{
				Pointer: o.Pointer,
				Error: &lfs.ObjectError{
					Code:    http.StatusUnprocessableEntity,
					Message: "invalid object",
				},
			})
			continue
		}

		if !id.IsAuthorized(org, repo, required, o.Oid) {
			code, msg := http.StatusNotFound, "not found"
			if canReadMeta || id.IsAuthorized(org, repo, access.ReadMetaPermission, o.Oid) {
				code, msg = http.StatusForbidden, "forbidden"
			}
			objects = append(objects, &lfs.ObjectResponse{
				Pointer: o.Pointer,
				Error:   &lfs.ObjectError{Code: code, Message: msg},
			})
			continue
		}

		var resp *lfs.ObjectResponse
		switch batchRequest.Operation {
		case lfs.OperationUpload:
			resp, err = adapter.Upload(ctx, org, repo, o)
		case lfs.OperationDownload:
			resp, err = adapter.Download(ctx, org, repo, o)
		}
		if err != nil {
			// Planning failures stay per-object so siblings still transfer.
			logger.Error("planning failed", "oid", o.Oid, "repo", org+"/"+repo, "err", err)
			resp = &lfs.ObjectResponse{
				Pointer: o.Pointer,
				Error: &lfs.ObjectError{
					Code:    http.StatusInternalServerError,
					Message: "internal server error",
				},
			}
		}
		objects = append(objects, resp)
	}

	if code, msg, degenerate := degenerateBatch(objects); degenerate {
		renderJSON(w, code, lfs.ErrorResponse{Message: msg})
		return
	}

	resolved := transfer.ResolveName(name, batchRequest.Operation, objects)
	batchCounter.WithLabelValues(batchRequest.Operation, resolved).Inc()
	renderJSON(w, http.StatusOK, lfs.BatchResponse{
		Transfer: resolved,
		Objects:  objects,
		HashAlgo: lfs.HashAlgorithmSHA256,
	})
}

// degenerateBatch reports whether every object in the batch failed, in which
// case the whole request is answered with one error instead of a batch
// document: 404 when nothing was found, 422 otherwise.
func degenerateBatch(objects []*lfs.ObjectResponse) (int, string, bool) {
	allMissing := true
	for _, o := range objects {
		if o.Error == nil {
			return 0, "", false
		}
		if o.Error.Code != http.StatusNotFound {
			allMissing = false
		}
	}

	if allMissing {
		return http.StatusNotFound, "cannot find any of the requested objects", true
	}
	return http.StatusUnprocessableEntity, "cannot process any of the requested objects", true
}
