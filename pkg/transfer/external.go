package transfer

import (
	"context"
	"errors"
	"net/http"
	"path"
	"time"

	"github.com/freighter-sh/freighter/pkg/auth/preauth"
	"github.com/freighter-sh/freighter/pkg/lfs"
	"github.com/freighter-sh/freighter/pkg/storage"
)

// BasicExternalAdapter serves the basic transfer protocol with signed URLs
// pointing straight at an external backend. Only the verify action comes
// back to this server.
type BasicExternalAdapter struct {
	storage        storage.External
	issuer         *preauth.Issuer
	endpoints      Endpoints
	actionLifetime time.Duration
	verifyLifetime time.Duration
}

var _ Adapter = (*BasicExternalAdapter)(nil)

// NewBasicExternalAdapter creates a basic adapter on an external backend.
func NewBasicExternalAdapter(strg storage.External, issuer *preauth.Issuer, endpoints Endpoints, actionLifetime, verifyLifetime time.Duration) *BasicExternalAdapter {
	return &BasicExternalAdapter{
		storage:        strg,
		issuer:         issuer,
		endpoints:      endpoints,
		actionLifetime: actionLifetime,
		verifyLifetime: verifyLifetime,
	}
}

// Name implements Adapter.
func (a *BasicExternalAdapter) Name() string {
	return lfs.TransferBasic
}

// Upload implements Adapter.
func (a *BasicExternalAdapter) Upload(ctx context.Context, org, repo string, obj lfs.BatchObject) (*lfs.ObjectResponse, error) {
	return planExternalUpload(ctx, a.storage, a.issuer, a.endpoints, org, repo, obj, a.actionLifetime, a.verifyLifetime)
}

// Download implements Adapter.
func (a *BasicExternalAdapter) Download(ctx context.Context, org, repo string, obj lfs.BatchObject) (*lfs.ObjectResponse, error) {
	return planExternalDownload(ctx, a.storage, org, repo, obj, a.actionLifetime)
}

// planExternalUpload plans a single-shot signed upload. The multipart
// adapter reuses it for objects at or below its part size.
func planExternalUpload(ctx context.Context, strg storage.External, issuer *preauth.Issuer, endpoints Endpoints, org, repo string, obj lfs.BatchObject, actionLifetime, verifyLifetime time.Duration) (*lfs.ObjectResponse, error) {
	resp := &lfs.ObjectResponse{Pointer: obj.Pointer}
	if obj.Size == 0 {
		// There are no bytes to move, the client skips the transfer.
		return resp, nil
	}
	prefix := path.Join(org, repo)

	err := strg.Verify(ctx, prefix, obj.Oid, obj.Size)
	if err == nil {
		return resp, nil
	}
	if !errors.Is(err, storage.ErrObjectNotFound) && !errors.Is(err, storage.ErrSizeMismatch) {
		return nil, err
	}

	upload, err := strg.UploadAction(ctx, prefix, obj.Oid, obj.Size, actionLifetime)
	if err != nil {
		return nil, err
	}
	verify, err := verifyAction(issuer, endpoints, org, repo, obj.Oid, verifyLifetime)
	if err != nil {
		return nil, err
	}

	resp.Authenticated = true
	resp.Actions = &lfs.ActionSet{
		Upload: upload,
		Verify: verify,
	}
	return resp, nil
}

// planExternalDownload plans a signed download, shared by the external and
// multipart adapters. Request extras pass through to the backend so the
// signed URL can serve the blob under its original filename.
func planExternalDownload(ctx context.Context, strg storage.External, org, repo string, obj lfs.BatchObject, actionLifetime time.Duration) (*lfs.ObjectResponse, error) {
	resp := &lfs.ObjectResponse{Pointer: obj.Pointer}
	prefix := path.Join(org, repo)

	size, err := strg.Size(ctx, prefix, obj.Oid)
	if errors.Is(err, storage.ErrObjectNotFound) {
		resp.Error = &lfs.ObjectError{Code: http.StatusNotFound, Message: "object does not exist"}
		return resp, nil
	}
	if err != nil {
		return nil, err
	}
	if size != obj.Size {
		resp.Error = &lfs.ObjectError{Code: http.StatusUnprocessableEntity, Message: "object size does not match"}
		return resp, nil
	}

	download, err := strg.DownloadAction(ctx, prefix, obj.Oid, obj.Size, actionLifetime, storage.DownloadExtra{
		Filename:    obj.Filename,
		Disposition: obj.Disposition,
	})
	if err != nil {
		return nil, err
	}

	resp.Authenticated = true
	resp.Actions = &lfs.ActionSet{
		Download: download,
	}
	return resp, nil
}
