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

// BasicStreamingAdapter serves the basic transfer protocol from a backend
// whose object bytes pass through this server.
type BasicStreamingAdapter struct {
	storage        storage.Streaming
	issuer         *preauth.Issuer
	endpoints      Endpoints
	actionLifetime time.Duration
	verifyLifetime time.Duration
}

var _ Adapter = (*BasicStreamingAdapter)(nil)

// NewBasicStreamingAdapter creates a basic adapter on a streaming backend.
func NewBasicStreamingAdapter(strg storage.Streaming, issuer *preauth.Issuer, endpoints Endpoints, actionLifetime, verifyLifetime time.Duration) *BasicStreamingAdapter {
	return &BasicStreamingAdapter{
		storage:        strg,
		issuer:         issuer,
		endpoints:      endpoints,
		actionLifetime: actionLifetime,
		verifyLifetime: verifyLifetime,
	}
}

// Name implements Adapter.
func (a *BasicStreamingAdapter) Name() string {
	return lfs.TransferBasic
}

// Upload implements Adapter. An object already stored with the right size,
// or an empty one, gets an empty action plan, which tells the client to skip
// the transfer.
func (a *BasicStreamingAdapter) Upload(ctx context.Context, org, repo string, obj lfs.BatchObject) (*lfs.ObjectResponse, error) {
	resp := &lfs.ObjectResponse{Pointer: obj.Pointer}
	if obj.Size == 0 {
		return resp, nil
	}
	prefix := path.Join(org, repo)

	err := a.storage.Verify(ctx, prefix, obj.Oid, obj.Size)
	if err == nil {
		return resp, nil
	}
	if !errors.Is(err, storage.ErrObjectNotFound) && !errors.Is(err, storage.ErrSizeMismatch) {
		return nil, err
	}

	upload, err := a.issuer.Headers(org, repo, obj.Oid, []string{lfs.ActionUpload}, a.actionLifetime)
	if err != nil {
		return nil, err
	}
	verify, err := verifyAction(a.issuer, a.endpoints, org, repo, obj.Oid, a.verifyLifetime)
	if err != nil {
		return nil, err
	}

	resp.Authenticated = true
	resp.Actions = &lfs.ActionSet{
		Upload: &lfs.Link{
			Href:      a.endpoints.ObjectURL(org, repo, obj.Oid),
			Header:    upload,
			ExpiresIn: int64(a.actionLifetime.Seconds()),
		},
		Verify: verify,
	}
	return resp, nil
}

// Download implements Adapter.
func (a *BasicStreamingAdapter) Download(ctx context.Context, org, repo string, obj lfs.BatchObject) (*lfs.ObjectResponse, error) {
	resp := &lfs.ObjectResponse{Pointer: obj.Pointer}
	prefix := path.Join(org, repo)

	size, err := a.storage.Size(ctx, prefix, obj.Oid)
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

	download, err := a.issuer.Headers(org, repo, obj.Oid, []string{lfs.ActionDownload}, a.actionLifetime)
	if err != nil {
		return nil, err
	}

	resp.Authenticated = true
	resp.Actions = &lfs.ActionSet{
		Download: &lfs.Link{
			Href:      a.endpoints.ObjectURL(org, repo, obj.Oid),
			Header:    download,
			ExpiresIn: int64(a.actionLifetime.Seconds()),
		},
	}
	return resp, nil
}

// verifyAction builds the post-upload verification action all upload plans
// carry. Its token outlives the upload actions so slow transfers can still
// verify.
func verifyAction(issuer *preauth.Issuer, endpoints Endpoints, org, repo, oid string, lifetime time.Duration) (*lfs.Link, error) {
	header, err := issuer.Headers(org, repo, oid, []string{lfs.ActionVerify}, lifetime)
	if err != nil {
		return nil, err
	}
	header["Content-Type"] = lfs.MediaType

	return &lfs.Link{
		Href:      endpoints.VerifyURL(org, repo),
		Header:    header,
		ExpiresIn: int64(lifetime.Seconds()),
	}, nil
}
