package transfer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/freighter-sh/freighter/pkg/auth/preauth"
	"github.com/freighter-sh/freighter/pkg/lfs"
	"github.com/freighter-sh/freighter/pkg/storage"
)

// CommitRequest is the body of a multipart commit or abort action. It is
// self-describing so the server needs no session table: the opaque upload id
// and the planned part count travel with the request.
type CommitRequest struct {
	Oid      string `json:"oid"`
	Size     int64  `json:"size"`
	Parts    int    `json:"parts"`
	UploadID string `json:"upload_id"`
}

// MultipartAdapter serves the multipart-basic transfer extension on a
// backend with chunked-upload support.
//
// The backend session is established during planning, so object responses
// carry no init action. Objects at or below the part size degrade to a plain
// single-shot plan.
type MultipartAdapter struct {
	storage        storage.Multipart
	issuer         *preauth.Issuer
	endpoints      Endpoints
	maxPartSize    int64
	actionLifetime time.Duration
	verifyLifetime time.Duration
	wantDigest     string
}

var _ Adapter = (*MultipartAdapter)(nil)

// NewMultipartAdapter creates a multipart-basic adapter.
func NewMultipartAdapter(strg storage.Multipart, issuer *preauth.Issuer, endpoints Endpoints, maxPartSize int64, actionLifetime, verifyLifetime time.Duration, wantDigest string) *MultipartAdapter {
	return &MultipartAdapter{
		storage:        strg,
		issuer:         issuer,
		endpoints:      endpoints,
		maxPartSize:    maxPartSize,
		actionLifetime: actionLifetime,
		verifyLifetime: verifyLifetime,
		wantDigest:     wantDigest,
	}
}

// Name implements Adapter.
func (a *MultipartAdapter) Name() string {
	return lfs.TransferMultipartBasic
}

// Upload implements Adapter.
func (a *MultipartAdapter) Upload(ctx context.Context, org, repo string, obj lfs.BatchObject) (*lfs.ObjectResponse, error) {
	if obj.Size <= a.maxPartSize {
		return planExternalUpload(ctx, a.storage, a.issuer, a.endpoints, org, repo, obj, a.actionLifetime, a.verifyLifetime)
	}

	resp := &lfs.ObjectResponse{Pointer: obj.Pointer}
	prefix := path.Join(org, repo)

	err := a.storage.Verify(ctx, prefix, obj.Oid, obj.Size)
	if err == nil {
		return resp, nil
	}
	if !errors.Is(err, storage.ErrObjectNotFound) && !errors.Is(err, storage.ErrSizeMismatch) {
		return nil, err
	}

	session, err := a.storage.InitMultipart(ctx, prefix, obj.Oid, obj.Size)
	if err != nil {
		return nil, err
	}
	uploaded, err := a.storage.UploadedParts(ctx, prefix, obj.Oid, session)
	if err != nil {
		return nil, err
	}

	chunks := splitChunks(obj.Size, a.maxPartSize)
	parts := make([]*lfs.Link, 0, len(chunks))
	for i, c := range chunks {
		if size, ok := uploaded[i]; ok && size == c.size {
			continue
		}
		part, err := a.storage.PartAction(ctx, prefix, obj.Oid, session, i, c.pos, c.size, a.actionLifetime)
		if err != nil {
			return nil, err
		}
		if a.wantDigest != "" {
			part.WantDigest = a.wantDigest
		}
		parts = append(parts, part)
	}

	body, err := json.Marshal(CommitRequest{
		Oid:      obj.Oid,
		Size:     obj.Size,
		Parts:    len(chunks),
		UploadID: session,
	})
	if err != nil {
		return nil, fmt.Errorf("encode commit body: %w", err)
	}

	commit, err := a.serverAction(org, repo, obj.Oid, lfs.ActionCommit, string(body))
	if err != nil {
		return nil, err
	}
	abort, err := a.serverAction(org, repo, obj.Oid, lfs.ActionAbort, string(body))
	if err != nil {
		return nil, err
	}
	verify, err := verifyAction(a.issuer, a.endpoints, org, repo, obj.Oid, a.verifyLifetime)
	if err != nil {
		return nil, err
	}

	resp.Authenticated = true
	resp.Actions = &lfs.ActionSet{
		Parts:  parts,
		Commit: commit,
		Abort:  abort,
		Verify: verify,
	}
	return resp, nil
}

// Download implements Adapter. Downloads are untouched by the multipart
// extension.
func (a *MultipartAdapter) Download(ctx context.Context, org, repo string, obj lfs.BatchObject) (*lfs.ObjectResponse, error) {
	return planExternalDownload(ctx, a.storage, org, repo, obj, a.actionLifetime)
}

// serverAction builds a commit or abort action pointing back at this server.
func (a *MultipartAdapter) serverAction(org, repo, oid, action, body string) (*lfs.Link, error) {
	header, err := a.issuer.Headers(org, repo, oid, []string{action}, a.actionLifetime)
	if err != nil {
		return nil, err
	}
	header["Content-Type"] = lfs.MediaType

	return &lfs.Link{
		Href:      a.endpoints.MultipartURL(org, repo, oid, action),
		Header:    header,
		Body:      body,
		ExpiresIn: int64(a.actionLifetime.Seconds()),
	}, nil
}

type chunk struct {
	pos  int64
	size int64
}

// splitChunks tiles size into partSize chunks plus a smaller tail. The
// boundaries depend only on size and partSize, so replanning an interrupted
// upload reproduces them exactly.
func splitChunks(size, partSize int64) []chunk {
	var chunks []chunk
	for pos := int64(0); pos < size; pos += partSize {
		c := chunk{pos: pos, size: partSize}
		if remain := size - pos; remain < partSize {
			c.size = remain
		}
		chunks = append(chunks, c)
	}
	return chunks
}
