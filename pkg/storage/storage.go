// Package storage defines the capability contracts a backend may satisfy
// and the built-in backends.
//
// Transfer adapters are paired with backends by capability presence, not by
// concrete type: the basic streaming adapter needs a Streaming backend, the
// external and multipart adapters need External and Multipart backends.
package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/freighter-sh/freighter/pkg/lfs"
)

var (
	// ErrObjectNotFound is returned when an object does not exist in storage.
	ErrObjectNotFound = errors.New("object not found")

	// ErrSizeMismatch is returned when an object exists with the wrong size.
	ErrSizeMismatch = errors.New("object size mismatch")
)

// Storage is the base contract every backend satisfies.
type Storage interface {
	// Exists reports whether the object exists.
	Exists(ctx context.Context, prefix, oid string) (bool, error)

	// Size returns the stored size of the object, or ErrObjectNotFound.
	Size(ctx context.Context, prefix, oid string) (int64, error)
}

// Verifiable is a backend that can verify an uploaded object. All built-in
// backends are verifiable.
type Verifiable interface {
	Storage

	// Verify checks that the object exists with the given size. It returns
	// ErrObjectNotFound or ErrSizeMismatch otherwise.
	Verify(ctx context.Context, prefix, oid string, size int64) error
}

// Streaming is a backend whose bytes are streamed through this server.
type Streaming interface {
	Verifiable

	// Get opens the object for reading.
	Get(ctx context.Context, prefix, oid string) (io.ReadCloser, error)

	// Put writes the object from r and returns the number of bytes written.
	Put(ctx context.Context, prefix, oid string, r io.Reader) (int64, error)
}

// External is a backend that clients talk to directly using signed URLs. No
// object bytes pass through this server.
type External interface {
	Verifiable

	// UploadAction returns a signed single-shot upload action.
	UploadAction(ctx context.Context, prefix, oid string, size int64, expiresIn time.Duration) (*lfs.Link, error)

	// DownloadAction returns a signed download action.
	DownloadAction(ctx context.Context, prefix, oid string, size int64, expiresIn time.Duration, extra DownloadExtra) (*lfs.Link, error)
}

// DownloadExtra carries the optional request extras that tune a signed
// download action.
type DownloadExtra struct {
	// Filename, when set, makes the signed URL serve the blob under this
	// name via Content-Disposition.
	Filename string

	// Disposition is the disposition type used with Filename. Empty means
	// "attachment".
	Disposition string
}

// Multipart is a backend supporting chunked uploads. Downloads and
// single-shot uploads use the External contract unchanged.
type Multipart interface {
	External

	// InitMultipart starts, or resumes, a multipart upload and returns an
	// opaque session identifier. Calling it again for the same object must
	// return the same session while the upload is in progress, so that
	// planning stays idempotent.
	InitMultipart(ctx context.Context, prefix, oid string, size int64) (string, error)

	// PartAction returns a signed upload action for one chunk. index is the
	// zero-based chunk number, pos its byte offset and size its length.
	PartAction(ctx context.Context, prefix, oid, session string, index int, pos, size int64, expiresIn time.Duration) (*lfs.Link, error)

	// UploadedParts returns the chunks already stored for the session, as a
	// map of zero-based chunk index to stored size.
	UploadedParts(ctx context.Context, prefix, oid, session string) (map[int]int64, error)

	// CompleteMultipart finalizes the upload from its stored parts.
	CompleteMultipart(ctx context.Context, prefix, oid, session string, size int64) error

	// AbortMultipart discards the session and any stored parts.
	AbortMultipart(ctx context.Context, prefix, oid, session string) error
}
