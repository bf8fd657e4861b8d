// Package transfer implements the Git LFS transfer adapters and their
// negotiation.
//
// An adapter turns one batch object into an action plan. Which adapter
// serves a request is negotiated from the client's ordered transfer-mode
// preferences and the modes configured on the server, falling back to the
// mandatory "basic" mode.
package transfer

import (
	"context"
	"errors"

	"github.com/freighter-sh/freighter/pkg/lfs"
)

// ErrNoAdapter is returned when negotiation cannot produce an adapter. The
// baseline adapter is always registered, so this indicates a server
// configuration fault.
var ErrNoAdapter = errors.New("no matching transfer adapter")

// Adapter plans the actions a client must perform to transfer one object.
//
// Object-level problems (missing object, size mismatch) are reported inside
// the returned response; a non-nil error means planning itself failed and is
// treated as a server fault.
type Adapter interface {
	Name() string
	Upload(ctx context.Context, org, repo string, obj lfs.BatchObject) (*lfs.ObjectResponse, error)
	Download(ctx context.Context, org, repo string, obj lfs.BatchObject) (*lfs.ObjectResponse, error)
}

// Registry holds the configured transfer adapters.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry returns an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register adds an adapter under its own name.
func (r *Registry) Register(a Adapter) {
	r.adapters[a.Name()] = a
}

// Get returns the adapter registered under name.
func (r *Registry) Get(name string) (Adapter, bool) {
	a, ok := r.adapters[name]
	return a, ok
}

// Match negotiates an adapter from the client's transfer-mode preferences.
//
// The requested list is iterated in client priority order and the first
// configured mode wins; ties favor earlier entries, never configuration
// order. An empty list, or a list matching nothing, falls back to the
// baseline "basic" mode.
func (r *Registry) Match(requested []string) (string, Adapter, error) {
	for _, name := range requested {
		if a, ok := r.adapters[name]; ok {
			return name, a, nil
		}
	}

	if a, ok := r.adapters[lfs.TransferBasic]; ok {
		return lfs.TransferBasic, a, nil
	}

	return "", nil, ErrNoAdapter
}

// ResolveName returns the transfer name to report for a planned batch.
//
// The multipart adapter degrades small objects to single-shot uploads; when
// every object in an upload batch came out basic-shaped the response
// advertises the baseline mode, so clients run their plain basic flow.
func ResolveName(name, operation string, objects []*lfs.ObjectResponse) string {
	if name != lfs.TransferMultipartBasic || operation != lfs.OperationUpload {
		return name
	}

	for _, o := range objects {
		a := o.Actions
		if a == nil {
			continue
		}
		if len(a.Parts) > 0 || a.Init != nil || a.Commit != nil || a.Abort != nil {
			return name
		}
	}

	return lfs.TransferBasic
}
