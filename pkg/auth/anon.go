package auth

import (
	"net/http"

	"github.com/freighter-sh/freighter/pkg/access"
)

// AnonPolicy is the permission level granted to unauthenticated callers.
type AnonPolicy string

const (
	// AnonNone denies anonymous access.
	AnonNone AnonPolicy = "none"

	// AnonRead allows anonymous downloads and verification.
	AnonRead AnonPolicy = "read"

	// AnonWrite allows anonymous uploads as well. Useful for testing and
	// single-user deployments behind a trusted proxy.
	AnonWrite AnonPolicy = "write"
)

// Anonymous is a terminal authenticator granting a fixed permission level to
// every request. Place it last in the chain.
type Anonymous struct {
	identity Identity
}

var _ Authenticator = (*Anonymous)(nil)

// NewAnonymous returns an anonymous authenticator for the given policy.
func NewAnonymous(policy AnonPolicy) *Anonymous {
	id := NewStaticIdentity("anonymous")
	switch policy {
	case AnonRead:
		id.Allow("", "", "", access.ReadPermission, access.ReadMetaPermission)
	case AnonWrite:
		id.Allow("", "", "", access.ReadPermission, access.ReadMetaPermission, access.WritePermission)
	}
	return &Anonymous{identity: id}
}

// Authenticate implements Authenticator.
func (a *Anonymous) Authenticate(_ *http.Request) (Identity, error) {
	return a.identity, nil
}
