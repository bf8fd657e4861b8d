package preauth

import (
	"net/http"
	"strings"
	"time"

	"github.com/freighter-sh/freighter/pkg/access"
	"github.com/freighter-sh/freighter/pkg/auth"
	lru "github.com/hashicorp/golang-lru/v2"
)

// actionPermissions maps pre-authorized action names to the permission they
// carry.
var actionPermissions = map[string]access.Permission{
	"upload":   access.WritePermission,
	"download": access.ReadPermission,
	"verify":   access.ReadMetaPermission,
	"commit":   access.WritePermission,
	"abort":    access.WritePermission,
}

// tokenIdentity is the identity behind a verified pre-authorized token. It
// is only authorized for the actions and object the token was minted for.
type tokenIdentity struct {
	claims *Claims
}

var _ auth.Identity = (*tokenIdentity)(nil)

func (t *tokenIdentity) Name() string {
	return "preauth:" + t.claims.ID
}

func (t *tokenIdentity) IsAuthorized(org, repo string, perm access.Permission, oid string) bool {
	for _, action := range t.claims.Actions {
		if actionPermissions[action] != perm {
			continue
		}
		if t.claims.Permits(org, repo, oid, action) {
			return true
		}
	}
	return false
}

// Authenticator verifies bearer tokens minted by the Issuer. Verified
// identities are kept in a bounded LRU cache so repeated part or commit
// calls do not pay for signature checks.
type Authenticator struct {
	issuer *Issuer
	cache  *lru.Cache[string, *tokenIdentity]
}

var _ auth.Authenticator = (*Authenticator)(nil)

// NewAuthenticator returns an authenticator for tokens minted by issuer.
func NewAuthenticator(issuer *Issuer, cacheSize int) *Authenticator {
	if cacheSize <= 0 {
		cacheSize = 1
	}
	cache, _ := lru.New[string, *tokenIdentity](cacheSize)
	return &Authenticator{issuer: issuer, cache: cache}
}

// Authenticate implements auth.Authenticator.
func (a *Authenticator) Authenticate(r *http.Request) (auth.Identity, error) {
	hdr := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(hdr, "Bearer ")
	if !ok || token == "" {
		return nil, auth.ErrNoIdentity
	}

	if id, ok := a.cache.Get(token); ok {
		if id.claims.ExpiresAt != nil && time.Now().After(id.claims.ExpiresAt.Time) {
			a.cache.Remove(token)
			return nil, auth.ErrNoIdentity
		}
		return id, nil
	}

	claims, err := a.issuer.Verify(token)
	if err != nil {
		// An invalid bearer token is not necessarily ours; let the rest of
		// the chain have a look.
		return nil, auth.ErrNoIdentity
	}

	id := &tokenIdentity{claims: claims}
	a.cache.Add(token, id)
	return id, nil
}
