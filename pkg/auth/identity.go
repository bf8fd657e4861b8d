package auth

import "github.com/freighter-sh/freighter/pkg/access"

// Identity is an authenticated caller. It carries whatever the authenticator
// learned about the caller plus a pure authorization predicate.
type Identity interface {
	// Name returns a human readable identifier for logging.
	Name() string

	// IsAuthorized reports whether the identity may perform an operation
	// requiring the given permission on a repository, or on a single object
	// within it when oid is non-empty.
	IsAuthorized(org, repo string, perm access.Permission, oid string) bool
}

// grant is a single permission grant. Empty org, repo or oid match anything.
type grant struct {
	org, repo, oid string
	perms          map[access.Permission]struct{}
}

func (g grant) matches(org, repo, oid string) bool {
	if g.org != "" && g.org != org {
		return false
	}
	if g.repo != "" && g.repo != repo {
		return false
	}
	if g.oid != "" && g.oid != oid {
		return false
	}
	return true
}

// StaticIdentity is an Identity with an explicit set of grants. It is the
// default identity implementation used by built-in authenticators and tests.
type StaticIdentity struct {
	name   string
	grants []grant
}

var _ Identity = (*StaticIdentity)(nil)

// NewStaticIdentity returns an identity with no grants.
func NewStaticIdentity(name string) *StaticIdentity {
	return &StaticIdentity{name: name}
}

// Allow adds a grant. Empty org, repo or oid act as wildcards.
func (s *StaticIdentity) Allow(org, repo, oid string, perms ...access.Permission) *StaticIdentity {
	set := make(map[access.Permission]struct{}, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	s.grants = append(s.grants, grant{org: org, repo: repo, oid: oid, perms: set})
	return s
}

// Name implements Identity.
func (s *StaticIdentity) Name() string { return s.name }

// IsAuthorized implements Identity.
func (s *StaticIdentity) IsAuthorized(org, repo string, perm access.Permission, oid string) bool {
	for _, g := range s.grants {
		if !g.matches(org, repo, oid) {
			continue
		}
		if _, ok := g.perms[perm]; ok {
			return true
		}
	}
	return false
}
