package preauth

import (
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/freighter-sh/freighter/pkg/access"
	"github.com/freighter-sh/freighter/pkg/auth"
	"github.com/freighter-sh/freighter/pkg/config"
	"github.com/matryer/is"
)

func testIssuer(t *testing.T) *Issuer {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DataPath = t.TempDir()
	cfg.Auth.KeyPath = filepath.Join(cfg.DataPath, "freighter_ed25519")

	pair, err := NewPair(cfg)
	if err != nil {
		t.Fatalf("NewPair() => %v", err)
	}

	return NewIssuer(pair, "http://localhost:23232")
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	is := is.New(t)
	issuer := testIssuer(t)

	token, err := issuer.Issue("my-org", "my-repo", "abc123", []string{"commit", "abort"}, time.Hour)
	is.NoErr(err)

	claims, err := issuer.Verify(token)
	is.NoErr(err)
	is.Equal(claims.Org, "my-org")
	is.Equal(claims.Repo, "my-repo")
	is.Equal(claims.Oid, "abc123")
	is.True(claims.Permits("my-org", "my-repo", "abc123", "commit"))
	is.True(!claims.Permits("my-org", "my-repo", "abc123", "upload"))
	is.True(!claims.Permits("my-org", "other-repo", "abc123", "commit"))
	is.True(!claims.Permits("my-org", "my-repo", "def456", "commit"))
}

func TestVerifyRejectsExpired(t *testing.T) {
	issuer := testIssuer(t)

	token, err := issuer.Issue("org", "repo", "oid", []string{"verify"}, -time.Minute)
	if err != nil {
		t.Fatalf("Issue() => %v", err)
	}

	if _, err := issuer.Verify(token); err != ErrInvalidToken {
		t.Errorf("Verify(expired) => %v, want %v", err, ErrInvalidToken)
	}
}

func TestVerifyRejectsForeignToken(t *testing.T) {
	issuer := testIssuer(t)
	other := testIssuer(t)

	token, err := other.Issue("org", "repo", "oid", []string{"verify"}, time.Hour)
	if err != nil {
		t.Fatalf("Issue() => %v", err)
	}

	if _, err := issuer.Verify(token); err != ErrInvalidToken {
		t.Errorf("Verify(foreign) => %v, want %v", err, ErrInvalidToken)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	issuer := testIssuer(t)
	if _, err := issuer.Verify("not-a-token"); err != ErrInvalidToken {
		t.Errorf("Verify(garbage) => %v, want %v", err, ErrInvalidToken)
	}
}

func TestAuthenticatorScopesIdentity(t *testing.T) {
	is := is.New(t)
	issuer := testIssuer(t)
	authn := NewAuthenticator(issuer, 10)

	headers, err := issuer.Headers("org", "repo", "abc123", []string{"upload", "verify"}, time.Hour)
	is.NoErr(err)

	r, _ := http.NewRequest(http.MethodPut, "/org/repo/objects/storage/abc123", nil)
	r.Header.Set("Authorization", headers["Authorization"])

	id, err := authn.Authenticate(r)
	is.NoErr(err)
	is.True(id.IsAuthorized("org", "repo", access.WritePermission, "abc123"))
	is.True(id.IsAuthorized("org", "repo", access.ReadMetaPermission, "abc123"))
	is.True(!id.IsAuthorized("org", "repo", access.ReadPermission, "abc123"))
	is.True(!id.IsAuthorized("org", "repo", access.WritePermission, "def456"))

	// Second call hits the cache.
	cached, err := authn.Authenticate(r)
	is.NoErr(err)
	is.Equal(id, cached)
}

func TestAuthenticatorIgnoresMissingHeader(t *testing.T) {
	issuer := testIssuer(t)
	authn := NewAuthenticator(issuer, 10)

	r, _ := http.NewRequest(http.MethodGet, "/", nil)
	if _, err := authn.Authenticate(r); err != auth.ErrNoIdentity {
		t.Errorf("Authenticate(no header) => %v, want %v", err, auth.ErrNoIdentity)
	}
}
