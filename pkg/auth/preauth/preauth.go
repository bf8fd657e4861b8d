// Package preauth mints and verifies self-verifying action descriptors.
//
// Actions that call back into this server (verify, multipart commit and
// abort, streaming uploads and downloads) carry a signed token scoped to a
// repository, an object and a set of action names. The token itself is the
// proof of authorization, so the server holds no session state between the
// batch request and the follow-up calls.
package preauth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned when a token fails verification.
var ErrInvalidToken = errors.New("invalid token")

// Claims are the token claims of a pre-authorized action descriptor.
type Claims struct {
	Org     string   `json:"org"`
	Repo    string   `json:"repo"`
	Oid     string   `json:"oid,omitempty"`
	Actions []string `json:"actions,omitempty"`
	jwt.RegisteredClaims
}

// Permits reports whether the claims cover the named action on the given
// object. An empty claims oid covers all objects in the repository.
func (c *Claims) Permits(org, repo, oid, action string) bool {
	if c.Org != org || c.Repo != repo {
		return false
	}
	if c.Oid != "" && c.Oid != oid {
		return false
	}
	for _, a := range c.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// Issuer mints and verifies pre-authorized action tokens.
type Issuer struct {
	pair   Pair
	issuer string
}

// NewIssuer returns an issuer signing with the given key pair. The issuer
// string is embedded in and required from every token; the server's public
// URL is a good choice.
func NewIssuer(pair Pair, issuer string) *Issuer {
	return &Issuer{pair: pair, issuer: issuer}
}

// Issue mints a token authorizing the given actions on one object for ttl.
func (i *Issuer) Issue(org, repo, oid string, actions []string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Org:     org,
		Repo:    repo,
		Oid:     oid,
		Actions: actions,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(SigningMethod, claims)
	token.Header["kid"] = i.pair.JWK().KeyID
	signed, err := token.SignedString(i.pair.PrivateKey())
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// Headers returns the authorization header for a pre-authorized action.
func (i *Issuer) Headers(org, repo, oid string, actions []string, ttl time.Duration) (map[string]string, error) {
	token, err := i.Issue(org, repo, oid, actions, ttl)
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"Authorization": "Bearer " + token,
	}, nil
}

// Verify parses and verifies a token, returning its claims.
func (i *Issuer) Verify(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, errors.New("invalid signing method")
		}

		return i.pair.JWK().Key, nil
	},
		jwt.WithIssuer(i.issuer),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !parsed.Valid || !ok {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
