// Package auth provides request authentication for freighter.
//
// Authenticators are evaluated in order; the first one to produce an
// identity wins. This lets deployments chain, say, a pre-authorized token
// verifier in front of an anonymous-access policy.
package auth

import (
	"errors"
	"net/http"
)

// ErrNoIdentity is returned by an authenticator that cannot identify the
// caller. The chain moves on to the next authenticator.
var ErrNoIdentity = errors.New("no identity")

// Authenticator authenticates an HTTP request and produces an identity.
type Authenticator interface {
	Authenticate(r *http.Request) (Identity, error)
}

// Chain is an ordered list of authenticators with first-match semantics.
type Chain struct {
	authenticators []Authenticator
}

// NewChain returns a chain of the given authenticators, evaluated in order.
func NewChain(authenticators ...Authenticator) *Chain {
	return &Chain{authenticators: authenticators}
}

// Authenticate runs the chain. It returns ErrNoIdentity if no authenticator
// could identify the caller.
func (c *Chain) Authenticate(r *http.Request) (Identity, error) {
	for _, a := range c.authenticators {
		id, err := a.Authenticate(r)
		if errors.Is(err, ErrNoIdentity) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return id, nil
	}
	return nil, ErrNoIdentity
}
