package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/freighter-sh/freighter/pkg/auth"
	"github.com/freighter-sh/freighter/pkg/auth/preauth"
	"github.com/freighter-sh/freighter/pkg/config"
	"github.com/freighter-sh/freighter/pkg/lfs"
	"github.com/freighter-sh/freighter/pkg/storage"
	"github.com/freighter-sh/freighter/pkg/transfer"
)

const (
	testOid      = "4d7a214614ab2935c943f9e0ff69d22eadbb8f32b1258daaa5e2ca24d17e2393"
	testOid2     = "5891b5b522d5df086d0ff0b110fbd9d21bb4fc7163af34d08286a2e846f6be03"
	testOid3     = "e258d248fda94c63753607f7c4494ee0fcbe92f1a76bfdac795c9d84101eb317"
	testPartSize = 10000000
)

type testServer struct {
	handler http.Handler
	issuer  *preauth.Issuer
	storage storage.Storage
}

// newTestServer wires a router around the given backend and authenticators,
// the way the serve command does in production.
func newTestServer(t *testing.T, strg storage.Storage, authns ...auth.Authenticator) *testServer {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.DataPath = t.TempDir()
	cfg.Auth.KeyPath = filepath.Join(cfg.DataPath, "freighter_ed25519")
	cfg.HTTP.PublicURL = "http://localhost:23232"
	cfg.Transfer.MaxPartSize = testPartSize

	pair, err := preauth.NewPair(cfg)
	if err != nil {
		t.Fatalf("NewPair() => %v", err)
	}
	issuer := preauth.NewIssuer(pair, cfg.HTTP.PublicURL)

	endpoints := transfer.NewEndpoints(cfg.HTTP.PublicURL)
	actionLifetime := time.Duration(cfg.Transfer.ActionLifetime) * time.Second
	verifyLifetime := time.Duration(cfg.Transfer.VerifyLifetime) * time.Second

	registry := transfer.NewRegistry()
	if s, ok := strg.(storage.Multipart); ok {
		registry.Register(transfer.NewBasicExternalAdapter(s, issuer, endpoints, actionLifetime, verifyLifetime))
		registry.Register(transfer.NewMultipartAdapter(s, issuer, endpoints, cfg.Transfer.MaxPartSize, actionLifetime, verifyLifetime, cfg.Transfer.WantDigest))
	} else if s, ok := strg.(storage.Streaming); ok {
		registry.Register(transfer.NewBasicStreamingAdapter(s, issuer, endpoints, actionLifetime, verifyLifetime))
	}

	chain := auth.NewChain(append([]auth.Authenticator{preauth.NewAuthenticator(issuer, 10)}, authns...)...)

	ctx := config.WithContext(context.TODO(), cfg)
	ctx = log.WithContext(ctx, log.New(io.Discard))
	ctx = storage.WithContext(ctx, strg)
	ctx = transfer.WithContext(ctx, registry)
	ctx = auth.ChainWithContext(ctx, chain)

	return &testServer{
		handler: NewRouter(ctx),
		issuer:  issuer,
		storage: strg,
	}
}

func (s *testServer) do(t *testing.T, r *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, r)
	return w
}

func lfsRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()
	buf := new(bytes.Buffer)
	if body != nil {
		if err := json.NewEncoder(buf).Encode(body); err != nil {
			t.Fatalf("encode request: %v", err)
		}
	}
	r := httptest.NewRequest(method, target, buf)
	r.Header.Set("Content-Type", lfs.MediaType)
	r.Header.Set("Accept", lfs.MediaType)
	return r
}

func batchObjs(ptrs ...lfs.Pointer) []lfs.BatchObject {
	objs := make([]lfs.BatchObject, 0, len(ptrs))
	for _, p := range ptrs {
		objs = append(objs, lfs.BatchObject{Pointer: p})
	}
	return objs
}

func decodeBatch(t *testing.T, w *httptest.ResponseRecorder) lfs.BatchResponse {
	t.Helper()
	var resp lfs.BatchResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

// staticAuthenticator identifies every request as the same identity.
type staticAuthenticator struct {
	id auth.Identity
}

func (a staticAuthenticator) Authenticate(*http.Request) (auth.Identity, error) {
	return a.id, nil
}
