package web

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/freighter-sh/freighter/pkg/access"
	"github.com/freighter-sh/freighter/pkg/auth"
	"github.com/freighter-sh/freighter/pkg/lfs"
	"github.com/freighter-sh/freighter/pkg/storage"
	"github.com/matryer/is"
)

func TestBatchRejectsNonLfsContentType(t *testing.T) {
	srv := newTestServer(t, storage.NewLocalStorage(t.TempDir()), staticAuthenticator{id: anonWriter()})

	r := lfsRequest(t, http.MethodPost, "/org/repo/objects/batch", lfs.BatchRequest{
		Operation: lfs.OperationUpload,
		Objects:   batchObjs(lfs.Pointer{Oid: testOid, Size: 123}),
	})
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set("Accept", "application/json")

	if w := srv.do(t, r); w.Code != http.StatusNotAcceptable {
		t.Errorf("status => %d, want %d", w.Code, http.StatusNotAcceptable)
	}
}

func TestBatchValidation(t *testing.T) {
	srv := newTestServer(t, storage.NewLocalStorage(t.TempDir()), staticAuthenticator{id: anonWriter()})

	cases := []struct {
		name string
		req  lfs.BatchRequest
		code int
	}{
		{
			"unknown operation",
			lfs.BatchRequest{Operation: "delete", Objects: batchObjs(lfs.Pointer{Oid: testOid, Size: 1})},
			http.StatusUnprocessableEntity,
		},
		{
			"no objects",
			lfs.BatchRequest{Operation: lfs.OperationUpload},
			http.StatusUnprocessableEntity,
		},
		{
			"unsupported hash algorithm",
			lfs.BatchRequest{Operation: lfs.OperationUpload, HashAlgo: "sha512", Objects: batchObjs(lfs.Pointer{Oid: testOid, Size: 1})},
			http.StatusConflict,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := srv.do(t, lfsRequest(t, http.MethodPost, "/org/repo/objects/batch", c.req))
			if w.Code != c.code {
				t.Errorf("status => %d, want %d", w.Code, c.code)
			}
		})
	}
}

func TestBatchRequiresIdentity(t *testing.T) {
	// Chain with only the token authenticator; the request carries no token.
	srv := newTestServer(t, storage.NewLocalStorage(t.TempDir()))

	w := srv.do(t, lfsRequest(t, http.MethodPost, "/org/repo/objects/batch", lfs.BatchRequest{
		Operation: lfs.OperationUpload,
		Objects:   batchObjs(lfs.Pointer{Oid: testOid, Size: 123}),
	}))

	is := is.New(t)
	is.Equal(w.Code, http.StatusUnauthorized)
	is.True(w.Header().Get("LFS-Authenticate") != "")
}

func TestBatchUploadPlansObjects(t *testing.T) {
	is := is.New(t)
	srv := newTestServer(t, storage.NewLocalStorage(t.TempDir()), staticAuthenticator{id: anonWriter()})

	w := srv.do(t, lfsRequest(t, http.MethodPost, "/org/repo/objects/batch", lfs.BatchRequest{
		Operation: lfs.OperationUpload,
		Objects: batchObjs(
			lfs.Pointer{Oid: testOid, Size: 123},
			lfs.Pointer{Oid: testOid2, Size: 456},
		),
	}))

	is.Equal(w.Code, http.StatusOK)
	is.Equal(w.Header().Get("Content-Type"), lfs.MediaType)

	resp := decodeBatch(t, w)
	is.Equal(resp.Transfer, lfs.TransferBasic)
	is.Equal(resp.HashAlgo, lfs.HashAlgorithmSHA256)
	is.Equal(len(resp.Objects), 2)
	for _, o := range resp.Objects {
		is.True(o.Error == nil)
		is.True(o.HasAction(lfs.ActionUpload))
		is.True(o.HasAction(lfs.ActionVerify))
	}
}

func TestBatchAuthorizationIsolation(t *testing.T) {
	is := is.New(t)

	// Write access to two of the three objects, metadata access repo-wide.
	id := auth.NewStaticIdentity("alice")
	id.Allow("org", "repo", "", access.ReadMetaPermission)
	id.Allow("org", "repo", testOid, access.WritePermission)
	id.Allow("org", "repo", testOid2, access.WritePermission)

	srv := newTestServer(t, storage.NewLocalStorage(t.TempDir()), staticAuthenticator{id: id})

	w := srv.do(t, lfsRequest(t, http.MethodPost, "/org/repo/objects/batch", lfs.BatchRequest{
		Operation: lfs.OperationUpload,
		Objects: batchObjs(
			lfs.Pointer{Oid: testOid, Size: 123},
			lfs.Pointer{Oid: testOid2, Size: 456},
			lfs.Pointer{Oid: testOid3, Size: 789},
		),
	}))

	is.Equal(w.Code, http.StatusOK)
	resp := decodeBatch(t, w)
	is.Equal(len(resp.Objects), 3)
	is.True(resp.Objects[0].HasAction(lfs.ActionUpload))
	is.True(resp.Objects[1].HasAction(lfs.ActionUpload))
	is.Equal(resp.Objects[2].Error.Code, http.StatusForbidden)
}

func TestBatchHidesObjectsWithoutMetaAccess(t *testing.T) {
	is := is.New(t)

	id := auth.NewStaticIdentity("bob")
	id.Allow("org", "repo", testOid, access.WritePermission)

	srv := newTestServer(t, storage.NewLocalStorage(t.TempDir()), staticAuthenticator{id: id})

	w := srv.do(t, lfsRequest(t, http.MethodPost, "/org/repo/objects/batch", lfs.BatchRequest{
		Operation: lfs.OperationUpload,
		Objects: batchObjs(
			lfs.Pointer{Oid: testOid, Size: 123},
			lfs.Pointer{Oid: testOid2, Size: 456},
		),
	}))

	is.Equal(w.Code, http.StatusOK)
	resp := decodeBatch(t, w)
	is.Equal(resp.Objects[1].Error.Code, http.StatusNotFound)
}

func TestBatchDownloadAllMissingIs404(t *testing.T) {
	is := is.New(t)
	srv := newTestServer(t, storage.NewLocalStorage(t.TempDir()), staticAuthenticator{id: anonReader()})

	w := srv.do(t, lfsRequest(t, http.MethodPost, "/org/repo/objects/batch", lfs.BatchRequest{
		Operation: lfs.OperationDownload,
		Objects: batchObjs(
			lfs.Pointer{Oid: testOid, Size: 123},
			lfs.Pointer{Oid: testOid2, Size: 456},
		),
	}))

	is.Equal(w.Code, http.StatusNotFound)
}

func TestBatchDownloadMixedResults(t *testing.T) {
	is := is.New(t)
	strg := storage.NewLocalStorage(t.TempDir())
	if _, err := strg.Put(context.TODO(), "org/repo", testOid, strings.NewReader("data")); err != nil {
		t.Fatalf("Put() => %v", err)
	}

	srv := newTestServer(t, strg, staticAuthenticator{id: anonReader()})

	w := srv.do(t, lfsRequest(t, http.MethodPost, "/org/repo/objects/batch", lfs.BatchRequest{
		Operation: lfs.OperationDownload,
		Objects: batchObjs(
			lfs.Pointer{Oid: testOid, Size: 4},
			lfs.Pointer{Oid: testOid2, Size: 456},
		),
	}))

	is.Equal(w.Code, http.StatusOK)
	resp := decodeBatch(t, w)
	is.True(resp.Objects[0].HasAction(lfs.ActionDownload))
	is.Equal(resp.Objects[1].Error.Code, http.StatusNotFound)
}

func TestBatchDownloadFilename(t *testing.T) {
	is := is.New(t)
	strg := newFakeMultipart()
	strg.objects["org/repo/"+testOid] = 4
	srv := newTestServer(t, strg, staticAuthenticator{id: anonReader()})

	objs := batchObjs(lfs.Pointer{Oid: testOid, Size: 4})
	objs[0].Filename = "report.csv"

	w := srv.do(t, lfsRequest(t, http.MethodPost, "/org/repo/objects/batch", lfs.BatchRequest{
		Operation: lfs.OperationDownload,
		Objects:   objs,
	}))

	is.Equal(w.Code, http.StatusOK)
	resp := decodeBatch(t, w)
	is.True(strings.HasSuffix(resp.Objects[0].Actions.Download.Href, "?filename=report.csv"))
}

func TestBatchAllInvalidIs422(t *testing.T) {
	is := is.New(t)
	srv := newTestServer(t, storage.NewLocalStorage(t.TempDir()), staticAuthenticator{id: anonWriter()})

	w := srv.do(t, lfsRequest(t, http.MethodPost, "/org/repo/objects/batch", lfs.BatchRequest{
		Operation: lfs.OperationUpload,
		Objects:   batchObjs(lfs.Pointer{Oid: "not-a-sha", Size: 1}),
	}))

	is.Equal(w.Code, http.StatusUnprocessableEntity)
}

func TestBatchUnknownTransferFallsBackToBasic(t *testing.T) {
	is := is.New(t)
	srv := newTestServer(t, storage.NewLocalStorage(t.TempDir()), staticAuthenticator{id: anonWriter()})

	w := srv.do(t, lfsRequest(t, http.MethodPost, "/org/repo/objects/batch", lfs.BatchRequest{
		Operation: lfs.OperationUpload,
		Transfers: []string{"tus", lfs.TransferBasic},
		Objects:   batchObjs(lfs.Pointer{Oid: testOid, Size: 123}),
	}))

	is.Equal(w.Code, http.StatusOK)
	is.Equal(decodeBatch(t, w).Transfer, lfs.TransferBasic)
}

func anonWriter() auth.Identity {
	id := auth.NewStaticIdentity("writer")
	id.Allow("", "", "", access.ReadPermission, access.ReadMetaPermission, access.WritePermission)
	return id
}

func anonReader() auth.Identity {
	id := auth.NewStaticIdentity("reader")
	id.Allow("", "", "", access.ReadPermission, access.ReadMetaPermission)
	return id
}
