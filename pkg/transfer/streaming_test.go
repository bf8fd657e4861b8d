package transfer

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/freighter-sh/freighter/pkg/lfs"
	"github.com/freighter-sh/freighter/pkg/storage"
	"github.com/matryer/is"
)

func testStreamingAdapter(t *testing.T) (*BasicStreamingAdapter, *storage.LocalStorage) {
	t.Helper()
	strg := storage.NewLocalStorage(t.TempDir())
	adapter := NewBasicStreamingAdapter(
		strg,
		testIssuer(t),
		NewEndpoints("http://localhost:23232"),
		6*time.Hour,
		12*time.Hour,
	)
	return adapter, strg
}

func TestStreamingUploadPlan(t *testing.T) {
	is := is.New(t)
	adapter, _ := testStreamingAdapter(t)

	resp, err := adapter.Upload(context.TODO(), "org", "repo", batchObj(testOid, 1024))
	is.NoErr(err)
	is.True(resp.Authenticated)
	is.True(resp.HasAction(lfs.ActionUpload))
	is.True(resp.HasAction(lfs.ActionVerify))

	upload := resp.Actions.Upload
	is.Equal(upload.Href, "http://localhost:23232/org/repo/objects/storage/"+testOid)
	is.True(strings.HasPrefix(upload.Header["Authorization"], "Bearer "))
	is.Equal(upload.ExpiresIn, int64(6*3600))

	verify := resp.Actions.Verify
	is.Equal(verify.Href, "http://localhost:23232/org/repo/objects/storage/verify")
	is.Equal(verify.ExpiresIn, int64(12*3600))
	is.Equal(verify.Header["Content-Type"], lfs.MediaType)
}

func TestStreamingUploadStoredObjectHasNoActions(t *testing.T) {
	is := is.New(t)
	adapter, strg := testStreamingAdapter(t)

	_, err := strg.Put(context.TODO(), "org/repo", testOid, strings.NewReader("data"))
	is.NoErr(err)

	resp, err := adapter.Upload(context.TODO(), "org", "repo", batchObj(testOid, 4))
	is.NoErr(err)
	is.True(resp.Actions == nil)
}

func TestStreamingUploadEmptyObjectHasNoActions(t *testing.T) {
	is := is.New(t)
	adapter, _ := testStreamingAdapter(t)

	resp, err := adapter.Upload(context.TODO(), "org", "repo", batchObj(testOid, 0))
	is.NoErr(err)
	is.True(resp.Actions == nil)
}

func TestStreamingDownloadPlan(t *testing.T) {
	is := is.New(t)
	adapter, strg := testStreamingAdapter(t)

	_, err := strg.Put(context.TODO(), "org/repo", testOid, strings.NewReader("data"))
	is.NoErr(err)

	resp, err := adapter.Download(context.TODO(), "org", "repo", batchObj(testOid, 4))
	is.NoErr(err)
	is.True(resp.HasAction(lfs.ActionDownload))
	is.True(strings.HasPrefix(resp.Actions.Download.Header["Authorization"], "Bearer "))

	missing, err := adapter.Download(context.TODO(), "org", "repo", batchObj(strings.Repeat("0", 64), 4))
	is.NoErr(err)
	is.Equal(missing.Error.Code, 404)
	is.True(missing.Actions == nil)

	mismatched, err := adapter.Download(context.TODO(), "org", "repo", batchObj(testOid, 5))
	is.NoErr(err)
	is.Equal(mismatched.Error.Code, 422)
}
