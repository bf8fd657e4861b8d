package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/freighter-sh/freighter/pkg/config"
	"github.com/matryer/is"
)

func testS3Storage(t *testing.T) *S3Storage {
	t.Helper()
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	strg, err := NewS3Storage(config.S3StorageConfig{
		Bucket: "test-bucket",
		Region: "us-east-1",
	})
	if err != nil {
		t.Fatalf("NewS3Storage() => %v", err)
	}
	return strg
}

func TestS3DownloadActionDisposition(t *testing.T) {
	is := is.New(t)
	strg := testS3Storage(t)

	link, err := strg.DownloadAction(context.TODO(), "org/repo", testOid, 4, time.Hour, DownloadExtra{
		Filename: "report.csv",
	})
	is.NoErr(err)
	is.True(strings.Contains(link.Href, "response-content-disposition="))
	is.Equal(link.ExpiresIn, int64(3600))

	plain, err := strg.DownloadAction(context.TODO(), "org/repo", testOid, 4, time.Hour, DownloadExtra{})
	is.NoErr(err)
	is.True(!strings.Contains(plain.Href, "response-content-disposition="))
}

func TestContentDisposition(t *testing.T) {
	cases := []struct {
		extra DownloadExtra
		want  string
	}{
		{DownloadExtra{}, ""},
		{DownloadExtra{Filename: "report.csv"}, `attachment; filename="report.csv"`},
		{DownloadExtra{Filename: "report.csv", Disposition: "inline"}, `inline; filename="report.csv"`},
		{DownloadExtra{Disposition: "inline"}, "inline"},
		{DownloadExtra{Filename: `_ex@mple 2%.old.xlsx`}, `attachment; filename="_exmple2.old.xlsx"`},
		{DownloadExtra{Filename: "@%()"}, ""},
	}
	for _, c := range cases {
		if got := contentDisposition(c.extra); got != c.want {
			t.Errorf("contentDisposition(%+v) => %q, want %q", c.extra, got, c.want)
		}
	}
}
