package transfer

import (
	"context"
	"testing"

	"github.com/freighter-sh/freighter/pkg/lfs"
	"github.com/matryer/is"
)

type namedAdapter struct {
	name string
}

func (a namedAdapter) Name() string { return a.name }

func (a namedAdapter) Upload(context.Context, string, string, lfs.BatchObject) (*lfs.ObjectResponse, error) {
	return &lfs.ObjectResponse{}, nil
}

func (a namedAdapter) Download(context.Context, string, string, lfs.BatchObject) (*lfs.ObjectResponse, error) {
	return &lfs.ObjectResponse{}, nil
}

func TestRegistryMatch(t *testing.T) {
	reg := NewRegistry()
	reg.Register(namedAdapter{name: lfs.TransferBasic})
	reg.Register(namedAdapter{name: lfs.TransferMultipartBasic})

	cases := []struct {
		name      string
		requested []string
		want      string
	}{
		{"empty list falls back to basic", nil, lfs.TransferBasic},
		{"client priority wins", []string{lfs.TransferMultipartBasic, lfs.TransferBasic}, lfs.TransferMultipartBasic},
		{"basic first stays basic", []string{lfs.TransferBasic, lfs.TransferMultipartBasic}, lfs.TransferBasic},
		{"unknown entries are skipped", []string{"tus", lfs.TransferMultipartBasic}, lfs.TransferMultipartBasic},
		{"nothing known falls back to basic", []string{"tus", "custom"}, lfs.TransferBasic},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			is := is.New(t)
			name, adapter, err := reg.Match(c.requested)
			is.NoErr(err)
			is.Equal(name, c.want)
			is.Equal(adapter.Name(), c.want)
		})
	}
}

func TestRegistryMatchNoBaseline(t *testing.T) {
	reg := NewRegistry()
	reg.Register(namedAdapter{name: lfs.TransferMultipartBasic})

	if _, _, err := reg.Match([]string{"tus"}); err != ErrNoAdapter {
		t.Errorf("Match() => %v, want %v", err, ErrNoAdapter)
	}
}

func TestResolveName(t *testing.T) {
	chunked := &lfs.ObjectResponse{
		Actions: &lfs.ActionSet{
			Parts:  []*lfs.Link{{Href: "x"}},
			Commit: &lfs.Link{Href: "x"},
		},
	}
	single := &lfs.ObjectResponse{
		Actions: &lfs.ActionSet{Upload: &lfs.Link{Href: "x"}},
	}

	cases := []struct {
		name      string
		transfer  string
		operation string
		objects   []*lfs.ObjectResponse
		want      string
	}{
		{"basic stays basic", lfs.TransferBasic, lfs.OperationUpload, []*lfs.ObjectResponse{single}, lfs.TransferBasic},
		{"chunked batch keeps multipart", lfs.TransferMultipartBasic, lfs.OperationUpload, []*lfs.ObjectResponse{chunked}, lfs.TransferMultipartBasic},
		{"mixed batch keeps multipart", lfs.TransferMultipartBasic, lfs.OperationUpload, []*lfs.ObjectResponse{single, chunked}, lfs.TransferMultipartBasic},
		{"all single-shot degrades", lfs.TransferMultipartBasic, lfs.OperationUpload, []*lfs.ObjectResponse{single, single}, lfs.TransferBasic},
		{"downloads never degrade", lfs.TransferMultipartBasic, lfs.OperationDownload, []*lfs.ObjectResponse{single}, lfs.TransferMultipartBasic},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := ResolveName(c.transfer, c.operation, c.objects); got != c.want {
				t.Errorf("ResolveName() => %q, want %q", got, c.want)
			}
		})
	}
}

func TestEndpoints(t *testing.T) {
	is := is.New(t)
	e := NewEndpoints("https://lfs.example.com/")

	is.Equal(e.ObjectURL("org", "repo", "abc"), "https://lfs.example.com/org/repo/objects/storage/abc")
	is.Equal(e.VerifyURL("org", "repo"), "https://lfs.example.com/org/repo/objects/storage/verify")
	is.Equal(e.MultipartURL("org", "repo", "abc", "commit"), "https://lfs.example.com/org/repo/objects/multipart/abc/commit")
	is.Equal(e.ObjectURL("my org", "repo", "abc"), "https://lfs.example.com/my%20org/repo/objects/storage/abc")
}

func TestValidateWantDigest(t *testing.T) {
	cases := []struct {
		value string
		ok    bool
	}{
		{"", true},
		{"contentMD5", true},
		{"sha-256", true},
		{"sha-256;q=1, md5;q=0.5", true},
		{"sha-256;q=0.3,sha;q=0.2", true},
		{"sha-256;q=2", false},
		{"sha-256;weight=1", false},
		{";q=1", false},
	}
	for _, c := range cases {
		err := ValidateWantDigest(c.value)
		if c.ok && err != nil {
			t.Errorf("ValidateWantDigest(%q) => %v", c.value, err)
		}
		if !c.ok && err == nil {
			t.Errorf("ValidateWantDigest(%q) => nil, want error", c.value)
		}
	}
}
