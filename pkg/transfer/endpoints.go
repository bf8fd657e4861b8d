package transfer

import (
	"fmt"
	"net/url"
	"strings"
)

// Endpoints builds hrefs for actions that point back at this server.
type Endpoints struct {
	base string
}

// NewEndpoints returns an Endpoints rooted at the server's public URL.
func NewEndpoints(publicURL string) Endpoints {
	return Endpoints{base: strings.TrimSuffix(publicURL, "/")}
}

// ObjectURL returns the streaming upload/download URL for an object.
func (e Endpoints) ObjectURL(org, repo, oid string) string {
	return fmt.Sprintf("%s/%s/%s/objects/storage/%s",
		e.base, url.PathEscape(org), url.PathEscape(repo), url.PathEscape(oid))
}

// VerifyURL returns the post-upload verification URL for a repository.
func (e Endpoints) VerifyURL(org, repo string) string {
	return fmt.Sprintf("%s/%s/%s/objects/storage/verify",
		e.base, url.PathEscape(org), url.PathEscape(repo))
}

// MultipartURL returns the commit or abort URL for a multipart upload.
func (e Endpoints) MultipartURL(org, repo, oid, action string) string {
	return fmt.Sprintf("%s/%s/%s/objects/multipart/%s/%s",
		e.base, url.PathEscape(org), url.PathEscape(repo), url.PathEscape(oid), action)
}
