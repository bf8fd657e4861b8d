package lfs

const (
	// MediaType contains the media type for LFS server requests.
	MediaType = "application/vnd.git-lfs+json"

	// TransferBasic is the name of the Git LFS basic transfer protocol. It
	// is the mandatory baseline every server and client supports.
	TransferBasic = "basic"

	// TransferMultipartBasic is the name of the chunked-upload transfer
	// protocol extension.
	TransferMultipartBasic = "multipart-basic"

	// OperationDownload is the operation name for a download request.
	OperationDownload = "download"

	// OperationUpload is the operation name for an upload request.
	OperationUpload = "upload"

	// ActionDownload is the action name for a download request.
	ActionDownload = OperationDownload

	// ActionUpload is the action name for an upload request.
	ActionUpload = OperationUpload

	// ActionVerify is the action name for a verify request.
	ActionVerify = "verify"

	// ActionInit is the action name for a multipart init request.
	ActionInit = "init"

	// ActionCommit is the action name for a multipart commit request.
	ActionCommit = "commit"

	// ActionAbort is the action name for a multipart abort request.
	ActionAbort = "abort"
)

// Pointer contains LFS pointer data.
type Pointer struct {
	Oid  string `json:"oid"`
	Size int64  `json:"size"`
}

// ErrorResponse describes a whole-request error to the client.
type ErrorResponse struct {
	Message          string `json:"message,omitempty"`
	DocumentationURL string `json:"documentation_url,omitempty"`
	RequestID        string `json:"request_id,omitempty"`
}

// BatchRequest contains multiple requests processed in one batch operation.
// https://github.com/git-lfs/git-lfs/blob/main/docs/api/batch.md#requests
type BatchRequest struct {
	Operation string        `json:"operation"`
	Transfers []string      `json:"transfers,omitempty"`
	Ref       *Reference    `json:"ref,omitempty"`
	Objects   []BatchObject `json:"objects"`
	HashAlgo  string        `json:"hash_algo,omitempty"`
}

// BatchObject is one object in a batch request. The x- fields are request
// extras: they tune the planned actions and are not echoed back in the
// response.
type BatchObject struct {
	Pointer

	// Filename, on a download request, asks for the signed URL to serve
	// the blob under this name via Content-Disposition.
	Filename string `json:"x-filename,omitempty"`

	// Disposition overrides the disposition type used with Filename. It
	// defaults to "attachment".
	Disposition string `json:"x-disposition,omitempty"`
}

// Reference contains a git reference.
// https://github.com/git-lfs/git-lfs/blob/main/docs/api/batch.md#ref-property
type Reference struct {
	Name string `json:"name"`
}

// BatchResponse contains object metadata for use with the batch API.
// https://github.com/git-lfs/git-lfs/blob/main/docs/api/batch.md#successful-responses
type BatchResponse struct {
	Transfer string            `json:"transfer,omitempty"`
	Objects  []*ObjectResponse `json:"objects"`
	HashAlgo string            `json:"hash_algo,omitempty"`
}

// ObjectResponse is object metadata as seen by clients of the LFS server.
type ObjectResponse struct {
	Pointer
	Authenticated bool         `json:"authenticated,omitempty"`
	Actions       *ActionSet   `json:"actions,omitempty"`
	Error         *ObjectError `json:"error,omitempty"`
}

// ActionSet is the action plan for one object. It holds the basic action
// kinds (upload, download, verify) and the multipart extension kinds (init,
// parts, commit, abort). Parts is a list since there is one action per
// chunk; it lives inside the action set, beside its commit and abort.
type ActionSet struct {
	Download *Link   `json:"download,omitempty"`
	Upload   *Link   `json:"upload,omitempty"`
	Verify   *Link   `json:"verify,omitempty"`
	Init     *Link   `json:"init,omitempty"`
	Parts    []*Link `json:"parts,omitempty"`
	Commit   *Link   `json:"commit,omitempty"`
	Abort    *Link   `json:"abort,omitempty"`
}

// HasAction reports whether the object response carries the named action.
func (o *ObjectResponse) HasAction(name string) bool {
	a := o.Actions
	if a == nil {
		return false
	}
	switch name {
	case ActionDownload:
		return a.Download != nil
	case ActionUpload:
		return a.Upload != nil
	case ActionVerify:
		return a.Verify != nil
	case ActionInit:
		return a.Init != nil
	case ActionCommit:
		return a.Commit != nil
	case ActionAbort:
		return a.Abort != nil
	}
	return false
}

// Link describes one HTTP request the client must perform to complete part
// of a transfer.
//
// Method defaults by action kind: PUT for upload and part actions, POST for
// init, commit and abort, GET for download. Pos and Size are only meaningful
// on part actions; a missing pos means 0.
type Link struct {
	Href       string            `json:"href"`
	Header     map[string]string `json:"header,omitempty"`
	Method     string            `json:"method,omitempty"`
	Body       string            `json:"body,omitempty"`
	ExpiresIn  int64             `json:"expires_in,omitempty"`
	Pos        int64             `json:"pos,omitempty"`
	Size       int64             `json:"size,omitempty"`
	WantDigest string            `json:"want_digest,omitempty"`
}

// ObjectError defines the JSON structure returned to the client in case of
// an error with a single object.
type ObjectError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
