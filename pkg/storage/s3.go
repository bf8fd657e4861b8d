package storage

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/freighter-sh/freighter/pkg/config"
	"github.com/freighter-sh/freighter/pkg/lfs"
)

// S3Storage is an external, multipart-capable backend backed by Amazon S3 or
// any S3-compatible store.
type S3Storage struct {
	bucket     string
	pathPrefix string
	svc        *s3.S3
}

var _ Multipart = (*S3Storage)(nil)

// NewS3Storage creates a new S3Storage from the given configuration.
func NewS3Storage(cfg config.S3StorageConfig) (*S3Storage, error) {
	awsCfg := aws.NewConfig()
	if cfg.Region != "" {
		awsCfg = awsCfg.WithRegion(cfg.Region)
	}
	if cfg.Endpoint != "" {
		awsCfg = awsCfg.WithEndpoint(cfg.Endpoint)
	}
	if cfg.ForcePathStyle {
		awsCfg = awsCfg.WithS3ForcePathStyle(true)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &S3Storage{
		bucket:     cfg.Bucket,
		pathPrefix: cfg.PathPrefix,
		svc:        s3.New(sess),
	}, nil
}

// Exists implements Storage.
func (s *S3Storage) Exists(ctx context.Context, prefix, oid string) (bool, error) {
	_, err := s.Size(ctx, prefix, oid)
	if err == ErrObjectNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Size implements Storage.
func (s *S3Storage) Size(ctx context.Context, prefix, oid string) (int64, error) {
	out, err := s.svc.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.blobPath(prefix, oid)),
	})
	if err != nil {
		if isNotFound(err) {
			return 0, ErrObjectNotFound
		}
		return 0, fmt.Errorf("failed to head object %s: %w", oid, err)
	}
	return aws.Int64Value(out.ContentLength), nil
}

// Verify implements Verifiable.
func (s *S3Storage) Verify(ctx context.Context, prefix, oid string, size int64) error {
	stored, err := s.Size(ctx, prefix, oid)
	if err != nil {
		return err
	}
	if stored != size {
		return ErrSizeMismatch
	}
	return nil
}

// UploadAction implements External. The signed URL pins the object checksum
// so S3 rejects bytes that don't match the oid.
func (s *S3Storage) UploadAction(ctx context.Context, prefix, oid string, _ int64, expiresIn time.Duration) (*lfs.Link, error) {
	checksum, err := oidChecksum(oid)
	if err != nil {
		return nil, err
	}

	req, _ := s.svc.PutObjectRequest(&s3.PutObjectInput{
		Bucket:         aws.String(s.bucket),
		Key:            aws.String(s.blobPath(prefix, oid)),
		ContentType:    aws.String("application/octet-stream"),
		ChecksumSHA256: aws.String(checksum),
	})
	req.SetContext(ctx)
	href, err := req.Presign(expiresIn)
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload for %s: %w", oid, err)
	}

	return &lfs.Link{
		Href: href,
		Header: map[string]string{
			"Content-Type":          "application/octet-stream",
			"x-amz-checksum-sha256": checksum,
		},
		ExpiresIn: int64(expiresIn.Seconds()),
	}, nil
}

// DownloadAction implements External. A requested filename is reflected
// into the Content-Disposition S3 serves the blob with.
func (s *S3Storage) DownloadAction(ctx context.Context, prefix, oid string, _ int64, expiresIn time.Duration, extra DownloadExtra) (*lfs.Link, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.blobPath(prefix, oid)),
	}
	if d := contentDisposition(extra); d != "" {
		input.ResponseContentDisposition = aws.String(d)
	}

	req, _ := s.svc.GetObjectRequest(input)
	req.SetContext(ctx)
	href, err := req.Presign(expiresIn)
	if err != nil {
		return nil, fmt.Errorf("failed to presign download for %s: %w", oid, err)
	}

	return &lfs.Link{
		Href:      href,
		ExpiresIn: int64(expiresIn.Seconds()),
	}, nil
}

// InitMultipart implements Multipart. An in-progress upload for the same key
// is resumed rather than duplicated, which keeps batch planning idempotent.
func (s *S3Storage) InitMultipart(ctx context.Context, prefix, oid string, _ int64) (string, error) {
	key := s.blobPath(prefix, oid)

	existing, err := s.svc.ListMultipartUploadsWithContext(ctx, &s3.ListMultipartUploadsInput{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("failed to list multipart uploads for %s: %w", oid, err)
	}

	var oldest *s3.MultipartUpload
	for _, u := range existing.Uploads {
		if aws.StringValue(u.Key) != key {
			continue
		}
		if oldest == nil || aws.TimeValue(u.Initiated).Before(aws.TimeValue(oldest.Initiated)) {
			oldest = u
		}
	}
	if oldest != nil {
		return aws.StringValue(oldest.UploadId), nil
	}

	created, err := s.svc.CreateMultipartUploadWithContext(ctx, &s3.CreateMultipartUploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String("application/octet-stream"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create multipart upload for %s: %w", oid, err)
	}

	return aws.StringValue(created.UploadId), nil
}

// PartAction implements Multipart. S3 part numbers are one-based.
func (s *S3Storage) PartAction(ctx context.Context, prefix, oid, session string, index int, pos, size int64, expiresIn time.Duration) (*lfs.Link, error) {
	req, _ := s.svc.UploadPartRequest(&s3.UploadPartInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.blobPath(prefix, oid)),
		UploadId:      aws.String(session),
		PartNumber:    aws.Int64(int64(index + 1)),
		ContentLength: aws.Int64(size),
	})
	req.SetContext(ctx)
	href, err := req.Presign(expiresIn)
	if err != nil {
		return nil, fmt.Errorf("failed to presign part %d for %s: %w", index, oid, err)
	}

	return &lfs.Link{
		Href:      href,
		Method:    "PUT",
		Pos:       pos,
		Size:      size,
		ExpiresIn: int64(expiresIn.Seconds()),
	}, nil
}

// UploadedParts implements Multipart.
func (s *S3Storage) UploadedParts(ctx context.Context, prefix, oid, session string) (map[int]int64, error) {
	parts := make(map[int]int64)
	err := s.svc.ListPartsPagesWithContext(ctx, &s3.ListPartsInput{
		Bucket:   aws.String(s.bucket),
		Key:      aws.String(s.blobPath(prefix, oid)),
		UploadId: aws.String(session),
	}, func(page *s3.ListPartsOutput, _ bool) bool {
		for _, p := range page.Parts {
			parts[int(aws.Int64Value(p.PartNumber))-1] = aws.Int64Value(p.Size)
		}
		return true
	})
	if err != nil {
		if isNotFound(err) {
			// The session is gone, e.g. already completed or aborted.
			return map[int]int64{}, nil
		}
		return nil, fmt.Errorf("failed to list parts for %s: %w", oid, err)
	}
	return parts, nil
}

// CompleteMultipart implements Multipart. It composes the finalize call from
// the parts S3 reports, so no part bookkeeping is required on this server.
func (s *S3Storage) CompleteMultipart(ctx context.Context, prefix, oid, session string, size int64) error {
	key := s.blobPath(prefix, oid)

	var completed []*s3.CompletedPart
	err := s.svc.ListPartsPagesWithContext(ctx, &s3.ListPartsInput{
		Bucket:   aws.String(s.bucket),
		Key:      aws.String(key),
		UploadId: aws.String(session),
	}, func(page *s3.ListPartsOutput, _ bool) bool {
		for _, p := range page.Parts {
			completed = append(completed, &s3.CompletedPart{
				ETag:       p.ETag,
				PartNumber: p.PartNumber,
			})
		}
		return true
	})
	if err != nil {
		return fmt.Errorf("failed to list parts for %s: %w", oid, err)
	}

	sort.Slice(completed, func(i, j int) bool {
		return aws.Int64Value(completed[i].PartNumber) < aws.Int64Value(completed[j].PartNumber)
	})

	if _, err := s.svc.CompleteMultipartUploadWithContext(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:   aws.String(s.bucket),
		Key:      aws.String(key),
		UploadId: aws.String(session),
		MultipartUpload: &s3.CompletedMultipartUpload{
			Parts: completed,
		},
	}); err != nil {
		return fmt.Errorf("failed to complete multipart upload for %s: %w", oid, err)
	}

	return s.Verify(ctx, prefix, oid, size)
}

// AbortMultipart implements Multipart.
func (s *S3Storage) AbortMultipart(ctx context.Context, prefix, oid, session string) error {
	if _, err := s.svc.AbortMultipartUploadWithContext(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(s.bucket),
		Key:      aws.String(s.blobPath(prefix, oid)),
		UploadId: aws.String(session),
	}); err != nil {
		if isNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to abort multipart upload for %s: %w", oid, err)
	}
	return nil
}

func (s *S3Storage) blobPath(prefix, oid string) string {
	return path.Join(s.pathPrefix, prefix, oid)
}

// contentDisposition builds the Content-Disposition header value for a
// download, or "" when the request carried no extras.
func contentDisposition(extra DownloadExtra) string {
	disposition := extra.Disposition
	if filename := safeFilename(extra.Filename); filename != "" {
		if disposition == "" {
			disposition = "attachment"
		}
		return fmt.Sprintf("%s; filename=%q", disposition, filename)
	}
	return disposition
}

// safeFilename strips every character that is not safe to use in an HTTP
// header from the given filename.
func safeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		}
		return -1
	}, name)
}

// oidChecksum converts a hex sha256 oid to the base64 form S3 checksums use.
func oidChecksum(oid string) (string, error) {
	raw, err := hex.DecodeString(oid)
	if err != nil {
		return "", fmt.Errorf("invalid oid %q: %w", oid, err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

func isNotFound(err error) bool {
	if aerr, ok := err.(awserr.Error); ok {
		switch aerr.Code() {
		case s3.ErrCodeNoSuchKey, s3.ErrCodeNoSuchUpload, "NotFound":
			return true
		}
	}
	return false
}
