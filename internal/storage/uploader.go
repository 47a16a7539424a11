// Package storage uploads generated media to S3-compatible object storage and
// produces the URLs the rest of the pipeline records. Image objects are
// addressed by a stable public URL; video objects by a time-limited presigned
// URL. The bucket is bootstrapped lazily and re-created if it disappears
// between runs.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"

	"mediaworker/internal/domain"
	"mediaworker/internal/infra"
	"mediaworker/internal/retry"
)

const pathPrefix = "marketing"

// objectStore is the slice of the minio client the uploader uses. Tests
// provide a fake; production wires *minio.Client.
type objectStore interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	SetBucketPolicy(ctx context.Context, bucketName, policy string) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
	EndpointURL() *url.URL
}

var _ objectStore = (*minio.Client)(nil)

// Scope identifies the tenant folder an upload belongs to. The store slug is
// preferred for readable paths; the raw store id is the fallback.
type Scope struct {
	StoreID   string
	StoreSlug string
	UserID    string
}

func (s Scope) storeSegment() string {
	if slug := Slugify(s.StoreSlug); slug != "" {
		return slug
	}
	return s.StoreID
}

// Result describes one stored object. Exactly one of PublicURL and SignedURL
// is set, depending on the asset kind.
type Result struct {
	AssetID         string
	Path            string
	Filename        string
	PublicURL       string
	SignedURL       string
	SignedExpiresAt *time.Time
}

// Uploader writes media bytes to a single bucket.
type Uploader struct {
	store        objectStore
	bucket       string
	signedURLTTL time.Duration
	recovery     retry.Policy
	log          infra.Logger
	now          func() time.Time
}

// NewUploader builds an Uploader over the given object store. uploadDelay is
// the pause before re-attempting a write whose bucket vanished.
func NewUploader(store objectStore, bucket string, signedURLTTL, uploadDelay time.Duration, log infra.Logger) *Uploader {
	return &Uploader{
		store:        store,
		bucket:       bucket,
		signedURLTTL: signedURLTTL,
		recovery: retry.Policy{
			MaxAttempts: 3,
			Backoff:     retry.Fixed(uploadDelay),
			RetryIf:     isBucketMissing,
		},
		log: log,
		now: time.Now,
	}
}

// EnsureBucket creates the bucket if it does not exist and applies a
// public-read policy so image objects resolve without signing. Concurrent
// creation races ("already owned") are treated as success.
func (u *Uploader) EnsureBucket(ctx context.Context) error {
	exists, err := u.store.BucketExists(ctx, u.bucket)
	if err != nil {
		return &domain.BucketError{Bucket: u.bucket, Reason: "existence check failed", Err: err}
	}
	if exists {
		return nil
	}

	if err := u.store.MakeBucket(ctx, u.bucket, minio.MakeBucketOptions{}); err != nil {
		var resp minio.ErrorResponse
		if errors.As(err, &resp) && (resp.Code == "BucketAlreadyOwnedByYou" || resp.Code == "BucketAlreadyExists") {
			return nil
		}
		if isAccessDenied(err) {
			return &domain.BucketError{Bucket: u.bucket, Reason: "create denied, grant s3:CreateBucket to the worker credential or pre-create the bucket", Err: err}
		}
		return &domain.BucketError{Bucket: u.bucket, Reason: "create failed", Err: err}
	}
	u.log.Info().Str("bucket", u.bucket).Msg("bucket created")

	if err := u.store.SetBucketPolicy(ctx, u.bucket, publicReadPolicy(u.bucket)); err != nil {
		return &domain.BucketError{Bucket: u.bucket, Reason: "public-read policy failed", Err: err}
	}
	return nil
}

// Upload stores one object and returns its addresses. The bucket is ensured
// before every write, so a freshly provisioned deployment bootstraps on the
// first upload. A write that still fails because the bucket is gone (creation
// is eventually consistent) waits and re-attempts; every other failure
// surfaces immediately.
func (u *Uploader) Upload(ctx context.Context, scope Scope, kind domain.AssetKind, data []byte, mimeType string) (*Result, error) {
	if len(data) == 0 {
		return nil, &domain.UploadError{Path: "", Err: errors.New("no bytes to upload")}
	}

	assetID := uuid.NewString()
	now := u.now().UTC()
	objectPath := u.objectPath(scope, kind, assetID, extensionFor(kind, mimeType), now)

	err := u.recovery.Do(ctx, func(ctx context.Context) error {
		if bootErr := u.EnsureBucket(ctx); bootErr != nil {
			return bootErr
		}
		_, putErr := u.store.PutObject(ctx, u.bucket, objectPath, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
			ContentType: mimeType,
		})
		if putErr != nil && isBucketMissing(putErr) {
			u.log.Warn().Str("bucket", u.bucket).Str("path", objectPath).Msg("bucket missing during upload, retrying")
		}
		return putErr
	})
	if err != nil {
		return nil, &domain.UploadError{Path: objectPath, Err: err}
	}

	result := &Result{
		AssetID:  assetID,
		Path:     objectPath,
		Filename: objectPath[strings.LastIndex(objectPath, "/")+1:],
	}

	switch kind {
	case domain.AssetKindVideo:
		signed, signErr := u.store.PresignedGetObject(ctx, u.bucket, objectPath, u.signedURLTTL, nil)
		if signErr != nil {
			return nil, &domain.UploadError{Path: objectPath, Err: fmt.Errorf("presign: %w", signErr)}
		}
		expires := now.Add(u.signedURLTTL)
		result.SignedURL = signed.String()
		result.SignedExpiresAt = &expires
	default:
		result.PublicURL = u.publicURL(objectPath)
	}

	u.log.Info().
		Str("bucket", u.bucket).
		Str("path", objectPath).
		Str("kind", string(kind)).
		Int("bytes", len(data)).
		Msg("object uploaded")
	return result, nil
}

func (u *Uploader) objectPath(scope Scope, kind domain.AssetKind, assetID, ext string, now time.Time) string {
	return fmt.Sprintf("%s/%s/%s/%s/%d/%02d/%s.%s",
		pathPrefix, scope.storeSegment(), scope.UserID, string(kind), now.Year(), int(now.Month()), assetID, ext)
}

func (u *Uploader) publicURL(objectPath string) string {
	endpoint := strings.TrimRight(u.store.EndpointURL().String(), "/")
	return endpoint + "/" + u.bucket + "/" + objectPath
}

func extensionFor(kind domain.AssetKind, mimeType string) string {
	switch strings.ToLower(mimeType) {
	case "image/png":
		return "png"
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/webp":
		return "webp"
	case "video/mp4":
		return "mp4"
	case "video/webm":
		return "webm"
	}
	if kind == domain.AssetKindVideo {
		return "mp4"
	}
	return "png"
}

func isBucketMissing(err error) bool {
	var resp minio.ErrorResponse
	return errors.As(err, &resp) && resp.Code == "NoSuchBucket"
}

func isAccessDenied(err error) bool {
	var resp minio.ErrorResponse
	return errors.As(err, &resp) && resp.Code == "AccessDenied"
}

func publicReadPolicy(bucket string) string {
	return fmt.Sprintf(`{
  "Version": "2012-10-17",
  "Statement": [
    {
      "Effect": "Allow",
      "Principal": {"AWS": ["*"]},
      "Action": ["s3:GetObject"],
      "Resource": ["arn:aws:s3:::%s/*"]
    }
  ]
}`, bucket)
}
