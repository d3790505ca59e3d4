// Package artifact stores exported documents in S3-compatible storage and
// hands out pre-signed download links. An empty bucket disables uploads and
// the exporter streams results directly instead.
package artifact

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"quotedesk/api/internal/config"
	"quotedesk/api/internal/export"
)

// ErrNotConfigured is returned when artifact storage is not configured.
var ErrNotConfigured = errors.New("artifact storage not configured")

// Uploader persists export results and generates download URLs.
type Uploader interface {
	// Upload stores an export result under the owner's prefix and returns
	// the object key.
	Upload(ctx context.Context, ownerID string, result *export.Result) (string, error)

	// PresignedURL returns a time-limited download URL for an object key.
	PresignedURL(ctx context.Context, key string) (string, time.Time, error)
}

// s3Client is the minimal slice of minio.Client the uploader needs; tests
// substitute a fake.
type s3Client interface {
	PutObject(ctx context.Context, bucket, key string, data []byte, contentType string) error
	PresignedGetObject(ctx context.Context, bucket, key string, expiry time.Duration) (*url.URL, error)
}

type minioClientWrapper struct {
	client *minio.Client
}

func (w *minioClientWrapper) PutObject(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	_, err := w.client.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

func (w *minioClientWrapper) PresignedGetObject(ctx context.Context, bucket, key string, expiry time.Duration) (*url.URL, error) {
	return w.client.PresignedGetObject(ctx, bucket, key, expiry, nil)
}

// S3Uploader stores artifacts in an S3-compatible bucket.
type S3Uploader struct {
	client    s3Client
	bucket    string
	urlExpiry time.Duration
}

func (u *S3Uploader) Upload(ctx context.Context, ownerID string, result *export.Result) (string, error) {
	key := objectKey(ownerID, result.Filename)
	if err := u.client.PutObject(ctx, u.bucket, key, result.Data, result.MimeType); err != nil {
		return "", fmt.Errorf("upload artifact: %w", err)
	}
	return key, nil
}

func (u *S3Uploader) PresignedURL(ctx context.Context, key string) (string, time.Time, error) {
	presigned, err := u.client.PresignedGetObject(ctx, u.bucket, key, u.urlExpiry)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate pre-signed URL: %w", err)
	}
	return presigned.String(), time.Now().Add(u.urlExpiry), nil
}

// NoopUploader is used when storage is not configured.
type NoopUploader struct{}

func (u *NoopUploader) Upload(ctx context.Context, ownerID string, result *export.Result) (string, error) {
	return "", nil
}

func (u *NoopUploader) PresignedURL(ctx context.Context, key string) (string, time.Time, error) {
	return "", time.Time{}, ErrNotConfigured
}

// NewUploader picks the backend from configuration: NoopUploader when no
// bucket is set, S3Uploader otherwise.
func NewUploader(cfg config.Config) (Uploader, error) {
	if cfg.S3Bucket == "" {
		return &NoopUploader{}, nil
	}

	client, err := minio.New(cfg.S3Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		Secure: cfg.S3UseSSL,
		Region: cfg.S3Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create S3 client: %w", err)
	}

	return &S3Uploader{
		client:    &minioClientWrapper{client: client},
		bucket:    cfg.S3Bucket,
		urlExpiry: cfg.ArtifactURLExpiry,
	}, nil
}

// objectKey namespaces artifacts per owner: {owner_id}/exports/{filename}.
func objectKey(ownerID, filename string) string {
	return ownerID + "/exports/" + filename
}
