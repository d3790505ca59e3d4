package artifact

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"quotedesk/api/internal/export"
)

type fakeS3 struct {
	putBucket      string
	putKey         string
	putData        []byte
	putContentType string
	presignedKey   string
}

func (f *fakeS3) PutObject(_ context.Context, bucket, key string, data []byte, contentType string) error {
	f.putBucket, f.putKey, f.putData, f.putContentType = bucket, key, data, contentType
	return nil
}

func (f *fakeS3) PresignedGetObject(_ context.Context, _, key string, _ time.Duration) (*url.URL, error) {
	f.presignedKey = key
	return url.Parse("https://artifacts.example.com/" + key + "?sig=abc")
}

func TestUploadUsesOwnerScopedKey(t *testing.T) {
	fake := &fakeS3{}
	uploader := &S3Uploader{client: fake, bucket: "quotedesk-artifacts", urlExpiry: time.Hour}

	result := &export.Result{
		Data:     []byte("%PDF-1.7"),
		Filename: "הצעה-Acme-2026-03-01.pdf",
		MimeType: "application/pdf",
	}
	key, err := uploader.Upload(context.Background(), "u_1", result)
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if key != "u_1/exports/הצעה-Acme-2026-03-01.pdf" {
		t.Errorf("object key = %s", key)
	}
	if fake.putBucket != "quotedesk-artifacts" || fake.putContentType != "application/pdf" {
		t.Errorf("put call wrong: bucket=%s type=%s", fake.putBucket, fake.putContentType)
	}
	if string(fake.putData) != "%PDF-1.7" {
		t.Error("uploaded bytes differ from the export result")
	}
}

func TestPresignedURL(t *testing.T) {
	fake := &fakeS3{}
	uploader := &S3Uploader{client: fake, bucket: "quotedesk-artifacts", urlExpiry: time.Hour}

	link, expiry, err := uploader.PresignedURL(context.Background(), "u_1/exports/doc.pdf")
	if err != nil {
		t.Fatalf("PresignedURL() error = %v", err)
	}
	if fake.presignedKey != "u_1/exports/doc.pdf" {
		t.Errorf("presigned key = %s", fake.presignedKey)
	}
	if link == "" || time.Until(expiry) <= 0 {
		t.Errorf("link=%q expiry=%v", link, expiry)
	}
}

func TestNoopUploader(t *testing.T) {
	noop := &NoopUploader{}
	key, err := noop.Upload(context.Background(), "u_1", &export.Result{})
	if err != nil || key != "" {
		t.Errorf("noop upload: key=%q err=%v", key, err)
	}
	if _, _, err := noop.PresignedURL(context.Background(), "x"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}
