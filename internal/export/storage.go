package export

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

// Storage abstracts the object store that receives archived exports.
type Storage interface {
	// Upload writes data to bucket/object.
	Upload(ctx context.Context, bucket, object, contentType string, data []byte) error

	// Fetch downloads the object at a gs:// URI.
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

// GCSStorage is a Storage backed by Google Cloud Storage. It holds a shared
// client; Close releases it.
type GCSStorage struct {
	client *storage.Client
}

// NewGCSStorage creates a client using Application Default Credentials.
func NewGCSStorage(ctx context.Context) (*GCSStorage, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewGCSStorage: create storage client: %w", err)
	}
	return &GCSStorage{client: client}, nil
}

// Close closes the storage client.
func (s *GCSStorage) Close() error {
	return s.client.Close()
}

// Upload writes data to bucket/object.
func (s *GCSStorage) Upload(ctx context.Context, bucket, object, contentType string, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := s.client.Bucket(bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("Upload: write %s/%s: %w", bucket, object, err)
	}
	// Close finalizes the upload
	if err := w.Close(); err != nil {
		return fmt.Errorf("Upload: finalize %s/%s: %w", bucket, object, err)
	}
	return nil
}

// Fetch downloads the object at uri.
func (s *GCSStorage) Fetch(ctx context.Context, uri string) ([]byte, error) {
	bucket, object, err := ParseURI(uri)
	if err != nil {
		return nil, fmt.Errorf("Fetch: %w", err)
	}

	rc, err := s.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("Fetch: reading object %s/%s: %w", bucket, object, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("Fetch: reading bytes: %w", err)
	}
	return data, nil
}

// ObjectName lays out archived exports as
// exports/<user>/<yyyy>/<mm>/<dd>/<id>-<filename>.
func ObjectName(userID, id, filename string, at time.Time) string {
	at = at.UTC()
	return path.Join("exports", userID, at.Format("2006"), at.Format("01"), at.Format("02"), id+"-"+filename)
}

// URI returns the gs:// URI of bucket/object.
func URI(bucket, object string) string {
	return "gs://" + bucket + "/" + object
}

// ParseURI splits gs://bucket/object.
func ParseURI(uri string) (bucket, object string, err error) {
	if !strings.HasPrefix(uri, "gs://") {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}
	bucket, object, ok := strings.Cut(strings.TrimPrefix(uri, "gs://"), "/")
	if !ok || bucket == "" || object == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", uri)
	}
	return bucket, object, nil
}

// FilenameFromURI returns the last path element of a gs:// URI.
// e.g., "gs://bucket/exports/42/x-transacoes_totais.csv" -> "x-transacoes_totais.csv"
func FilenameFromURI(uri string) string {
	trimmed := strings.TrimPrefix(uri, "gs://")
	_, object, ok := strings.Cut(trimmed, "/")
	if !ok {
		return trimmed
	}
	return path.Base(object)
}
