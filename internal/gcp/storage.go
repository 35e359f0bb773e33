package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"

	"github.com/Lllllllleong/documentanalytics/internal/models"
)

// ErrObjectNotFound is returned when the uploaded object no longer exists.
var ErrObjectNotFound = errors.New("object not found")

// GetEnv is a helper to read an environment variable or return a default value.
// An empty value counts as unset.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

// GCSReader reads uploaded objects from Cloud Storage.
type GCSReader struct {
	client *storage.Client
}

// NewGCSReader creates a Cloud Storage client.
func NewGCSReader(ctx context.Context) (*GCSReader, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Storage client: %w", err)
	}
	return &GCSReader{client: client}, nil
}

// Read downloads gs://bucket/name with its size and last-modified time.
func (r *GCSReader) Read(ctx context.Context, bucket, name string) (*models.Blob, error) {
	reader, err := r.client.Bucket(bucket).Object(name).NewReader(ctx)
	if err != nil {
		return nil, describeStorageError(bucket, name, err)
	}
	defer reader.Close()

	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read gs://%s/%s: %w", bucket, name, err)
	}

	size := reader.Attrs.Size
	if size <= 0 {
		size = int64(len(content))
	}
	return &models.Blob{
		Bucket:       bucket,
		Name:         name,
		Content:      content,
		Size:         size,
		LastModified: reader.Attrs.LastModified,
	}, nil
}

// List returns up to limit objects under prefix, in listing order. A limit
// of zero lists everything.
func (r *GCSReader) List(ctx context.Context, bucket, prefix string, limit int) ([]models.ObjectRef, error) {
	it := r.client.Bucket(bucket).Objects(ctx, &storage.Query{Prefix: prefix})

	var refs []models.ObjectRef
	for limit <= 0 || len(refs) < limit {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list gs://%s/%s: %w", bucket, prefix, err)
		}
		if attrs.Prefix != "" {
			continue
		}
		refs = append(refs, models.ObjectRef{Bucket: bucket, Name: attrs.Name})
	}
	return refs, nil
}

func (r *GCSReader) Close() error {
	return r.client.Close()
}

func describeStorageError(bucket, name string, err error) error {
	if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
		return fmt.Errorf("gs://%s/%s: %w", bucket, name, ErrObjectNotFound)
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return fmt.Errorf("failed to get GCS object reader for gs://%s/%s (HTTP %d): %w", bucket, name, gerr.Code, err)
	}
	return fmt.Errorf("failed to get GCS object reader for gs://%s/%s: %w", bucket, name, err)
}
