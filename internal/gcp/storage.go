package gcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"cloud.google.com/go/storage"
	"github.com/Lllllllleong/pdfviewerbridge/internal/source"
	"google.golang.org/api/googleapi"
)

// GetEnv is a helper to read an environment variable or return a default value.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// StorageReader serves gs:// locators from Cloud Storage.
type StorageReader struct {
	client *storage.Client
}

// NewStorageReader wraps an existing storage client.
func NewStorageReader(client *storage.Client) *StorageReader {
	return &StorageReader{client: client}
}

// ReadObject downloads gs://bucket/object, refusing objects larger than limit.
func (r *StorageReader) ReadObject(ctx context.Context, bucket, object string, limit int64) ([]byte, error) {
	logCtx := slog.With("gcsBucket", bucket, "gcsObject", object)

	reader, err := r.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		logCtx.Warn("Failed to open GCS object.", "error", err)
		return nil, classifyStorageError(bucket, object, err)
	}
	defer reader.Close()

	if size := reader.Attrs.Size; size > limit {
		return nil, fmt.Errorf("gs://%s/%s is %d bytes: %w", bucket, object, size, source.ErrTooLarge)
	}
	data, err := source.ReadLimited(reader, limit)
	if err != nil {
		return nil, fmt.Errorf("gs://%s/%s: %w", bucket, object, err)
	}
	logCtx.Debug("Read GCS object.", "bytes", len(data))
	return data, nil
}

func classifyStorageError(bucket, object string, err error) error {
	if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
		return fmt.Errorf("gs://%s/%s: %w", bucket, object, source.ErrNotFound)
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && (gerr.Code == http.StatusNotFound || gerr.Code == http.StatusForbidden) {
		// A 403 on a missing object is common when the caller cannot list the bucket.
		return fmt.Errorf("gs://%s/%s (status %d): %w", bucket, object, gerr.Code, source.ErrNotFound)
	}
	return fmt.Errorf("failed to get GCS object reader for gs://%s/%s: %w", bucket, object, err)
}
