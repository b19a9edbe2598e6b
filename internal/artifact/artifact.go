// Package artifact persists rendered report files and returns the path or
// URI recorded in the report log.
package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cloud.google.com/go/storage"
)

// Writer stores one rendered artifact and returns its location.
type Writer interface {
	Write(ctx context.Context, name string, data []byte) (string, error)
}

// LocalWriter writes artifacts under a base directory on disk.
type LocalWriter struct {
	Dir string
}

// NewLocalWriter creates a writer rooted at dir, creating it if needed.
func NewLocalWriter(dir string) (*LocalWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("NewLocalWriter: %w", err)
	}
	return &LocalWriter{Dir: dir}, nil
}

// Write stores the artifact and returns its absolute path.
func (w *LocalWriter) Write(_ context.Context, name string, data []byte) (string, error) {
	path := filepath.Join(w.Dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("LocalWriter.Write: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path, nil
	}
	return abs, nil
}

// GCSWriter uploads artifacts to a Cloud Storage bucket. It assumes
// Application Default Credentials are configured.
type GCSWriter struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSWriter creates a writer targeting gs://bucket/prefix.
func NewGCSWriter(ctx context.Context, bucket, prefix string) (*GCSWriter, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewGCSWriter: creating storage client: %w", err)
	}
	return &GCSWriter{client: client, bucket: bucket, prefix: prefix}, nil
}

// Write uploads the artifact and returns its gs:// URI.
func (w *GCSWriter) Write(ctx context.Context, name string, data []byte) (string, error) {
	object := name
	if w.prefix != "" {
		object = w.prefix + "/" + name
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	wc := w.client.Bucket(w.bucket).Object(object).NewWriter(ctx)
	wc.ContentType = "text/csv"
	if _, err := wc.Write(data); err != nil {
		_ = wc.Close()
		return "", fmt.Errorf("GCSWriter.Write: copying bytes: %w", err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("GCSWriter.Write: finalizing upload: %w", err)
	}
	return fmt.Sprintf("gs://%s/%s", w.bucket, object), nil
}

// Close releases the underlying storage client.
func (w *GCSWriter) Close() error {
	return w.client.Close()
}
