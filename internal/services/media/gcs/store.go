// Package gcs stores media objects in a Google Cloud Storage bucket. Objects
// are served directly from the bucket's public URL space.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/valusophy/city/internal/services/media"
)

// Store writes media objects to a GCS bucket.
type Store struct {
	client *storage.Client
	bucket string
}

var _ media.Store = (*Store)(nil)

// New builds a store over the given bucket. When credentialsPath is empty
// the client falls back to application default credentials.
func New(ctx context.Context, bucket, credentialsPath string) (*Store, error) {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	var opts []option.ClientOption
	if credentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	return &Store{client: client, bucket: bucket}, nil
}

// Upload writes data to the object path, overwriting any existing object.
func (s *Store) Upload(ctx context.Context, objectPath string, data []byte, contentType string) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("media store is not initialized")
	}
	objectPath = strings.TrimSpace(objectPath)
	if objectPath == "" {
		return fmt.Errorf("object path is required")
	}

	w := s.client.Bucket(s.bucket).Object(objectPath).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("write object %s: %w", objectPath, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close object writer for %s: %w", objectPath, err)
	}
	return nil
}

// PublicURL returns the bucket's public URL for the object path.
func (s *Store) PublicURL(objectPath string) string {
	if s == nil {
		return ""
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, strings.TrimLeft(objectPath, "/"))
}

// Remove deletes the object. A missing object is not an error.
func (s *Store) Remove(ctx context.Context, objectPath string) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("media store is not initialized")
	}

	err := s.client.Bucket(s.bucket).Object(objectPath).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("delete object %s: %w", objectPath, err)
	}
	return nil
}

// Close releases the underlying storage client.
func (s *Store) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}
