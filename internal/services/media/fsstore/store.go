// Package fsstore keeps media objects on the local filesystem. It backs
// development and test setups where no object storage bucket is available;
// objects are served back through the web layer under a configured base URL.
package fsstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/valusophy/city/internal/services/media"
)

// Store writes media objects under a root directory.
type Store struct {
	root    string
	baseURL string
}

var _ media.Store = (*Store)(nil)

// New returns a store rooted at dir. Public URLs join baseURL with the
// object path.
func New(dir, baseURL string) (*Store, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("media directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media directory: %w", err)
	}

	return &Store{
		root:    dir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Upload writes data to the object path, creating parent directories.
func (s *Store) Upload(ctx context.Context, objectPath string, data []byte, contentType string) error {
	if s == nil {
		return fmt.Errorf("media store is not initialized")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	full, err := s.resolve(objectPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create object directory: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return fmt.Errorf("write object %s: %w", objectPath, err)
	}
	return nil
}

// PublicURL joins the configured base URL with the object path.
func (s *Store) PublicURL(objectPath string) string {
	if s == nil {
		return ""
	}
	return s.baseURL + "/" + strings.TrimLeft(objectPath, "/")
}

// Remove deletes the object. A missing object is not an error.
func (s *Store) Remove(ctx context.Context, objectPath string) error {
	if s == nil {
		return fmt.Errorf("media store is not initialized")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	full, err := s.resolve(objectPath)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove object %s: %w", objectPath, err)
	}
	return nil
}

// Root returns the directory objects are stored under.
func (s *Store) Root() string {
	if s == nil {
		return ""
	}
	return s.root
}

// resolve maps an object path onto the root directory, rejecting paths that
// would escape it.
func (s *Store) resolve(objectPath string) (string, error) {
	objectPath = strings.TrimSpace(objectPath)
	if objectPath == "" {
		return "", fmt.Errorf("object path is required")
	}

	full := filepath.Join(s.root, filepath.FromSlash(objectPath))
	rel, err := filepath.Rel(s.root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("object path %q escapes media root", objectPath)
	}
	return full, nil
}
