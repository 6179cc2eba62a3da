// Package media stores uploaded resident files and resolves their public
// URLs. Objects live under a per-uploader prefix so ownership is visible in
// the object name itself.
package media

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/valusophy/city/internal/random"
)

// Store persists uploaded media objects.
type Store interface {
	// Upload writes data under the given object path, overwriting any
	// existing object.
	Upload(ctx context.Context, objectPath string, data []byte, contentType string) error
	// PublicURL returns the browser-reachable URL for an object path. It
	// does not check that the object exists.
	PublicURL(objectPath string) string
	// Remove deletes an object. Removing a missing object is not an error.
	Remove(ctx context.Context, objectPath string) error
}

// ObjectPath builds a collision-resistant object name for an upload,
// prefixed by the uploader's auth user id.
func ObjectPath(authUserID, filename string, now time.Time) (string, error) {
	authUserID = strings.TrimSpace(authUserID)
	if authUserID == "" {
		return "", fmt.Errorf("auth user id is required")
	}
	suffix, err := random.Suffix(4)
	if err != nil {
		return "", fmt.Errorf("generate object suffix: %w", err)
	}

	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("%s/%d-%s%s", authUserID, now.UnixMilli(), suffix, ext), nil
}

// PathOwner reports the auth user id prefix of an object path, or false when
// the path has no prefix segment.
func PathOwner(objectPath string) (string, bool) {
	owner, rest, found := strings.Cut(objectPath, "/")
	if !found || owner == "" || rest == "" {
		return "", false
	}
	return owner, true
}
