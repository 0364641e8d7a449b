// Package objstore stores listing photos and hands out their public URLs.
package objstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/oklog/ulid/v2"
)

// ImagesBucket is the bucket listing photos are uploaded to.
const ImagesBucket = "item-images"

// ErrInvalidKey is returned for bucket or object names that could escape their namespace.
var ErrInvalidKey = errors.New("invalid object key")

// Store is a blob store with public read URLs.
type Store interface {
	Put(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) error
	PublicURL(bucket, key string) string
}

// ObjectKey returns a collision-resistant name for a seller's upload, "<sellerID>/<ulid><ext>".
// The ULID sorts by upload time.
func ObjectKey(sellerID, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return sellerID + "/" + strings.ToLower(ulid.Make().String()) + strings.ToLower(ext)
}

// CheckKey rejects empty names, absolute paths and any ".." segment.
func CheckKey(bucket, key string) error {
	if bucket == "" || strings.ContainsAny(bucket, "/\\") || bucket == "." || bucket == ".." {
		return fmt.Errorf("%w: bucket %q", ErrInvalidKey, bucket)
	}
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	if path.Clean(key) != key {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
