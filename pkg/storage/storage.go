// Package storage issues presigned URLs for course media held in an object store.
package storage

import (
	"context"
	"errors"
	"path"
	"strings"
	"time"
)

var (
	// ErrInvalidKey is returned for keys that are empty or escape the store root.
	ErrInvalidKey = errors.New("storage: invalid object key")
	// ErrObjectNotFound is returned when the referenced object does not exist.
	ErrObjectNotFound = errors.New("storage: object not found")
)

// PresignedURL is a time-limited URL a client can use without credentials.
type PresignedURL struct {
	URL       string
	Method    string
	ExpiresAt time.Time
}

// ObjectStore is implemented by every storage driver.
type ObjectStore interface {
	PresignUpload(ctx context.Context, key, contentType string) (PresignedURL, error)
	PresignDownload(ctx context.Context, key string) (PresignedURL, error)
	Delete(ctx context.Context, key string) error
	Close() error
}

// CleanKey normalises an object key and rejects traversal attempts.
func CleanKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" || strings.Contains(key, "\\") {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean("/" + key)[1:]
	if cleaned == "" || cleaned != strings.TrimPrefix(key, "/") || strings.HasPrefix(cleaned, "..") {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}
