package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// bucketAPI is the part of a GCS bucket handle the store uses.
type bucketAPI interface {
	SignedURL(object string, opts *gcs.SignedURLOptions) (string, error)
	DeleteObject(ctx context.Context, object string) error
}

type bucketHandle struct {
	*gcs.BucketHandle
}

func (b bucketHandle) DeleteObject(ctx context.Context, object string) error {
	return b.Object(object).Delete(ctx)
}

// GCSStore signs V4 URLs against a Google Cloud Storage bucket.
type GCSStore struct {
	bucket bucketAPI
	name   string
	ttl    time.Duration
	closer func() error
}

// NewGCSStore builds a bucket client. An empty credentials file falls back to
// application default credentials.
func NewGCSStore(ctx context.Context, bucket, credentialsFile string, ttl time.Duration) (*GCSStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("gcs bucket name is required")
	}
	opts := []option.ClientOption{option.WithScopes(gcs.ScopeReadWrite)}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	store := newGCSStore(bucketHandle{client.Bucket(bucket)}, bucket, ttl)
	store.closer = client.Close
	return store, nil
}

func newGCSStore(bucket bucketAPI, name string, ttl time.Duration) *GCSStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &GCSStore{bucket: bucket, name: name, ttl: ttl, closer: func() error { return nil }}
}

// PresignUpload returns a PUT URL bound to the given content type.
func (s *GCSStore) PresignUpload(_ context.Context, key, contentType string) (PresignedURL, error) {
	key, err := CleanKey(key)
	if err != nil {
		return PresignedURL{}, err
	}
	return s.sign(key, http.MethodPut, contentType)
}

// PresignDownload returns a GET URL for an existing object.
func (s *GCSStore) PresignDownload(_ context.Context, key string) (PresignedURL, error) {
	key, err := CleanKey(key)
	if err != nil {
		return PresignedURL{}, err
	}
	return s.sign(key, http.MethodGet, "")
}

func (s *GCSStore) sign(key, method, contentType string) (PresignedURL, error) {
	expiresAt := time.Now().Add(s.ttl)
	url, err := s.bucket.SignedURL(key, &gcs.SignedURLOptions{
		Method:      method,
		Expires:     expiresAt,
		ContentType: contentType,
		Scheme:      gcs.SigningSchemeV4,
	})
	if err != nil {
		return PresignedURL{}, fmt.Errorf("sign gcs url for %q: %w", key, err)
	}
	return PresignedURL{URL: url, Method: method, ExpiresAt: expiresAt}, nil
}

// Delete removes an object; a missing object is reported as ErrObjectNotFound.
func (s *GCSStore) Delete(ctx context.Context, key string) error {
	key, err := CleanKey(key)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := s.bucket.DeleteObject(ctx, key); err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return ErrObjectNotFound
		}
		return fmt.Errorf("delete gcs object %q in bucket %q: %w", key, s.name, err)
	}
	return nil
}

// Close releases the underlying client.
func (s *GCSStore) Close() error {
	return s.closer()
}
