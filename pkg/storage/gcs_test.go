package storage

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBucket struct {
	signed    []gcs.SignedURLOptions
	signedFor []string
	deleted   []string
	deleteErr error
}

func (f *fakeBucket) SignedURL(object string, opts *gcs.SignedURLOptions) (string, error) {
	f.signedFor = append(f.signedFor, object)
	f.signed = append(f.signed, *opts)
	return "https://storage.googleapis.com/media/" + object + "?X-Goog-Signature=abc", nil
}

func (f *fakeBucket) DeleteObject(_ context.Context, object string) error {
	f.deleted = append(f.deleted, object)
	return f.deleteErr
}

func TestGCSStoreRejectsInvalidKeys(t *testing.T) {
	bucket := &fakeBucket{}
	store := newGCSStore(bucket, "media", time.Hour)
	ctx := context.Background()

	for _, key := range []string{"", "   ", "../secret", "a/../../b", `dir\file.png`} {
		_, err := store.PresignUpload(ctx, key, "image/png")
		assert.ErrorIs(t, err, ErrInvalidKey, key)
		_, err = store.PresignDownload(ctx, key)
		assert.ErrorIs(t, err, ErrInvalidKey, key)
		assert.ErrorIs(t, store.Delete(ctx, key), ErrInvalidKey, key)
	}
	assert.Empty(t, bucket.signedFor)
	assert.Empty(t, bucket.deleted)
}

func TestGCSStoreSignsV4URLs(t *testing.T) {
	bucket := &fakeBucket{}
	store := newGCSStore(bucket, "media", 15*time.Minute)

	before := time.Now()
	upload, err := store.PresignUpload(context.Background(), "covers/a.png", "image/png")
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, upload.Method)
	assert.WithinDuration(t, before.Add(15*time.Minute), upload.ExpiresAt, 5*time.Second)

	download, err := store.PresignDownload(context.Background(), "covers/a.png")
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, download.Method)

	require.Len(t, bucket.signed, 2)
	assert.Equal(t, gcs.SigningSchemeV4, bucket.signed[0].Scheme)
	assert.Equal(t, "image/png", bucket.signed[0].ContentType)
	assert.Equal(t, http.MethodPut, bucket.signed[0].Method)
	assert.Empty(t, bucket.signed[1].ContentType)
	assert.Equal(t, []string{"covers/a.png", "covers/a.png"}, bucket.signedFor)
}

func TestGCSStoreDeleteMapsMissingObject(t *testing.T) {
	bucket := &fakeBucket{deleteErr: gcs.ErrObjectNotExist}
	store := newGCSStore(bucket, "media", 0)

	err := store.Delete(context.Background(), "gone.mp4")
	assert.ErrorIs(t, err, ErrObjectNotFound)
	assert.Equal(t, []string{"gone.mp4"}, bucket.deleted)

	bucket.deleteErr = errors.New("permission denied")
	err = store.Delete(context.Background(), "locked.mp4")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrObjectNotFound)
	assert.Contains(t, err.Error(), `bucket "media"`)

	bucket.deleteErr = nil
	require.NoError(t, store.Delete(context.Background(), "ok.mp4"))
	require.NoError(t, store.Close())
}
