package storage

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocalStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(t.TempDir(), "http://localhost:8080/api/s3/objects/", NewSignedURLSigner("secret", time.Hour), 1024)
	require.NoError(t, err)
	return store
}

func TestLocalStoreUploadRoundTrip(t *testing.T) {
	store := newTestLocalStore(t)
	ctx := context.Background()

	upload, err := store.PresignUpload(ctx, "k1-lesson.mp4", "video/mp4")
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, upload.Method)
	require.True(t, strings.HasPrefix(upload.URL, "http://localhost:8080/api/s3/objects/"))

	token := strings.TrimPrefix(upload.URL, "http://localhost:8080/api/s3/objects/")
	grant, err := store.Authorize(token, http.MethodPut)
	require.NoError(t, err)
	assert.Equal(t, "video/mp4", grant.ContentType)

	_, err = store.Authorize(token, http.MethodGet)
	assert.ErrorIs(t, err, ErrInvalidToken)

	n, err := store.Write(grant.Key, strings.NewReader("frames"))
	require.NoError(t, err)
	assert.EqualValues(t, 6, n)

	f, err := store.Open(grant.Key)
	require.NoError(t, err)
	body, err := io.ReadAll(f)
	require.NoError(t, f.Close())
	require.NoError(t, err)
	assert.Equal(t, "frames", string(body))

	require.NoError(t, store.Delete(ctx, grant.Key))
	assert.ErrorIs(t, store.Delete(ctx, grant.Key), ErrObjectNotFound)
}

func TestLocalStoreRejectsOversizedAndTraversal(t *testing.T) {
	store := newTestLocalStore(t)

	_, err := store.Write("big.bin", strings.NewReader(strings.Repeat("x", 2048)))
	assert.Error(t, err)

	_, err = store.Write("../escape.txt", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = store.PresignUpload(context.Background(), "", "text/plain")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestCleanKey(t *testing.T) {
	key, err := CleanKey("  abc-file.png ")
	require.NoError(t, err)
	assert.Equal(t, "abc-file.png", key)

	for _, bad := range []string{"", "..", "../x", "a/../../b", "a\\b", "a/./b"} {
		_, err := CleanKey(bad)
		assert.ErrorIs(t, err, ErrInvalidKey, bad)
	}
}
