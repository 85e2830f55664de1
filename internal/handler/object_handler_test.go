package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/neolms-api/pkg/storage"
)

func newObjectRouter(t *testing.T) (*gin.Engine, *storage.LocalStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	store, err := storage.NewLocalStore(t.TempDir(), "http://localhost/api/s3/objects", signer, 1024)
	require.NoError(t, err)

	h := NewObjectHandler(store)
	r := gin.New()
	r.PUT("/api/s3/objects/:token", h.Put)
	r.GET("/api/s3/objects/:token", h.Get)
	return r, store
}

func tokenPath(url string) string {
	return strings.TrimPrefix(url, "http://localhost")
}

func TestObjectHandlerUploadThenDownload(t *testing.T) {
	router, store := newObjectRouter(t)

	upload, err := store.PresignUpload(context.Background(), "cover.png", "image/png")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPut, tokenPath(upload.URL), strings.NewReader("png-bytes"))
	req.Header.Set("Content-Type", "image/png")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	download, err := store.PresignDownload(context.Background(), "cover.png")
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tokenPath(download.URL), nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "png-bytes", rec.Body.String())
}

func TestObjectHandlerRejectsMismatchedContentType(t *testing.T) {
	router, store := newObjectRouter(t)

	upload, err := store.PresignUpload(context.Background(), "cover.png", "image/png")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPut, tokenPath(upload.URL), strings.NewReader("<svg/>"))
	req.Header.Set("Content-Type", "image/svg+xml")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestObjectHandlerRejectsWrongMethodAndBadToken(t *testing.T) {
	router, store := newObjectRouter(t)

	upload, err := store.PresignUpload(context.Background(), "cover.png", "image/png")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tokenPath(upload.URL), nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/s3/objects/not-a-token", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestObjectHandlerMissingObject(t *testing.T) {
	router, store := newObjectRouter(t)

	download, err := store.PresignDownload(context.Background(), "missing.png")
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tokenPath(download.URL), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
