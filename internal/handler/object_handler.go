package handler

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"os"
	"path"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/neolms-api/pkg/errors"
	"github.com/noah-isme/neolms-api/pkg/response"
	"github.com/noah-isme/neolms-api/pkg/storage"
)

type localObjectStore interface {
	Authorize(token, method string) (storage.SignedGrant, error)
	Write(key string, r io.Reader) (int64, error)
	Open(key string) (*os.File, error)
}

// ObjectHandler serves the signed URLs handed out by the local storage driver.
type ObjectHandler struct {
	store localObjectStore
}

// NewObjectHandler constructs an ObjectHandler.
func NewObjectHandler(store localObjectStore) *ObjectHandler {
	return &ObjectHandler{store: store}
}

// Put godoc
// @Summary Upload through a signed URL
// @Tags Uploads
// @Accept application/octet-stream
// @Param token path string true "Signed token"
// @Success 200
// @Failure 403 {object} response.Envelope
// @Router /s3/objects/{token} [put]
func (h *ObjectHandler) Put(c *gin.Context) {
	grant, ok := h.authorize(c, http.MethodPut)
	if !ok {
		return
	}
	if grant.ContentType != "" {
		mediaType, _, err := mime.ParseMediaType(c.GetHeader("Content-Type"))
		if err != nil || mediaType != grant.ContentType {
			response.Error(c, appErrors.Clone(appErrors.ErrBadRequest, "Content-Type does not match the signed upload"))
			return
		}
	}
	if _, err := h.store.Write(grant.Key, c.Request.Body); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrStorageProvider.Code, appErrors.ErrStorageProvider.Status, "Failed to store file"))
		return
	}
	c.Status(http.StatusOK)
}

// Get godoc
// @Summary Download through a signed URL
// @Tags Uploads
// @Param token path string true "Signed token"
// @Success 200
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /s3/objects/{token} [get]
func (h *ObjectHandler) Get(c *gin.Context) {
	grant, ok := h.authorize(c, http.MethodGet)
	if !ok {
		return
	}
	file, err := h.store.Open(grant.Key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "File not found"))
			return
		}
		response.Error(c, appErrors.Wrap(err, appErrors.ErrStorageProvider.Code, appErrors.ErrStorageProvider.Status, "Failed to read file"))
		return
	}
	defer file.Close() //nolint:errcheck

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrStorageProvider.Code, appErrors.ErrStorageProvider.Status, "Failed to read file"))
		return
	}
	http.ServeContent(c.Writer, c.Request, path.Base(grant.Key), info.ModTime(), file)
}

func (h *ObjectHandler) authorize(c *gin.Context, method string) (storage.SignedGrant, bool) {
	grant, err := h.store.Authorize(c.Param("token"), method)
	if err != nil {
		message := "Invalid signed URL"
		if errors.Is(err, storage.ErrTokenExpired) {
			message = "Signed URL has expired"
		}
		response.Error(c, appErrors.Wrap(err, "FORBIDDEN", http.StatusForbidden, message))
		return storage.SignedGrant{}, false
	}
	return grant, true
}
