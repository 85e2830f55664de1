package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/neolms-api/internal/models"
	"github.com/noah-isme/neolms-api/pkg/response"
)

type uploadService interface {
	PresignUpload(ctx context.Context, req models.UploadRequest) (*models.UploadResponse, error)
	DownloadURL(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, req models.DeleteObjectRequest) error
}

// UploadHandler issues presigned URLs for course media.
type UploadHandler struct {
	service uploadService
}

// NewUploadHandler constructs an UploadHandler.
func NewUploadHandler(svc uploadService) *UploadHandler {
	return &UploadHandler{service: svc}
}

// Presign godoc
// @Summary Presigned upload URL
// @Tags Uploads
// @Accept json
// @Produce json
// @Param payload body models.UploadRequest true "File to upload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /s3/upload [post]
func (h *UploadHandler) Presign(c *gin.Context) {
	var req models.UploadRequest
	if !bindJSON(c, &req, "Invalid Request Body") {
		return
	}
	res, err := h.service.PresignUpload(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Upload URL generated", res)
}

// File godoc
// @Summary Redirect to a stored object
// @Tags Uploads
// @Param key query string true "Object key"
// @Success 307
// @Failure 400 {object} response.Envelope
// @Router /s3/file [get]
func (h *UploadHandler) File(c *gin.Context) {
	url, err := h.service.DownloadURL(c.Request.Context(), c.Query("key"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Cache-Control", "private, max-age=300")
	c.Redirect(http.StatusTemporaryRedirect, url)
}

// Delete godoc
// @Summary Delete a stored object
// @Tags Uploads
// @Accept json
// @Produce json
// @Param payload body models.DeleteObjectRequest true "Object key"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /s3/delete [delete]
func (h *UploadHandler) Delete(c *gin.Context) {
	var req models.DeleteObjectRequest
	if !bindJSON(c, &req, "Missing or Invalid Object Key") {
		return
	}
	if err := h.service.Delete(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "File deleted successfully", nil)
}
