package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/neolms-api/internal/models"
	"github.com/noah-isme/neolms-api/pkg/response"
)

type chapterService interface {
	Create(ctx context.Context, req models.CreateChapterRequest) (*models.Chapter, error)
	Delete(ctx context.Context, chapterID string, req models.DeleteChapterRequest) error
	Reorder(ctx context.Context, req models.ReorderChaptersRequest) error
}

// ChapterHandler maintains the chapter sequence of a course.
type ChapterHandler struct {
	service chapterService
}

// NewChapterHandler constructs a ChapterHandler.
func NewChapterHandler(svc chapterService) *ChapterHandler {
	return &ChapterHandler{service: svc}
}

// Create godoc
// @Summary Append chapter
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body models.CreateChapterRequest true "Chapter"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/chapters [post]
func (h *ChapterHandler) Create(c *gin.Context) {
	var req models.CreateChapterRequest
	if !bindJSON(c, &req, "invalid chapter payload") {
		return
	}
	chapter, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Chapter created successfully", chapter)
}

// Delete godoc
// @Summary Delete chapter and compact positions
// @Tags Admin
// @Accept json
// @Produce json
// @Param chapterId path string true "Chapter ID"
// @Param payload body models.DeleteChapterRequest true "Owning course"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/chapters/{chapterId} [delete]
func (h *ChapterHandler) Delete(c *gin.Context) {
	chapterID, ok := idParam(c, "chapterId", "Chapter not found")
	if !ok {
		return
	}
	var req models.DeleteChapterRequest
	if !bindJSON(c, &req, "invalid chapter payload") {
		return
	}
	if err := h.service.Delete(c.Request.Context(), chapterID, req); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Chapter deleted successfully", nil)
}

// Reorder godoc
// @Summary Reorder chapters
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body models.ReorderChaptersRequest true "New positions"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/chapters/reorder [put]
func (h *ChapterHandler) Reorder(c *gin.Context) {
	var req models.ReorderChaptersRequest
	if !bindJSON(c, &req, "invalid reorder payload") {
		return
	}
	if err := h.service.Reorder(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Chapters reordered successfully", nil)
}
