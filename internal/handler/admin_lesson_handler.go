package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/neolms-api/internal/models"
	"github.com/noah-isme/neolms-api/pkg/response"
)

type lessonService interface {
	Get(ctx context.Context, id string) (*models.Lesson, error)
	ListDates(ctx context.Context) ([]models.LessonDate, error)
	Create(ctx context.Context, req models.LessonRequest) (*models.Lesson, error)
	Update(ctx context.Context, id string, req models.LessonRequest) (*models.Lesson, error)
	Delete(ctx context.Context, lessonID string, req models.DeleteLessonRequest) error
	Reorder(ctx context.Context, req models.ReorderLessonsRequest) error
}

// AdminLessonHandler maintains lessons and their order within chapters.
type AdminLessonHandler struct {
	service lessonService
}

// NewAdminLessonHandler constructs an AdminLessonHandler.
func NewAdminLessonHandler(svc lessonService) *AdminLessonHandler {
	return &AdminLessonHandler{service: svc}
}

// ListDates godoc
// @Summary Lesson creation dates
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/lessons [get]
func (h *AdminLessonHandler) ListDates(c *gin.Context) {
	dates, err := h.service.ListDates(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Lessons retrieved", dates)
}

// Get godoc
// @Summary Lesson detail
// @Tags Admin
// @Produce json
// @Param lessonId path string true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/lessons/{lessonId} [get]
func (h *AdminLessonHandler) Get(c *gin.Context) {
	lessonID, ok := idParam(c, "lessonId", "Lesson not found")
	if !ok {
		return
	}
	lesson, err := h.service.Get(c.Request.Context(), lessonID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Lesson retrieved", lesson)
}

// Create godoc
// @Summary Append lesson
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body models.LessonRequest true "Lesson"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/lessons [post]
func (h *AdminLessonHandler) Create(c *gin.Context) {
	var req models.LessonRequest
	if !bindJSON(c, &req, "invalid lesson payload") {
		return
	}
	lesson, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Lesson created successfully", lesson)
}

// Update godoc
// @Summary Update lesson
// @Tags Admin
// @Accept json
// @Produce json
// @Param lessonId path string true "Lesson ID"
// @Param payload body models.LessonRequest true "Lesson"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/lessons/{lessonId} [put]
func (h *AdminLessonHandler) Update(c *gin.Context) {
	lessonID, ok := idParam(c, "lessonId", "Lesson not found")
	if !ok {
		return
	}
	var req models.LessonRequest
	if !bindJSON(c, &req, "invalid lesson payload") {
		return
	}
	lesson, err := h.service.Update(c.Request.Context(), lessonID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Lesson updated successfully", lesson)
}

// Delete godoc
// @Summary Delete lesson and compact positions
// @Tags Admin
// @Accept json
// @Produce json
// @Param lessonId path string true "Lesson ID"
// @Param payload body models.DeleteLessonRequest true "Owning chapter"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/lessons/{lessonId} [delete]
func (h *AdminLessonHandler) Delete(c *gin.Context) {
	lessonID, ok := idParam(c, "lessonId", "Lesson not found")
	if !ok {
		return
	}
	var req models.DeleteLessonRequest
	if !bindJSON(c, &req, "invalid lesson payload") {
		return
	}
	if err := h.service.Delete(c.Request.Context(), lessonID, req); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Lesson deleted successfully", nil)
}

// Reorder godoc
// @Summary Reorder lessons
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body models.ReorderLessonsRequest true "New positions"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/lessons/reorder [put]
func (h *AdminLessonHandler) Reorder(c *gin.Context) {
	var req models.ReorderLessonsRequest
	if !bindJSON(c, &req, "invalid reorder payload") {
		return
	}
	if err := h.service.Reorder(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Lessons reordered successfully", nil)
}
