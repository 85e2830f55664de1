package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/neolms-api/internal/models"
	"github.com/noah-isme/neolms-api/pkg/response"
)

type learningService interface {
	LessonContent(ctx context.Context, lessonID, userID string) (*models.LessonContent, error)
	MarkComplete(ctx context.Context, lessonID, userID string) (*models.LessonProgress, error)
}

// LearningHandler serves lesson playback and progress for enrolled learners.
type LearningHandler struct {
	service learningService
}

// NewLearningHandler constructs a LearningHandler.
func NewLearningHandler(svc learningService) *LearningHandler {
	return &LearningHandler{service: svc}
}

// Content godoc
// @Summary Lesson content
// @Tags Lessons
// @Produce json
// @Param lessonId path string true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /lessons/{lessonId} [get]
func (h *LearningHandler) Content(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	lessonID, ok := idParam(c, "lessonId", "Lesson not found or not enrolled")
	if !ok {
		return
	}
	lesson, err := h.service.LessonContent(c.Request.Context(), lessonID, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Lesson retrieved", lesson)
}

// Complete godoc
// @Summary Mark lesson completed
// @Tags Lessons
// @Produce json
// @Param lessonId path string true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /lessons/{lessonId}/complete [post]
func (h *LearningHandler) Complete(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	lessonID, ok := idParam(c, "lessonId", "Lesson not found")
	if !ok {
		return
	}
	progress, err := h.service.MarkComplete(c.Request.Context(), lessonID, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Lesson marked as completed", progress)
}
