package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/neolms-api/internal/models"
	"github.com/noah-isme/neolms-api/pkg/response"
)

type catalogService interface {
	ListPublished(ctx context.Context) ([]models.CourseSummary, error)
	GetBySlug(ctx context.Context, slug string) (*models.CourseDetail, error)
	Sidebar(ctx context.Context, slug, userID string) (*models.CourseDetail, error)
}

// CourseHandler serves the public catalog and the learner course sidebar.
type CourseHandler struct {
	service catalogService
}

// NewCourseHandler constructs a CourseHandler.
func NewCourseHandler(svc catalogService) *CourseHandler {
	return &CourseHandler{service: svc}
}

// List godoc
// @Summary List published courses
// @Tags Courses
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	courses, err := h.service.ListPublished(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Courses retrieved", courses)
}

// Get godoc
// @Summary Course detail
// @Tags Courses
// @Produce json
// @Param slug path string true "Course slug"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{slug} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	course, err := h.service.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Course retrieved", course)
}

// Sidebar godoc
// @Summary Course outline with learner progress
// @Tags Courses
// @Produce json
// @Param slug path string true "Course slug"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{slug}/sidebar [get]
func (h *CourseHandler) Sidebar(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	course, err := h.service.Sidebar(c.Request.Context(), c.Param("slug"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Course retrieved", course)
}
