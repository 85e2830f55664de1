package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/neolms-api/internal/models"
	appErrors "github.com/noah-isme/neolms-api/pkg/errors"
	"github.com/noah-isme/neolms-api/pkg/response"
)

type adminCourseService interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.AdminCourseSummary, *models.Pagination, error)
	Recent(ctx context.Context) ([]models.AdminCourseSummary, error)
	Get(ctx context.Context, id string) (*models.CourseDetail, error)
	Create(ctx context.Context, userID string, req models.CourseRequest) (*models.Course, error)
	Update(ctx context.Context, userID, courseID string, req models.CourseRequest) (*models.CourseDetail, error)
	Delete(ctx context.Context, courseID string) error
}

// AdminCourseHandler serves course management for administrators.
type AdminCourseHandler struct {
	service adminCourseService
}

// NewAdminCourseHandler constructs an AdminCourseHandler.
func NewAdminCourseHandler(svc adminCourseService) *AdminCourseHandler {
	return &AdminCourseHandler{service: svc}
}

// List godoc
// @Summary List courses
// @Tags Admin
// @Produce json
// @Param status query string false "DRAFT, PUBLISHED or ARCHIVED"
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /admin/courses [get]
func (h *AdminCourseHandler) List(c *gin.Context) {
	var filter models.CourseFilter
	if raw := c.Query("status"); raw != "" {
		status, ok := models.ParseCourseStatus(raw)
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid status filter"))
			return
		}
		filter.Status = &status
	}
	filter.Page, _ = strconv.Atoi(c.Query("page"))
	filter.PageSize, _ = strconv.Atoi(c.Query("pageSize"))

	courses, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "Courses retrieved", courses, pagination)
}

// Recent godoc
// @Summary Most recently created courses
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/dashboard/recent-courses [get]
func (h *AdminCourseHandler) Recent(c *gin.Context) {
	courses, err := h.service.Recent(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Recent courses retrieved", courses)
}

// Get godoc
// @Summary Course with full outline
// @Tags Admin
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/courses/{courseId} [get]
func (h *AdminCourseHandler) Get(c *gin.Context) {
	courseID, ok := idParam(c, "courseId", "Course not found")
	if !ok {
		return
	}
	course, err := h.service.Get(c.Request.Context(), courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Course retrieved", course)
}

// Create godoc
// @Summary Create course
// @Description Creates the payment product and price, then stores the course
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body models.CourseRequest true "Course"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/courses [post]
func (h *AdminCourseHandler) Create(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req models.CourseRequest
	if !bindJSON(c, &req, "invalid course payload") {
		return
	}
	course, err := h.service.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Course created successfully", course)
}

// Update godoc
// @Summary Update course
// @Tags Admin
// @Accept json
// @Produce json
// @Param courseId path string true "Course ID"
// @Param payload body models.CourseRequest true "Course"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/courses/{courseId} [put]
func (h *AdminCourseHandler) Update(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	courseID, ok := idParam(c, "courseId", "Course not found")
	if !ok {
		return
	}
	var req models.CourseRequest
	if !bindJSON(c, &req, "invalid course payload") {
		return
	}
	course, err := h.service.Update(c.Request.Context(), claims.UserID, courseID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Course updated successfully", course)
}

// Delete godoc
// @Summary Delete course
// @Tags Admin
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/courses/{courseId} [delete]
func (h *AdminCourseHandler) Delete(c *gin.Context) {
	courseID, ok := idParam(c, "courseId", "Course not found")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), courseID); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Course deleted successfully", nil)
}
