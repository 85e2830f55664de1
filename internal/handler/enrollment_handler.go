package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/noah-isme/neolms-api/internal/models"
	"github.com/noah-isme/neolms-api/pkg/response"
)

type enrollmentService interface {
	ListEnrolled(ctx context.Context, userID string) ([]models.EnrolledCourse, error)
	IsEnrolled(ctx context.Context, userID, courseID string) (bool, error)
}

// EnrollmentHandler exposes the caller's enrollments.
type EnrollmentHandler struct {
	service enrollmentService
}

// NewEnrollmentHandler constructs an EnrollmentHandler.
func NewEnrollmentHandler(svc enrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{service: svc}
}

// List godoc
// @Summary Enrolled courses
// @Tags Enrollments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /enrollments [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	courses, err := h.service.ListEnrolled(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Enrollments retrieved", courses)
}

// Check godoc
// @Summary Enrollment check
// @Tags Enrollments
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/check/{courseId} [get]
func (h *EnrollmentHandler) Check(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	courseID := c.Param("courseId")
	if _, err := uuid.Parse(courseID); err != nil {
		response.OK(c, "Enrollment status retrieved", gin.H{"enrolled": false})
		return
	}
	enrolled, err := h.service.IsEnrolled(c.Request.Context(), claims.UserID, courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Enrollment status retrieved", gin.H{"enrolled": enrolled})
}
