package service

import (
	"context"

	"github.com/noah-isme/neolms-api/internal/models"
	appErrors "github.com/noah-isme/neolms-api/pkg/errors"
)

type enrollmentReader interface {
	enrollmentLookup
	ListEnrolledCourses(ctx context.Context, userID string) ([]models.EnrolledCourse, error)
}

// EnrollmentService answers learner enrollment queries.
type EnrollmentService struct {
	repo enrollmentReader
}

// NewEnrollmentService constructs an EnrollmentService.
func NewEnrollmentService(repo enrollmentReader) *EnrollmentService {
	return &EnrollmentService{repo: repo}
}

// ListEnrolled returns the caller's Completed enrollments with progress counts.
func (s *EnrollmentService) ListEnrolled(ctx context.Context, userID string) ([]models.EnrolledCourse, error) {
	courses, err := s.repo.ListEnrolledCourses(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return courses, nil
}

// IsEnrolled reports whether the caller completed payment for the course.
func (s *EnrollmentService) IsEnrolled(ctx context.Context, userID, courseID string) (bool, error) {
	return isEnrolled(ctx, s.repo, userID, courseID)
}
