package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/neolms-api/internal/models"
	appErrors "github.com/noah-isme/neolms-api/pkg/errors"
)

type catalogRepository interface {
	ListPublished(ctx context.Context) ([]models.CourseSummary, error)
	FindBySlug(ctx context.Context, slug string) (*models.Course, error)
	Outline(ctx context.Context, courseID, userID string) ([]models.OutlineRow, error)
}

type enrollmentLookup interface {
	FindByUserCourse(ctx context.Context, userID, courseID string) (*models.Enrollment, error)
}

// CourseService serves the public catalog and the enrolled learner's course view.
type CourseService struct {
	courses     catalogRepository
	enrollments enrollmentLookup
	logger      *zap.Logger
}

// NewCourseService constructs a CourseService.
func NewCourseService(courses catalogRepository, enrollments enrollmentLookup, logger *zap.Logger) *CourseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{courses: courses, enrollments: enrollments, logger: logger}
}

// ListPublished returns the published catalog, newest first.
func (s *CourseService) ListPublished(ctx context.Context) ([]models.CourseSummary, error) {
	courses, err := s.courses.ListPublished(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, nil
}

// GetBySlug returns a course with its public outline.
func (s *CourseService) GetBySlug(ctx context.Context, slug string) (*models.CourseDetail, error) {
	course, err := s.findBySlug(ctx, slug, "Course not found")
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, course, "", outlinePublic)
}

// Sidebar returns the outline with the caller's progress. Only learners with a
// Completed enrollment can see it.
func (s *CourseService) Sidebar(ctx context.Context, slug, userID string) (*models.CourseDetail, error) {
	const notFound = "Course not found or not enrolled"
	course, err := s.findBySlug(ctx, slug, notFound)
	if err != nil {
		return nil, err
	}
	enrolled, err := isEnrolled(ctx, s.enrollments, userID, course.ID)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return nil, appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return s.detail(ctx, course, userID, outlineLearner)
}

func (s *CourseService) findBySlug(ctx context.Context, slug, notFound string) (*models.Course, error) {
	course, err := s.courses.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, notFound)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

func (s *CourseService) detail(ctx context.Context, course *models.Course, userID string, view outlineView) (*models.CourseDetail, error) {
	rows, err := s.courses.Outline(ctx, course.ID, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course outline")
	}
	return &models.CourseDetail{Course: *course, Chapters: buildOutline(rows, view)}, nil
}

// isEnrolled reports whether userID holds a Completed enrollment for courseID.
func isEnrolled(ctx context.Context, enrollments enrollmentLookup, userID, courseID string) (bool, error) {
	enrollment, err := enrollments.FindByUserCourse(ctx, userID, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	return enrollment.Status == models.EnrollmentCompleted, nil
}
