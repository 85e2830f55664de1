package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/neolms-api/internal/models"
	appErrors "github.com/noah-isme/neolms-api/pkg/errors"
)

type lessonContentReader interface {
	FindByID(ctx context.Context, id string) (*models.Lesson, error)
	Content(ctx context.Context, id string) (*models.LessonContent, error)
}

type progressRepository interface {
	Find(ctx context.Context, userID, lessonID string) (*models.LessonProgress, error)
	MarkCompleted(ctx context.Context, userID, lessonID string) (*models.LessonProgress, error)
}

// LearningService serves lesson content and progress to learners.
type LearningService struct {
	lessons     lessonContentReader
	progress    progressRepository
	enrollments enrollmentLookup
	logger      *zap.Logger
}

// NewLearningService constructs a LearningService.
func NewLearningService(lessons lessonContentReader, progress progressRepository, enrollments enrollmentLookup, logger *zap.Logger) *LearningService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LearningService{lessons: lessons, progress: progress, enrollments: enrollments, logger: logger}
}

// LessonContent returns a lesson with the caller's progress when the caller is
// enrolled in its course.
func (s *LearningService) LessonContent(ctx context.Context, lessonID, userID string) (*models.LessonContent, error) {
	const notFound = "Lesson not found or not enrolled"
	content, err := s.lessons.Content(ctx, lessonID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, notFound)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}

	enrolled, err := isEnrolled(ctx, s.enrollments, userID, content.CourseID)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return nil, appErrors.Clone(appErrors.ErrNotFound, notFound)
	}

	progress, err := s.progress.Find(ctx, userID, lessonID)
	switch {
	case err == nil:
		content.Progress = progress
	case !errors.Is(err, sql.ErrNoRows):
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson progress")
	}
	return content, nil
}

// MarkComplete records the lesson as completed for the caller. Repeated calls
// leave a single completed row.
func (s *LearningService) MarkComplete(ctx context.Context, lessonID, userID string) (*models.LessonProgress, error) {
	if _, err := s.lessons.FindByID(ctx, lessonID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Lesson not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}

	progress, err := s.progress.MarkCompleted(ctx, userID, lessonID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update lesson progress")
	}
	s.logger.Debug("lesson completed", zap.String("lesson_id", lessonID), zap.String("user_id", userID))
	return progress, nil
}
