package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/neolms-api/internal/models"
	appErrors "github.com/noah-isme/neolms-api/pkg/errors"
	"github.com/noah-isme/neolms-api/pkg/ordering"
)

type lessonRepository interface {
	FindByID(ctx context.Context, id string) (*models.Lesson, error)
	ListDates(ctx context.Context) ([]models.LessonDate, error)
	Create(ctx context.Context, courseID string, lesson *models.Lesson) error
	Update(ctx context.Context, lesson *models.Lesson) error
	Delete(ctx context.Context, chapterID, lessonID string) error
	Reorder(ctx context.Context, chapterID string, items []ordering.Item) error
}

// LessonService manages lessons from the admin console.
type LessonService struct {
	repo      lessonRepository
	validator *validator.Validate
	logger    *zap.Logger
	media     mediaScheduler
}

// NewLessonService constructs a LessonService.
func NewLessonService(repo lessonRepository, validate *validator.Validate, logger *zap.Logger) *LessonService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LessonService{repo: repo, validator: defaultValidator(validate), logger: logger}
}

// WithMediaCleanup makes the service delete media orphaned by lesson edits and deletions.
func (s *LessonService) WithMediaCleanup(media mediaScheduler) *LessonService {
	s.media = media
	return s
}

// Get returns a lesson for editing.
func (s *LessonService) Get(ctx context.Context, id string) (*models.Lesson, error) {
	lesson, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Lesson not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}
	return lesson, nil
}

// ListDates returns lesson creation dates for the admin charts.
func (s *LessonService) ListDates(ctx context.Context) ([]models.LessonDate, error) {
	dates, err := s.repo.ListDates(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lessons")
	}
	return dates, nil
}

// Create appends a lesson after the chapter's last lesson. The chapter must
// belong to the named course.
func (s *LessonService) Create(ctx context.Context, req models.LessonRequest) (*models.Lesson, error) {
	req = trimLessonRequest(req)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid lesson payload")
	}

	lesson := &models.Lesson{
		Title:        req.Name,
		Description:  req.Description,
		ThumbnailKey: req.ThumbnailKey,
		VideoKey:     req.VideoKey,
		ChapterID:    req.ChapterID,
	}
	if err := s.repo.Create(ctx, req.CourseID, lesson); err != nil {
		return nil, positionError(err, positionMessages{
			parentNotFound: "Chapter not found in the specified course",
			failure:        lessonMessages.failure,
		})
	}
	s.logger.Info("lesson created", zap.String("lesson_id", lesson.ID), zap.String("chapter_id", lesson.ChapterID), zap.Int("position", lesson.Position))
	return lesson, nil
}

// Update rewrites a lesson's content. Its chapter and position are unchanged.
func (s *LessonService) Update(ctx context.Context, id string, req models.LessonRequest) (*models.Lesson, error) {
	req = trimLessonRequest(req)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid lesson payload")
	}

	lesson, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	before := []string{lesson.ThumbnailKey, lesson.VideoKey}
	lesson.Title = req.Name
	lesson.Description = req.Description
	lesson.ThumbnailKey = req.ThumbnailKey
	lesson.VideoKey = req.VideoKey
	if err := s.repo.Update(ctx, lesson); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Lesson not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update lesson")
	}
	scheduleMedia(s.media, replacedKeys(before, []string{lesson.ThumbnailKey, lesson.VideoKey})...)
	return lesson, nil
}

// Delete removes a lesson and closes the gap it leaves in its chapter.
func (s *LessonService) Delete(ctx context.Context, lessonID string, req models.DeleteLessonRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Validation(err, "invalid lesson payload")
	}
	var media []string
	if s.media != nil {
		if lesson, err := s.repo.FindByID(ctx, lessonID); err == nil && lesson.ChapterID == req.ChapterID {
			media = []string{lesson.ThumbnailKey, lesson.VideoKey}
		}
	}
	if err := s.repo.Delete(ctx, req.ChapterID, lessonID); err != nil {
		return positionError(err, lessonMessages)
	}
	s.logger.Info("lesson deleted", zap.String("lesson_id", lessonID), zap.String("chapter_id", req.ChapterID))
	scheduleMedia(s.media, replacedKeys(media, nil)...)
	return nil
}

// Reorder applies client-supplied lesson positions in one transaction.
func (s *LessonService) Reorder(ctx context.Context, req models.ReorderLessonsRequest) error {
	if len(req.Lessons) == 0 {
		return appErrors.Clone(appErrors.ErrBadRequest, lessonMessages.emptyOrder)
	}
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Validation(err, "invalid reorder payload")
	}
	if err := s.repo.Reorder(ctx, req.ChapterID, toItems(req.Lessons)); err != nil {
		return positionError(err, lessonMessages)
	}
	return nil
}

func trimLessonRequest(req models.LessonRequest) models.LessonRequest {
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	req.ThumbnailKey = strings.TrimSpace(req.ThumbnailKey)
	req.VideoKey = strings.TrimSpace(req.VideoKey)
	return req
}
