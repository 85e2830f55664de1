package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/neolms-api/internal/models"
	appErrors "github.com/noah-isme/neolms-api/pkg/errors"
	"github.com/noah-isme/neolms-api/pkg/ordering"
)

type chapterRepository interface {
	Create(ctx context.Context, chapter *models.Chapter) error
	Delete(ctx context.Context, courseID, chapterID string) error
	Reorder(ctx context.Context, courseID string, items []ordering.Item) error
}

// ChapterService maintains the chapters of a course and their positions.
type ChapterService struct {
	repo      chapterRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewChapterService constructs a ChapterService.
func NewChapterService(repo chapterRepository, validate *validator.Validate, logger *zap.Logger) *ChapterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChapterService{repo: repo, validator: defaultValidator(validate), logger: logger}
}

// Create appends a chapter after the course's last chapter.
func (s *ChapterService) Create(ctx context.Context, req models.CreateChapterRequest) (*models.Chapter, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid chapter payload")
	}

	chapter := &models.Chapter{Title: req.Name, CourseID: req.CourseID}
	if err := s.repo.Create(ctx, chapter); err != nil {
		return nil, positionError(err, chapterMessages)
	}
	s.logger.Info("chapter created", zap.String("chapter_id", chapter.ID), zap.String("course_id", chapter.CourseID), zap.Int("position", chapter.Position))
	return chapter, nil
}

// Delete removes a chapter and closes the gap it leaves.
func (s *ChapterService) Delete(ctx context.Context, chapterID string, req models.DeleteChapterRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Validation(err, "invalid chapter payload")
	}
	if err := s.repo.Delete(ctx, req.CourseID, chapterID); err != nil {
		return positionError(err, chapterMessages)
	}
	s.logger.Info("chapter deleted", zap.String("chapter_id", chapterID), zap.String("course_id", req.CourseID))
	return nil
}

// Reorder applies client-supplied chapter positions in one transaction.
func (s *ChapterService) Reorder(ctx context.Context, req models.ReorderChaptersRequest) error {
	if len(req.Chapters) == 0 {
		return appErrors.Clone(appErrors.ErrBadRequest, chapterMessages.emptyOrder)
	}
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Validation(err, "invalid reorder payload")
	}
	if err := s.repo.Reorder(ctx, req.CourseID, toItems(req.Chapters)); err != nil {
		return positionError(err, chapterMessages)
	}
	return nil
}
