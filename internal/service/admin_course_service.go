package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/neolms-api/internal/models"
	"github.com/noah-isme/neolms-api/internal/repository"
	appErrors "github.com/noah-isme/neolms-api/pkg/errors"
	"github.com/noah-isme/neolms-api/pkg/payment"
)

const recentCoursesLimit = 2

type adminCourseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.AdminCourseSummary, int, error)
	Recent(ctx context.Context, limit int) ([]models.AdminCourseSummary, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	FindBySlug(ctx context.Context, slug string) (*models.Course, error)
	Outline(ctx context.Context, courseID, userID string) ([]models.OutlineRow, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) error
}

type productCatalog interface {
	CreateProduct(ctx context.Context, in payment.ProductInput) (string, error)
}

// AdminCourseService implements course management for administrators.
type AdminCourseService struct {
	repo      adminCourseRepository
	products  productCatalog
	validator *validator.Validate
	logger    *zap.Logger
	media     mediaScheduler
}

// NewAdminCourseService constructs an AdminCourseService.
func NewAdminCourseService(repo adminCourseRepository, products productCatalog, validate *validator.Validate, logger *zap.Logger) *AdminCourseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminCourseService{repo: repo, products: products, validator: defaultValidator(validate), logger: logger}
}

// WithMediaCleanup makes the service delete media orphaned by course edits and deletions.
func (s *AdminCourseService) WithMediaCleanup(media mediaScheduler) *AdminCourseService {
	s.media = media
	return s
}

// List returns a page of courses, newest first.
func (s *AdminCourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.AdminCourseSummary, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 50
	}
	courses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Recent returns the newest courses for the dashboard.
func (s *AdminCourseService) Recent(ctx context.Context) ([]models.AdminCourseSummary, error) {
	courses, err := s.repo.Recent(ctx, recentCoursesLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list recent courses")
	}
	return courses, nil
}

// Get returns a course with every chapter and lesson ordered by position.
func (s *AdminCourseService) Get(ctx context.Context, id string) (*models.CourseDetail, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	rows, err := s.repo.Outline(ctx, course.ID, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course outline")
	}
	return &models.CourseDetail{Course: *course, Chapters: buildOutline(rows, outlineAdmin)}, nil
}

// Create registers the course as a payment product, then stores it with the
// product's default price reference.
func (s *AdminCourseService) Create(ctx context.Context, userID string, req models.CourseRequest) (*models.Course, error) {
	course, err := s.courseFromRequest(req)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.FindBySlug(ctx, course.Slug); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "Slug is already in use")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check slug")
	}

	priceID, err := s.products.CreateProduct(ctx, payment.ProductInput{
		Name:        course.Title,
		Description: course.SmallDescription,
		UnitAmount:  course.Price,
	})
	if err != nil {
		var providerErr *payment.ProviderError
		if errors.As(err, &providerErr) {
			return nil, appErrors.Wrap(err, appErrors.ErrPaymentProvider.Code, appErrors.ErrPaymentProvider.Status, appErrors.ErrPaymentProvider.Message+": "+providerErr.Message)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create payment product")
	}

	course.StripePriceID = priceID
	course.UserID = userID
	if err := s.repo.Create(ctx, course); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "Slug is already in use")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	s.logger.Info("course created", zap.String("course_id", course.ID), zap.String("slug", course.Slug), zap.String("price_id", priceID))
	return course, nil
}

// Update edits a course owned by userID.
func (s *AdminCourseService) Update(ctx context.Context, userID, courseID string, req models.CourseRequest) (*models.CourseDetail, error) {
	course, err := s.courseFromRequest(req)
	if err != nil {
		return nil, err
	}
	course.ID = courseID
	course.UserID = userID

	var previousKey string
	if s.media != nil {
		if existing, err := s.repo.FindByID(ctx, courseID); err == nil && existing.UserID == userID {
			previousKey = existing.FileKey
		}
	}

	if err := s.repo.Update(ctx, course); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Course not found")
		case errors.Is(err, repository.ErrDuplicate):
			return nil, appErrors.Clone(appErrors.ErrConflict, "Slug is already in use")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	scheduleMedia(s.media, replacedKeys([]string{previousKey}, []string{course.FileKey})...)
	return s.Get(ctx, courseID)
}

// Delete removes a course with its chapters, lessons and enrollments.
func (s *AdminCourseService) Delete(ctx context.Context, courseID string) error {
	media := s.courseMedia(ctx, courseID)
	if err := s.repo.Delete(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "Course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	s.logger.Info("course deleted", zap.String("course_id", courseID), zap.Int("media_keys", len(media)))
	scheduleMedia(s.media, media...)
	return nil
}

// courseMedia lists every object key the course and its lessons reference.
func (s *AdminCourseService) courseMedia(ctx context.Context, courseID string) []string {
	if s.media == nil {
		return nil
	}
	course, err := s.repo.FindByID(ctx, courseID)
	if err != nil {
		return nil
	}
	keys := []string{course.FileKey}
	rows, err := s.repo.Outline(ctx, courseID, "")
	if err != nil {
		s.logger.Warn("course media lookup failed", zap.String("course_id", courseID), zap.Error(err))
		return keys
	}
	for _, row := range rows {
		keys = append(keys, deref(row.LessonThumbnailKey), deref(row.LessonVideoKey))
	}
	return keys
}

func (s *AdminCourseService) courseFromRequest(req models.CourseRequest) (*models.Course, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Slug = strings.TrimSpace(req.Slug)
	req.SmallDescription = strings.TrimSpace(req.SmallDescription)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid course payload")
	}

	level := models.CourseLevelBeginner
	if req.Level != "" {
		level, _ = models.ParseCourseLevel(req.Level)
	}
	status, _ := models.ParseCourseStatus(req.Status)

	return &models.Course{
		Title:            req.Title,
		Slug:             req.Slug,
		Description:      req.Description,
		SmallDescription: req.SmallDescription,
		FileKey:          req.FileKey,
		Price:            req.Price,
		Duration:         req.Duration,
		Level:            level,
		Category:         req.Category,
		Status:           status,
	}, nil
}
