package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/neolms-api/internal/models"
)

const courseColumns = `id, title, slug, description, small_description, file_key, price, duration, level, category, status, stripe_price_id, user_id, created_at, updated_at`

// CourseRepository provides database access for the course catalog.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository creates a new instance of CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// ListPublished returns published courses, newest first.
func (r *CourseRepository) ListPublished(ctx context.Context) ([]models.CourseSummary, error) {
	const query = `SELECT id, title, slug, small_description, file_key, duration, level, category FROM courses WHERE status = $1 ORDER BY created_at DESC`
	courses := make([]models.CourseSummary, 0)
	if err := r.db.SelectContext(ctx, &courses, query, models.CourseStatusPublished); err != nil {
		return nil, fmt.Errorf("list published courses: %w", err)
	}
	return courses, nil
}

// List returns admin course rows with total count.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.AdminCourseSummary, int, error) {
	baseQuery := `FROM courses WHERE 1=1`
	var args []interface{}
	if filter.Status != nil {
		baseQuery += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, *filter.Status)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 50
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT id, title, slug, small_description, file_key, duration, level, status, price %s ORDER BY created_at DESC LIMIT %d OFFSET %d", baseQuery, pageSize, offset)
	courses := make([]models.AdminCourseSummary, 0)
	if err := r.db.SelectContext(ctx, &courses, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+baseQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	return courses, total, nil
}

// Recent returns the newest courses.
func (r *CourseRepository) Recent(ctx context.Context, limit int) ([]models.AdminCourseSummary, error) {
	const query = `SELECT id, title, slug, small_description, file_key, duration, level, status, price FROM courses ORDER BY created_at DESC LIMIT $1`
	courses := make([]models.AdminCourseSummary, 0)
	if err := r.db.SelectContext(ctx, &courses, query, limit); err != nil {
		return nil, fmt.Errorf("list recent courses: %w", err)
	}
	return courses, nil
}

// FindByID returns a course by identifier.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	return r.findOne(ctx, `SELECT `+courseColumns+` FROM courses WHERE id = $1`, id)
}

// FindBySlug returns a course by its unique slug.
func (r *CourseRepository) FindBySlug(ctx context.Context, slug string) (*models.Course, error) {
	return r.findOne(ctx, `SELECT `+courseColumns+` FROM courses WHERE slug = $1`, slug)
}

func (r *CourseRepository) findOne(ctx context.Context, query string, arg string) (*models.Course, error) {
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, arg); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find course: %w", err)
	}
	return &course, nil
}

// Outline returns the course's chapters and lessons ordered by position.
// When userID is set, each lesson row carries that user's progress.
func (r *CourseRepository) Outline(ctx context.Context, courseID, userID string) ([]models.OutlineRow, error) {
	const query = `SELECT ch.id AS chapter_id, ch.title AS chapter_title, ch.position AS chapter_position,
l.id AS lesson_id, l.title AS lesson_title, l.description AS lesson_description,
l.thumbnail_key AS lesson_thumbnail_key, l.video_key AS lesson_video_key, l.position AS lesson_position,
lp.id AS progress_id, lp.completed AS progress_completed
FROM chapters ch
LEFT JOIN lessons l ON l.chapter_id = ch.id
LEFT JOIN lesson_progress lp ON lp.lesson_id = l.id AND lp.user_id = $2
WHERE ch.course_id = $1
ORDER BY ch.position ASC, l.position ASC NULLS LAST`
	user := sql.NullString{String: userID, Valid: userID != ""}
	rows := make([]models.OutlineRow, 0)
	if err := r.db.SelectContext(ctx, &rows, query, courseID, user); err != nil {
		return nil, fmt.Errorf("load course outline: %w", err)
	}
	return rows, nil
}

// Create inserts a course. A taken slug yields ErrDuplicate.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	course.CreatedAt = now
	course.UpdatedAt = now

	const query = `INSERT INTO courses (` + courseColumns + `) VALUES (:id, :title, :slug, :description, :small_description, :file_key, :price, :duration, :level, :category, :status, :stripe_price_id, :user_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Update rewrites the editable fields of a course owned by course.UserID.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	course.UpdatedAt = time.Now().UTC()
	const query = `UPDATE courses SET title = :title, slug = :slug, description = :description, small_description = :small_description,
file_key = :file_key, price = :price, duration = :duration, level = :level, category = :category, status = :status, updated_at = :updated_at
WHERE id = :id AND user_id = :user_id`
	res, err := r.db.NamedExecContext(ctx, query, course)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("update course: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a course; chapters, lessons, progress and enrollments cascade.
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// MediaReferenced reports whether any course cover or lesson asset still points at key.
func (r *CourseRepository) MediaReferenced(ctx context.Context, key string) (bool, error) {
	const query = `SELECT EXISTS (
		SELECT 1 FROM courses WHERE file_key = $1
		UNION ALL
		SELECT 1 FROM lessons WHERE thumbnail_key = $1 OR video_key = $1
	)`
	var referenced bool
	if err := r.db.GetContext(ctx, &referenced, query, key); err != nil {
		return false, fmt.Errorf("check media reference: %w", err)
	}
	return referenced, nil
}
