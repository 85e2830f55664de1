package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/neolms-api/internal/models"
	"github.com/noah-isme/neolms-api/pkg/ordering"
)

const lessonColumns = `id, title, description, thumbnail_key, video_key, position, chapter_id, created_at, updated_at`

// LessonRepository manages lessons and their positions within a chapter.
type LessonRepository struct {
	db *sqlx.DB
}

// NewLessonRepository creates a new instance of LessonRepository.
func NewLessonRepository(db *sqlx.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

// FindByID returns a lesson by identifier.
func (r *LessonRepository) FindByID(ctx context.Context, id string) (*models.Lesson, error) {
	query := `SELECT ` + lessonColumns + ` FROM lessons WHERE id = $1`
	var lesson models.Lesson
	if err := r.db.GetContext(ctx, &lesson, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find lesson: %w", err)
	}
	return &lesson, nil
}

// Content returns a lesson together with its course title and slug.
func (r *LessonRepository) Content(ctx context.Context, id string) (*models.LessonContent, error) {
	const query = `SELECT l.id, l.title, l.description, l.thumbnail_key, l.video_key, l.position, l.chapter_id, l.created_at, l.updated_at,
c.id AS course_id, c.title AS course_title, c.slug AS course_slug
FROM lessons l
JOIN chapters ch ON ch.id = l.chapter_id
JOIN courses c ON c.id = ch.course_id
WHERE l.id = $1`
	var content models.LessonContent
	if err := r.db.GetContext(ctx, &content, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find lesson content: %w", err)
	}
	return &content, nil
}

// ListDates returns every lesson's creation time, oldest first.
func (r *LessonRepository) ListDates(ctx context.Context) ([]models.LessonDate, error) {
	const query = `SELECT id, created_at FROM lessons ORDER BY created_at ASC`
	dates := make([]models.LessonDate, 0)
	if err := r.db.SelectContext(ctx, &dates, query); err != nil {
		return nil, fmt.Errorf("list lesson dates: %w", err)
	}
	return dates, nil
}

// Create appends a lesson at the end of a chapter belonging to courseID.
func (r *LessonRepository) Create(ctx context.Context, courseID string, lesson *models.Lesson) error {
	if lesson.ID == "" {
		lesson.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	lesson.CreatedAt = now
	lesson.UpdatedAt = now

	return withTx(ctx, r.db, "create lesson", func(tx *sqlx.Tx) error {
		const lockQuery = `SELECT id FROM chapters WHERE id = $1 AND course_id = $2 FOR UPDATE`
		var chapterID string
		if err := tx.GetContext(ctx, &chapterID, lockQuery, lesson.ChapterID, courseID); err != nil {
			if err == sql.ErrNoRows {
				return ErrParentNotFound
			}
			return fmt.Errorf("lock chapters: %w", err)
		}
		position, err := lessonPositions.nextPosition(ctx, tx, lesson.ChapterID)
		if err != nil {
			return err
		}
		lesson.Position = position

		const query = `INSERT INTO lessons (` + lessonColumns + `) VALUES (:id, :title, :description, :thumbnail_key, :video_key, :position, :chapter_id, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, query, lesson); err != nil {
			return fmt.Errorf("create lesson: %w", err)
		}
		return nil
	})
}

// Update changes a lesson's content fields; position and chapter are untouched.
func (r *LessonRepository) Update(ctx context.Context, lesson *models.Lesson) error {
	lesson.UpdatedAt = time.Now().UTC()
	const query = `UPDATE lessons SET title = :title, description = :description, thumbnail_key = :thumbnail_key, video_key = :video_key, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, lesson)
	if err != nil {
		return fmt.Errorf("update lesson: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update lesson: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a lesson from the chapter and renumbers its siblings.
func (r *LessonRepository) Delete(ctx context.Context, chapterID, lessonID string) error {
	return withTx(ctx, r.db, "delete lesson", func(tx *sqlx.Tx) error {
		if err := lessonPositions.lockParent(ctx, tx, chapterID); err != nil {
			return err
		}
		return lessonPositions.deleteAndCompact(ctx, tx, chapterID, lessonID)
	})
}

// Reorder writes caller-supplied positions for the chapter's lessons.
func (r *LessonRepository) Reorder(ctx context.Context, chapterID string, items []ordering.Item) error {
	return withTx(ctx, r.db, "reorder lessons", func(tx *sqlx.Tx) error {
		if err := lessonPositions.lockParent(ctx, tx, chapterID); err != nil {
			return err
		}
		return lessonPositions.reorder(ctx, tx, chapterID, items)
	})
}
