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

// ChapterRepository manages chapters and their positions within a course.
type ChapterRepository struct {
	db *sqlx.DB
}

// NewChapterRepository creates a new instance of ChapterRepository.
func NewChapterRepository(db *sqlx.DB) *ChapterRepository {
	return &ChapterRepository{db: db}
}

// FindByID returns a chapter by identifier.
func (r *ChapterRepository) FindByID(ctx context.Context, id string) (*models.Chapter, error) {
	const query = `SELECT id, title, position, course_id, created_at, updated_at FROM chapters WHERE id = $1`
	var chapter models.Chapter
	if err := r.db.GetContext(ctx, &chapter, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find chapter: %w", err)
	}
	return &chapter, nil
}

// Create appends a chapter at the end of the course.
func (r *ChapterRepository) Create(ctx context.Context, chapter *models.Chapter) error {
	if chapter.ID == "" {
		chapter.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	chapter.CreatedAt = now
	chapter.UpdatedAt = now

	return withTx(ctx, r.db, "create chapter", func(tx *sqlx.Tx) error {
		if err := chapterPositions.lockParent(ctx, tx, chapter.CourseID); err != nil {
			return err
		}
		position, err := chapterPositions.nextPosition(ctx, tx, chapter.CourseID)
		if err != nil {
			return err
		}
		chapter.Position = position

		const query = `INSERT INTO chapters (id, title, position, course_id, created_at, updated_at) VALUES (:id, :title, :position, :course_id, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, query, chapter); err != nil {
			return fmt.Errorf("create chapter: %w", err)
		}
		return nil
	})
}

// Delete removes a chapter from the course and renumbers its siblings.
func (r *ChapterRepository) Delete(ctx context.Context, courseID, chapterID string) error {
	return withTx(ctx, r.db, "delete chapter", func(tx *sqlx.Tx) error {
		if err := chapterPositions.lockParent(ctx, tx, courseID); err != nil {
			return err
		}
		return chapterPositions.deleteAndCompact(ctx, tx, courseID, chapterID)
	})
}

// Reorder writes caller-supplied positions for the course's chapters.
func (r *ChapterRepository) Reorder(ctx context.Context, courseID string, items []ordering.Item) error {
	return withTx(ctx, r.db, "reorder chapters", func(tx *sqlx.Tx) error {
		if err := chapterPositions.lockParent(ctx, tx, courseID); err != nil {
			return err
		}
		return chapterPositions.reorder(ctx, tx, courseID, items)
	})
}
