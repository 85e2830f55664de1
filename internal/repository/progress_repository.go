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

// ProgressRepository stores per-user lesson completion.
type ProgressRepository struct {
	db *sqlx.DB
}

// NewProgressRepository creates a new instance of ProgressRepository.
func NewProgressRepository(db *sqlx.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// Find returns the user's progress on a lesson.
func (r *ProgressRepository) Find(ctx context.Context, userID, lessonID string) (*models.LessonProgress, error) {
	const query = `SELECT id, user_id, lesson_id, completed, created_at, updated_at FROM lesson_progress WHERE user_id = $1 AND lesson_id = $2`
	var progress models.LessonProgress
	if err := r.db.GetContext(ctx, &progress, query, userID, lessonID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find lesson progress: %w", err)
	}
	return &progress, nil
}

// MarkCompleted upserts a completed progress row for the (user, lesson) pair.
func (r *ProgressRepository) MarkCompleted(ctx context.Context, userID, lessonID string) (*models.LessonProgress, error) {
	now := time.Now().UTC()
	const query = `INSERT INTO lesson_progress (id, user_id, lesson_id, completed, created_at, updated_at)
VALUES ($1, $2, $3, TRUE, $4, $4)
ON CONFLICT (user_id, lesson_id) DO UPDATE SET completed = TRUE, updated_at = EXCLUDED.updated_at
RETURNING id, user_id, lesson_id, completed, created_at, updated_at`
	var progress models.LessonProgress
	if err := r.db.GetContext(ctx, &progress, query, uuid.NewString(), userID, lessonID, now); err != nil {
		return nil, fmt.Errorf("mark lesson completed: %w", err)
	}
	return &progress, nil
}
