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

const enrollmentColumns = `id, user_id, course_id, amount, status, created_at, updated_at`

// EnrollmentRepository provides database access for enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository creates a new instance of EnrollmentRepository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// FindByUserCourse returns the enrollment for a (user, course) pair.
func (r *EnrollmentRepository) FindByUserCourse(ctx context.Context, userID, courseID string) (*models.Enrollment, error) {
	const query = `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE user_id = $1 AND course_id = $2`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, userID, courseID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find enrollment: %w", err)
	}
	return &enrollment, nil
}

// ListEnrolledCourses returns the user's Completed enrollments with lesson progress counts.
func (r *EnrollmentRepository) ListEnrolledCourses(ctx context.Context, userID string) ([]models.EnrolledCourse, error) {
	const query = `SELECT c.id AS course_id, c.title, c.slug, c.small_description, c.file_key, c.duration, c.level,
COUNT(DISTINCT l.id) AS total_lessons,
COUNT(DISTINCT lp.lesson_id) FILTER (WHERE lp.completed) AS completed_lessons
FROM enrollments e
JOIN courses c ON c.id = e.course_id
LEFT JOIN chapters ch ON ch.course_id = c.id
LEFT JOIN lessons l ON l.chapter_id = ch.id
LEFT JOIN lesson_progress lp ON lp.lesson_id = l.id AND lp.user_id = e.user_id
WHERE e.user_id = $1 AND e.status = $2
GROUP BY c.id, e.created_at
ORDER BY e.created_at DESC`
	courses := make([]models.EnrolledCourse, 0)
	if err := r.db.SelectContext(ctx, &courses, query, userID, models.EnrollmentCompleted); err != nil {
		return nil, fmt.Errorf("list enrolled courses: %w", err)
	}
	return courses, nil
}

// ApplyForUserCourse runs fn against the (user, course) enrollment while holding
// a lock on the user row, inserting or updating the result.
func (r *EnrollmentRepository) ApplyForUserCourse(ctx context.Context, userID, courseID string, fn models.EnrollmentMutation) (*models.Enrollment, error) {
	var result *models.Enrollment
	err := withTx(ctx, r.db, "enrollment checkout", func(tx *sqlx.Tx) error {
		var lockedID string
		if err := tx.GetContext(ctx, &lockedID, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID); err != nil {
			if err == sql.ErrNoRows {
				return ErrParentNotFound
			}
			return fmt.Errorf("lock user: %w", err)
		}

		const query = `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE user_id = $1 AND course_id = $2 FOR UPDATE`
		var current models.Enrollment
		var currentPtr *models.Enrollment
		if err := tx.GetContext(ctx, &current, query, userID, courseID); err != nil {
			if err != sql.ErrNoRows {
				return fmt.Errorf("lock enrollment: %w", err)
			}
		} else {
			currentPtr = &current
		}

		next, err := fn(currentPtr)
		if err != nil {
			return err
		}
		if next == nil {
			result = currentPtr
			return nil
		}
		if currentPtr == nil {
			next.UserID = userID
			next.CourseID = courseID
			if err := insertEnrollment(ctx, tx, next); err != nil {
				return err
			}
		} else if err := updateEnrollment(ctx, tx, next); err != nil {
			return err
		}
		result = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ApplyByID runs fn against the enrollment with the given id under a row lock.
// A missing row yields sql.ErrNoRows.
func (r *EnrollmentRepository) ApplyByID(ctx context.Context, id string, fn models.EnrollmentMutation) (*models.Enrollment, error) {
	var result *models.Enrollment
	err := withTx(ctx, r.db, "enrollment transition", func(tx *sqlx.Tx) error {
		const query = `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE id = $1 FOR UPDATE`
		var current models.Enrollment
		if err := tx.GetContext(ctx, &current, query, id); err != nil {
			if err == sql.ErrNoRows {
				return err
			}
			return fmt.Errorf("lock enrollment: %w", err)
		}

		next, err := fn(&current)
		if err != nil {
			return err
		}
		if next == nil {
			result = &current
			return nil
		}
		if err := updateEnrollment(ctx, tx, next); err != nil {
			return err
		}
		result = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func insertEnrollment(ctx context.Context, tx *sqlx.Tx, e *models.Enrollment) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	const query = `INSERT INTO enrollments (` + enrollmentColumns + `) VALUES (:id, :user_id, :course_id, :amount, :status, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, e); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

func updateEnrollment(ctx context.Context, tx *sqlx.Tx, e *models.Enrollment) error {
	e.UpdatedAt = time.Now().UTC()
	const query = `UPDATE enrollments SET amount = :amount, status = :status, updated_at = :updated_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, query, e); err != nil {
		return fmt.Errorf("update enrollment: %w", err)
	}
	return nil
}
