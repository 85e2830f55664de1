package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/neolms-api/internal/models"
)

// StatsRepository runs the aggregate queries behind the admin dashboard.
type StatsRepository struct {
	db *sqlx.DB
}

// NewStatsRepository creates a new instance of StatsRepository.
func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// CountUsers returns the number of registered users.
func (r *StatsRepository) CountUsers(ctx context.Context) (int64, error) {
	return r.count(ctx, "count users", `SELECT COUNT(*) FROM users`)
}

// CountCustomers returns the number of users with at least one Completed enrollment.
func (r *StatsRepository) CountCustomers(ctx context.Context) (int64, error) {
	return r.count(ctx, "count customers", `SELECT COUNT(DISTINCT user_id) FROM enrollments WHERE status = $1`, models.EnrollmentCompleted)
}

// CountCourses returns the number of courses.
func (r *StatsRepository) CountCourses(ctx context.Context) (int64, error) {
	return r.count(ctx, "count courses", `SELECT COUNT(*) FROM courses`)
}

// CountLessons returns the number of lessons.
func (r *StatsRepository) CountLessons(ctx context.Context) (int64, error) {
	return r.count(ctx, "count lessons", `SELECT COUNT(*) FROM lessons`)
}

// CompletedRevenue sums Completed enrollment amounts in cents.
func (r *StatsRepository) CompletedRevenue(ctx context.Context) (int64, error) {
	return r.count(ctx, "sum revenue", `SELECT COALESCE(SUM(amount), 0) FROM enrollments WHERE status = $1`, models.EnrollmentCompleted)
}

// EnrollmentDays aggregates Completed enrollments per UTC day since the given time.
func (r *StatsRepository) EnrollmentDays(ctx context.Context, since time.Time) ([]models.EnrollmentDay, error) {
	const query = `SELECT to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day, COUNT(*) AS enrollments, COALESCE(SUM(amount), 0) AS revenue
FROM enrollments
WHERE status = $1 AND created_at >= $2
GROUP BY day
ORDER BY day ASC`
	days := make([]models.EnrollmentDay, 0)
	if err := r.db.SelectContext(ctx, &days, query, models.EnrollmentCompleted, since); err != nil {
		return nil, fmt.Errorf("aggregate enrollment days: %w", err)
	}
	return days, nil
}

func (r *StatsRepository) count(ctx context.Context, label, query string, args ...interface{}) (int64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("%s: %w", label, err)
	}
	return n, nil
}
