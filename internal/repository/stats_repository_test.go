package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/neolms-api/internal/models"
)

func TestStatsCounts(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStatsRepository(db)

	mock.ExpectQuery("SELECT COUNT\\(DISTINCT user_id\\) FROM enrollments").
		WithArgs(models.EnrollmentCompleted).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))
	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(amount\\), 0\\) FROM enrollments").
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(123450))

	customers, err := repo.CountCustomers(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 7, customers)

	revenue, err := repo.CompletedRevenue(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 123450, revenue)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsEnrollmentDays(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStatsRepository(db)

	since := time.Date(2026, 9, 16, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("GROUP BY day").
		WithArgs(models.EnrollmentCompleted, since).
		WillReturnRows(sqlmock.NewRows([]string{"day", "enrollments", "revenue"}).AddRow("2026-09-20", 2, 9900))

	days, err := repo.EnrollmentDays(context.Background(), since)
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, "2026-09-20", days[0].Day)
	assert.NoError(t, mock.ExpectationsWereMet())
}
