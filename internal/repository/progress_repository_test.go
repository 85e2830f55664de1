package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/neolms-api/pkg/errors"
)

func TestMarkCompletedUpserts(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProgressRepository(db)

	now := time.Now()
	mock.ExpectQuery("ON CONFLICT \\(user_id, lesson_id\\) DO UPDATE SET completed = TRUE").
		WithArgs(sqlmock.AnyArg(), "u1", "l1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "lesson_id", "completed", "created_at", "updated_at"}).
			AddRow("p1", "u1", "l1", true, now, now))

	progress, err := repo.MarkCompleted(context.Background(), "u1", "l1")
	require.NoError(t, err)
	assert.True(t, progress.Completed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheRepositoryWithoutClientMisses(t *testing.T) {
	repo := NewCacheRepository(nil)
	var dest map[string]int
	assert.ErrorIs(t, repo.Get(context.Background(), "k", &dest), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(context.Background(), "k", 1, time.Minute))
	assert.NoError(t, repo.Ping(context.Background()))
}
