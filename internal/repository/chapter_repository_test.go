package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/neolms-api/internal/models"
	"github.com/noah-isme/neolms-api/pkg/ordering"
)

const (
	courseA   = "11111111-1111-1111-1111-111111111111"
	chapterA  = "22222222-2222-2222-2222-222222222221"
	chapterB  = "22222222-2222-2222-2222-222222222222"
	chapterC  = "22222222-2222-2222-2222-222222222223"
	outsideID = "99999999-9999-9999-9999-999999999999"
)

func TestChapterCreateAppendsAfterMax(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewChapterRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM courses WHERE id = $1 FOR UPDATE")).
		WithArgs(courseA).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(courseA))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT MAX(position) FROM chapters WHERE course_id = $1")).
		WithArgs(courseA).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(3))
	mock.ExpectExec("INSERT INTO chapters").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	chapter := &models.Chapter{Title: "Advanced topics", CourseID: courseA}
	require.NoError(t, repo.Create(context.Background(), chapter))
	assert.Equal(t, 4, chapter.Position)
	assert.NotEmpty(t, chapter.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChapterCreateFirstGetsPositionOne(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewChapterRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM courses WHERE id = \\$1 FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(courseA))
	mock.ExpectQuery("SELECT MAX\\(position\\) FROM chapters").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(nil))
	mock.ExpectExec("INSERT INTO chapters").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	chapter := &models.Chapter{Title: "Intro", CourseID: courseA}
	require.NoError(t, repo.Create(context.Background(), chapter))
	assert.Equal(t, 1, chapter.Position)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChapterCreateMissingCourse(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewChapterRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM courses WHERE id = \\$1 FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.Chapter{Title: "Intro", CourseID: courseA})
	assert.ErrorIs(t, err, ErrParentNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChapterDeleteCompactsSiblings(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewChapterRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM courses WHERE id = \\$1 FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(courseA))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, position FROM chapters WHERE course_id = $1 ORDER BY position ASC")).
		WithArgs(courseA).
		WillReturnRows(sqlmock.NewRows([]string{"id", "position"}).
			AddRow(chapterA, 1).AddRow(chapterB, 2).AddRow(chapterC, 3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM chapters WHERE id = $1 AND course_id = $2")).
		WithArgs(chapterB, courseA).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE chapters AS t SET position = v.position")).
		WithArgs(courseA, sqlmock.AnyArg(), chapterC, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), courseA, chapterB))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChapterDeleteMissingTargetWritesNothing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewChapterRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM courses WHERE id = \\$1 FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(courseA))
	mock.ExpectQuery("SELECT id, position FROM chapters").
		WillReturnRows(sqlmock.NewRows([]string{"id", "position"}).AddRow(chapterA, 1).AddRow(chapterB, 2))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), courseA, outsideID)
	assert.ErrorIs(t, err, ordering.ErrTargetNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChapterReorderBulkUpdate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewChapterRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM courses WHERE id = \\$1 FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(courseA))
	mock.ExpectQuery("SELECT id, position FROM chapters").
		WillReturnRows(sqlmock.NewRows([]string{"id", "position"}).AddRow(chapterA, 1).AddRow(chapterB, 2))
	mock.ExpectExec(regexp.QuoteMeta("FROM (VALUES ($3::uuid, $4::int), ($5::uuid, $6::int)) AS v(id, position) WHERE t.id = v.id AND t.course_id = $1")).
		WithArgs(courseA, sqlmock.AnyArg(), chapterB, 1, chapterA, 2).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := repo.Reorder(context.Background(), courseA, []ordering.Item{{ID: chapterB, Position: 1}, {ID: chapterA, Position: 2}})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChapterReorderForeignIDRollsBack(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewChapterRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM courses WHERE id = \\$1 FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(courseA))
	mock.ExpectQuery("SELECT id, position FROM chapters").
		WillReturnRows(sqlmock.NewRows([]string{"id", "position"}).AddRow(chapterA, 1))
	mock.ExpectRollback()

	err := repo.Reorder(context.Background(), courseA, []ordering.Item{{ID: chapterA, Position: 2}, {ID: outsideID, Position: 1}})
	assert.True(t, errors.Is(err, ordering.ErrUnknownID))
	assert.NoError(t, mock.ExpectationsWereMet())
}
