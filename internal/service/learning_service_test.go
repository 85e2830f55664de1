package service

import (
	"context"
	"database/sql"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/neolms-api/internal/models"
	appErrors "github.com/noah-isme/neolms-api/pkg/errors"
)

type fakeLessonContent struct {
	lessons map[string]*models.LessonContent
}

func (f *fakeLessonContent) FindByID(ctx context.Context, id string) (*models.Lesson, error) {
	if l, ok := f.lessons[id]; ok {
		lesson := l.Lesson
		return &lesson, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeLessonContent) Content(ctx context.Context, id string) (*models.LessonContent, error) {
	if l, ok := f.lessons[id]; ok {
		cp := *l
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

type fakeProgress struct {
	rows map[string]*models.LessonProgress
}

func (f *fakeProgress) Find(ctx context.Context, userID, lessonID string) (*models.LessonProgress, error) {
	if p, ok := f.rows[userID+"/"+lessonID]; ok {
		return p, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeProgress) MarkCompleted(ctx context.Context, userID, lessonID string) (*models.LessonProgress, error) {
	key := userID + "/" + lessonID
	p, ok := f.rows[key]
	if !ok {
		p = &models.LessonProgress{ID: "p-" + lessonID, UserID: userID, LessonID: lessonID}
		f.rows[key] = p
	}
	p.Completed = true
	return p, nil
}

func newLearningFixture() (*LearningService, *fakeProgress, *fakeEnrollmentStore) {
	lessons := &fakeLessonContent{lessons: map[string]*models.LessonContent{
		"l-1": {Lesson: models.Lesson{ID: "l-1", Title: "Intro", VideoKey: "intro.mp4"}, CourseID: testCourseID, CourseTitle: "Go", CourseSlug: "go"},
	}}
	progress := &fakeProgress{rows: map[string]*models.LessonProgress{}}
	enrollments := newFakeEnrollmentStore()
	return NewLearningService(lessons, progress, enrollments, nil), progress, enrollments
}

func TestLessonContentRequiresEnrollment(t *testing.T) {
	svc, _, enrollments := newLearningFixture()

	_, err := svc.LessonContent(context.Background(), "l-1", testUserID)
	require.Error(t, err)
	assert.Equal(t, "Lesson not found or not enrolled", appErrors.FromError(err).Message)

	enrollments.rows["e"] = &models.Enrollment{ID: "e", UserID: testUserID, CourseID: testCourseID, Status: models.EnrollmentCompleted}
	content, err := svc.LessonContent(context.Background(), "l-1", testUserID)
	require.NoError(t, err)
	assert.Equal(t, "intro.mp4", content.VideoKey)
	assert.Equal(t, "go", content.CourseSlug)
	assert.Nil(t, content.Progress)
}

func TestMarkCompleteIsIdempotent(t *testing.T) {
	svc, progress, _ := newLearningFixture()

	for i := 0; i < 2; i++ {
		p, err := svc.MarkComplete(context.Background(), "l-1", testUserID)
		require.NoError(t, err)
		assert.True(t, p.Completed)
	}
	assert.Len(t, progress.rows, 1)

	_, err := svc.MarkComplete(context.Background(), "missing", testUserID)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)
}

func TestLessonContentCarriesProgress(t *testing.T) {
	svc, _, enrollments := newLearningFixture()
	enrollments.rows["e"] = &models.Enrollment{ID: "e", UserID: testUserID, CourseID: testCourseID, Status: models.EnrollmentCompleted}

	_, err := svc.MarkComplete(context.Background(), "l-1", testUserID)
	require.NoError(t, err)

	content, err := svc.LessonContent(context.Background(), "l-1", testUserID)
	require.NoError(t, err)
	require.NotNil(t, content.Progress)
	assert.True(t, content.Progress.Completed)
}
