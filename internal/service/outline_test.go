package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/neolms-api/internal/models"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
func boolPtr(b bool) *bool    { return &b }

func outlineFixture() []models.OutlineRow {
	return []models.OutlineRow{
		{ChapterID: "ch-1", ChapterTitle: "Basics", ChapterPosition: 1, LessonID: strPtr("l-1"), LessonTitle: strPtr("Intro"), LessonDescription: strPtr("Welcome"), LessonVideoKey: strPtr("intro.mp4"), LessonPosition: intPtr(1), ProgressID: strPtr("p-1"), ProgressCompleted: boolPtr(true)},
		{ChapterID: "ch-1", ChapterTitle: "Basics", ChapterPosition: 1, LessonID: strPtr("l-2"), LessonTitle: strPtr("Setup"), LessonPosition: intPtr(2)},
		{ChapterID: "ch-2", ChapterTitle: "Empty", ChapterPosition: 2},
	}
}

func TestBuildOutlineGroupsInOrder(t *testing.T) {
	out := buildOutline(outlineFixture(), outlineAdmin)
	require.Len(t, out, 2)
	assert.Equal(t, "ch-1", out[0].ID)
	require.Len(t, out[0].Lessons, 2)
	assert.Equal(t, []string{"l-1", "l-2"}, []string{out[0].Lessons[0].ID, out[0].Lessons[1].ID})
	assert.Equal(t, "intro.mp4", out[0].Lessons[0].VideoKey)
	assert.Nil(t, out[0].Lessons[0].Progress)
	assert.NotNil(t, out[1].Lessons)
	assert.Empty(t, out[1].Lessons)
}

func TestBuildOutlinePublicHidesContent(t *testing.T) {
	out := buildOutline(outlineFixture(), outlinePublic)
	lesson := out[0].Lessons[0]
	assert.Equal(t, "Intro", lesson.Title)
	assert.Empty(t, lesson.Description)
	assert.Empty(t, lesson.VideoKey)
	assert.Nil(t, lesson.Progress)
}

func TestBuildOutlineLearnerCarriesProgress(t *testing.T) {
	out := buildOutline(outlineFixture(), outlineLearner)
	require.NotNil(t, out[0].Lessons[0].Progress)
	assert.True(t, out[0].Lessons[0].Progress.Completed)
	assert.Nil(t, out[0].Lessons[1].Progress)
	assert.Equal(t, "Welcome", out[0].Lessons[0].Description)
	assert.Empty(t, out[0].Lessons[0].VideoKey)
}
