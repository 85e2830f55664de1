package models

import "time"

// Lesson is a video lesson stored in the lessons table.
type Lesson struct {
	ID           string    `db:"id" json:"id"`
	Title        string    `db:"title" json:"title"`
	Description  string    `db:"description" json:"description"`
	ThumbnailKey string    `db:"thumbnail_key" json:"thumbnailKey"`
	VideoKey     string    `db:"video_key" json:"videoKey"`
	Position     int       `db:"position" json:"position"`
	ChapterID    string    `db:"chapter_id" json:"chapterId"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// LessonOutline is a lesson entry inside a course outline.
type LessonOutline struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description,omitempty"`
	ThumbnailKey string          `json:"thumbnailKey,omitempty"`
	VideoKey     string          `json:"videoKey,omitempty"`
	Position     int             `json:"position"`
	Progress     *LessonProgress `json:"progress,omitempty"`
}

// OutlineRow is one flattened chapter/lesson row as read from the database.
type OutlineRow struct {
	ChapterID          string  `db:"chapter_id"`
	ChapterTitle       string  `db:"chapter_title"`
	ChapterPosition    int     `db:"chapter_position"`
	LessonID           *string `db:"lesson_id"`
	LessonTitle        *string `db:"lesson_title"`
	LessonDescription  *string `db:"lesson_description"`
	LessonThumbnailKey *string `db:"lesson_thumbnail_key"`
	LessonVideoKey     *string `db:"lesson_video_key"`
	LessonPosition     *int    `db:"lesson_position"`
	ProgressID         *string `db:"progress_id"`
	ProgressCompleted  *bool   `db:"progress_completed"`
}

// LessonContent is a lesson opened by an enrolled learner.
type LessonContent struct {
	Lesson
	CourseID    string          `db:"course_id" json:"courseId"`
	CourseTitle string          `db:"course_title" json:"courseTitle"`
	CourseSlug  string          `db:"course_slug" json:"courseSlug"`
	Progress    *LessonProgress `db:"-" json:"progress,omitempty"`
}

// LessonDate is a lesson creation timestamp used by admin charts.
type LessonDate struct {
	ID   string    `db:"id" json:"id"`
	Date time.Time `db:"created_at" json:"date"`
}

// LessonRequest is the admin create/update payload.
type LessonRequest struct {
	Name         string `json:"name" validate:"required,min=3"`
	CourseID     string `json:"courseId" validate:"required,uuid"`
	ChapterID    string `json:"chapterId" validate:"required,uuid"`
	Description  string `json:"description" validate:"omitempty,min=3"`
	ThumbnailKey string `json:"thumbnailKey"`
	VideoKey     string `json:"videoKey"`
}

// DeleteLessonRequest names the chapter the lesson must belong to.
type DeleteLessonRequest struct {
	ChapterID string `json:"chapterId" validate:"required,uuid"`
}

// ReorderLessonsRequest carries a client-side ordering of a chapter's lessons.
type ReorderLessonsRequest struct {
	ChapterID string           `json:"chapterId" validate:"required,uuid"`
	Lessons   []PositionUpdate `json:"lessons" validate:"dive"`
}
