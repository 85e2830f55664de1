package models

import "time"

// Chapter groups lessons within a course.
type Chapter struct {
	ID        string    `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Position  int       `db:"position" json:"position"`
	CourseID  string    `db:"course_id" json:"courseId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// ChapterOutline is a chapter with its ordered lessons.
type ChapterOutline struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Position int             `json:"position"`
	Lessons  []LessonOutline `json:"lessons"`
}

// CreateChapterRequest appends a chapter to a course.
type CreateChapterRequest struct {
	Name     string `json:"name" validate:"required,min=3,max=100"`
	CourseID string `json:"courseId" validate:"required,uuid"`
}

// DeleteChapterRequest names the course the chapter must belong to.
type DeleteChapterRequest struct {
	CourseID string `json:"courseId" validate:"required,uuid"`
}

// PositionUpdate is one entry of a reorder payload.
type PositionUpdate struct {
	ID       string `json:"id" validate:"required,uuid"`
	Position int    `json:"position" validate:"min=1"`
}

// ReorderChaptersRequest carries a client-side ordering of a course's chapters.
type ReorderChaptersRequest struct {
	CourseID string           `json:"courseId" validate:"required,uuid"`
	Chapters []PositionUpdate `json:"chapters" validate:"dive"`
}
