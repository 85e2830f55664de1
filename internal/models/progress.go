package models

import "time"

// LessonProgress records a learner's completion of a lesson.
type LessonProgress struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"-"`
	LessonID  string    `db:"lesson_id" json:"lessonId"`
	Completed bool      `db:"completed" json:"completed"`
	CreatedAt time.Time `db:"created_at" json:"-"`
	UpdatedAt time.Time `db:"updated_at" json:"-"`
}
