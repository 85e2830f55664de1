package models

import (
	"strings"
	"time"
)

// CourseLevel is the difficulty of a course.
type CourseLevel string

const (
	CourseLevelBeginner     CourseLevel = "BEGINNER"
	CourseLevelIntermediate CourseLevel = "INTERMEDIATE"
	CourseLevelAdvanced     CourseLevel = "ADVANCED"
)

// CourseStatus is the publication state of a course.
type CourseStatus string

const (
	CourseStatusDraft     CourseStatus = "DRAFT"
	CourseStatusPublished CourseStatus = "PUBLISHED"
	CourseStatusArchived  CourseStatus = "ARCHIVED"
)

// CourseCategories lists the accepted catalog categories.
var CourseCategories = []string{
	"Development",
	"Business",
	"Finance",
	"IT & Software",
	"Office Productivity",
	"Personal Development",
	"Design",
	"Marketing",
	"Lifestyle",
	"Photography",
	"Health & Fitness",
	"Music",
	"Teaching & Academics",
}

// ParseCourseLevel accepts stored values and display values ("Beginner").
func ParseCourseLevel(raw string) (CourseLevel, bool) {
	switch CourseLevel(strings.ToUpper(strings.TrimSpace(raw))) {
	case CourseLevelBeginner:
		return CourseLevelBeginner, true
	case CourseLevelIntermediate:
		return CourseLevelIntermediate, true
	case CourseLevelAdvanced:
		return CourseLevelAdvanced, true
	}
	return "", false
}

// ParseCourseStatus accepts stored values and display values ("Published").
func ParseCourseStatus(raw string) (CourseStatus, bool) {
	switch CourseStatus(strings.ToUpper(strings.TrimSpace(raw))) {
	case CourseStatusDraft:
		return CourseStatusDraft, true
	case CourseStatusPublished:
		return CourseStatusPublished, true
	case CourseStatusArchived:
		return CourseStatusArchived, true
	}
	return "", false
}

// Course is a catalog entry stored in the courses table. Price is in cents.
type Course struct {
	ID               string       `db:"id" json:"id"`
	Title            string       `db:"title" json:"title"`
	Slug             string       `db:"slug" json:"slug"`
	Description      string       `db:"description" json:"description"`
	SmallDescription string       `db:"small_description" json:"smallDescription"`
	FileKey          string       `db:"file_key" json:"fileKey"`
	Price            int64        `db:"price" json:"price"`
	Duration         int          `db:"duration" json:"duration"`
	Level            CourseLevel  `db:"level" json:"level"`
	Category         string       `db:"category" json:"category"`
	Status           CourseStatus `db:"status" json:"status"`
	StripePriceID    string       `db:"stripe_price_id" json:"-"`
	UserID           string       `db:"user_id" json:"userId"`
	CreatedAt        time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time    `db:"updated_at" json:"updatedAt"`
}

// CourseSummary is the public catalog card.
type CourseSummary struct {
	ID               string      `db:"id" json:"id"`
	Title            string      `db:"title" json:"title"`
	Slug             string      `db:"slug" json:"slug"`
	SmallDescription string      `db:"small_description" json:"smallDescription"`
	FileKey          string      `db:"file_key" json:"fileKey"`
	Duration         int         `db:"duration" json:"duration"`
	Level            CourseLevel `db:"level" json:"level"`
	Category         string      `db:"category" json:"category"`
}

// AdminCourseSummary is a row of the admin course table.
type AdminCourseSummary struct {
	ID               string       `db:"id" json:"id"`
	Title            string       `db:"title" json:"title"`
	Slug             string       `db:"slug" json:"slug"`
	SmallDescription string       `db:"small_description" json:"smallDescription"`
	FileKey          string       `db:"file_key" json:"fileKey"`
	Duration         int          `db:"duration" json:"duration"`
	Level            CourseLevel  `db:"level" json:"level"`
	Status           CourseStatus `db:"status" json:"status"`
	Price            int64        `db:"price" json:"price"`
}

// CourseDetail is a course with its outline.
type CourseDetail struct {
	Course
	Chapters []ChapterOutline `json:"chapters"`
}

// CourseFilter narrows course listings.
type CourseFilter struct {
	Status   *CourseStatus
	Page     int
	PageSize int
}

// CourseRequest is the admin create/update payload.
type CourseRequest struct {
	Title            string `json:"title" validate:"required,min=3,max=100"`
	Description      string `json:"description" validate:"required,min=10"`
	FileKey          string `json:"fileKey" validate:"required"`
	Price            int64  `json:"price" validate:"min=1"`
	Duration         int    `json:"duration" validate:"min=1,max=500"`
	Level            string `json:"level" validate:"omitempty,course_level"`
	Category         string `json:"category" validate:"required,course_category"`
	SmallDescription string `json:"smallDescription" validate:"required,min=10,max=200"`
	Slug             string `json:"slug" validate:"required,min=3"`
	Status           string `json:"status" validate:"required,course_status"`
}
