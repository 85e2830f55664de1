package models

import "time"

// EnrollmentStatus tracks a purchase attempt.
type EnrollmentStatus string

const (
	EnrollmentPending   EnrollmentStatus = "Pending"
	EnrollmentCompleted EnrollmentStatus = "Completed"
	EnrollmentCancelled EnrollmentStatus = "Cancelled"
)

// Enrollment is the single row per (user, course). Amount is in cents.
type Enrollment struct {
	ID        string           `db:"id" json:"id"`
	UserID    string           `db:"user_id" json:"userId"`
	CourseID  string           `db:"course_id" json:"courseId"`
	Amount    int64            `db:"amount" json:"amount"`
	Status    EnrollmentStatus `db:"status" json:"status"`
	CreatedAt time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time        `db:"updated_at" json:"updatedAt"`
}

// EnrolledCourse is a Completed enrollment with course summary and progress counts.
type EnrolledCourse struct {
	CourseID         string      `db:"course_id" json:"courseId"`
	Title            string      `db:"title" json:"title"`
	Slug             string      `db:"slug" json:"slug"`
	SmallDescription string      `db:"small_description" json:"smallDescription"`
	FileKey          string      `db:"file_key" json:"fileKey"`
	Duration         int         `db:"duration" json:"duration"`
	Level            CourseLevel `db:"level" json:"level"`
	TotalLessons     int         `db:"total_lessons" json:"totalLessons"`
	CompletedLessons int         `db:"completed_lessons" json:"completedLessons"`
}

// CheckoutRequest starts a payment for a course.
type CheckoutRequest struct {
	CourseID string `json:"courseId" validate:"required,uuid"`
}

// CheckoutResult is either a redirect URL or an already-enrolled flag.
type CheckoutResult struct {
	CheckoutURL     string `json:"checkoutUrl,omitempty"`
	AlreadyEnrolled bool   `json:"alreadyEnrolled,omitempty"`
}

// EnrollmentMutation computes the next row from the locked current row (nil when
// none exists). Returning nil leaves the stored row untouched.
type EnrollmentMutation func(current *Enrollment) (*Enrollment, error)
