package models

// DashboardStats are the admin headline figures. Revenue is in dollars.
type DashboardStats struct {
	TotalSignups   int64   `json:"totalSignups"`
	TotalCustomers int64   `json:"totalCustomers"`
	TotalCourses   int64   `json:"totalCourses"`
	TotalLessons   int64   `json:"totalLessons"`
	TotalRevenue   float64 `json:"totalRevenue"`
}

// EnrollmentStatPoint is one day of the enrollment chart. Revenue is in dollars.
type EnrollmentStatPoint struct {
	Date        string  `json:"date"`
	Enrollments int     `json:"enrollments"`
	Revenue     float64 `json:"revenue"`
}

// EnrollmentDay is a per-day aggregate read from the database. Revenue is in cents.
type EnrollmentDay struct {
	Day         string `db:"day"`
	Enrollments int    `db:"enrollments"`
	Revenue     int64  `db:"revenue"`
}
