package models

import "time"

// AdminDashboard reports institution-wide entity counts.
type AdminDashboard struct {
	Departments int `db:"departments" json:"departments"`
	Programs    int `db:"programs" json:"programs"`
	Courses     int `db:"courses" json:"courses"`
	Students    int `db:"students" json:"students"`
	Lecturers   int `db:"lecturers" json:"lecturers"`
	Enrollments int `db:"enrollments" json:"enrollments"`
}

// BursarDashboard aggregates the finance view.
type BursarDashboard struct {
	TotalExpectedFees float64             `json:"total_expected_fees"`
	TotalSalaryBill   float64             `json:"total_salary_bill"`
	ProgramBreakdown  []ProgramFeeSummary `json:"program_breakdown"`
}

// LecturerCourseLoad summarises one assigned course for the lecturer view.
type LecturerCourseLoad struct {
	CourseID      string `db:"course_id" json:"course_id"`
	CourseCode    string `db:"course_code" json:"course_code"`
	CourseTitle   string `db:"course_title" json:"course_title"`
	EnrolledCount int    `db:"enrolled_count" json:"enrolled_count"`
	GradedCount   int    `db:"graded_count" json:"graded_count"`
}

// LecturerDashboard aggregates the lecturer's teaching load.
type LecturerDashboard struct {
	Courses           []LecturerCourseLoad `json:"courses"`
	PendingSubmission int                  `json:"pending_submissions"`
}

// SystemMetrics is a point-in-time snapshot of process health exposed
// to the admin dashboard.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	DBQueryCount             uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs float64   `json:"average_db_query_duration_ms"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
