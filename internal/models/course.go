package models

import "time"

// Course belongs to exactly one program and one semester. The triple
// (program, semester, course) is the unit of enrollment eligibility.
type Course struct {
	ID         string    `db:"id" json:"id"`
	Code       string    `db:"code" json:"code"`
	Title      string    `db:"title" json:"title"`
	ProgramID  string    `db:"program_id" json:"program_id"`
	SemesterID string    `db:"semester_id" json:"semester_id"`
	Credits    int       `db:"credits" json:"credits"`
	LecturerID *string   `db:"lecturer_id" json:"lecturer_id,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// CourseDetail enriches Course with program and lecturer context.
type CourseDetail struct {
	Course
	ProgramName  string  `db:"program_name" json:"program_name"`
	SemesterName string  `db:"semester_name" json:"semester_name"`
	LecturerName *string `db:"lecturer_name" json:"lecturer_name,omitempty"`
	DepartmentID string  `db:"department_id" json:"department_id"`
}

// CourseFilter provides filters for listing courses.
type CourseFilter struct {
	ProgramID    string
	SemesterID   string
	LecturerID   string
	DepartmentID string
	Search       string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
