package models

import "time"

// Student represents a learner registered in the institution. The 1:1
// user link carries the login identity; current_semester_id advances at
// term rollover and gates enrollment.
type Student struct {
	ID                string    `db:"id" json:"id"`
	UserID            string    `db:"user_id" json:"user_id"`
	RegNumber         string    `db:"reg_number" json:"reg_number"`
	ProgramID         string    `db:"program_id" json:"program_id"`
	DepartmentID      string    `db:"department_id" json:"department_id"`
	CurrentSemesterID *string   `db:"current_semester_id" json:"current_semester_id,omitempty"`
	Active            bool      `db:"active" json:"active"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// StudentDetail contains student information with user and program context.
type StudentDetail struct {
	Student
	FullName    string `db:"full_name" json:"full_name"`
	Email       string `db:"email" json:"email"`
	ProgramName string `db:"program_name" json:"program_name"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search       string
	ProgramID    string
	DepartmentID string
	SemesterID   string
	Active       *bool
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}

// Lecturer represents an academic staff member who teaches courses.
type Lecturer struct {
	ID           string    `db:"id" json:"id"`
	UserID       string    `db:"user_id" json:"user_id"`
	StaffNumber  string    `db:"staff_number" json:"staff_number"`
	DepartmentID string    `db:"department_id" json:"department_id"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// LecturerDetail joins the lecturer with their user record.
type LecturerDetail struct {
	Lecturer
	FullName       string `db:"full_name" json:"full_name"`
	Email          string `db:"email" json:"email"`
	DepartmentName string `db:"department_name" json:"department_name"`
}
