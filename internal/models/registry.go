package models

import "time"

// Department groups programs, courses and staff under one head.
type Department struct {
	ID        string    `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	HeadID    *string   `db:"head_id" json:"head_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Program is a degree program offered by a department.
type Program struct {
	ID           string    `db:"id" json:"id"`
	Code         string    `db:"code" json:"code"`
	Name         string    `db:"name" json:"name"`
	DepartmentID string    `db:"department_id" json:"department_id"`
	Semesters    int       `db:"semesters" json:"semesters"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Semester identifies one academic term within a program sequence.
type Semester struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Number       int       `db:"number" json:"number"`
	AcademicYear string    `db:"academic_year" json:"academic_year"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// RegistryFilter provides common list filtering for registry entities.
type RegistryFilter struct {
	Search       string
	DepartmentID string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
