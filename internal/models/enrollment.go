package models

import "time"

// Enrollment links a student to a course within a semester. It is the
// unit of access control for course content: materials, assignments and
// quizzes are visible only through an enrollment. The (student, course)
// pair is unique at the storage layer.
type Enrollment struct {
	ID         string    `db:"id" json:"id"`
	StudentID  string    `db:"student_id" json:"student_id"`
	CourseID   string    `db:"course_id" json:"course_id"`
	SemesterID string    `db:"semester_id" json:"semester_id"`
	EnrolledAt time.Time `db:"enrolled_at" json:"enrolled_at"`
}

// EnrollmentDetail enriches Enrollment with student and course info.
type EnrollmentDetail struct {
	Enrollment
	StudentName      string `db:"student_name" json:"student_name"`
	StudentRegNumber string `db:"student_reg_number" json:"student_reg_number"`
	CourseCode       string `db:"course_code" json:"course_code"`
	CourseTitle      string `db:"course_title" json:"course_title"`
	SemesterName     string `db:"semester_name" json:"semester_name"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	StudentID  string
	CourseID   string
	SemesterID string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
