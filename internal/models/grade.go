package models

import "time"

// Grade stores the raw assessment scores and the fields derived from
// them for one enrollment. totalScore, letterGrade and gpa are never
// edited directly; they are recomputed together whenever either score
// changes so the three can never disagree. One grade per enrollment is
// enforced by a unique constraint on enrollment_id.
type Grade struct {
	ID           string    `db:"id" json:"id"`
	EnrollmentID string    `db:"enrollment_id" json:"enrollment_id"`
	CatScore     *float64  `db:"cat_score" json:"cat_score,omitempty"`
	ExamScore    *float64  `db:"exam_score" json:"exam_score,omitempty"`
	TotalScore   string    `db:"total_score" json:"total_score"`
	LetterGrade  string    `db:"letter_grade" json:"letter_grade"`
	GPA          string    `db:"gpa" json:"gpa"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// GradeDetail joins a grade with its enrollment context for listings.
type GradeDetail struct {
	Grade
	StudentID   string `db:"student_id" json:"student_id"`
	StudentName string `db:"student_name" json:"student_name"`
	CourseID    string `db:"course_id" json:"course_id"`
	CourseCode  string `db:"course_code" json:"course_code"`
	CourseTitle string `db:"course_title" json:"course_title"`
}

// GradeFilter allows querying of grade entries.
type GradeFilter struct {
	EnrollmentID string
	CourseID     string
	StudentID    string
}

// GradeDistribution summarises letter grade counts for a course.
type GradeDistribution struct {
	LetterGrade string `db:"letter_grade" json:"letter_grade"`
	Count       int    `db:"count" json:"count"`
}
