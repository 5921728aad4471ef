package models

import "time"

// Assignment is coursework published to enrolled students.
type Assignment struct {
	ID          string    `db:"id" json:"id"`
	CourseID    string    `db:"course_id" json:"course_id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	DueAt       time.Time `db:"due_at" json:"due_at"`
	MaxScore    float64   `db:"max_score" json:"max_score"`
	CreatedBy   string    `db:"created_by" json:"created_by"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Quiz is a timed assessment published to enrolled students.
type Quiz struct {
	ID              string    `db:"id" json:"id"`
	CourseID        string    `db:"course_id" json:"course_id"`
	Title           string    `db:"title" json:"title"`
	StartsAt        time.Time `db:"starts_at" json:"starts_at"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	MaxScore        float64   `db:"max_score" json:"max_score"`
	CreatedBy       string    `db:"created_by" json:"created_by"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// SubmissionKind discriminates assignment and quiz submissions, which
// share one table and one set of rules.
type SubmissionKind string

const (
	SubmissionAssignment SubmissionKind = "ASSIGNMENT"
	SubmissionQuiz       SubmissionKind = "QUIZ"
)

// Submission is one attempt by a student against an assignment or quiz.
// Every attempt creates a new row with an increasing attempt number; the
// highest attempt is the one that counts for grading and display.
type Submission struct {
	ID        string         `db:"id" json:"id"`
	Kind      SubmissionKind `db:"kind" json:"kind"`
	TargetID  string         `db:"target_id" json:"target_id"`
	StudentID string         `db:"student_id" json:"student_id"`
	Attempt   int            `db:"attempt" json:"attempt"`
	FileKey   string         `db:"file_key" json:"file_key"`
	FileURL   string         `db:"file_url" json:"file_url"`
	Score     *float64       `db:"score" json:"score,omitempty"`
	GradedBy  *string        `db:"graded_by" json:"graded_by,omitempty"`
	GradedAt  *time.Time     `db:"graded_at" json:"graded_at,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}

// SubmissionStatus reports the display state for one student and target.
type SubmissionStatus struct {
	Submitted bool        `json:"submitted"`
	Attempts  int         `json:"attempts"`
	Latest    *Submission `json:"latest,omitempty"`
}
