package models

import "time"

// TranscriptRow is one graded course on a student transcript.
type TranscriptRow struct {
	CourseCode   string  `db:"course_code" json:"course_code"`
	CourseTitle  string  `db:"course_title" json:"course_title"`
	SemesterName string  `db:"semester_name" json:"semester_name"`
	Credits      int     `db:"credits" json:"credits"`
	TotalScore   string  `db:"total_score" json:"total_score"`
	LetterGrade  string  `db:"letter_grade" json:"letter_grade"`
	GradePoint   float64 `db:"grade_point" json:"grade_point"`
}

// Transcript is the assembled academic record for one student.
type Transcript struct {
	StudentID   string          `json:"student_id"`
	StudentName string          `json:"student_name"`
	RegNumber   string          `json:"reg_number"`
	ProgramName string          `json:"program_name"`
	Rows        []TranscriptRow `json:"rows"`
	GPA         string          `json:"gpa"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// TranscriptJobStatus tracks asynchronous PDF generation.
type TranscriptJobStatus string

const (
	TranscriptPending TranscriptJobStatus = "PENDING"
	TranscriptReady   TranscriptJobStatus = "READY"
	TranscriptFailed  TranscriptJobStatus = "FAILED"
)

// TranscriptJob records one requested transcript render.
type TranscriptJob struct {
	ID          string              `db:"id" json:"id"`
	StudentID   string              `db:"student_id" json:"student_id"`
	RequestedBy string              `db:"requested_by" json:"requested_by"`
	Status      TranscriptJobStatus `db:"status" json:"status"`
	FilePath    *string             `db:"file_path" json:"file_path,omitempty"`
	FailReason  *string             `db:"fail_reason" json:"fail_reason,omitempty"`
	CreatedAt   time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time           `db:"updated_at" json:"updated_at"`
}
