package models

import "time"

// MaterialInteraction is the recorded interaction kind for a material view.
type MaterialInteraction string

const (
	InteractionViewed     MaterialInteraction = "viewed"
	InteractionDownloaded MaterialInteraction = "downloaded"
)

// Material is a lecture resource attached to a course.
type Material struct {
	ID         string    `db:"id" json:"id"`
	CourseID   string    `db:"course_id" json:"course_id"`
	Title      string    `db:"title" json:"title"`
	FileKey    string    `db:"file_key" json:"file_key"`
	FileURL    string    `db:"file_url" json:"file_url"`
	UploadedBy string    `db:"uploaded_by" json:"uploaded_by"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// MaterialView records that a student has seen a material. At most one
// logical row exists per (material, student); the unique constraint on
// that pair makes the insert race-free.
type MaterialView struct {
	ID          string              `db:"id" json:"id"`
	MaterialID  string              `db:"material_id" json:"material_id"`
	StudentID   string              `db:"student_id" json:"student_id"`
	Interaction MaterialInteraction `db:"interaction" json:"interaction"`
	ViewedAt    time.Time           `db:"viewed_at" json:"viewed_at"`
}

// MaterialDetail adds view state for the requesting student.
type MaterialDetail struct {
	Material
	Viewed bool `db:"viewed" json:"viewed"`
}
