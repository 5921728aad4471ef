package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campuscore/uni-admin-api/internal/models"
)

// SubmissionRepository handles persistence of assignment and quiz submissions.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository constructs the repository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

const submissionColumns = `id, kind, target_id, student_id, attempt, file_key, file_url, score, graded_by, graded_at, created_at`

// Create appends a new attempt. The attempt number is computed inside
// the insert so concurrent resubmissions cannot collide: the unique
// constraint on (kind, target_id, student_id, attempt) forces one of
// two racing inserts to retry through the conflict error.
func (r *SubmissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	if submission.ID == "" {
		submission.ID = uuid.NewString()
	}
	if submission.CreatedAt.IsZero() {
		submission.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO submissions (id, kind, target_id, student_id, attempt, file_key, file_url, created_at)
        SELECT $1, $2, $3, $4, COALESCE(MAX(attempt), 0) + 1, $5, $6, $7
        FROM submissions WHERE kind = $2 AND target_id = $3 AND student_id = $4
        RETURNING attempt`
	if err := r.db.GetContext(ctx, &submission.Attempt, query,
		submission.ID, submission.Kind, submission.TargetID, submission.StudentID,
		submission.FileKey, submission.FileURL, submission.CreatedAt); err != nil {
		return fmt.Errorf("create submission: %w", err)
	}
	return nil
}

// FindByID returns a submission by its ID.
func (r *SubmissionRepository) FindByID(ctx context.Context, id string) (*models.Submission, error) {
	query := fmt.Sprintf(`SELECT %s FROM submissions WHERE id = $1`, submissionColumns)
	var submission models.Submission
	if err := r.db.GetContext(ctx, &submission, query, id); err != nil {
		return nil, err
	}
	return &submission, nil
}

// Latest returns the highest attempt for one student and target, or
// sql.ErrNoRows when the student has never submitted.
func (r *SubmissionRepository) Latest(ctx context.Context, kind models.SubmissionKind, targetID, studentID string) (*models.Submission, error) {
	query := fmt.Sprintf(`SELECT %s FROM submissions
        WHERE kind = $1 AND target_id = $2 AND student_id = $3
        ORDER BY attempt DESC LIMIT 1`, submissionColumns)
	var submission models.Submission
	if err := r.db.GetContext(ctx, &submission, query, kind, targetID, studentID); err != nil {
		return nil, err
	}
	return &submission, nil
}

// Status assembles the display state for one student and target.
func (r *SubmissionRepository) Status(ctx context.Context, kind models.SubmissionKind, targetID, studentID string) (*models.SubmissionStatus, error) {
	latest, err := r.Latest(ctx, kind, targetID, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return &models.SubmissionStatus{Submitted: false}, nil
		}
		return nil, fmt.Errorf("submission status: %w", err)
	}
	return &models.SubmissionStatus{Submitted: true, Attempts: latest.Attempt, Latest: latest}, nil
}

// ListAttempts returns every attempt for one student and target, newest first.
func (r *SubmissionRepository) ListAttempts(ctx context.Context, kind models.SubmissionKind, targetID, studentID string) ([]models.Submission, error) {
	query := fmt.Sprintf(`SELECT %s FROM submissions
        WHERE kind = $1 AND target_id = $2 AND student_id = $3
        ORDER BY attempt DESC`, submissionColumns)
	var submissions []models.Submission
	if err := r.db.SelectContext(ctx, &submissions, query, kind, targetID, studentID); err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	return submissions, nil
}

// ListLatestByTarget returns only the latest attempt per student for a
// target, for lecturer grading views.
func (r *SubmissionRepository) ListLatestByTarget(ctx context.Context, kind models.SubmissionKind, targetID string) ([]models.Submission, error) {
	query := fmt.Sprintf(`SELECT DISTINCT ON (student_id) %s FROM submissions
        WHERE kind = $1 AND target_id = $2
        ORDER BY student_id, attempt DESC`, submissionColumns)
	var submissions []models.Submission
	if err := r.db.SelectContext(ctx, &submissions, query, kind, targetID); err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return submissions, nil
}

// SetScore records the grading outcome for a submission.
func (r *SubmissionRepository) SetScore(ctx context.Context, id string, score float64, gradedBy string, gradedAt time.Time) error {
	const query = `UPDATE submissions SET score = $2, graded_by = $3, graded_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, score, gradedBy, gradedAt); err != nil {
		return fmt.Errorf("set submission score: %w", err)
	}
	return nil
}

// CountUngradedByLecturer counts latest attempts awaiting a score across
// the lecturer's courses.
func (r *SubmissionRepository) CountUngradedByLecturer(ctx context.Context, lecturerID string) (int, error) {
	const query = `SELECT COUNT(*) FROM (
        SELECT DISTINCT ON (sub.kind, sub.target_id, sub.student_id) sub.score
        FROM submissions sub
        JOIN assignments a ON a.id = sub.target_id AND sub.kind = 'ASSIGNMENT'
        JOIN courses c ON c.id = a.course_id
        WHERE c.lecturer_id = $1
        ORDER BY sub.kind, sub.target_id, sub.student_id, sub.attempt DESC
    ) latest WHERE latest.score IS NULL`
	var count int
	if err := r.db.GetContext(ctx, &count, query, lecturerID); err != nil {
		return 0, fmt.Errorf("count ungraded submissions: %w", err)
	}
	return count, nil
}
