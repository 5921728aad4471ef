package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campuscore/uni-admin-api/internal/models"
)

// TranscriptRepository persists transcript render jobs.
type TranscriptRepository struct {
	db *sqlx.DB
}

// NewTranscriptRepository constructs the repository.
func NewTranscriptRepository(db *sqlx.DB) *TranscriptRepository {
	return &TranscriptRepository{db: db}
}

// CreateJob records a new pending transcript render.
func (r *TranscriptRepository) CreateJob(ctx context.Context, job *models.TranscriptJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	job.Status = models.TranscriptPending
	job.CreatedAt = now
	job.UpdatedAt = now
	const query = `INSERT INTO transcript_jobs (id, student_id, requested_by, status, created_at, updated_at)
        VALUES (:id, :student_id, :requested_by, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create transcript job: %w", err)
	}
	return nil
}

// FindJob returns a transcript job by ID.
func (r *TranscriptRepository) FindJob(ctx context.Context, id string) (*models.TranscriptJob, error) {
	const query = `SELECT id, student_id, requested_by, status, file_path, fail_reason, created_at, updated_at
        FROM transcript_jobs WHERE id = $1`
	var job models.TranscriptJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, err
	}
	return &job, nil
}

// MarkReady records the rendered file path and flips the job to READY.
func (r *TranscriptRepository) MarkReady(ctx context.Context, id, filePath string) error {
	const query = `UPDATE transcript_jobs SET status = $2, file_path = $3, fail_reason = NULL, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.TranscriptReady, filePath, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark transcript job ready: %w", err)
	}
	return nil
}

// MarkFailed records the failure reason.
func (r *TranscriptRepository) MarkFailed(ctx context.Context, id, reason string) error {
	const query = `UPDATE transcript_jobs SET status = $2, fail_reason = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.TranscriptFailed, reason, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark transcript job failed: %w", err)
	}
	return nil
}

// ListJobsByStudent returns jobs for one student, newest first.
func (r *TranscriptRepository) ListJobsByStudent(ctx context.Context, studentID string, limit int) ([]models.TranscriptJob, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	query := fmt.Sprintf(`SELECT id, student_id, requested_by, status, file_path, fail_reason, created_at, updated_at
        FROM transcript_jobs WHERE student_id = $1 ORDER BY created_at DESC LIMIT %d`, limit)
	var jobs []models.TranscriptJob
	if err := r.db.SelectContext(ctx, &jobs, query, studentID); err != nil {
		return nil, fmt.Errorf("list transcript jobs: %w", err)
	}
	return jobs, nil
}
