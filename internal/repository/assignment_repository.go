package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campuscore/uni-admin-api/internal/models"
)

// AssignmentRepository handles persistence of assignments and quizzes.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// FindAssignment returns an assignment by ID.
func (r *AssignmentRepository) FindAssignment(ctx context.Context, id string) (*models.Assignment, error) {
	const query = `SELECT id, course_id, title, description, due_at, max_score, created_by, created_at, updated_at
        FROM assignments WHERE id = $1`
	var assignment models.Assignment
	if err := r.db.GetContext(ctx, &assignment, query, id); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// ListAssignmentsByCourse returns assignments for a course, newest first.
func (r *AssignmentRepository) ListAssignmentsByCourse(ctx context.Context, courseID string) ([]models.Assignment, error) {
	const query = `SELECT id, course_id, title, description, due_at, max_score, created_by, created_at, updated_at
        FROM assignments WHERE course_id = $1 ORDER BY due_at DESC`
	var assignments []models.Assignment
	if err := r.db.SelectContext(ctx, &assignments, query, courseID); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return assignments, nil
}

// CreateAssignment persists a new assignment.
func (r *AssignmentRepository) CreateAssignment(ctx context.Context, assignment *models.Assignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	assignment.CreatedAt = now
	assignment.UpdatedAt = now
	const query = `INSERT INTO assignments (id, course_id, title, description, due_at, max_score, created_by, created_at, updated_at)
        VALUES (:id, :course_id, :title, :description, :due_at, :max_score, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// UpdateAssignment rewrites the mutable assignment fields.
func (r *AssignmentRepository) UpdateAssignment(ctx context.Context, assignment *models.Assignment) error {
	assignment.UpdatedAt = time.Now().UTC()
	const query = `UPDATE assignments SET title = :title, description = :description, due_at = :due_at,
        max_score = :max_score, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("update assignment: %w", err)
	}
	return nil
}

// DeleteAssignment removes an assignment.
func (r *AssignmentRepository) DeleteAssignment(ctx context.Context, id string) error {
	const query = `DELETE FROM assignments WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	return nil
}

// FindQuiz returns a quiz by ID.
func (r *AssignmentRepository) FindQuiz(ctx context.Context, id string) (*models.Quiz, error) {
	const query = `SELECT id, course_id, title, starts_at, duration_minutes, max_score, created_by, created_at, updated_at
        FROM quizzes WHERE id = $1`
	var quiz models.Quiz
	if err := r.db.GetContext(ctx, &quiz, query, id); err != nil {
		return nil, err
	}
	return &quiz, nil
}

// ListQuizzesByCourse returns quizzes for a course ordered by start time.
func (r *AssignmentRepository) ListQuizzesByCourse(ctx context.Context, courseID string) ([]models.Quiz, error) {
	const query = `SELECT id, course_id, title, starts_at, duration_minutes, max_score, created_by, created_at, updated_at
        FROM quizzes WHERE course_id = $1 ORDER BY starts_at DESC`
	var quizzes []models.Quiz
	if err := r.db.SelectContext(ctx, &quizzes, query, courseID); err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	return quizzes, nil
}

// CreateQuiz persists a new quiz.
func (r *AssignmentRepository) CreateQuiz(ctx context.Context, quiz *models.Quiz) error {
	if quiz.ID == "" {
		quiz.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	quiz.CreatedAt = now
	quiz.UpdatedAt = now
	const query = `INSERT INTO quizzes (id, course_id, title, starts_at, duration_minutes, max_score, created_by, created_at, updated_at)
        VALUES (:id, :course_id, :title, :starts_at, :duration_minutes, :max_score, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, quiz); err != nil {
		return fmt.Errorf("create quiz: %w", err)
	}
	return nil
}

// DeleteQuiz removes a quiz.
func (r *AssignmentRepository) DeleteQuiz(ctx context.Context, id string) error {
	const query = `DELETE FROM quizzes WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	return nil
}
