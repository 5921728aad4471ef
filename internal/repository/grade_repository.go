package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campuscore/uni-admin-api/internal/models"
)

// GradeRepository handles persistence of grades.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository constructs the repository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

const gradeColumns = `id, enrollment_id, cat_score, exam_score, total_score, letter_grade, gpa, created_at, updated_at`

// FindByEnrollmentID returns the grade for one enrollment.
func (r *GradeRepository) FindByEnrollmentID(ctx context.Context, enrollmentID string) (*models.Grade, error) {
	query := fmt.Sprintf(`SELECT %s FROM grades WHERE enrollment_id = $1`, gradeColumns)
	var grade models.Grade
	if err := r.db.GetContext(ctx, &grade, query, enrollmentID); err != nil {
		return nil, err
	}
	return &grade, nil
}

// Create persists a new grade. One grade per enrollment is enforced by
// the unique constraint on enrollment_id.
func (r *GradeRepository) Create(ctx context.Context, grade *models.Grade) error {
	if grade.ID == "" {
		grade.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	grade.CreatedAt = now
	grade.UpdatedAt = now
	const query = `INSERT INTO grades (id, enrollment_id, cat_score, exam_score, total_score, letter_grade, gpa, created_at, updated_at)
        VALUES (:id, :enrollment_id, :cat_score, :exam_score, :total_score, :letter_grade, :gpa, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, grade); err != nil {
		return fmt.Errorf("create grade: %w", err)
	}
	return nil
}

// Update rewrites scores and all derived fields together.
func (r *GradeRepository) Update(ctx context.Context, grade *models.Grade) error {
	grade.UpdatedAt = time.Now().UTC()
	const query = `UPDATE grades SET cat_score = :cat_score, exam_score = :exam_score,
        total_score = :total_score, letter_grade = :letter_grade, gpa = :gpa, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, grade); err != nil {
		return fmt.Errorf("update grade: %w", err)
	}
	return nil
}

// List returns grades joined with enrollment context.
func (r *GradeRepository) List(ctx context.Context, filter models.GradeFilter) ([]models.GradeDetail, error) {
	base := `FROM grades g
JOIN enrollments e ON e.id = g.enrollment_id
JOIN students s ON s.id = e.student_id
JOIN users u ON u.id = s.user_id
JOIN courses c ON c.id = e.course_id`
	var conditions []string
	var args []interface{}

	if filter.EnrollmentID != "" {
		conditions = append(conditions, fmt.Sprintf("g.enrollment_id = $%d", len(args)+1))
		args = append(args, filter.EnrollmentID)
	}
	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("e.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("e.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`SELECT g.id, g.enrollment_id, g.cat_score, g.exam_score, g.total_score, g.letter_grade, g.gpa,
        g.created_at, g.updated_at,
        e.student_id, u.full_name AS student_name,
        e.course_id, c.code AS course_code, c.title AS course_title
        %s ORDER BY u.full_name ASC`, base+clause)

	var grades []models.GradeDetail
	if err := r.db.SelectContext(ctx, &grades, query, args...); err != nil {
		return nil, fmt.Errorf("list grades: %w", err)
	}
	return grades, nil
}

// DistributionByCourse aggregates letter grade counts for one course.
func (r *GradeRepository) DistributionByCourse(ctx context.Context, courseID string) ([]models.GradeDistribution, error) {
	const query = `SELECT g.letter_grade, COUNT(*) AS count
        FROM grades g
        JOIN enrollments e ON e.id = g.enrollment_id
        WHERE e.course_id = $1
        GROUP BY g.letter_grade
        ORDER BY g.letter_grade ASC`
	var rows []models.GradeDistribution
	if err := r.db.SelectContext(ctx, &rows, query, courseID); err != nil {
		return nil, fmt.Errorf("grade distribution: %w", err)
	}
	return rows, nil
}

// TranscriptRows returns the graded course rows for one student, with
// the stored gpa cast to a numeric grade point for GPA weighting.
func (r *GradeRepository) TranscriptRows(ctx context.Context, studentID string) ([]models.TranscriptRow, error) {
	const query = `SELECT c.code AS course_code, c.title AS course_title, sem.name AS semester_name,
        c.credits, g.total_score, g.letter_grade, CAST(g.gpa AS DOUBLE PRECISION) AS grade_point
        FROM grades g
        JOIN enrollments e ON e.id = g.enrollment_id
        JOIN courses c ON c.id = e.course_id
        JOIN semesters sem ON sem.id = e.semester_id
        WHERE e.student_id = $1
        ORDER BY sem.number ASC, c.code ASC`
	var rows []models.TranscriptRow
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("transcript rows: %w", err)
	}
	return rows, nil
}
