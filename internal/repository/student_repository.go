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

// StudentRepository handles persistence of students.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentDetailSelect = `SELECT s.id, s.user_id, s.reg_number, s.program_id, s.department_id,
        s.current_semester_id, s.active, s.created_at, s.updated_at,
        u.full_name, u.email, p.name AS program_name
        FROM students s
        JOIN users u ON u.id = s.user_id
        JOIN programs p ON p.id = s.program_id`

// FindByID returns a student with user and program context.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	query := studentDetailSelect + ` WHERE s.id = $1`
	var detail models.StudentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// FindByUserID resolves the student record owned by a principal.
func (r *StudentRepository) FindByUserID(ctx context.Context, userID string) (*models.StudentDetail, error) {
	query := studentDetailSelect + ` WHERE s.user_id = $1`
	var detail models.StudentDetail
	if err := r.db.GetContext(ctx, &detail, query, userID); err != nil {
		return nil, err
	}
	return &detail, nil
}

// List returns students matching the filter.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	base := `FROM students s
JOIN users u ON u.id = s.user_id
JOIN programs p ON p.id = s.program_id`
	var conditions []string
	var args []interface{}

	if filter.ProgramID != "" {
		conditions = append(conditions, fmt.Sprintf("s.program_id = $%d", len(args)+1))
		args = append(args, filter.ProgramID)
	}
	if filter.DepartmentID != "" {
		conditions = append(conditions, fmt.Sprintf("s.department_id = $%d", len(args)+1))
		args = append(args, filter.DepartmentID)
	}
	if filter.SemesterID != "" {
		conditions = append(conditions, fmt.Sprintf("s.current_semester_id = $%d", len(args)+1))
		args = append(args, filter.SemesterID)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("s.active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(u.full_name ILIKE $%d OR s.reg_number ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT s.id, s.user_id, s.reg_number, s.program_id, s.department_id,
        s.current_semester_id, s.active, s.created_at, s.updated_at,
        u.full_name, u.email, p.name AS program_name
        %s ORDER BY u.full_name ASC LIMIT %d OFFSET %d`, base+clause, size, offset)

	var students []models.StudentDetail
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// Create persists a new student.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now
	const query = `INSERT INTO students (id, user_id, reg_number, program_id, department_id, current_semester_id, active, created_at, updated_at)
        VALUES (:id, :user_id, :reg_number, :program_id, :department_id, :current_semester_id, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// UpdateCurrentSemester advances the student to a new semester.
func (r *StudentRepository) UpdateCurrentSemester(ctx context.Context, id string, semesterID *string) error {
	const query = `UPDATE students SET current_semester_id = $2, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, semesterID); err != nil {
		return fmt.Errorf("update current semester: %w", err)
	}
	return nil
}

// RolloverSemester moves every active student in fromSemester to toSemester
// and returns the number of students advanced.
func (r *StudentRepository) RolloverSemester(ctx context.Context, fromSemesterID, toSemesterID string) (int, error) {
	const query = `UPDATE students SET current_semester_id = $2, updated_at = NOW()
        WHERE current_semester_id = $1 AND active = TRUE`
	result, err := r.db.ExecContext(ctx, query, fromSemesterID, toSemesterID)
	if err != nil {
		return 0, fmt.Errorf("rollover semester: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rollover semester count: %w", err)
	}
	return int(affected), nil
}

// SetActive toggles the student's active flag.
func (r *StudentRepository) SetActive(ctx context.Context, id string, active bool) error {
	const query = `UPDATE students SET active = $2, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, active); err != nil {
		return fmt.Errorf("set student active: %w", err)
	}
	return nil
}
