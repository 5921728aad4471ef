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

// LecturerRepository handles persistence of lecturers.
type LecturerRepository struct {
	db *sqlx.DB
}

// NewLecturerRepository constructs the repository.
func NewLecturerRepository(db *sqlx.DB) *LecturerRepository {
	return &LecturerRepository{db: db}
}

const lecturerDetailSelect = `SELECT l.id, l.user_id, l.staff_number, l.department_id, l.active,
        l.created_at, l.updated_at,
        u.full_name, u.email, d.name AS department_name
        FROM lecturers l
        JOIN users u ON u.id = l.user_id
        JOIN departments d ON d.id = l.department_id`

// FindByID returns a lecturer with user context.
func (r *LecturerRepository) FindByID(ctx context.Context, id string) (*models.LecturerDetail, error) {
	query := lecturerDetailSelect + ` WHERE l.id = $1`
	var detail models.LecturerDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// FindByUserID resolves the lecturer record owned by a principal.
func (r *LecturerRepository) FindByUserID(ctx context.Context, userID string) (*models.LecturerDetail, error) {
	query := lecturerDetailSelect + ` WHERE l.user_id = $1`
	var detail models.LecturerDetail
	if err := r.db.GetContext(ctx, &detail, query, userID); err != nil {
		return nil, err
	}
	return &detail, nil
}

// List returns lecturers matching the filter.
func (r *LecturerRepository) List(ctx context.Context, filter models.RegistryFilter) ([]models.LecturerDetail, int, error) {
	base := `FROM lecturers l
JOIN users u ON u.id = l.user_id
JOIN departments d ON d.id = l.department_id`
	var conditions []string
	var args []interface{}

	if filter.DepartmentID != "" {
		conditions = append(conditions, fmt.Sprintf("l.department_id = $%d", len(args)+1))
		args = append(args, filter.DepartmentID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(u.full_name ILIKE $%d OR l.staff_number ILIKE $%d)", len(args)+1, len(args)+1))
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

	query := fmt.Sprintf(`SELECT l.id, l.user_id, l.staff_number, l.department_id, l.active,
        l.created_at, l.updated_at,
        u.full_name, u.email, d.name AS department_name
        %s ORDER BY u.full_name ASC LIMIT %d OFFSET %d`, base+clause, size, offset)

	var lecturers []models.LecturerDetail
	if err := r.db.SelectContext(ctx, &lecturers, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list lecturers: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count lecturers: %w", err)
	}
	return lecturers, total, nil
}

// Create persists a new lecturer.
func (r *LecturerRepository) Create(ctx context.Context, lecturer *models.Lecturer) error {
	if lecturer.ID == "" {
		lecturer.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	lecturer.CreatedAt = now
	lecturer.UpdatedAt = now
	const query = `INSERT INTO lecturers (id, user_id, staff_number, department_id, active, created_at, updated_at)
        VALUES (:id, :user_id, :staff_number, :department_id, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, lecturer); err != nil {
		return fmt.Errorf("create lecturer: %w", err)
	}
	return nil
}

// SetActive toggles the lecturer's active flag.
func (r *LecturerRepository) SetActive(ctx context.Context, id string, active bool) error {
	const query = `UPDATE lecturers SET active = $2, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, active); err != nil {
		return fmt.Errorf("set lecturer active: %w", err)
	}
	return nil
}
