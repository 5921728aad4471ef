package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campuscore/uni-admin-api/internal/models"
)

// RegistryRepository handles persistence of departments, programs and
// semesters. The three share the same small CRUD surface.
type RegistryRepository struct {
	db *sqlx.DB
}

// NewRegistryRepository constructs the repository.
func NewRegistryRepository(db *sqlx.DB) *RegistryRepository {
	return &RegistryRepository{db: db}
}

// FindDepartment returns a department by ID.
func (r *RegistryRepository) FindDepartment(ctx context.Context, id string) (*models.Department, error) {
	const query = `SELECT id, code, name, head_id, created_at, updated_at FROM departments WHERE id = $1`
	var dep models.Department
	if err := r.db.GetContext(ctx, &dep, query, id); err != nil {
		return nil, err
	}
	return &dep, nil
}

// ListDepartments returns departments ordered by name.
func (r *RegistryRepository) ListDepartments(ctx context.Context, search string) ([]models.Department, error) {
	query := `SELECT id, code, name, head_id, created_at, updated_at FROM departments`
	var args []interface{}
	if search != "" {
		query += ` WHERE name ILIKE $1 OR code ILIKE $1`
		args = append(args, "%"+search+"%")
	}
	query += ` ORDER BY name ASC`
	var deps []models.Department
	if err := r.db.SelectContext(ctx, &deps, query, args...); err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return deps, nil
}

// CreateDepartment persists a new department.
func (r *RegistryRepository) CreateDepartment(ctx context.Context, dep *models.Department) error {
	if dep.ID == "" {
		dep.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	dep.CreatedAt = now
	dep.UpdatedAt = now
	const query = `INSERT INTO departments (id, code, name, head_id, created_at, updated_at)
        VALUES (:id, :code, :name, :head_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, dep); err != nil {
		return fmt.Errorf("create department: %w", err)
	}
	return nil
}

// UpdateDepartment rewrites the mutable department fields.
func (r *RegistryRepository) UpdateDepartment(ctx context.Context, dep *models.Department) error {
	dep.UpdatedAt = time.Now().UTC()
	const query = `UPDATE departments SET code = :code, name = :name, head_id = :head_id, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, dep); err != nil {
		return fmt.Errorf("update department: %w", err)
	}
	return nil
}

// SetDepartmentHead assigns the HOD user for a department.
func (r *RegistryRepository) SetDepartmentHead(ctx context.Context, id string, headID *string) error {
	const query = `UPDATE departments SET head_id = $2, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, headID); err != nil {
		return fmt.Errorf("set department head: %w", err)
	}
	return nil
}

// FindProgram returns a program by ID.
func (r *RegistryRepository) FindProgram(ctx context.Context, id string) (*models.Program, error) {
	const query = `SELECT id, code, name, department_id, semesters, created_at, updated_at FROM programs WHERE id = $1`
	var program models.Program
	if err := r.db.GetContext(ctx, &program, query, id); err != nil {
		return nil, err
	}
	return &program, nil
}

// ListPrograms returns programs, optionally scoped to a department.
func (r *RegistryRepository) ListPrograms(ctx context.Context, departmentID string) ([]models.Program, error) {
	query := `SELECT id, code, name, department_id, semesters, created_at, updated_at FROM programs`
	var args []interface{}
	if departmentID != "" {
		query += ` WHERE department_id = $1`
		args = append(args, departmentID)
	}
	query += ` ORDER BY name ASC`
	var programs []models.Program
	if err := r.db.SelectContext(ctx, &programs, query, args...); err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	return programs, nil
}

// CreateProgram persists a new program.
func (r *RegistryRepository) CreateProgram(ctx context.Context, program *models.Program) error {
	if program.ID == "" {
		program.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	program.CreatedAt = now
	program.UpdatedAt = now
	const query = `INSERT INTO programs (id, code, name, department_id, semesters, created_at, updated_at)
        VALUES (:id, :code, :name, :department_id, :semesters, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, program); err != nil {
		return fmt.Errorf("create program: %w", err)
	}
	return nil
}

// UpdateProgram rewrites the mutable program fields.
func (r *RegistryRepository) UpdateProgram(ctx context.Context, program *models.Program) error {
	program.UpdatedAt = time.Now().UTC()
	const query = `UPDATE programs SET code = :code, name = :name, department_id = :department_id,
        semesters = :semesters, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, program); err != nil {
		return fmt.Errorf("update program: %w", err)
	}
	return nil
}

// FindSemester returns a semester by ID.
func (r *RegistryRepository) FindSemester(ctx context.Context, id string) (*models.Semester, error) {
	const query = `SELECT id, name, number, academic_year, created_at FROM semesters WHERE id = $1`
	var semester models.Semester
	if err := r.db.GetContext(ctx, &semester, query, id); err != nil {
		return nil, err
	}
	return &semester, nil
}

// ListSemesters returns semesters ordered by number.
func (r *RegistryRepository) ListSemesters(ctx context.Context, academicYear string) ([]models.Semester, error) {
	query := `SELECT id, name, number, academic_year, created_at FROM semesters`
	var args []interface{}
	if academicYear != "" {
		query += ` WHERE academic_year = $1`
		args = append(args, academicYear)
	}
	query += ` ORDER BY number ASC`
	var semesters []models.Semester
	if err := r.db.SelectContext(ctx, &semesters, query, args...); err != nil {
		return nil, fmt.Errorf("list semesters: %w", err)
	}
	return semesters, nil
}

// CreateSemester persists a new semester.
func (r *RegistryRepository) CreateSemester(ctx context.Context, semester *models.Semester) error {
	if semester.ID == "" {
		semester.ID = uuid.NewString()
	}
	if semester.CreatedAt.IsZero() {
		semester.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO semesters (id, name, number, academic_year, created_at)
        VALUES (:id, :name, :number, :academic_year, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, semester); err != nil {
		return fmt.Errorf("create semester: %w", err)
	}
	return nil
}
