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

// FinanceRepository handles persistence of fee structures and salaries.
type FinanceRepository struct {
	db *sqlx.DB
}

// NewFinanceRepository constructs the repository.
func NewFinanceRepository(db *sqlx.DB) *FinanceRepository {
	return &FinanceRepository{db: db}
}

// FindFeeStructure returns a fee structure by ID.
func (r *FinanceRepository) FindFeeStructure(ctx context.Context, id string) (*models.FeeStructure, error) {
	const query = `SELECT id, program_id, semester_id, amount, description, created_at, updated_at
        FROM fee_structures WHERE id = $1`
	var fee models.FeeStructure
	if err := r.db.GetContext(ctx, &fee, query, id); err != nil {
		return nil, err
	}
	return &fee, nil
}

// ListFeeStructures returns fee structures matching the filter.
func (r *FinanceRepository) ListFeeStructures(ctx context.Context, filter models.FeeFilter) ([]models.FeeStructureDetail, int, error) {
	base := `FROM fee_structures f
JOIN programs p ON p.id = f.program_id
JOIN semesters sem ON sem.id = f.semester_id`
	var conditions []string
	var args []interface{}

	if filter.ProgramID != "" {
		conditions = append(conditions, fmt.Sprintf("f.program_id = $%d", len(args)+1))
		args = append(args, filter.ProgramID)
	}
	if filter.SemesterID != "" {
		conditions = append(conditions, fmt.Sprintf("f.semester_id = $%d", len(args)+1))
		args = append(args, filter.SemesterID)
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

	query := fmt.Sprintf(`SELECT f.id, f.program_id, f.semester_id, f.amount, f.description,
        f.created_at, f.updated_at, p.name AS program_name, sem.name AS semester_name
        %s ORDER BY p.name ASC, sem.number ASC LIMIT %d OFFSET %d`, base+clause, size, offset)

	var fees []models.FeeStructureDetail
	if err := r.db.SelectContext(ctx, &fees, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list fee structures: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count fee structures: %w", err)
	}
	return fees, total, nil
}

// CreateFeeStructure persists a new fee structure. A unique constraint
// on (program_id, semester_id) rejects duplicates.
func (r *FinanceRepository) CreateFeeStructure(ctx context.Context, fee *models.FeeStructure) error {
	if fee.ID == "" {
		fee.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	fee.CreatedAt = now
	fee.UpdatedAt = now
	const query = `INSERT INTO fee_structures (id, program_id, semester_id, amount, description, created_at, updated_at)
        VALUES (:id, :program_id, :semester_id, :amount, :description, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, fee); err != nil {
		return fmt.Errorf("create fee structure: %w", err)
	}
	return nil
}

// UpdateFeeStructure rewrites the amount and description.
func (r *FinanceRepository) UpdateFeeStructure(ctx context.Context, fee *models.FeeStructure) error {
	fee.UpdatedAt = time.Now().UTC()
	const query = `UPDATE fee_structures SET amount = :amount, description = :description, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, fee); err != nil {
		return fmt.Errorf("update fee structure: %w", err)
	}
	return nil
}

// ProgramFeeSummaries aggregates expected fees per program for the
// bursar dashboard: students in each program times the fee for their
// current semester.
func (r *FinanceRepository) ProgramFeeSummaries(ctx context.Context) ([]models.ProgramFeeSummary, error) {
	const query = `SELECT p.id AS program_id, p.name AS program_name,
        COUNT(s.id) AS student_count,
        COALESCE(SUM(f.amount), 0) AS expected_amount
        FROM programs p
        LEFT JOIN students s ON s.program_id = p.id AND s.active = TRUE
        LEFT JOIN fee_structures f ON f.program_id = p.id AND f.semester_id = s.current_semester_id
        GROUP BY p.id, p.name
        ORDER BY p.name ASC`
	var summaries []models.ProgramFeeSummary
	if err := r.db.SelectContext(ctx, &summaries, query); err != nil {
		return nil, fmt.Errorf("program fee summaries: %w", err)
	}
	return summaries, nil
}

// FindSalary returns a salary row by ID.
func (r *FinanceRepository) FindSalary(ctx context.Context, id string) (*models.StaffSalary, error) {
	const query = `SELECT id, user_id, basic_amount, allowances, deductions, effective_from, created_at, updated_at
        FROM staff_salaries WHERE id = $1`
	var salary models.StaffSalary
	if err := r.db.GetContext(ctx, &salary, query, id); err != nil {
		return nil, err
	}
	return &salary, nil
}

// ListSalaries returns salaries matching the filter.
func (r *FinanceRepository) ListSalaries(ctx context.Context, filter models.SalaryFilter) ([]models.StaffSalaryDetail, int, error) {
	base := `FROM staff_salaries sal
JOIN users u ON u.id = sal.user_id`
	var conditions []string
	var args []interface{}

	if filter.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("sal.user_id = $%d", len(args)+1))
		args = append(args, filter.UserID)
	}
	if filter.Role != "" {
		conditions = append(conditions, fmt.Sprintf("u.role = $%d", len(args)+1))
		args = append(args, filter.Role)
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

	query := fmt.Sprintf(`SELECT sal.id, sal.user_id, sal.basic_amount, sal.allowances, sal.deductions,
        sal.effective_from, sal.created_at, sal.updated_at, u.full_name, u.role
        %s ORDER BY u.full_name ASC LIMIT %d OFFSET %d`, base+clause, size, offset)

	var salaries []models.StaffSalaryDetail
	if err := r.db.SelectContext(ctx, &salaries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list salaries: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count salaries: %w", err)
	}
	return salaries, total, nil
}

// CreateSalary persists a new salary configuration.
func (r *FinanceRepository) CreateSalary(ctx context.Context, salary *models.StaffSalary) error {
	if salary.ID == "" {
		salary.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	salary.CreatedAt = now
	salary.UpdatedAt = now
	const query = `INSERT INTO staff_salaries (id, user_id, basic_amount, allowances, deductions, effective_from, created_at, updated_at)
        VALUES (:id, :user_id, :basic_amount, :allowances, :deductions, :effective_from, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, salary); err != nil {
		return fmt.Errorf("create salary: %w", err)
	}
	return nil
}

// UpdateSalary rewrites the salary amounts.
func (r *FinanceRepository) UpdateSalary(ctx context.Context, salary *models.StaffSalary) error {
	salary.UpdatedAt = time.Now().UTC()
	const query = `UPDATE staff_salaries SET basic_amount = :basic_amount, allowances = :allowances,
        deductions = :deductions, effective_from = :effective_from, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, salary); err != nil {
		return fmt.Errorf("update salary: %w", err)
	}
	return nil
}

// TotalSalaryBill sums net pay across all staff.
func (r *FinanceRepository) TotalSalaryBill(ctx context.Context) (float64, error) {
	const query = `SELECT COALESCE(SUM(basic_amount + allowances - deductions), 0) FROM staff_salaries`
	var total float64
	if err := r.db.GetContext(ctx, &total, query); err != nil {
		return 0, fmt.Errorf("total salary bill: %w", err)
	}
	return total, nil
}
