package models

import "time"

// FeeStructure defines the amount due for one (program, semester) pair.
type FeeStructure struct {
	ID          string    `db:"id" json:"id"`
	ProgramID   string    `db:"program_id" json:"program_id"`
	SemesterID  string    `db:"semester_id" json:"semester_id"`
	Amount      float64   `db:"amount" json:"amount"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// FeeStructureDetail joins fee rows with program and semester names.
type FeeStructureDetail struct {
	FeeStructure
	ProgramName  string `db:"program_name" json:"program_name"`
	SemesterName string `db:"semester_name" json:"semester_name"`
}

// FeeFilter provides filters for listing fee structures.
type FeeFilter struct {
	ProgramID  string
	SemesterID string
	Page       int
	PageSize   int
}

// ProgramFeeSummary aggregates expected fees per program.
type ProgramFeeSummary struct {
	ProgramID      string  `db:"program_id" json:"program_id"`
	ProgramName    string  `db:"program_name" json:"program_name"`
	StudentCount   int     `db:"student_count" json:"student_count"`
	ExpectedAmount float64 `db:"expected_amount" json:"expected_amount"`
}

// StaffSalary records the pay configuration for a staff user.
type StaffSalary struct {
	ID            string    `db:"id" json:"id"`
	UserID        string    `db:"user_id" json:"user_id"`
	BasicAmount   float64   `db:"basic_amount" json:"basic_amount"`
	Allowances    float64   `db:"allowances" json:"allowances"`
	Deductions    float64   `db:"deductions" json:"deductions"`
	EffectiveFrom time.Time `db:"effective_from" json:"effective_from"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// StaffSalaryDetail joins salary rows with the staff member's identity.
type StaffSalaryDetail struct {
	StaffSalary
	FullName string   `db:"full_name" json:"full_name"`
	Role     UserRole `db:"role" json:"role"`
}

// SalaryFilter provides filters for listing salaries.
type SalaryFilter struct {
	UserID   string
	Role     UserRole
	Page     int
	PageSize int
}
