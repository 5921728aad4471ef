package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campuscore/uni-admin-api/internal/models"
	appErrors "github.com/campuscore/uni-admin-api/pkg/errors"
	"github.com/campuscore/uni-admin-api/pkg/export"
)

type financeRepo interface {
	FindFeeStructure(ctx context.Context, id string) (*models.FeeStructure, error)
	ListFeeStructures(ctx context.Context, filter models.FeeFilter) ([]models.FeeStructureDetail, int, error)
	CreateFeeStructure(ctx context.Context, fee *models.FeeStructure) error
	UpdateFeeStructure(ctx context.Context, fee *models.FeeStructure) error
	ProgramFeeSummaries(ctx context.Context) ([]models.ProgramFeeSummary, error)
	FindSalary(ctx context.Context, id string) (*models.StaffSalary, error)
	ListSalaries(ctx context.Context, filter models.SalaryFilter) ([]models.StaffSalaryDetail, int, error)
	CreateSalary(ctx context.Context, salary *models.StaffSalary) error
	UpdateSalary(ctx context.Context, salary *models.StaffSalary) error
	TotalSalaryBill(ctx context.Context) (float64, error)
}

// UpsertFeeRequest defines the fee for one (program, semester) pair.
type UpsertFeeRequest struct {
	ProgramID   string  `json:"program_id" validate:"required"`
	SemesterID  string  `json:"semester_id" validate:"required"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	Description string  `json:"description" validate:"max=500"`
}

// UpsertSalaryRequest defines the pay configuration for one staff user.
type UpsertSalaryRequest struct {
	UserID      string  `json:"user_id" validate:"required"`
	BasicAmount float64 `json:"basic_amount" validate:"required,gt=0"`
	Allowances  float64 `json:"allowances" validate:"gte=0"`
	Deductions  float64 `json:"deductions" validate:"gte=0"`
}

// FinanceService manages fee structures and staff salaries.
type FinanceService struct {
	finance   financeRepo
	users     registryUserReader
	audits    auditWriter
	csv       *export.CSVExporter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFinanceService constructs FinanceService.
func NewFinanceService(finance financeRepo, users registryUserReader, audits auditWriter, validate *validator.Validate, logger *zap.Logger) *FinanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FinanceService{
		finance:   finance,
		users:     users,
		audits:    audits,
		csv:       export.NewCSVExporter(),
		validator: validate,
		logger:    logger,
	}
}

// CreateFee registers the fee for a (program, semester) pair.
func (s *FinanceService) CreateFee(ctx context.Context, actorID string, req UpsertFeeRequest) (*models.FeeStructure, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid fee payload")
	}
	fee := &models.FeeStructure{
		ProgramID:   req.ProgramID,
		SemesterID:  req.SemesterID,
		Amount:      req.Amount,
		Description: req.Description,
	}
	if err := s.finance.CreateFeeStructure(ctx, fee); err != nil {
		if appErrors.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "fee already defined for this program and semester")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create fee")
	}
	s.recordAudit(ctx, actorID, "fee_structures", fee.ID, fee)
	return fee, nil
}

// UpdateFee changes the amount or description of an existing fee.
func (s *FinanceService) UpdateFee(ctx context.Context, actorID, id string, req UpsertFeeRequest) (*models.FeeStructure, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid fee payload")
	}
	fee, err := s.finance.FindFeeStructure(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "fee structure not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee")
	}
	fee.Amount = req.Amount
	fee.Description = req.Description
	if err := s.finance.UpdateFeeStructure(ctx, fee); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update fee")
	}
	s.recordAudit(ctx, actorID, "fee_structures", fee.ID, fee)
	return fee, nil
}

// ListFees returns fee structures matching the filter.
func (s *FinanceService) ListFees(ctx context.Context, filter models.FeeFilter) ([]models.FeeStructureDetail, int, error) {
	fees, total, err := s.finance.ListFeeStructures(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list fees")
	}
	return fees, total, nil
}

// UpsertSalary creates or replaces a staff member's pay configuration.
func (s *FinanceService) UpsertSalary(ctx context.Context, actorID string, req UpsertSalaryRequest) (*models.StaffSalary, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid salary payload")
	}
	user, err := s.users.FindByID(ctx, req.UserID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "staff user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if user.Role == models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrValidation, "students do not draw a salary")
	}

	existing, _, err := s.finance.ListSalaries(ctx, models.SalaryFilter{UserID: req.UserID, PageSize: 1})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check salary")
	}

	if len(existing) > 0 {
		salary := existing[0].StaffSalary
		salary.BasicAmount = req.BasicAmount
		salary.Allowances = req.Allowances
		salary.Deductions = req.Deductions
		if err := s.finance.UpdateSalary(ctx, &salary); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update salary")
		}
		s.recordAudit(ctx, actorID, "staff_salaries", salary.ID, salary)
		return &salary, nil
	}

	salary := &models.StaffSalary{
		UserID:      req.UserID,
		BasicAmount: req.BasicAmount,
		Allowances:  req.Allowances,
		Deductions:  req.Deductions,
	}
	if err := s.finance.CreateSalary(ctx, salary); err != nil {
		if appErrors.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "salary already configured for user")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create salary")
	}
	s.recordAudit(ctx, actorID, "staff_salaries", salary.ID, salary)
	return salary, nil
}

// ListSalaries returns salary configurations matching the filter.
func (s *FinanceService) ListSalaries(ctx context.Context, filter models.SalaryFilter) ([]models.StaffSalaryDetail, int, error) {
	salaries, total, err := s.finance.ListSalaries(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list salaries")
	}
	return salaries, total, nil
}

// ExportSalariesCSV renders the salary book as a CSV document.
func (s *FinanceService) ExportSalariesCSV(ctx context.Context, filter models.SalaryFilter) ([]byte, error) {
	filter.Page = 1
	filter.PageSize = 100
	salaries, _, err := s.finance.ListSalaries(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load salaries")
	}

	dataset := export.Dataset{
		Headers: []string{"Name", "Role", "Basic", "Allowances", "Deductions", "Net"},
	}
	for _, salary := range salaries {
		net := salary.BasicAmount + salary.Allowances - salary.Deductions
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Name":       salary.FullName,
			"Role":       string(salary.Role),
			"Basic":      fmt.Sprintf("%.2f", salary.BasicAmount),
			"Allowances": fmt.Sprintf("%.2f", salary.Allowances),
			"Deductions": fmt.Sprintf("%.2f", salary.Deductions),
			"Net":        fmt.Sprintf("%.2f", net),
		})
	}

	payload, err := s.csv.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render salary export")
	}
	return payload, nil
}

// ExportFeesCSV renders the fee schedule for bursar reporting.
func (s *FinanceService) ExportFeesCSV(ctx context.Context, filter models.FeeFilter) ([]byte, error) {
	filter.Page = 1
	filter.PageSize = 100
	fees, _, err := s.finance.ListFeeStructures(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee structures")
	}

	dataset := export.Dataset{
		Headers: []string{"Program", "Semester", "Amount", "Description"},
	}
	for _, fee := range fees {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Program":     fee.ProgramName,
			"Semester":    fee.SemesterName,
			"Amount":      fmt.Sprintf("%.2f", fee.Amount),
			"Description": fee.Description,
		})
	}

	payload, err := s.csv.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render fee export")
	}
	return payload, nil
}

func (s *FinanceService) recordAudit(ctx context.Context, actorID, resource, resourceID string, value interface{}) {
	if s.audits == nil {
		return
	}
	payload, _ := json.Marshal(value)
	entry := &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionFinanceWrite,
		Resource:   resource,
		ResourceID: &resourceID,
		NewValues:  payload,
	}
	if err := s.audits.Create(ctx, entry); err != nil {
		s.logger.Warn("audit write failed", zap.String("action", entry.Action), zap.Error(err))
	}
}
