package service

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campuscore/uni-admin-api/internal/models"
	appErrors "github.com/campuscore/uni-admin-api/pkg/errors"
)

type registryRepo interface {
	FindDepartment(ctx context.Context, id string) (*models.Department, error)
	ListDepartments(ctx context.Context, search string) ([]models.Department, error)
	CreateDepartment(ctx context.Context, dep *models.Department) error
	UpdateDepartment(ctx context.Context, dep *models.Department) error
	SetDepartmentHead(ctx context.Context, id string, headID *string) error
	FindProgram(ctx context.Context, id string) (*models.Program, error)
	ListPrograms(ctx context.Context, departmentID string) ([]models.Program, error)
	CreateProgram(ctx context.Context, program *models.Program) error
	UpdateProgram(ctx context.Context, program *models.Program) error
	FindSemester(ctx context.Context, id string) (*models.Semester, error)
	ListSemesters(ctx context.Context, academicYear string) ([]models.Semester, error)
	CreateSemester(ctx context.Context, semester *models.Semester) error
}

type registryUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// CreateDepartmentRequest registers a new department.
type CreateDepartmentRequest struct {
	Code string `json:"code" validate:"required,max=20"`
	Name string `json:"name" validate:"required,max=200"`
}

// CreateProgramRequest registers a degree program.
type CreateProgramRequest struct {
	Code         string `json:"code" validate:"required,max=20"`
	Name         string `json:"name" validate:"required,max=200"`
	DepartmentID string `json:"department_id" validate:"required"`
	Semesters    int    `json:"semesters" validate:"required,gt=0,lte=16"`
}

// CreateSemesterRequest registers an academic term.
type CreateSemesterRequest struct {
	Name         string `json:"name" validate:"required,max=100"`
	Number       int    `json:"number" validate:"required,gt=0"`
	AcademicYear string `json:"academic_year" validate:"required,max=20"`
}

// RegistryService manages departments, programs and semesters.
type RegistryService struct {
	registry  registryRepo
	users     registryUserReader
	audits    auditWriter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRegistryService constructs RegistryService.
func NewRegistryService(registry registryRepo, users registryUserReader, audits auditWriter, validate *validator.Validate, logger *zap.Logger) *RegistryService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistryService{registry: registry, users: users, audits: audits, validator: validate, logger: logger}
}

// CreateDepartment registers a department.
func (s *RegistryService) CreateDepartment(ctx context.Context, actorID string, req CreateDepartmentRequest) (*models.Department, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid department payload")
	}
	dep := &models.Department{Code: req.Code, Name: req.Name}
	if err := s.registry.CreateDepartment(ctx, dep); err != nil {
		if appErrors.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "department code already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create department")
	}
	s.recordAudit(ctx, actorID, "departments", dep.ID, dep)
	return dep, nil
}

// ListDepartments returns all departments, optionally filtered by search.
func (s *RegistryService) ListDepartments(ctx context.Context, search string) ([]models.Department, error) {
	deps, err := s.registry.ListDepartments(ctx, search)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list departments")
	}
	return deps, nil
}

// GetDepartment returns one department.
func (s *RegistryService) GetDepartment(ctx context.Context, id string) (*models.Department, error) {
	dep, err := s.registry.FindDepartment(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department")
	}
	return dep, nil
}

// AssignDepartmentHead sets or clears the department head. The head
// must be an existing active user; the HOD role scope follows from this
// assignment rather than a separate grant.
func (s *RegistryService) AssignDepartmentHead(ctx context.Context, actorID, departmentID string, headID *string) error {
	if _, err := s.GetDepartment(ctx, departmentID); err != nil {
		return err
	}
	if headID != nil {
		user, err := s.users.FindByID(ctx, *headID)
		if err != nil {
			if err == sql.ErrNoRows {
				return appErrors.Clone(appErrors.ErrNotFound, "head user not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load head user")
		}
		if !user.Active {
			return appErrors.Clone(appErrors.ErrValidation, "head user is inactive")
		}
	}
	if err := s.registry.SetDepartmentHead(ctx, departmentID, headID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign head")
	}
	s.recordAudit(ctx, actorID, "departments", departmentID, map[string]interface{}{"head_id": headID})
	return nil
}

// CreateProgram registers a degree program under a department.
func (s *RegistryService) CreateProgram(ctx context.Context, actorID string, req CreateProgramRequest) (*models.Program, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid program payload")
	}
	if _, err := s.GetDepartment(ctx, req.DepartmentID); err != nil {
		return nil, err
	}
	program := &models.Program{Code: req.Code, Name: req.Name, DepartmentID: req.DepartmentID, Semesters: req.Semesters}
	if err := s.registry.CreateProgram(ctx, program); err != nil {
		if appErrors.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "program code already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create program")
	}
	s.recordAudit(ctx, actorID, "programs", program.ID, program)
	return program, nil
}

// ListPrograms returns programs, optionally scoped to a department.
func (s *RegistryService) ListPrograms(ctx context.Context, departmentID string) ([]models.Program, error) {
	programs, err := s.registry.ListPrograms(ctx, departmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list programs")
	}
	return programs, nil
}

// GetProgram returns one program.
func (s *RegistryService) GetProgram(ctx context.Context, id string) (*models.Program, error) {
	program, err := s.registry.FindProgram(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}
	return program, nil
}

// CreateSemester registers an academic term.
func (s *RegistryService) CreateSemester(ctx context.Context, actorID string, req CreateSemesterRequest) (*models.Semester, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid semester payload")
	}
	semester := &models.Semester{Name: req.Name, Number: req.Number, AcademicYear: req.AcademicYear}
	if err := s.registry.CreateSemester(ctx, semester); err != nil {
		if appErrors.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "semester already exists for this academic year")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create semester")
	}
	s.recordAudit(ctx, actorID, "semesters", semester.ID, semester)
	return semester, nil
}

// ListSemesters returns semesters, optionally scoped to an academic year.
func (s *RegistryService) ListSemesters(ctx context.Context, academicYear string) ([]models.Semester, error) {
	semesters, err := s.registry.ListSemesters(ctx, academicYear)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list semesters")
	}
	return semesters, nil
}

func (s *RegistryService) recordAudit(ctx context.Context, actorID, resource, resourceID string, value interface{}) {
	if s.audits == nil {
		return
	}
	payload, _ := json.Marshal(value)
	entry := &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionRegistryWrite,
		Resource:   resource,
		ResourceID: &resourceID,
		NewValues:  payload,
	}
	if err := s.audits.Create(ctx, entry); err != nil {
		s.logger.Warn("audit write failed", zap.String("action", entry.Action), zap.Error(err))
	}
}
