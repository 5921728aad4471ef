package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/campuscore/uni-admin-api/internal/models"
	appErrors "github.com/campuscore/uni-admin-api/pkg/errors"
)

type lecturerRepo interface {
	FindByID(ctx context.Context, id string) (*models.LecturerDetail, error)
	FindByUserID(ctx context.Context, userID string) (*models.LecturerDetail, error)
	List(ctx context.Context, filter models.RegistryFilter) ([]models.LecturerDetail, int, error)
	Create(ctx context.Context, lecturer *models.Lecturer) error
	SetActive(ctx context.Context, id string, active bool) error
}

// RegisterLecturerRequest creates the user account and lecturer profile
// in one step.
type RegisterLecturerRequest struct {
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=8"`
	FullName     string `json:"full_name" validate:"required,max=200"`
	StaffNumber  string `json:"staff_number" validate:"required,max=40"`
	DepartmentID string `json:"department_id" validate:"required"`
}

// LecturerService manages lecturer accounts and profiles.
type LecturerService struct {
	lecturers lecturerRepo
	users     studentUserWriter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLecturerService constructs LecturerService.
func NewLecturerService(lecturers lecturerRepo, users studentUserWriter, validate *validator.Validate, logger *zap.Logger) *LecturerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LecturerService{lecturers: lecturers, users: users, validator: validate, logger: logger}
}

// Register creates the login account and the lecturer profile together.
func (s *LecturerService) Register(ctx context.Context, req RegisterLecturerRequest) (*models.LecturerDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lecturer payload")
	}

	if _, err := s.users.FindByEmail(ctx, req.Email); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
	} else if err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		FullName:     req.FullName,
		Role:         models.RoleLecturer,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if appErrors.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	lecturer := &models.Lecturer{
		UserID:       user.ID,
		StaffNumber:  req.StaffNumber,
		DepartmentID: req.DepartmentID,
		Active:       true,
	}
	if err := s.lecturers.Create(ctx, lecturer); err != nil {
		if appErrors.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "staff number already in use")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create lecturer profile")
	}

	return &models.LecturerDetail{Lecturer: *lecturer, FullName: user.FullName, Email: user.Email}, nil
}

// Get returns one lecturer with user and department context.
func (s *LecturerService) Get(ctx context.Context, id string) (*models.LecturerDetail, error) {
	lecturer, err := s.lecturers.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lecturer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lecturer")
	}
	return lecturer, nil
}

// GetByUser resolves the lecturer profile of an account.
func (s *LecturerService) GetByUser(ctx context.Context, userID string) (*models.LecturerDetail, error) {
	lecturer, err := s.lecturers.FindByUserID(ctx, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrIncompleteProfile, "no lecturer profile for account")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lecturer")
	}
	return lecturer, nil
}

// List returns lecturers matching the filter.
func (s *LecturerService) List(ctx context.Context, filter models.RegistryFilter) ([]models.LecturerDetail, int, error) {
	lecturers, total, err := s.lecturers.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lecturers")
	}
	return lecturers, total, nil
}

// SetActive toggles whether the lecturer can be assigned to courses.
func (s *LecturerService) SetActive(ctx context.Context, id string, active bool) error {
	if _, err := s.lecturers.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "lecturer not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lecturer")
	}
	if err := s.lecturers.SetActive(ctx, id, active); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update lecturer")
	}
	return nil
}
