package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/campuscore/uni-admin-api/internal/models"
	appErrors "github.com/campuscore/uni-admin-api/pkg/errors"
)

type studentRepo interface {
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
	FindByUserID(ctx context.Context, userID string) (*models.StudentDetail, error)
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error)
	Create(ctx context.Context, student *models.Student) error
	UpdateCurrentSemester(ctx context.Context, id string, semesterID *string) error
	RolloverSemester(ctx context.Context, fromSemesterID, toSemesterID string) (int, error)
	SetActive(ctx context.Context, id string, active bool) error
}

type studentUserWriter interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type semesterReader interface {
	FindSemester(ctx context.Context, id string) (*models.Semester, error)
}

// RegisterStudentRequest creates the user account and student profile
// in one step.
type RegisterStudentRequest struct {
	Email             string  `json:"email" validate:"required,email"`
	Password          string  `json:"password" validate:"required,min=8"`
	FullName          string  `json:"full_name" validate:"required,max=200"`
	RegNumber         string  `json:"reg_number" validate:"required,max=40"`
	ProgramID         string  `json:"program_id" validate:"required"`
	DepartmentID      string  `json:"department_id" validate:"required"`
	CurrentSemesterID *string `json:"current_semester_id"`
}

// RolloverRequest advances every student in one semester to the next.
type RolloverRequest struct {
	FromSemesterID string `json:"from_semester_id" validate:"required"`
	ToSemesterID   string `json:"to_semester_id" validate:"required"`
}

// StudentService manages student registration and progression.
type StudentService struct {
	students  studentRepo
	users     studentUserWriter
	registry  semesterReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs StudentService.
func NewStudentService(students studentRepo, users studentUserWriter, registry semesterReader, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{students: students, users: users, registry: registry, validator: validate, logger: logger}
}

// Register creates the login account and the student profile together.
func (s *StudentService) Register(ctx context.Context, req RegisterStudentRequest) (*models.StudentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
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
		Role:         models.RoleStudent,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if appErrors.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	student := &models.Student{
		UserID:            user.ID,
		RegNumber:         req.RegNumber,
		ProgramID:         req.ProgramID,
		DepartmentID:      req.DepartmentID,
		CurrentSemesterID: req.CurrentSemesterID,
		Active:            true,
	}
	if err := s.students.Create(ctx, student); err != nil {
		if appErrors.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "registration number already in use")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student profile")
	}

	return &models.StudentDetail{Student: *student, FullName: user.FullName, Email: user.Email}, nil
}

// Get returns one student with user and program context.
func (s *StudentService) Get(ctx context.Context, id string) (*models.StudentDetail, error) {
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// GetByUser resolves the student profile of an account.
func (s *StudentService) GetByUser(ctx context.Context, userID string) (*models.StudentDetail, error) {
	student, err := s.students.FindByUserID(ctx, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrIncompleteProfile, "no student profile for account")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// List returns students matching the filter.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	students, total, err := s.students.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, total, nil
}

// SetCurrentSemester moves one student to a different semester.
func (s *StudentService) SetCurrentSemester(ctx context.Context, studentID string, semesterID *string) error {
	if _, err := s.Get(ctx, studentID); err != nil {
		return err
	}
	if semesterID != nil {
		if _, err := s.registry.FindSemester(ctx, *semesterID); err != nil {
			if err == sql.ErrNoRows {
				return appErrors.Clone(appErrors.ErrNotFound, "semester not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester")
		}
	}
	if err := s.students.UpdateCurrentSemester(ctx, studentID, semesterID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update semester")
	}
	return nil
}

// Rollover advances every active student currently in the source
// semester to the target semester in one statement. Returns how many
// students moved.
func (s *StudentService) Rollover(ctx context.Context, req RolloverRequest) (int, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rollover payload")
	}
	if req.FromSemesterID == req.ToSemesterID {
		return 0, appErrors.Clone(appErrors.ErrValidation, "source and target semesters are the same")
	}
	from, err := s.registry.FindSemester(ctx, req.FromSemesterID)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, appErrors.Clone(appErrors.ErrNotFound, "source semester not found")
		}
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load source semester")
	}
	to, err := s.registry.FindSemester(ctx, req.ToSemesterID)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, appErrors.Clone(appErrors.ErrNotFound, "target semester not found")
		}
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load target semester")
	}
	if to.Number <= from.Number && to.AcademicYear == from.AcademicYear {
		return 0, appErrors.Clone(appErrors.ErrValidation, "target semester must follow the source semester")
	}

	started := time.Now()
	moved, err := s.students.RolloverSemester(ctx, req.FromSemesterID, req.ToSemesterID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to roll students over")
	}
	s.logger.Info("semester rollover complete",
		zap.String("from", req.FromSemesterID),
		zap.String("to", req.ToSemesterID),
		zap.Int("students", moved),
		zap.Duration("took", time.Since(started)))
	return moved, nil
}

// SetActive toggles a student's active flag.
func (s *StudentService) SetActive(ctx context.Context, studentID string, active bool) error {
	if _, err := s.Get(ctx, studentID); err != nil {
		return err
	}
	if err := s.students.SetActive(ctx, studentID, active); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return nil
}
