package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campuscore/uni-admin-api/internal/models"
	appErrors "github.com/campuscore/uni-admin-api/pkg/errors"
)

type courseRepo interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	FindDetailByID(ctx context.Context, id string) (*models.CourseDetail, error)
	List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	AssignLecturer(ctx context.Context, courseID string, lecturerID *string) error
	Delete(ctx context.Context, id string) error
}

type courseProgramReader interface {
	FindProgram(ctx context.Context, id string) (*models.Program, error)
	FindSemester(ctx context.Context, id string) (*models.Semester, error)
}

type courseLecturerReader interface {
	FindByID(ctx context.Context, id string) (*models.LecturerDetail, error)
}

// CreateCourseRequest registers a course within a program and semester.
type CreateCourseRequest struct {
	Code       string `json:"code" validate:"required,max=20"`
	Title      string `json:"title" validate:"required,max=200"`
	ProgramID  string `json:"program_id" validate:"required"`
	SemesterID string `json:"semester_id" validate:"required"`
	Credits    int    `json:"credits" validate:"required,gt=0,lte=12"`
}

// UpdateCourseRequest changes a course's descriptive fields.
type UpdateCourseRequest struct {
	Title   string `json:"title" validate:"required,max=200"`
	Credits int    `json:"credits" validate:"required,gt=0,lte=12"`
}

// CourseService manages the course catalogue and lecturer assignment.
type CourseService struct {
	courses   courseRepo
	registry  courseProgramReader
	lecturers courseLecturerReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs CourseService.
func NewCourseService(courses courseRepo, registry courseProgramReader, lecturers courseLecturerReader, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{courses: courses, registry: registry, lecturers: lecturers, validator: validate, logger: logger}
}

// Create registers a course. The target program and semester must exist
// and the semester number must fall inside the program's length.
func (s *CourseService) Create(ctx context.Context, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	program, err := s.registry.FindProgram(ctx, req.ProgramID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}
	semester, err := s.registry.FindSemester(ctx, req.SemesterID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "semester not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester")
	}
	if semester.Number > program.Semesters {
		return nil, appErrors.Clone(appErrors.ErrValidation, "semester exceeds program length")
	}

	course := &models.Course{
		Code:       req.Code,
		Title:      req.Title,
		ProgramID:  req.ProgramID,
		SemesterID: req.SemesterID,
		Credits:    req.Credits,
	}
	if err := s.courses.Create(ctx, course); err != nil {
		if appErrors.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "course code already exists in this program")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	return course, nil
}

// Get returns one course with program and lecturer context.
func (s *CourseService) Get(ctx context.Context, id string) (*models.CourseDetail, error) {
	detail, err := s.courses.FindDetailByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return detail, nil
}

// List returns courses matching the filter.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error) {
	courses, total, err := s.courses.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, total, nil
}

// Update changes a course's descriptive fields.
func (s *CourseService) Update(ctx context.Context, id string, req UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	course.Title = req.Title
	course.Credits = req.Credits
	if err := s.courses.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	return course, nil
}

// AssignLecturer sets or clears the course's lecturer. The lecturer
// must exist and be active.
func (s *CourseService) AssignLecturer(ctx context.Context, courseID string, lecturerID *string) error {
	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if lecturerID != nil {
		lecturer, err := s.lecturers.FindByID(ctx, *lecturerID)
		if err != nil {
			if err == sql.ErrNoRows {
				return appErrors.Clone(appErrors.ErrNotFound, "lecturer not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lecturer")
		}
		if !lecturer.Active {
			return appErrors.Clone(appErrors.ErrValidation, "lecturer is inactive")
		}
	}
	if err := s.courses.AssignLecturer(ctx, courseID, lecturerID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign lecturer")
	}
	return nil
}

// Delete removes a course from the catalogue.
func (s *CourseService) Delete(ctx context.Context, id string) error {
	if _, err := s.courses.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if err := s.courses.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	return nil
}
