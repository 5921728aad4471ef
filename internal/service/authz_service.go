package service

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/campuscore/uni-admin-api/internal/models"
	appErrors "github.com/campuscore/uni-admin-api/pkg/errors"
)

type authzRepo interface {
	IsLecturerOf(ctx context.Context, userID, courseID string) (bool, error)
	IsHeadOf(ctx context.Context, userID, departmentID string) (bool, error)
	IsEnrolledIn(ctx context.Context, userID, courseID string) (bool, error)
	OwnsStudentProfile(ctx context.Context, userID, studentID string) (bool, error)
	CourseDepartment(ctx context.Context, courseID string) (string, error)
}

// AuthzService holds every relationship-based permission predicate in
// one place. Role gates live in routing middleware; anything that needs
// to know who owns or teaches what goes through here, so handlers never
// embed ad-hoc permission logic.
type AuthzService struct {
	repo   authzRepo
	logger *zap.Logger
}

// NewAuthzService constructs AuthzService.
func NewAuthzService(repo authzRepo, logger *zap.Logger) *AuthzService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthzService{repo: repo, logger: logger}
}

// CanManageCourseContent reports whether the principal may upload
// materials, create assignments or quizzes, and grade submissions for
// the course. Admins always may; lecturers only for their own courses;
// heads of department for courses in their department.
func (s *AuthzService) CanManageCourseContent(ctx context.Context, principal models.Principal, courseID string) error {
	switch principal.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleLecturer:
		ok, err := s.repo.IsLecturerOf(ctx, principal.UserID, courseID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check course assignment")
		}
		if !ok {
			return appErrors.Clone(appErrors.ErrForbidden, "course is not assigned to you")
		}
		return nil
	case models.RoleHOD:
		departmentID, err := s.repo.CourseDepartment(ctx, courseID)
		if err != nil {
			if err == sql.ErrNoRows {
				return appErrors.Clone(appErrors.ErrNotFound, "course not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve course department")
		}
		ok, err := s.repo.IsHeadOf(ctx, principal.UserID, departmentID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check department headship")
		}
		if !ok {
			return appErrors.Clone(appErrors.ErrForbidden, "course is outside your department")
		}
		return nil
	default:
		return appErrors.Clone(appErrors.ErrForbidden, "role cannot manage course content")
	}
}

// CanAccessCourseContent reports whether the principal may read the
// course's materials, assignments and quizzes. Students must be
// enrolled; staff access follows the management predicate plus
// registrars, who read everything.
func (s *AuthzService) CanAccessCourseContent(ctx context.Context, principal models.Principal, courseID string) error {
	switch principal.Role {
	case models.RoleStudent:
		ok, err := s.repo.IsEnrolledIn(ctx, principal.UserID, courseID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
		}
		if !ok {
			return appErrors.Clone(appErrors.ErrForbidden, "you are not enrolled in this course")
		}
		return nil
	case models.RoleRegistrar:
		return nil
	default:
		return s.CanManageCourseContent(ctx, principal, courseID)
	}
}

// CanViewStudentRecord reports whether the principal may read the
// student's academic record, grades included. Students see only their
// own; admin and registrar see all.
func (s *AuthzService) CanViewStudentRecord(ctx context.Context, principal models.Principal, studentID string) error {
	switch principal.Role {
	case models.RoleAdmin, models.RoleRegistrar:
		return nil
	case models.RoleStudent:
		ok, err := s.repo.OwnsStudentProfile(ctx, principal.UserID, studentID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check profile ownership")
		}
		if !ok {
			return appErrors.Clone(appErrors.ErrForbidden, "you can only view your own record")
		}
		return nil
	default:
		return appErrors.Clone(appErrors.ErrForbidden, "role cannot view student records")
	}
}

// CanGradeEnrollmentsOf reports whether the principal may record or
// change grades for the course.
func (s *AuthzService) CanGradeEnrollmentsOf(ctx context.Context, principal models.Principal, courseID string) error {
	if principal.Role == models.RoleAdmin || principal.Role == models.RoleLecturer || principal.Role == models.RoleHOD {
		return s.CanManageCourseContent(ctx, principal, courseID)
	}
	return appErrors.Clone(appErrors.ErrForbidden, "role cannot record grades")
}
