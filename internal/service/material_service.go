package service

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"path"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campuscore/uni-admin-api/internal/models"
	appErrors "github.com/campuscore/uni-admin-api/pkg/errors"
	"github.com/campuscore/uni-admin-api/pkg/storage"
)

type materialRepo interface {
	FindByID(ctx context.Context, id string) (*models.Material, error)
	ListByCourse(ctx context.Context, courseID, studentID string) ([]models.MaterialDetail, error)
	Create(ctx context.Context, material *models.Material) error
	Delete(ctx context.Context, id string) error
	InsertView(ctx context.Context, view *models.MaterialView) (bool, error)
	CountViews(ctx context.Context, materialID string) (int, error)
}

type studentProfileReader interface {
	FindByUserID(ctx context.Context, userID string) (*models.StudentDetail, error)
}

// UploadMaterialRequest carries a new course material and its file.
type UploadMaterialRequest struct {
	CourseID    string `validate:"required"`
	Title       string `validate:"required,max=200"`
	FileName    string `validate:"required"`
	ContentType string
	Body        io.Reader `validate:"required"`
}

// MaterialService manages course materials and per-student view tracking.
type MaterialService struct {
	materials materialRepo
	students  studentProfileReader
	access    enrollmentChecker
	store     storage.ObjectStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMaterialService constructs MaterialService.
func NewMaterialService(materials materialRepo, students studentProfileReader, access enrollmentChecker, store storage.ObjectStore, validate *validator.Validate, logger *zap.Logger) *MaterialService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MaterialService{materials: materials, students: students, access: access, store: store, validator: validate, logger: logger}
}

// Upload stores the file and records the material.
func (s *MaterialService) Upload(ctx context.Context, uploaderID string, req UploadMaterialRequest) (*models.Material, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid material payload")
	}

	key := fmt.Sprintf("materials/%s/%s%s", req.CourseID, uuid.NewString(), path.Ext(req.FileName))
	if err := s.store.Upload(ctx, key, req.ContentType, req.Body); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store material file")
	}

	material := &models.Material{
		CourseID:   req.CourseID,
		Title:      req.Title,
		FileKey:    key,
		FileURL:    s.store.PublicURL(key),
		UploadedBy: uploaderID,
	}
	if err := s.materials.Create(ctx, material); err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			s.logger.Warn("orphaned material file", zap.String("key", key), zap.Error(delErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create material")
	}
	return material, nil
}

// ListForCourse returns the course materials. When the caller is a
// student their view state is joined in; for staff the viewed flag is
// always false.
func (s *MaterialService) ListForCourse(ctx context.Context, principal models.Principal, courseID string) ([]models.MaterialDetail, error) {
	studentID := ""
	if principal.Role == models.RoleStudent {
		student, err := s.students.FindByUserID(ctx, principal.UserID)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrIncompleteProfile, "no student profile for account")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student profile")
		}
		studentID = student.ID
	}
	materials, err := s.materials.ListByCourse(ctx, courseID, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list materials")
	}
	return materials, nil
}

// RecordView marks the material as viewed by the student, who must be
// enrolled in the material's course. The first interaction wins;
// repeats are accepted and ignored so the endpoint stays idempotent
// for clients that fire it on every open.
func (s *MaterialService) RecordView(ctx context.Context, principal models.Principal, materialID string, interaction models.MaterialInteraction) error {
	if interaction != models.InteractionViewed && interaction != models.InteractionDownloaded {
		return appErrors.Clone(appErrors.ErrValidation, "unknown interaction kind")
	}
	student, err := s.students.FindByUserID(ctx, principal.UserID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrIncompleteProfile, "no student profile for account")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student profile")
	}
	material, err := s.materials.FindByID(ctx, materialID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "material not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load material")
	}
	enrolled, err := s.access.IsEnrolledIn(ctx, principal.UserID, material.CourseID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	if !enrolled {
		return appErrors.Clone(appErrors.ErrForbidden, "you are not enrolled in this course")
	}
	view := &models.MaterialView{MaterialID: materialID, StudentID: student.ID, Interaction: interaction}
	if _, err := s.materials.InsertView(ctx, view); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record material view")
	}
	return nil
}

// Get returns one material.
func (s *MaterialService) Get(ctx context.Context, id string) (*models.Material, error) {
	material, err := s.materials.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "material not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load material")
	}
	return material, nil
}

// ViewCount returns how many distinct students viewed a material.
func (s *MaterialService) ViewCount(ctx context.Context, materialID string) (int, error) {
	count, err := s.materials.CountViews(ctx, materialID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count views")
	}
	return count, nil
}

// Delete removes a material and its stored file.
func (s *MaterialService) Delete(ctx context.Context, id string) error {
	material, err := s.materials.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "material not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load material")
	}
	if err := s.materials.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete material")
	}
	if err := s.store.Delete(ctx, material.FileKey); err != nil {
		s.logger.Warn("orphaned material file", zap.String("key", material.FileKey), zap.Error(err))
	}
	return nil
}
