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

type gradeRepo interface {
	FindByEnrollmentID(ctx context.Context, enrollmentID string) (*models.Grade, error)
	Create(ctx context.Context, grade *models.Grade) error
	Update(ctx context.Context, grade *models.Grade) error
	List(ctx context.Context, filter models.GradeFilter) ([]models.GradeDetail, error)
	DistributionByCourse(ctx context.Context, courseID string) ([]models.GradeDistribution, error)
}

type gradeEnrollmentReader interface {
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
}

type auditWriter interface {
	Create(ctx context.Context, entry *models.AuditLog) error
}

// RecordScoresRequest carries raw score entry for one enrollment. A nil
// score leaves the stored value untouched; sending an explicit value,
// including zero, overwrites it. Each component must lie in 0..100.
type RecordScoresRequest struct {
	EnrollmentID string   `json:"enrollment_id" validate:"required"`
	CatScore     *float64 `json:"cat_score" validate:"omitempty,gte=0,lte=100"`
	ExamScore    *float64 `json:"exam_score" validate:"omitempty,gte=0,lte=100"`
}

// GradeService orchestrates score entry and derived grade calculation.
type GradeService struct {
	grades      gradeRepo
	enrollments gradeEnrollmentReader
	audits      auditWriter
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewGradeService constructs GradeService.
func NewGradeService(grades gradeRepo, enrollments gradeEnrollmentReader, audits auditWriter, validate *validator.Validate, logger *zap.Logger) *GradeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{grades: grades, enrollments: enrollments, audits: audits, validator: validate, logger: logger}
}

// RecordScores writes scores for an enrollment and recomputes the
// derived fields. Creates the grade row on first entry, updates it on
// subsequent entries. Only scores sent in the request change; the
// derived triple is always recomputed from the resulting pair.
func (s *GradeService) RecordScores(ctx context.Context, actorID string, req RecordScoresRequest) (*models.Grade, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid score payload")
	}
	if req.CatScore == nil && req.ExamScore == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one score is required")
	}
	if _, err := s.enrollments.FindByID(ctx, req.EnrollmentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	grade, err := s.grades.FindByEnrollmentID(ctx, req.EnrollmentID)
	isNew := false
	if err != nil {
		if err != sql.ErrNoRows {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade")
		}
		grade = &models.Grade{EnrollmentID: req.EnrollmentID}
		isNew = true
	}

	if req.CatScore != nil {
		grade.CatScore = req.CatScore
	}
	if req.ExamScore != nil {
		grade.ExamScore = req.ExamScore
	}
	grade.TotalScore, grade.LetterGrade, grade.GPA = DeriveGrade(grade.CatScore, grade.ExamScore)

	if isNew {
		err = s.grades.Create(ctx, grade)
	} else {
		err = s.grades.Update(ctx, grade)
	}
	if err != nil {
		if appErrors.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "grade already recorded for enrollment")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save grade")
	}

	s.recordAudit(ctx, actorID, grade)
	return grade, nil
}

// GetByEnrollment returns the grade for one enrollment.
func (s *GradeService) GetByEnrollment(ctx context.Context, enrollmentID string) (*models.Grade, error) {
	grade, err := s.grades.FindByEnrollmentID(ctx, enrollmentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade")
	}
	return grade, nil
}

// List returns grades joined with enrollment context.
func (s *GradeService) List(ctx context.Context, filter models.GradeFilter) ([]models.GradeDetail, error) {
	grades, err := s.grades.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	return grades, nil
}

// Distribution summarises letter grade counts for a course.
func (s *GradeService) Distribution(ctx context.Context, courseID string) ([]models.GradeDistribution, error) {
	dist, err := s.grades.DistributionByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade distribution")
	}
	return dist, nil
}

func (s *GradeService) recordAudit(ctx context.Context, actorID string, grade *models.Grade) {
	if s.audits == nil {
		return
	}
	payload, _ := json.Marshal(grade)
	entry := &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionGradeWrite,
		Resource:   "grades",
		ResourceID: &grade.ID,
		NewValues:  payload,
	}
	if err := s.audits.Create(ctx, entry); err != nil {
		s.logger.Warn("audit write failed", zap.String("action", entry.Action), zap.Error(err))
	}
}
