package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campuscore/uni-admin-api/internal/models"
	appErrors "github.com/campuscore/uni-admin-api/pkg/errors"
	"github.com/campuscore/uni-admin-api/pkg/storage"
)

type courseworkRepo interface {
	FindAssignment(ctx context.Context, id string) (*models.Assignment, error)
	ListAssignmentsByCourse(ctx context.Context, courseID string) ([]models.Assignment, error)
	CreateAssignment(ctx context.Context, assignment *models.Assignment) error
	UpdateAssignment(ctx context.Context, assignment *models.Assignment) error
	DeleteAssignment(ctx context.Context, id string) error
	FindQuiz(ctx context.Context, id string) (*models.Quiz, error)
	ListQuizzesByCourse(ctx context.Context, courseID string) ([]models.Quiz, error)
	CreateQuiz(ctx context.Context, quiz *models.Quiz) error
	DeleteQuiz(ctx context.Context, id string) error
}

type submissionRepo interface {
	Create(ctx context.Context, submission *models.Submission) error
	FindByID(ctx context.Context, id string) (*models.Submission, error)
	Status(ctx context.Context, kind models.SubmissionKind, targetID, studentID string) (*models.SubmissionStatus, error)
	ListAttempts(ctx context.Context, kind models.SubmissionKind, targetID, studentID string) ([]models.Submission, error)
	ListLatestByTarget(ctx context.Context, kind models.SubmissionKind, targetID string) ([]models.Submission, error)
	SetScore(ctx context.Context, id string, score float64, gradedBy string, gradedAt time.Time) error
}

type enrollmentChecker interface {
	IsEnrolledIn(ctx context.Context, userID, courseID string) (bool, error)
}

// CreateAssignmentRequest publishes new coursework.
type CreateAssignmentRequest struct {
	CourseID    string    `json:"course_id" validate:"required"`
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description"`
	DueAt       time.Time `json:"due_at" validate:"required"`
	MaxScore    float64   `json:"max_score" validate:"required,gt=0"`
}

// CreateQuizRequest publishes a new quiz.
type CreateQuizRequest struct {
	CourseID        string    `json:"course_id" validate:"required"`
	Title           string    `json:"title" validate:"required,max=200"`
	StartsAt        time.Time `json:"starts_at" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"required,gt=0"`
	MaxScore        float64   `json:"max_score" validate:"required,gt=0"`
}

// SubmitWorkRequest carries one submission attempt with its file.
type SubmitWorkRequest struct {
	Kind        models.SubmissionKind `validate:"required,oneof=ASSIGNMENT QUIZ"`
	TargetID    string                `validate:"required"`
	FileName    string                `validate:"required"`
	ContentType string
	Body        io.Reader `validate:"required"`
}

// GradeSubmissionRequest records a lecturer's score on a submission.
type GradeSubmissionRequest struct {
	SubmissionID string  `json:"submission_id" validate:"required"`
	Score        float64 `json:"score" validate:"gte=0"`
}

// CourseworkService manages assignments, quizzes and the submissions
// made against them. Each submission is a new attempt; earlier attempts
// are kept and the latest one is what lecturers grade, so a student who
// has submitted stays submitted no matter how often they resubmit.
type CourseworkService struct {
	coursework  courseworkRepo
	submissions submissionRepo
	students    studentProfileReader
	access      enrollmentChecker
	store       storage.ObjectStore
	audits      auditWriter
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewCourseworkService constructs CourseworkService.
func NewCourseworkService(coursework courseworkRepo, submissions submissionRepo, students studentProfileReader, access enrollmentChecker, store storage.ObjectStore, audits auditWriter, validate *validator.Validate, logger *zap.Logger) *CourseworkService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseworkService{
		coursework:  coursework,
		submissions: submissions,
		students:    students,
		access:      access,
		store:       store,
		audits:      audits,
		validator:   validate,
		logger:      logger,
	}
}

// CreateAssignment publishes coursework for a course.
func (s *CourseworkService) CreateAssignment(ctx context.Context, creatorID string, req CreateAssignmentRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	assignment := &models.Assignment{
		CourseID:    req.CourseID,
		Title:       req.Title,
		Description: req.Description,
		DueAt:       req.DueAt,
		MaxScore:    req.MaxScore,
		CreatedBy:   creatorID,
	}
	if err := s.coursework.CreateAssignment(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}
	return assignment, nil
}

// ListAssignments returns a course's assignments.
func (s *CourseworkService) ListAssignments(ctx context.Context, courseID string) ([]models.Assignment, error) {
	assignments, err := s.coursework.ListAssignmentsByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return assignments, nil
}

// GetAssignment returns one assignment.
func (s *CourseworkService) GetAssignment(ctx context.Context, id string) (*models.Assignment, error) {
	assignment, err := s.coursework.FindAssignment(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	return assignment, nil
}

// DeleteAssignment removes an assignment.
func (s *CourseworkService) DeleteAssignment(ctx context.Context, id string) error {
	if _, err := s.GetAssignment(ctx, id); err != nil {
		return err
	}
	if err := s.coursework.DeleteAssignment(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete assignment")
	}
	return nil
}

// CreateQuiz publishes a quiz for a course.
func (s *CourseworkService) CreateQuiz(ctx context.Context, creatorID string, req CreateQuizRequest) (*models.Quiz, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid quiz payload")
	}
	quiz := &models.Quiz{
		CourseID:        req.CourseID,
		Title:           req.Title,
		StartsAt:        req.StartsAt,
		DurationMinutes: req.DurationMinutes,
		MaxScore:        req.MaxScore,
		CreatedBy:       creatorID,
	}
	if err := s.coursework.CreateQuiz(ctx, quiz); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create quiz")
	}
	return quiz, nil
}

// ListQuizzes returns a course's quizzes.
func (s *CourseworkService) ListQuizzes(ctx context.Context, courseID string) ([]models.Quiz, error) {
	quizzes, err := s.coursework.ListQuizzesByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list quizzes")
	}
	return quizzes, nil
}

// GetQuiz returns one quiz.
func (s *CourseworkService) GetQuiz(ctx context.Context, id string) (*models.Quiz, error) {
	quiz, err := s.coursework.FindQuiz(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "quiz not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load quiz")
	}
	return quiz, nil
}

// Submit records a new attempt for the student against an assignment or
// quiz. The target must exist, the student must be enrolled in its
// course, and assignment submissions are rejected after the due date.
func (s *CourseworkService) Submit(ctx context.Context, principal models.Principal, req SubmitWorkRequest) (*models.Submission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload")
	}

	student, err := s.students.FindByUserID(ctx, principal.UserID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrIncompleteProfile, "no student profile for account")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student profile")
	}

	var courseID string
	switch req.Kind {
	case models.SubmissionAssignment:
		assignment, err := s.coursework.FindAssignment(ctx, req.TargetID)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
		}
		if time.Now().After(assignment.DueAt) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "assignment is past its due date")
		}
		courseID = assignment.CourseID
	case models.SubmissionQuiz:
		quiz, err := s.coursework.FindQuiz(ctx, req.TargetID)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "quiz not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load quiz")
		}
		courseID = quiz.CourseID
	}

	enrolled, err := s.access.IsEnrolledIn(ctx, principal.UserID, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	if !enrolled {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you are not enrolled in this course")
	}

	key := fmt.Sprintf("submissions/%s/%s/%s%s", req.TargetID, student.ID, uuid.NewString(), path.Ext(req.FileName))
	if err := s.store.Upload(ctx, key, req.ContentType, req.Body); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store submission file")
	}

	submission := &models.Submission{
		Kind:      req.Kind,
		TargetID:  req.TargetID,
		StudentID: student.ID,
		FileKey:   key,
		FileURL:   s.store.PublicURL(key),
	}
	if err := s.submissions.Create(ctx, submission); err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			s.logger.Warn("orphaned submission file", zap.String("key", key), zap.Error(delErr))
		}
		if appErrors.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "another submission attempt is in progress")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record submission")
	}

	s.recordAudit(ctx, principal.UserID, submission)
	return submission, nil
}

// SubmissionStatus returns the student's own submission state for a target.
func (s *CourseworkService) SubmissionStatus(ctx context.Context, principal models.Principal, kind models.SubmissionKind, targetID string) (*models.SubmissionStatus, error) {
	student, err := s.students.FindByUserID(ctx, principal.UserID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrIncompleteProfile, "no student profile for account")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student profile")
	}
	status, err := s.submissions.Status(ctx, kind, targetID, student.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission status")
	}
	return status, nil
}

// ListSubmissionsForGrading returns the latest attempt per student.
func (s *CourseworkService) ListSubmissionsForGrading(ctx context.Context, kind models.SubmissionKind, targetID string) ([]models.Submission, error) {
	submissions, err := s.submissions.ListLatestByTarget(ctx, kind, targetID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}
	return submissions, nil
}

// GetSubmission returns one submission attempt.
func (s *CourseworkService) GetSubmission(ctx context.Context, id string) (*models.Submission, error) {
	submission, err := s.submissions.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	return submission, nil
}

// GradeSubmission records a score against a submission.
func (s *CourseworkService) GradeSubmission(ctx context.Context, graderID string, req GradeSubmissionRequest) (*models.Submission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grading payload")
	}
	submission, err := s.submissions.FindByID(ctx, req.SubmissionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}

	maxScore, err := s.targetMaxScore(ctx, submission.Kind, submission.TargetID)
	if err != nil {
		return nil, err
	}
	if req.Score > maxScore {
		return nil, appErrors.Clone(appErrors.ErrValidation, "score exceeds the maximum for this work")
	}

	gradedAt := time.Now().UTC()
	if err := s.submissions.SetScore(ctx, submission.ID, req.Score, graderID, gradedAt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record score")
	}
	submission.Score = &req.Score
	submission.GradedBy = &graderID
	submission.GradedAt = &gradedAt
	return submission, nil
}

func (s *CourseworkService) targetMaxScore(ctx context.Context, kind models.SubmissionKind, targetID string) (float64, error) {
	switch kind {
	case models.SubmissionAssignment:
		assignment, err := s.coursework.FindAssignment(ctx, targetID)
		if err != nil {
			return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
		}
		return assignment.MaxScore, nil
	case models.SubmissionQuiz:
		quiz, err := s.coursework.FindQuiz(ctx, targetID)
		if err != nil {
			return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load quiz")
		}
		return quiz.MaxScore, nil
	default:
		return 0, appErrors.Clone(appErrors.ErrValidation, "unknown submission kind")
	}
}

func (s *CourseworkService) recordAudit(ctx context.Context, actorID string, submission *models.Submission) {
	if s.audits == nil {
		return
	}
	payload, _ := json.Marshal(submission)
	entry := &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionSubmissionCreate,
		Resource:   "submissions",
		ResourceID: &submission.ID,
		NewValues:  payload,
	}
	if err := s.audits.Create(ctx, entry); err != nil {
		s.logger.Warn("audit write failed", zap.String("action", entry.Action), zap.Error(err))
	}
}
