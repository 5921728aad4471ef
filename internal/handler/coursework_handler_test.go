package handler

import (
	"context"
	"database/sql"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/campuscore/uni-admin-api/internal/middleware"
	"github.com/campuscore/uni-admin-api/internal/models"
	"github.com/campuscore/uni-admin-api/internal/service"
)

// stubRelations backs AuthzService and the enrollment checks with
// canned relationship lookups keyed "userID|courseID".
type stubRelations struct {
	lecturerOf map[string]bool
	enrolledIn map[string]bool
	owns       map[string]bool
}

func relationKey(userID, otherID string) string { return userID + "|" + otherID }

func (s *stubRelations) IsLecturerOf(ctx context.Context, userID, courseID string) (bool, error) {
	return s.lecturerOf[relationKey(userID, courseID)], nil
}

func (s *stubRelations) IsHeadOf(ctx context.Context, userID, departmentID string) (bool, error) {
	return false, nil
}

func (s *stubRelations) IsEnrolledIn(ctx context.Context, userID, courseID string) (bool, error) {
	return s.enrolledIn[relationKey(userID, courseID)], nil
}

func (s *stubRelations) OwnsStudentProfile(ctx context.Context, userID, studentID string) (bool, error) {
	return s.owns[relationKey(userID, studentID)], nil
}

func (s *stubRelations) CourseDepartment(ctx context.Context, courseID string) (string, error) {
	return "", sql.ErrNoRows
}

type stubCourseworkRepo struct {
	assignments map[string]*models.Assignment
	quizzes     map[string]*models.Quiz
}

func (s *stubCourseworkRepo) FindAssignment(ctx context.Context, id string) (*models.Assignment, error) {
	if a, ok := s.assignments[id]; ok {
		return a, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubCourseworkRepo) ListAssignmentsByCourse(ctx context.Context, courseID string) ([]models.Assignment, error) {
	return nil, nil
}

func (s *stubCourseworkRepo) CreateAssignment(ctx context.Context, assignment *models.Assignment) error {
	return nil
}

func (s *stubCourseworkRepo) UpdateAssignment(ctx context.Context, assignment *models.Assignment) error {
	return nil
}

func (s *stubCourseworkRepo) DeleteAssignment(ctx context.Context, id string) error { return nil }

func (s *stubCourseworkRepo) FindQuiz(ctx context.Context, id string) (*models.Quiz, error) {
	if q, ok := s.quizzes[id]; ok {
		return q, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubCourseworkRepo) ListQuizzesByCourse(ctx context.Context, courseID string) ([]models.Quiz, error) {
	return nil, nil
}

func (s *stubCourseworkRepo) CreateQuiz(ctx context.Context, quiz *models.Quiz) error { return nil }

func (s *stubCourseworkRepo) DeleteQuiz(ctx context.Context, id string) error { return nil }

type stubSubmissionRepo struct {
	byID   map[string]*models.Submission
	scored bool
}

func (s *stubSubmissionRepo) Create(ctx context.Context, submission *models.Submission) error {
	return nil
}

func (s *stubSubmissionRepo) FindByID(ctx context.Context, id string) (*models.Submission, error) {
	if sub, ok := s.byID[id]; ok {
		copied := *sub
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubSubmissionRepo) Status(ctx context.Context, kind models.SubmissionKind, targetID, studentID string) (*models.SubmissionStatus, error) {
	return &models.SubmissionStatus{}, nil
}

func (s *stubSubmissionRepo) ListAttempts(ctx context.Context, kind models.SubmissionKind, targetID, studentID string) ([]models.Submission, error) {
	return nil, nil
}

func (s *stubSubmissionRepo) ListLatestByTarget(ctx context.Context, kind models.SubmissionKind, targetID string) ([]models.Submission, error) {
	return nil, nil
}

func (s *stubSubmissionRepo) SetScore(ctx context.Context, id string, score float64, gradedBy string, gradedAt time.Time) error {
	s.scored = true
	return nil
}

type stubStudentReader struct {
	byUser map[string]*models.StudentDetail
}

func (s *stubStudentReader) FindByUserID(ctx context.Context, userID string) (*models.StudentDetail, error) {
	if stu, ok := s.byUser[userID]; ok {
		return stu, nil
	}
	return nil, sql.ErrNoRows
}

type nopObjectStore struct{}

func (nopObjectStore) Upload(ctx context.Context, key, contentType string, data io.Reader) error {
	return nil
}

func (nopObjectStore) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	return nil, sql.ErrNoRows
}

func (nopObjectStore) Delete(ctx context.Context, key string) error { return nil }

func (nopObjectStore) PublicURL(key string) string { return "https://files.test/" + key }

func newCourseworkHandlerForTest(relations *stubRelations) (*CourseworkHandler, *stubSubmissionRepo) {
	coursework := &stubCourseworkRepo{
		assignments: map[string]*models.Assignment{
			"asg-1": {ID: "asg-1", CourseID: "course-1", DueAt: time.Now().Add(time.Hour), MaxScore: 100},
		},
		quizzes: map[string]*models.Quiz{
			"quiz-1": {ID: "quiz-1", CourseID: "course-1", MaxScore: 40},
		},
	}
	submissions := &stubSubmissionRepo{byID: map[string]*models.Submission{
		"sub-1": {ID: "sub-1", Kind: models.SubmissionAssignment, TargetID: "asg-1", StudentID: "stu-1"},
	}}
	svc := service.NewCourseworkService(coursework, submissions, &stubStudentReader{}, relations, nopObjectStore{}, nil, nil, nil)
	authz := service.NewAuthzService(relations, nil)
	return NewCourseworkHandler(svc, authz, 0), submissions
}

func TestListForGradingRequiresCourseAssignment(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newCourseworkHandlerForTest(&stubRelations{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/submissions/grading?kind=ASSIGNMENT&targetId=asg-1", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "lect-user-2", Role: models.RoleLecturer})

	handler.ListForGrading(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListForGradingAllowsAssignedLecturer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	relations := &stubRelations{lecturerOf: map[string]bool{relationKey("lect-user-1", "course-1"): true}}
	handler, _ := newCourseworkHandlerForTest(relations)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/submissions/grading?kind=QUIZ&targetId=quiz-1", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "lect-user-1", Role: models.RoleLecturer})

	handler.ListForGrading(c)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGradeSubmissionRequiresCourseAssignment(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, submissions := newCourseworkHandlerForTest(&stubRelations{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/submissions/grade",
		strings.NewReader(`{"submission_id":"sub-1","score":20}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "lect-user-2", Role: models.RoleLecturer})

	handler.GradeSubmission(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, submissions.scored)
}

func TestGradeSubmissionAllowsAssignedLecturer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	relations := &stubRelations{lecturerOf: map[string]bool{relationKey("lect-user-1", "course-1"): true}}
	handler, submissions := newCourseworkHandlerForTest(relations)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/submissions/grade",
		strings.NewReader(`{"submission_id":"sub-1","score":20}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "lect-user-1", Role: models.RoleLecturer})

	handler.GradeSubmission(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, submissions.scored)
}
