package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/campuscore/uni-admin-api/internal/middleware"
	"github.com/campuscore/uni-admin-api/internal/models"
	"github.com/campuscore/uni-admin-api/internal/service"
)

type stubEnrollmentRepo struct {
	details    map[string]*models.EnrollmentDetail
	lastFilter models.EnrollmentFilter
}

func (s *stubEnrollmentRepo) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	s.lastFilter = filter
	return nil, 0, nil
}

func (s *stubEnrollmentRepo) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	if d, ok := s.details[id]; ok {
		return &d.Enrollment, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubEnrollmentRepo) FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	if d, ok := s.details[id]; ok {
		return d, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubEnrollmentRepo) Exists(ctx context.Context, studentID, courseID string) (bool, error) {
	return false, nil
}

func (s *stubEnrollmentRepo) Create(ctx context.Context, enrollment *models.Enrollment) error {
	return nil
}

func (s *stubEnrollmentRepo) Delete(ctx context.Context, id string) error { return nil }

type stubStudentDirectory struct {
	byUser map[string]*models.StudentDetail
}

func (s *stubStudentDirectory) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	return nil, sql.ErrNoRows
}

func (s *stubStudentDirectory) FindByUserID(ctx context.Context, userID string) (*models.StudentDetail, error) {
	if stu, ok := s.byUser[userID]; ok {
		return stu, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubStudentDirectory) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	return nil, 0, nil
}

func (s *stubStudentDirectory) Create(ctx context.Context, student *models.Student) error {
	return nil
}

func (s *stubStudentDirectory) UpdateCurrentSemester(ctx context.Context, id string, semesterID *string) error {
	return nil
}

func (s *stubStudentDirectory) RolloverSemester(ctx context.Context, fromSemesterID, toSemesterID string) (int, error) {
	return 0, nil
}

func (s *stubStudentDirectory) SetActive(ctx context.Context, id string, active bool) error {
	return nil
}

type stubUserDirectory struct{}

func (stubUserDirectory) Create(ctx context.Context, user *models.User) error { return nil }

func (stubUserDirectory) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return nil, sql.ErrNoRows
}

type stubSemesterDirectory struct{}

func (stubSemesterDirectory) FindSemester(ctx context.Context, id string) (*models.Semester, error) {
	return nil, sql.ErrNoRows
}

func newEnrollmentHandlerForTest(relations *stubRelations) (*EnrollmentHandler, *stubEnrollmentRepo) {
	enrollments := &stubEnrollmentRepo{details: map[string]*models.EnrollmentDetail{
		"enr-1": {Enrollment: models.Enrollment{ID: "enr-1", StudentID: "stu-2", CourseID: "course-1"}},
	}}
	students := &stubStudentDirectory{byUser: map[string]*models.StudentDetail{
		"stu-user-1": {Student: models.Student{ID: "stu-1", UserID: "stu-user-1"}},
	}}
	enrollmentSvc := service.NewEnrollmentService(enrollments, students, nil, nil, nil, nil)
	studentSvc := service.NewStudentService(students, stubUserDirectory{}, stubSemesterDirectory{}, nil, nil)
	authz := service.NewAuthzService(relations, nil)
	return NewEnrollmentHandler(enrollmentSvc, studentSvc, authz), enrollments
}

func TestEnrollmentListScopedToOwnStudent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, enrollments := newEnrollmentHandlerForTest(&stubRelations{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/enrollments?studentId=stu-2", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "stu-user-1", Role: models.RoleStudent})

	handler.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "stu-1", enrollments.lastFilter.StudentID)
}

func TestEnrollmentListUnscopedForRegistrar(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, enrollments := newEnrollmentHandlerForTest(&stubRelations{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/enrollments?studentId=stu-2", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "reg-user-1", Role: models.RoleRegistrar})

	handler.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "stu-2", enrollments.lastFilter.StudentID)
}

func TestEnrollmentGetBlocksOtherStudents(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newEnrollmentHandlerForTest(&stubRelations{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/enrollments/enr-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "enr-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "stu-user-1", Role: models.RoleStudent})

	handler.Get(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestEnrollmentGetAllowsOwnRecord(t *testing.T) {
	gin.SetMode(gin.TestMode)
	relations := &stubRelations{owns: map[string]bool{relationKey("stu-user-1", "stu-2"): true}}
	handler, _ := newEnrollmentHandlerForTest(relations)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/enrollments/enr-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "enr-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "stu-user-1", Role: models.RoleStudent})

	handler.Get(c)

	assert.Equal(t, http.StatusOK, rec.Code)
}
