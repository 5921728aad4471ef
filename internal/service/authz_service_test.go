package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuscore/uni-admin-api/internal/models"
	appErrors "github.com/campuscore/uni-admin-api/pkg/errors"
)

type mockAuthzRepo struct {
	lecturerCourses map[string]string
	departmentHeads map[string]string
	enrolled        map[string]bool
	studentOwners   map[string]string
	courseDepts     map[string]string
}

func (m *mockAuthzRepo) IsLecturerOf(ctx context.Context, userID, courseID string) (bool, error) {
	return m.lecturerCourses[courseID] == userID, nil
}

func (m *mockAuthzRepo) IsHeadOf(ctx context.Context, userID, departmentID string) (bool, error) {
	return m.departmentHeads[departmentID] == userID, nil
}

func (m *mockAuthzRepo) IsEnrolledIn(ctx context.Context, userID, courseID string) (bool, error) {
	return m.enrolled[userID+"|"+courseID], nil
}

func (m *mockAuthzRepo) OwnsStudentProfile(ctx context.Context, userID, studentID string) (bool, error) {
	return m.studentOwners[studentID] == userID, nil
}

func (m *mockAuthzRepo) CourseDepartment(ctx context.Context, courseID string) (string, error) {
	if dept, ok := m.courseDepts[courseID]; ok {
		return dept, nil
	}
	return "", sql.ErrNoRows
}

func newAuthzFixture() *mockAuthzRepo {
	return &mockAuthzRepo{
		lecturerCourses: map[string]string{"course-1": "lect-user-1"},
		departmentHeads: map[string]string{"dept-1": "hod-user-1"},
		enrolled:        map[string]bool{"stu-user-1|course-1": true},
		studentOwners:   map[string]string{"stu-1": "stu-user-1"},
		courseDepts:     map[string]string{"course-1": "dept-1", "course-2": "dept-2"},
	}
}

func TestStudentContentAccessRequiresEnrollment(t *testing.T) {
	svc := NewAuthzService(newAuthzFixture(), nil)
	student := models.Principal{UserID: "stu-user-1", Role: models.RoleStudent}

	require.NoError(t, svc.CanAccessCourseContent(context.Background(), student, "course-1"))

	err := svc.CanAccessCourseContent(context.Background(), student, "course-2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentFlipsContentAccess(t *testing.T) {
	repo := newAuthzFixture()
	svc := NewAuthzService(repo, nil)
	student := models.Principal{UserID: "stu-user-2", Role: models.RoleStudent}

	err := svc.CanAccessCourseContent(context.Background(), student, "course-1")
	require.Error(t, err)

	repo.enrolled["stu-user-2|course-1"] = true
	require.NoError(t, svc.CanAccessCourseContent(context.Background(), student, "course-1"))
}

func TestLecturerManagesOnlyOwnCourses(t *testing.T) {
	svc := NewAuthzService(newAuthzFixture(), nil)
	lecturer := models.Principal{UserID: "lect-user-1", Role: models.RoleLecturer}

	require.NoError(t, svc.CanManageCourseContent(context.Background(), lecturer, "course-1"))

	err := svc.CanManageCourseContent(context.Background(), lecturer, "course-2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestHeadManagesDepartmentCourses(t *testing.T) {
	svc := NewAuthzService(newAuthzFixture(), nil)
	head := models.Principal{UserID: "hod-user-1", Role: models.RoleHOD}

	require.NoError(t, svc.CanManageCourseContent(context.Background(), head, "course-1"))

	err := svc.CanManageCourseContent(context.Background(), head, "course-2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestAdminManagesEverything(t *testing.T) {
	svc := NewAuthzService(newAuthzFixture(), nil)
	admin := models.Principal{UserID: "admin-user-1", Role: models.RoleAdmin}

	require.NoError(t, svc.CanManageCourseContent(context.Background(), admin, "course-2"))
	require.NoError(t, svc.CanViewStudentRecord(context.Background(), admin, "stu-1"))
}

func TestStudentViewsOnlyOwnRecord(t *testing.T) {
	svc := NewAuthzService(newAuthzFixture(), nil)
	student := models.Principal{UserID: "stu-user-1", Role: models.RoleStudent}

	require.NoError(t, svc.CanViewStudentRecord(context.Background(), student, "stu-1"))

	err := svc.CanViewStudentRecord(context.Background(), student, "stu-2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestBursarCannotRecordGrades(t *testing.T) {
	svc := NewAuthzService(newAuthzFixture(), nil)
	bursar := models.Principal{UserID: "bursar-user-1", Role: models.RoleBursar}

	err := svc.CanGradeEnrollmentsOf(context.Background(), bursar, "course-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
