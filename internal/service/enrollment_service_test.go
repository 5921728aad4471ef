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

type mockEnrollmentRepo struct {
	byID    map[string]*models.Enrollment
	byPair  map[string]string
	created int
}

func pairKey(studentID, courseID string) string { return studentID + "|" + courseID }

func (m *mockEnrollmentRepo) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	var result []models.EnrollmentDetail
	for _, e := range m.byID {
		if filter.StudentID != "" && filter.StudentID != e.StudentID {
			continue
		}
		if filter.CourseID != "" && filter.CourseID != e.CourseID {
			continue
		}
		result = append(result, models.EnrollmentDetail{Enrollment: *e})
	}
	return result, len(result), nil
}

func (m *mockEnrollmentRepo) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	if e, ok := m.byID[id]; ok {
		return e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	if e, ok := m.byID[id]; ok {
		return &models.EnrollmentDetail{Enrollment: *e}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) Exists(ctx context.Context, studentID, courseID string) (bool, error) {
	_, ok := m.byPair[pairKey(studentID, courseID)]
	return ok, nil
}

func (m *mockEnrollmentRepo) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if m.byID == nil {
		m.byID = make(map[string]*models.Enrollment)
	}
	if m.byPair == nil {
		m.byPair = make(map[string]string)
	}
	if enrollment.ID == "" {
		enrollment.ID = "enr-" + pairKey(enrollment.StudentID, enrollment.CourseID)
	}
	stored := *enrollment
	m.byID[enrollment.ID] = &stored
	m.byPair[pairKey(enrollment.StudentID, enrollment.CourseID)] = enrollment.ID
	m.created++
	return nil
}

func (m *mockEnrollmentRepo) Delete(ctx context.Context, id string) error {
	e, ok := m.byID[id]
	if !ok {
		return sql.ErrNoRows
	}
	delete(m.byPair, pairKey(e.StudentID, e.CourseID))
	delete(m.byID, id)
	return nil
}

type mockStudentReader struct {
	students map[string]*models.StudentDetail
}

func (m *mockStudentReader) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	if s, ok := m.students[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

type mockCourseReader struct {
	courses map[string]*models.Course
}

func (m *mockCourseReader) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

func strPtr(v string) *string { return &v }

func eligibleFixtures() (*mockStudentReader, *mockCourseReader) {
	students := &mockStudentReader{students: map[string]*models.StudentDetail{
		"stu-1": {Student: models.Student{ID: "stu-1", UserID: "user-1", ProgramID: "prog-1", CurrentSemesterID: strPtr("sem-1"), Active: true}},
	}}
	courses := &mockCourseReader{courses: map[string]*models.Course{
		"course-1": {ID: "course-1", ProgramID: "prog-1", SemesterID: "sem-1"},
		"course-2": {ID: "course-2", ProgramID: "prog-1", SemesterID: "sem-2"},
		"course-3": {ID: "course-3", ProgramID: "prog-2", SemesterID: "sem-1"},
	}}
	return students, courses
}

func TestEnrollStampsCourseSemester(t *testing.T) {
	repo := &mockEnrollmentRepo{}
	students, courses := eligibleFixtures()
	audits := &mockAuditWriter{}
	svc := NewEnrollmentService(repo, students, courses, audits, nil, nil)

	enrollment, err := svc.Enroll(context.Background(), "reg-user-1", EnrollRequest{StudentID: "stu-1", CourseID: "course-1"})
	require.NoError(t, err)
	assert.Equal(t, "sem-1", enrollment.SemesterID)
	assert.Equal(t, 1, repo.created)
	require.Len(t, audits.entries, 1)
	assert.Equal(t, models.AuditActionEnrollmentCreate, audits.entries[0].Action)
}

func TestEnrollDuplicateIsConflict(t *testing.T) {
	repo := &mockEnrollmentRepo{}
	students, courses := eligibleFixtures()
	svc := NewEnrollmentService(repo, students, courses, nil, nil, nil)

	_, err := svc.Enroll(context.Background(), "reg-user-1", EnrollRequest{StudentID: "stu-1", CourseID: "course-1"})
	require.NoError(t, err)

	_, err = svc.Enroll(context.Background(), "reg-user-1", EnrollRequest{StudentID: "stu-1", CourseID: "course-1"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Equal(t, 1, repo.created)
}

func TestEnrollSemesterMismatch(t *testing.T) {
	repo := &mockEnrollmentRepo{}
	students, courses := eligibleFixtures()
	svc := NewEnrollmentService(repo, students, courses, nil, nil, nil)

	_, err := svc.Enroll(context.Background(), "reg-user-1", EnrollRequest{StudentID: "stu-1", CourseID: "course-2"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrSemesterMismatch.Code, appErr.Code)
	assert.Zero(t, repo.created)
}

func TestEnrollWrongProgram(t *testing.T) {
	repo := &mockEnrollmentRepo{}
	students, courses := eligibleFixtures()
	svc := NewEnrollmentService(repo, students, courses, nil, nil, nil)

	_, err := svc.Enroll(context.Background(), "reg-user-1", EnrollRequest{StudentID: "stu-1", CourseID: "course-3"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestEnrollIncompleteProfile(t *testing.T) {
	repo := &mockEnrollmentRepo{}
	students := &mockStudentReader{students: map[string]*models.StudentDetail{
		"stu-2": {Student: models.Student{ID: "stu-2", UserID: "user-2", ProgramID: "prog-1", Active: true}},
	}}
	_, courses := eligibleFixtures()
	svc := NewEnrollmentService(repo, students, courses, nil, nil, nil)

	_, err := svc.Enroll(context.Background(), "reg-user-1", EnrollRequest{StudentID: "stu-2", CourseID: "course-1"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrIncompleteProfile.Code, appErr.Code)
}

func TestEnrollInactiveStudent(t *testing.T) {
	repo := &mockEnrollmentRepo{}
	students := &mockStudentReader{students: map[string]*models.StudentDetail{
		"stu-3": {Student: models.Student{ID: "stu-3", UserID: "user-3", ProgramID: "prog-1", CurrentSemesterID: strPtr("sem-1"), Active: false}},
	}}
	_, courses := eligibleFixtures()
	svc := NewEnrollmentService(repo, students, courses, nil, nil, nil)

	_, err := svc.Enroll(context.Background(), "reg-user-1", EnrollRequest{StudentID: "stu-3", CourseID: "course-1"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestUnenrollMissingIsNotFound(t *testing.T) {
	svc := NewEnrollmentService(&mockEnrollmentRepo{}, nil, nil, nil, nil, nil)

	err := svc.Unenroll(context.Background(), "missing")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
