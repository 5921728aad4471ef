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

type mockGradeRepo struct {
	byEnrollment map[string]*models.Grade
	created      int
	updated      int
}

func (m *mockGradeRepo) FindByEnrollmentID(ctx context.Context, enrollmentID string) (*models.Grade, error) {
	if g, ok := m.byEnrollment[enrollmentID]; ok {
		copied := *g
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockGradeRepo) Create(ctx context.Context, grade *models.Grade) error {
	if m.byEnrollment == nil {
		m.byEnrollment = make(map[string]*models.Grade)
	}
	if grade.ID == "" {
		grade.ID = "grade-" + grade.EnrollmentID
	}
	stored := *grade
	m.byEnrollment[grade.EnrollmentID] = &stored
	m.created++
	return nil
}

func (m *mockGradeRepo) Update(ctx context.Context, grade *models.Grade) error {
	stored := *grade
	m.byEnrollment[grade.EnrollmentID] = &stored
	m.updated++
	return nil
}

func (m *mockGradeRepo) List(ctx context.Context, filter models.GradeFilter) ([]models.GradeDetail, error) {
	var result []models.GradeDetail
	for _, g := range m.byEnrollment {
		if filter.EnrollmentID != "" && filter.EnrollmentID != g.EnrollmentID {
			continue
		}
		result = append(result, models.GradeDetail{Grade: *g})
	}
	return result, nil
}

func (m *mockGradeRepo) DistributionByCourse(ctx context.Context, courseID string) ([]models.GradeDistribution, error) {
	return []models.GradeDistribution{{LetterGrade: "B", Count: 2}}, nil
}

type mockEnrollmentReader struct {
	enrollments map[string]*models.Enrollment
}

func (m *mockEnrollmentReader) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	if e, ok := m.enrollments[id]; ok {
		return e, nil
	}
	return nil, sql.ErrNoRows
}

type mockAuditWriter struct {
	entries []models.AuditLog
}

func (m *mockAuditWriter) Create(ctx context.Context, entry *models.AuditLog) error {
	m.entries = append(m.entries, *entry)
	return nil
}

func newGradeService(grades *mockGradeRepo, enrollments *mockEnrollmentReader, audits auditWriter) *GradeService {
	return NewGradeService(grades, enrollments, audits, nil, nil)
}

func TestRecordScoresCreatesAndDerives(t *testing.T) {
	grades := &mockGradeRepo{}
	enrollments := &mockEnrollmentReader{enrollments: map[string]*models.Enrollment{
		"enr-1": {ID: "enr-1", StudentID: "stu-1", CourseID: "course-1"},
	}}
	audits := &mockAuditWriter{}
	svc := newGradeService(grades, enrollments, audits)

	grade, err := svc.RecordScores(context.Background(), "lect-user-1", RecordScoresRequest{
		EnrollmentID: "enr-1",
		CatScore:     floatPtr(35),
		ExamScore:    floatPtr(38),
	})
	require.NoError(t, err)
	assert.Equal(t, "73.00", grade.TotalScore)
	assert.Equal(t, "B", grade.LetterGrade)
	assert.Equal(t, "4.00", grade.GPA)
	assert.Equal(t, 1, grades.created)
	assert.Zero(t, grades.updated)
	require.Len(t, audits.entries, 1)
	assert.Equal(t, models.AuditActionGradeWrite, audits.entries[0].Action)
}

func TestRecordScoresPartialEntryThenCompletion(t *testing.T) {
	grades := &mockGradeRepo{}
	enrollments := &mockEnrollmentReader{enrollments: map[string]*models.Enrollment{
		"enr-1": {ID: "enr-1"},
	}}
	svc := newGradeService(grades, enrollments, nil)

	grade, err := svc.RecordScores(context.Background(), "lect-user-1", RecordScoresRequest{
		EnrollmentID: "enr-1",
		CatScore:     floatPtr(30),
	})
	require.NoError(t, err)
	assert.Equal(t, "30.00", grade.TotalScore)
	assert.Equal(t, "F", grade.LetterGrade)
	assert.Nil(t, grade.ExamScore)

	grade, err = svc.RecordScores(context.Background(), "lect-user-1", RecordScoresRequest{
		EnrollmentID: "enr-1",
		ExamScore:    floatPtr(45),
	})
	require.NoError(t, err)
	require.NotNil(t, grade.CatScore)
	assert.Equal(t, 30.0, *grade.CatScore)
	assert.Equal(t, "75.00", grade.TotalScore)
	assert.Equal(t, "B", grade.LetterGrade)
	assert.Equal(t, "4.00", grade.GPA)
	assert.Equal(t, 1, grades.created)
	assert.Equal(t, 1, grades.updated)
}

func TestRecordScoresRejectsEmptyPayload(t *testing.T) {
	svc := newGradeService(&mockGradeRepo{}, &mockEnrollmentReader{}, nil)

	_, err := svc.RecordScores(context.Background(), "lect-user-1", RecordScoresRequest{EnrollmentID: "enr-1"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestRecordScoresMissingEnrollment(t *testing.T) {
	svc := newGradeService(&mockGradeRepo{}, &mockEnrollmentReader{}, nil)

	_, err := svc.RecordScores(context.Background(), "lect-user-1", RecordScoresRequest{
		EnrollmentID: "missing",
		CatScore:     floatPtr(20),
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestRecordScoresOutOfRange(t *testing.T) {
	enrollments := &mockEnrollmentReader{enrollments: map[string]*models.Enrollment{"enr-1": {ID: "enr-1"}}}
	svc := newGradeService(&mockGradeRepo{}, enrollments, nil)

	_, err := svc.RecordScores(context.Background(), "lect-user-1", RecordScoresRequest{
		EnrollmentID: "enr-1",
		CatScore:     floatPtr(120),
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)

	_, err = svc.RecordScores(context.Background(), "lect-user-1", RecordScoresRequest{
		EnrollmentID: "enr-1",
		ExamScore:    floatPtr(-1),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRecordScoresAcceptsFullComponentRange(t *testing.T) {
	enrollments := &mockEnrollmentReader{enrollments: map[string]*models.Enrollment{"enr-1": {ID: "enr-1"}}}
	svc := newGradeService(&mockGradeRepo{}, enrollments, nil)

	grade, err := svc.RecordScores(context.Background(), "lect-user-1", RecordScoresRequest{
		EnrollmentID: "enr-1",
		CatScore:     floatPtr(55),
		ExamScore:    floatPtr(45),
	})
	require.NoError(t, err)
	assert.Equal(t, "100.00", grade.TotalScore)
	assert.Equal(t, "A", grade.LetterGrade)
}
