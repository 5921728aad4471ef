package service

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuscore/uni-admin-api/internal/models"
	appErrors "github.com/campuscore/uni-admin-api/pkg/errors"
)

type mockCourseworkRepo struct {
	assignments map[string]*models.Assignment
	quizzes     map[string]*models.Quiz
}

func (m *mockCourseworkRepo) FindAssignment(ctx context.Context, id string) (*models.Assignment, error) {
	if a, ok := m.assignments[id]; ok {
		return a, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseworkRepo) ListAssignmentsByCourse(ctx context.Context, courseID string) ([]models.Assignment, error) {
	var result []models.Assignment
	for _, a := range m.assignments {
		if a.CourseID == courseID {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (m *mockCourseworkRepo) CreateAssignment(ctx context.Context, assignment *models.Assignment) error {
	if m.assignments == nil {
		m.assignments = make(map[string]*models.Assignment)
	}
	if assignment.ID == "" {
		assignment.ID = "asg-" + assignment.Title
	}
	stored := *assignment
	m.assignments[assignment.ID] = &stored
	return nil
}

func (m *mockCourseworkRepo) UpdateAssignment(ctx context.Context, assignment *models.Assignment) error {
	stored := *assignment
	m.assignments[assignment.ID] = &stored
	return nil
}

func (m *mockCourseworkRepo) DeleteAssignment(ctx context.Context, id string) error {
	delete(m.assignments, id)
	return nil
}

func (m *mockCourseworkRepo) FindQuiz(ctx context.Context, id string) (*models.Quiz, error) {
	if q, ok := m.quizzes[id]; ok {
		return q, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseworkRepo) ListQuizzesByCourse(ctx context.Context, courseID string) ([]models.Quiz, error) {
	var result []models.Quiz
	for _, q := range m.quizzes {
		if q.CourseID == courseID {
			result = append(result, *q)
		}
	}
	return result, nil
}

func (m *mockCourseworkRepo) CreateQuiz(ctx context.Context, quiz *models.Quiz) error {
	if m.quizzes == nil {
		m.quizzes = make(map[string]*models.Quiz)
	}
	if quiz.ID == "" {
		quiz.ID = "quiz-" + quiz.Title
	}
	stored := *quiz
	m.quizzes[quiz.ID] = &stored
	return nil
}

func (m *mockCourseworkRepo) DeleteQuiz(ctx context.Context, id string) error {
	delete(m.quizzes, id)
	return nil
}

type mockSubmissionRepo struct {
	byID     map[string]*models.Submission
	attempts map[string][]*models.Submission
}

func attemptsKey(kind models.SubmissionKind, targetID, studentID string) string {
	return string(kind) + "|" + targetID + "|" + studentID
}

func (m *mockSubmissionRepo) Create(ctx context.Context, submission *models.Submission) error {
	if m.byID == nil {
		m.byID = make(map[string]*models.Submission)
		m.attempts = make(map[string][]*models.Submission)
	}
	key := attemptsKey(submission.Kind, submission.TargetID, submission.StudentID)
	submission.Attempt = len(m.attempts[key]) + 1
	if submission.ID == "" {
		submission.ID = key + "-" + string(rune('0'+submission.Attempt))
	}
	stored := *submission
	m.byID[submission.ID] = &stored
	m.attempts[key] = append(m.attempts[key], &stored)
	return nil
}

func (m *mockSubmissionRepo) FindByID(ctx context.Context, id string) (*models.Submission, error) {
	if s, ok := m.byID[id]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSubmissionRepo) Status(ctx context.Context, kind models.SubmissionKind, targetID, studentID string) (*models.SubmissionStatus, error) {
	attempts := m.attempts[attemptsKey(kind, targetID, studentID)]
	if len(attempts) == 0 {
		return &models.SubmissionStatus{Submitted: false}, nil
	}
	latest := *attempts[len(attempts)-1]
	return &models.SubmissionStatus{Submitted: true, Attempts: latest.Attempt, Latest: &latest}, nil
}

func (m *mockSubmissionRepo) ListAttempts(ctx context.Context, kind models.SubmissionKind, targetID, studentID string) ([]models.Submission, error) {
	attempts := m.attempts[attemptsKey(kind, targetID, studentID)]
	result := make([]models.Submission, 0, len(attempts))
	for i := len(attempts) - 1; i >= 0; i-- {
		result = append(result, *attempts[i])
	}
	return result, nil
}

func (m *mockSubmissionRepo) ListLatestByTarget(ctx context.Context, kind models.SubmissionKind, targetID string) ([]models.Submission, error) {
	var result []models.Submission
	for key, attempts := range m.attempts {
		if !strings.HasPrefix(key, string(kind)+"|"+targetID+"|") || len(attempts) == 0 {
			continue
		}
		result = append(result, *attempts[len(attempts)-1])
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StudentID < result[j].StudentID })
	return result, nil
}

func (m *mockSubmissionRepo) SetScore(ctx context.Context, id string, score float64, gradedBy string, gradedAt time.Time) error {
	s, ok := m.byID[id]
	if !ok {
		return sql.ErrNoRows
	}
	s.Score = &score
	s.GradedBy = &gradedBy
	s.GradedAt = &gradedAt
	return nil
}

func courseworkFixtures() (*mockCourseworkRepo, *mockSubmissionRepo, *mockStudentReaderByUser, *mockEnrollmentChecker, *fakeObjectStore) {
	coursework := &mockCourseworkRepo{
		assignments: map[string]*models.Assignment{
			"asg-1": {ID: "asg-1", CourseID: "course-1", Title: "Essay", DueAt: time.Now().Add(24 * time.Hour), MaxScore: 100},
		},
		quizzes: map[string]*models.Quiz{
			"quiz-1": {ID: "quiz-1", CourseID: "course-1", Title: "Midterm", MaxScore: 40},
		},
	}
	submissions := &mockSubmissionRepo{}
	students := &mockStudentReaderByUser{students: map[string]*models.StudentDetail{
		"stu-user-1": {Student: models.Student{ID: "stu-1", UserID: "stu-user-1"}},
	}}
	access := &mockEnrollmentChecker{enrolled: map[string]bool{
		enrollmentKey("stu-user-1", "course-1"): true,
	}}
	return coursework, submissions, students, access, &fakeObjectStore{}
}

func TestSubmitRecordsAttemptHistory(t *testing.T) {
	coursework, submissions, students, access, store := courseworkFixtures()
	svc := NewCourseworkService(coursework, submissions, students, access, store, &mockAuditWriter{}, nil, nil)
	student := models.Principal{UserID: "stu-user-1", Role: models.RoleStudent}

	first, err := svc.Submit(context.Background(), student, SubmitWorkRequest{
		Kind:     models.SubmissionAssignment,
		TargetID: "asg-1",
		FileName: "draft.pdf",
		Body:     strings.NewReader("v1"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Attempt)

	second, err := svc.Submit(context.Background(), student, SubmitWorkRequest{
		Kind:     models.SubmissionAssignment,
		TargetID: "asg-1",
		FileName: "final.pdf",
		Body:     strings.NewReader("v2"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, second.Attempt)

	status, err := svc.SubmissionStatus(context.Background(), student, models.SubmissionAssignment, "asg-1")
	require.NoError(t, err)
	assert.True(t, status.Submitted)
	assert.Equal(t, 2, status.Attempts)
	assert.Equal(t, second.ID, status.Latest.ID)
	assert.Len(t, store.uploads, 2)
}

func TestSubmitAfterDueDateRejected(t *testing.T) {
	coursework, submissions, students, access, store := courseworkFixtures()
	coursework.assignments["asg-1"].DueAt = time.Now().Add(-time.Hour)
	svc := NewCourseworkService(coursework, submissions, students, access, store, nil, nil, nil)
	student := models.Principal{UserID: "stu-user-1", Role: models.RoleStudent}

	_, err := svc.Submit(context.Background(), student, SubmitWorkRequest{
		Kind:     models.SubmissionAssignment,
		TargetID: "asg-1",
		FileName: "late.pdf",
		Body:     strings.NewReader("v1"),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, store.uploads)
}

func TestSubmitRequiresEnrollment(t *testing.T) {
	coursework, submissions, students, access, store := courseworkFixtures()
	students.students["stu-user-2"] = &models.StudentDetail{Student: models.Student{ID: "stu-2", UserID: "stu-user-2"}}
	svc := NewCourseworkService(coursework, submissions, students, access, store, nil, nil, nil)
	outsider := models.Principal{UserID: "stu-user-2", Role: models.RoleStudent}

	for _, req := range []SubmitWorkRequest{
		{Kind: models.SubmissionAssignment, TargetID: "asg-1", FileName: "essay.pdf", Body: strings.NewReader("v1")},
		{Kind: models.SubmissionQuiz, TargetID: "quiz-1", FileName: "answers.pdf", Body: strings.NewReader("v1")},
	} {
		_, err := svc.Submit(context.Background(), outsider, req)
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	}
	assert.Empty(t, store.uploads)

	status, err := svc.SubmissionStatus(context.Background(), outsider, models.SubmissionAssignment, "asg-1")
	require.NoError(t, err)
	assert.False(t, status.Submitted)
}

func TestSubmitUnknownTarget(t *testing.T) {
	coursework, submissions, students, access, store := courseworkFixtures()
	svc := NewCourseworkService(coursework, submissions, students, access, store, nil, nil, nil)
	student := models.Principal{UserID: "stu-user-1", Role: models.RoleStudent}

	_, err := svc.Submit(context.Background(), student, SubmitWorkRequest{
		Kind:     models.SubmissionQuiz,
		TargetID: "missing",
		FileName: "answers.pdf",
		Body:     strings.NewReader("v1"),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSubmissionStatusNeverSubmitted(t *testing.T) {
	coursework, submissions, students, access, store := courseworkFixtures()
	svc := NewCourseworkService(coursework, submissions, students, access, store, nil, nil, nil)
	student := models.Principal{UserID: "stu-user-1", Role: models.RoleStudent}

	status, err := svc.SubmissionStatus(context.Background(), student, models.SubmissionAssignment, "asg-1")
	require.NoError(t, err)
	assert.False(t, status.Submitted)
	assert.Zero(t, status.Attempts)
}

func TestGradeSubmissionWithinMaxScore(t *testing.T) {
	coursework, submissions, students, access, store := courseworkFixtures()
	svc := NewCourseworkService(coursework, submissions, students, access, store, nil, nil, nil)
	student := models.Principal{UserID: "stu-user-1", Role: models.RoleStudent}

	submitted, err := svc.Submit(context.Background(), student, SubmitWorkRequest{
		Kind:     models.SubmissionQuiz,
		TargetID: "quiz-1",
		FileName: "answers.pdf",
		Body:     strings.NewReader("v1"),
	})
	require.NoError(t, err)

	graded, err := svc.GradeSubmission(context.Background(), "lect-user-1", GradeSubmissionRequest{
		SubmissionID: submitted.ID,
		Score:        35,
	})
	require.NoError(t, err)
	require.NotNil(t, graded.Score)
	assert.Equal(t, 35.0, *graded.Score)

	_, err = svc.GradeSubmission(context.Background(), "lect-user-1", GradeSubmissionRequest{
		SubmissionID: submitted.ID,
		Score:        45,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
