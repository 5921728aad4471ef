package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuscore/uni-admin-api/internal/models"
	appErrors "github.com/campuscore/uni-admin-api/pkg/errors"
)

type mockLecturerRepo struct {
	byID    map[string]*models.LecturerDetail
	byStaff map[string]bool
}

func newMockLecturerRepo() *mockLecturerRepo {
	return &mockLecturerRepo{byID: map[string]*models.LecturerDetail{}, byStaff: map[string]bool{}}
}

func (m *mockLecturerRepo) FindByID(_ context.Context, id string) (*models.LecturerDetail, error) {
	lecturer, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return lecturer, nil
}

func (m *mockLecturerRepo) FindByUserID(_ context.Context, userID string) (*models.LecturerDetail, error) {
	for _, lecturer := range m.byID {
		if lecturer.UserID == userID {
			return lecturer, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockLecturerRepo) List(_ context.Context, _ models.RegistryFilter) ([]models.LecturerDetail, int, error) {
	var out []models.LecturerDetail
	for _, lecturer := range m.byID {
		out = append(out, *lecturer)
	}
	return out, len(out), nil
}

func (m *mockLecturerRepo) Create(_ context.Context, lecturer *models.Lecturer) error {
	if m.byStaff[lecturer.StaffNumber] {
		return uniqueViolation()
	}
	lecturer.ID = uuid.NewString()
	m.byStaff[lecturer.StaffNumber] = true
	m.byID[lecturer.ID] = &models.LecturerDetail{Lecturer: *lecturer}
	return nil
}

func (m *mockLecturerRepo) SetActive(_ context.Context, id string, active bool) error {
	m.byID[id].Active = active
	return nil
}

type mockUserWriter struct {
	byEmail map[string]*models.User
}

func newMockUserWriter() *mockUserWriter {
	return &mockUserWriter{byEmail: map[string]*models.User{}}
}

func (m *mockUserWriter) Create(_ context.Context, user *models.User) error {
	if _, exists := m.byEmail[user.Email]; exists {
		return uniqueViolation()
	}
	user.ID = uuid.NewString()
	m.byEmail[user.Email] = user
	return nil
}

func (m *mockUserWriter) FindByEmail(_ context.Context, email string) (*models.User, error) {
	user, ok := m.byEmail[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func TestLecturerRegisterCreatesUserAndProfile(t *testing.T) {
	lecturers := newMockLecturerRepo()
	users := newMockUserWriter()
	svc := NewLecturerService(lecturers, users, nil, nil)

	detail, err := svc.Register(context.Background(), RegisterLecturerRequest{
		Email:        "grace.eze@uni.test",
		Password:     "correct-horse",
		FullName:     "Grace Eze",
		StaffNumber:  "STF-042",
		DepartmentID: "dept-1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, detail.ID)
	assert.True(t, detail.Active)
	assert.Equal(t, models.RoleLecturer, users.byEmail["grace.eze@uni.test"].Role)
	assert.Equal(t, users.byEmail["grace.eze@uni.test"].ID, detail.UserID)
}

func TestLecturerRegisterDuplicateEmail(t *testing.T) {
	users := newMockUserWriter()
	users.byEmail["grace.eze@uni.test"] = &models.User{ID: "user-1", Email: "grace.eze@uni.test"}
	svc := NewLecturerService(newMockLecturerRepo(), users, nil, nil)

	_, err := svc.Register(context.Background(), RegisterLecturerRequest{
		Email:        "grace.eze@uni.test",
		Password:     "correct-horse",
		FullName:     "Grace Eze",
		StaffNumber:  "STF-042",
		DepartmentID: "dept-1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestLecturerRegisterDuplicateStaffNumber(t *testing.T) {
	lecturers := newMockLecturerRepo()
	lecturers.byStaff["STF-042"] = true
	svc := NewLecturerService(lecturers, newMockUserWriter(), nil, nil)

	_, err := svc.Register(context.Background(), RegisterLecturerRequest{
		Email:        "new.staff@uni.test",
		Password:     "correct-horse",
		FullName:     "New Staff",
		StaffNumber:  "STF-042",
		DepartmentID: "dept-1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestLecturerSetActiveUnknownIsNotFound(t *testing.T) {
	svc := NewLecturerService(newMockLecturerRepo(), newMockUserWriter(), nil, nil)

	err := svc.SetActive(context.Background(), "missing", false)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
