package service

import (
	"context"
	"database/sql"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuscore/uni-admin-api/internal/models"
	appErrors "github.com/campuscore/uni-admin-api/pkg/errors"
)

type fakeObjectStore struct {
	uploads map[string][]byte
	deleted []string
}

func (f *fakeObjectStore) Upload(ctx context.Context, key, contentType string, data io.Reader) error {
	if f.uploads == nil {
		f.uploads = make(map[string][]byte)
	}
	body, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.uploads[key] = body
	return nil
}

func (f *fakeObjectStore) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	body, ok := f.uploads[key]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return io.NopCloser(strings.NewReader(string(body))), nil
}

func (f *fakeObjectStore) Delete(ctx context.Context, key string) error {
	delete(f.uploads, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeObjectStore) PublicURL(key string) string {
	return "https://files.test/" + key
}

type mockMaterialRepo struct {
	materials map[string]*models.Material
	views     map[string]models.MaterialView
	inserts   int
}

func viewKey(materialID, studentID string) string { return materialID + "|" + studentID }

func (m *mockMaterialRepo) FindByID(ctx context.Context, id string) (*models.Material, error) {
	if mat, ok := m.materials[id]; ok {
		return mat, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockMaterialRepo) ListByCourse(ctx context.Context, courseID, studentID string) ([]models.MaterialDetail, error) {
	var result []models.MaterialDetail
	for _, mat := range m.materials {
		if mat.CourseID != courseID {
			continue
		}
		_, viewed := m.views[viewKey(mat.ID, studentID)]
		result = append(result, models.MaterialDetail{Material: *mat, Viewed: viewed})
	}
	return result, nil
}

func (m *mockMaterialRepo) Create(ctx context.Context, material *models.Material) error {
	if m.materials == nil {
		m.materials = make(map[string]*models.Material)
	}
	if material.ID == "" {
		material.ID = "mat-" + material.Title
	}
	stored := *material
	m.materials[material.ID] = &stored
	return nil
}

func (m *mockMaterialRepo) Delete(ctx context.Context, id string) error {
	delete(m.materials, id)
	return nil
}

func (m *mockMaterialRepo) InsertView(ctx context.Context, view *models.MaterialView) (bool, error) {
	if m.views == nil {
		m.views = make(map[string]models.MaterialView)
	}
	key := viewKey(view.MaterialID, view.StudentID)
	if _, ok := m.views[key]; ok {
		return false, nil
	}
	m.views[key] = *view
	m.inserts++
	return true, nil
}

func (m *mockMaterialRepo) CountViews(ctx context.Context, materialID string) (int, error) {
	count := 0
	for key := range m.views {
		if strings.HasPrefix(key, materialID+"|") {
			count++
		}
	}
	return count, nil
}

func materialFixtures() (*mockMaterialRepo, *mockStudentReaderByUser, *mockEnrollmentChecker) {
	materials := &mockMaterialRepo{materials: map[string]*models.Material{
		"mat-1": {ID: "mat-1", CourseID: "course-1", Title: "Week 1 Notes", FileKey: "materials/course-1/week1.pdf"},
	}}
	students := &mockStudentReaderByUser{students: map[string]*models.StudentDetail{
		"stu-user-1": {Student: models.Student{ID: "stu-1", UserID: "stu-user-1"}},
	}}
	access := &mockEnrollmentChecker{enrolled: map[string]bool{
		enrollmentKey("stu-user-1", "course-1"): true,
	}}
	return materials, students, access
}

type mockStudentReaderByUser struct {
	students map[string]*models.StudentDetail
}

func (m *mockStudentReaderByUser) FindByUserID(ctx context.Context, userID string) (*models.StudentDetail, error) {
	if s, ok := m.students[userID]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

type mockEnrollmentChecker struct {
	enrolled map[string]bool
}

func enrollmentKey(userID, courseID string) string { return userID + "|" + courseID }

func (m *mockEnrollmentChecker) IsEnrolledIn(ctx context.Context, userID, courseID string) (bool, error) {
	return m.enrolled[enrollmentKey(userID, courseID)], nil
}

func TestRecordViewIsIdempotent(t *testing.T) {
	materials, students, access := materialFixtures()
	svc := NewMaterialService(materials, students, access, &fakeObjectStore{}, nil, nil)
	student := models.Principal{UserID: "stu-user-1", Role: models.RoleStudent}

	require.NoError(t, svc.RecordView(context.Background(), student, "mat-1", models.InteractionViewed))
	require.NoError(t, svc.RecordView(context.Background(), student, "mat-1", models.InteractionViewed))
	require.NoError(t, svc.RecordView(context.Background(), student, "mat-1", models.InteractionDownloaded))

	assert.Equal(t, 1, materials.inserts)
	count, err := svc.ViewCount(context.Background(), "mat-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRecordViewUnknownMaterial(t *testing.T) {
	materials, students, access := materialFixtures()
	svc := NewMaterialService(materials, students, access, &fakeObjectStore{}, nil, nil)
	student := models.Principal{UserID: "stu-user-1", Role: models.RoleStudent}

	err := svc.RecordView(context.Background(), student, "missing", models.InteractionViewed)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRecordViewRequiresEnrollment(t *testing.T) {
	materials, students, access := materialFixtures()
	students.students["stu-user-2"] = &models.StudentDetail{Student: models.Student{ID: "stu-2", UserID: "stu-user-2"}}
	svc := NewMaterialService(materials, students, access, &fakeObjectStore{}, nil, nil)
	outsider := models.Principal{UserID: "stu-user-2", Role: models.RoleStudent}

	err := svc.RecordView(context.Background(), outsider, "mat-1", models.InteractionViewed)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Zero(t, materials.inserts)
}

func TestRecordViewWithoutStudentProfile(t *testing.T) {
	materials, students, access := materialFixtures()
	svc := NewMaterialService(materials, students, access, &fakeObjectStore{}, nil, nil)
	staff := models.Principal{UserID: "lect-user-1", Role: models.RoleLecturer}

	err := svc.RecordView(context.Background(), staff, "mat-1", models.InteractionViewed)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrIncompleteProfile.Code, appErrors.FromError(err).Code)
}

func TestListForCourseJoinsViewedFlag(t *testing.T) {
	materials, students, access := materialFixtures()
	svc := NewMaterialService(materials, students, access, &fakeObjectStore{}, nil, nil)
	student := models.Principal{UserID: "stu-user-1", Role: models.RoleStudent}

	listed, err := svc.ListForCourse(context.Background(), student, "course-1")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.False(t, listed[0].Viewed)

	require.NoError(t, svc.RecordView(context.Background(), student, "mat-1", models.InteractionViewed))

	listed, err = svc.ListForCourse(context.Background(), student, "course-1")
	require.NoError(t, err)
	assert.True(t, listed[0].Viewed)
}

func TestUploadStoresFileAndRecord(t *testing.T) {
	materials, students, access := materialFixtures()
	store := &fakeObjectStore{}
	svc := NewMaterialService(materials, students, access, store, nil, nil)

	material, err := svc.Upload(context.Background(), "lect-user-1", UploadMaterialRequest{
		CourseID:    "course-1",
		Title:       "Week 2 Notes",
		FileName:    "week2.pdf",
		ContentType: "application/pdf",
		Body:        strings.NewReader("pdf-bytes"),
	})
	require.NoError(t, err)
	assert.Contains(t, material.FileKey, "materials/course-1/")
	assert.Contains(t, material.FileURL, material.FileKey)
	assert.Len(t, store.uploads, 1)
}
