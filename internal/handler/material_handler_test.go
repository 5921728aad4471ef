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

type stubMaterialRepo struct {
	materials map[string]*models.Material
	deleted   []string
}

func (s *stubMaterialRepo) FindByID(ctx context.Context, id string) (*models.Material, error) {
	if m, ok := s.materials[id]; ok {
		return m, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubMaterialRepo) ListByCourse(ctx context.Context, courseID, studentID string) ([]models.MaterialDetail, error) {
	return nil, nil
}

func (s *stubMaterialRepo) Create(ctx context.Context, material *models.Material) error { return nil }

func (s *stubMaterialRepo) Delete(ctx context.Context, id string) error {
	delete(s.materials, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubMaterialRepo) InsertView(ctx context.Context, view *models.MaterialView) (bool, error) {
	return true, nil
}

func (s *stubMaterialRepo) CountViews(ctx context.Context, materialID string) (int, error) {
	return 3, nil
}

func newMaterialHandlerForTest(relations *stubRelations) (*MaterialHandler, *stubMaterialRepo) {
	materials := &stubMaterialRepo{materials: map[string]*models.Material{
		"mat-1": {ID: "mat-1", CourseID: "course-1", Title: "Week 1 Notes", FileKey: "materials/course-1/week1.pdf"},
	}}
	svc := service.NewMaterialService(materials, &stubStudentReader{}, relations, nopObjectStore{}, nil, nil)
	authz := service.NewAuthzService(relations, nil)
	return NewMaterialHandler(svc, authz, 0), materials
}

func TestDeleteMaterialRequiresOwnCourse(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, materials := newMaterialHandlerForTest(&stubRelations{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodDelete, "/materials/mat-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "mat-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "lect-user-2", Role: models.RoleLecturer})

	handler.Delete(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, materials.deleted)
	assert.Contains(t, materials.materials, "mat-1")
}

func TestDeleteMaterialAllowsAssignedLecturer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	relations := &stubRelations{lecturerOf: map[string]bool{relationKey("lect-user-1", "course-1"): true}}
	handler, materials := newMaterialHandlerForTest(relations)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodDelete, "/materials/mat-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "mat-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "lect-user-1", Role: models.RoleLecturer})

	handler.Delete(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"mat-1"}, materials.deleted)
}

func TestViewCountRequiresOwnCourse(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newMaterialHandlerForTest(&stubRelations{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/materials/mat-1/views", nil)
	c.Params = gin.Params{{Key: "id", Value: "mat-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "lect-user-2", Role: models.RoleLecturer})

	handler.ViewCount(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
