package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuscore/uni-admin-api/internal/models"
	"github.com/campuscore/uni-admin-api/internal/service"
	appErrors "github.com/campuscore/uni-admin-api/pkg/errors"
	"github.com/campuscore/uni-admin-api/pkg/response"
)

// MaterialHandler exposes course material endpoints.
type MaterialHandler struct {
	materials     *service.MaterialService
	authz         *service.AuthzService
	maxUploadSize int64
}

// NewMaterialHandler constructs MaterialHandler.
func NewMaterialHandler(materials *service.MaterialService, authz *service.AuthzService, maxUploadSize int64) *MaterialHandler {
	return &MaterialHandler{materials: materials, authz: authz, maxUploadSize: maxUploadSize}
}

// Upload godoc
// @Summary Upload course material
// @Tags Materials
// @Accept multipart/form-data
// @Produce json
// @Param courseId path string true "Course ID"
// @Param title formData string true "Material title"
// @Param file formData file true "Material file"
// @Success 201 {object} response.Envelope
// @Router /courses/{courseId}/materials [post]
func (h *MaterialHandler) Upload(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	courseID := c.Param("id")
	if err := h.authz.CanManageCourseContent(c.Request.Context(), principal, courseID); err != nil {
		response.Error(c, err)
		return
	}

	if h.maxUploadSize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize)
	}
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	defer file.Close() //nolint:errcheck

	material, err := h.materials.Upload(c.Request.Context(), principal.UserID, service.UploadMaterialRequest{
		CourseID:    courseID,
		Title:       c.PostForm("title"),
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, material)
}

// List godoc
// @Summary List materials for a course
// @Description Students additionally see whether they have viewed each material
// @Tags Materials
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{courseId}/materials [get]
func (h *MaterialHandler) List(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	courseID := c.Param("id")
	if err := h.authz.CanAccessCourseContent(c.Request.Context(), principal, courseID); err != nil {
		response.Error(c, err)
		return
	}
	materials, err := h.materials.ListForCourse(c.Request.Context(), principal, courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, materials, nil)
}

// RecordView godoc
// @Summary Record that the current student viewed a material
// @Description Repeat views are no-ops; the view marker is written at most once
// @Tags Materials
// @Accept json
// @Produce json
// @Param id path string true "Material ID"
// @Param payload body map[string]string false "Interaction kind: viewed or downloaded"
// @Success 204
// @Router /materials/{id}/views [post]
func (h *MaterialHandler) RecordView(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var payload struct {
		Interaction string `json:"interaction"`
	}
	_ = c.ShouldBindJSON(&payload)
	interaction := models.MaterialInteraction(payload.Interaction)
	if interaction == "" {
		interaction = models.InteractionViewed
	}
	if err := h.materials.RecordView(c.Request.Context(), principal, c.Param("id"), interaction); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ViewCount godoc
// @Summary Distinct student view count for a material
// @Tags Materials
// @Produce json
// @Param id path string true "Material ID"
// @Success 200 {object} response.Envelope
// @Router /materials/{id}/views [get]
func (h *MaterialHandler) ViewCount(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	material, err := h.materials.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.authz.CanManageCourseContent(c.Request.Context(), principal, material.CourseID); err != nil {
		response.Error(c, err)
		return
	}
	count, err := h.materials.ViewCount(c.Request.Context(), material.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"views": count}, nil)
}

// Delete godoc
// @Summary Delete a material
// @Tags Materials
// @Produce json
// @Param id path string true "Material ID"
// @Success 204
// @Router /materials/{id} [delete]
func (h *MaterialHandler) Delete(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	material, err := h.materials.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.authz.CanManageCourseContent(c.Request.Context(), principal, material.CourseID); err != nil {
		response.Error(c, err)
		return
	}
	if err := h.materials.Delete(c.Request.Context(), material.ID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
