package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuscore/uni-admin-api/internal/service"
	appErrors "github.com/campuscore/uni-admin-api/pkg/errors"
	"github.com/campuscore/uni-admin-api/pkg/response"
)

// RegistryHandler exposes department, program and semester endpoints.
type RegistryHandler struct {
	registry *service.RegistryService
}

// NewRegistryHandler constructs RegistryHandler.
func NewRegistryHandler(registry *service.RegistryService) *RegistryHandler {
	return &RegistryHandler{registry: registry}
}

// CreateDepartment godoc
// @Summary Create department
// @Tags Registry
// @Accept json
// @Produce json
// @Param payload body service.CreateDepartmentRequest true "Department payload"
// @Success 201 {object} response.Envelope
// @Router /departments [post]
func (h *RegistryHandler) CreateDepartment(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	department, err := h.registry.CreateDepartment(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, department)
}

// ListDepartments godoc
// @Summary List departments
// @Tags Registry
// @Produce json
// @Param search query string false "Search by code or name"
// @Success 200 {object} response.Envelope
// @Router /departments [get]
func (h *RegistryHandler) ListDepartments(c *gin.Context) {
	departments, err := h.registry.ListDepartments(c.Request.Context(), c.Query("search"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, departments, nil)
}

// GetDepartment godoc
// @Summary Get department
// @Tags Registry
// @Produce json
// @Param id path string true "Department ID"
// @Success 200 {object} response.Envelope
// @Router /departments/{id} [get]
func (h *RegistryHandler) GetDepartment(c *gin.Context) {
	department, err := h.registry.GetDepartment(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, department, nil)
}

// AssignDepartmentHead godoc
// @Summary Assign department head
// @Tags Registry
// @Accept json
// @Produce json
// @Param id path string true "Department ID"
// @Param payload body map[string]string true "Head user ID, null to clear"
// @Success 204
// @Router /departments/{id}/head [put]
func (h *RegistryHandler) AssignDepartmentHead(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var payload struct {
		HeadID *string `json:"head_id"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.registry.AssignDepartmentHead(c.Request.Context(), claims.UserID, c.Param("id"), payload.HeadID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CreateProgram godoc
// @Summary Create program
// @Tags Registry
// @Accept json
// @Produce json
// @Param payload body service.CreateProgramRequest true "Program payload"
// @Success 201 {object} response.Envelope
// @Router /programs [post]
func (h *RegistryHandler) CreateProgram(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	program, err := h.registry.CreateProgram(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, program)
}

// ListPrograms godoc
// @Summary List programs
// @Tags Registry
// @Produce json
// @Param departmentId query string false "Filter by department"
// @Success 200 {object} response.Envelope
// @Router /programs [get]
func (h *RegistryHandler) ListPrograms(c *gin.Context) {
	programs, err := h.registry.ListPrograms(c.Request.Context(), c.Query("departmentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, programs, nil)
}

// GetProgram godoc
// @Summary Get program
// @Tags Registry
// @Produce json
// @Param id path string true "Program ID"
// @Success 200 {object} response.Envelope
// @Router /programs/{id} [get]
func (h *RegistryHandler) GetProgram(c *gin.Context) {
	program, err := h.registry.GetProgram(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, program, nil)
}

// CreateSemester godoc
// @Summary Create semester
// @Tags Registry
// @Accept json
// @Produce json
// @Param payload body service.CreateSemesterRequest true "Semester payload"
// @Success 201 {object} response.Envelope
// @Router /semesters [post]
func (h *RegistryHandler) CreateSemester(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateSemesterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	semester, err := h.registry.CreateSemester(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, semester)
}

// ListSemesters godoc
// @Summary List semesters
// @Tags Registry
// @Produce json
// @Param academicYear query string false "Filter by academic year"
// @Success 200 {object} response.Envelope
// @Router /semesters [get]
func (h *RegistryHandler) ListSemesters(c *gin.Context) {
	semesters, err := h.registry.ListSemesters(c.Request.Context(), c.Query("academicYear"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, semesters, nil)
}
