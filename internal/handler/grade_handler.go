package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuscore/uni-admin-api/internal/models"
	"github.com/campuscore/uni-admin-api/internal/service"
	appErrors "github.com/campuscore/uni-admin-api/pkg/errors"
	"github.com/campuscore/uni-admin-api/pkg/response"
)

// GradeHandler exposes grade entry and reporting endpoints.
type GradeHandler struct {
	grades      *service.GradeService
	enrollments *service.EnrollmentService
	authz       *service.AuthzService
}

// NewGradeHandler constructs GradeHandler.
func NewGradeHandler(grades *service.GradeService, enrollments *service.EnrollmentService, authz *service.AuthzService) *GradeHandler {
	return &GradeHandler{grades: grades, enrollments: enrollments, authz: authz}
}

// RecordScores godoc
// @Summary Record CAT and exam scores
// @Description Recomputes total score, letter grade and grade point from the stored scores
// @Tags Grades
// @Accept json
// @Produce json
// @Param payload body service.RecordScoresRequest true "Scores payload"
// @Success 200 {object} response.Envelope
// @Router /grades [post]
func (h *GradeHandler) RecordScores(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.RecordScoresRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	enrollment, err := h.enrollments.Get(c.Request.Context(), req.EnrollmentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.authz.CanGradeEnrollmentsOf(c.Request.Context(), principal, enrollment.CourseID); err != nil {
		response.Error(c, err)
		return
	}

	grade, err := h.grades.RecordScores(c.Request.Context(), principal.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grade, nil)
}

// GetByEnrollment godoc
// @Summary Get the grade for one enrollment
// @Tags Grades
// @Produce json
// @Param enrollmentId path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{enrollmentId}/grade [get]
func (h *GradeHandler) GetByEnrollment(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	enrollment, err := h.enrollments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if principal.Role == models.RoleStudent {
		if err := h.authz.CanViewStudentRecord(c.Request.Context(), principal, enrollment.StudentID); err != nil {
			response.Error(c, err)
			return
		}
	}
	grade, err := h.grades.GetByEnrollment(c.Request.Context(), enrollment.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grade, nil)
}

// List godoc
// @Summary List grades
// @Tags Grades
// @Produce json
// @Param courseId query string false "Filter by course"
// @Param studentId query string false "Filter by student"
// @Success 200 {object} response.Envelope
// @Router /grades [get]
func (h *GradeHandler) List(c *gin.Context) {
	var filter models.GradeFilter
	filter.CourseID = c.Query("courseId")
	filter.StudentID = c.Query("studentId")
	filter.EnrollmentID = c.Query("enrollmentId")

	grades, err := h.grades.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grades, nil)
}

// Distribution godoc
// @Summary Letter grade distribution for a course
// @Tags Grades
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/grade-distribution [get]
func (h *GradeHandler) Distribution(c *gin.Context) {
	distribution, err := h.grades.Distribution(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, distribution, nil)
}
