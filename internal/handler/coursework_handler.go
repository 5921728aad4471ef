package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuscore/uni-admin-api/internal/models"
	"github.com/campuscore/uni-admin-api/internal/service"
	appErrors "github.com/campuscore/uni-admin-api/pkg/errors"
	"github.com/campuscore/uni-admin-api/pkg/response"
)

// CourseworkHandler exposes assignment, quiz and submission endpoints.
type CourseworkHandler struct {
	coursework    *service.CourseworkService
	authz         *service.AuthzService
	maxUploadSize int64
}

// NewCourseworkHandler constructs CourseworkHandler.
func NewCourseworkHandler(coursework *service.CourseworkService, authz *service.AuthzService, maxUploadSize int64) *CourseworkHandler {
	return &CourseworkHandler{coursework: coursework, authz: authz, maxUploadSize: maxUploadSize}
}

// CreateAssignment godoc
// @Summary Publish an assignment
// @Tags Coursework
// @Accept json
// @Produce json
// @Param payload body service.CreateAssignmentRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Router /assignments [post]
func (h *CourseworkHandler) CreateAssignment(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.authz.CanManageCourseContent(c.Request.Context(), principal, req.CourseID); err != nil {
		response.Error(c, err)
		return
	}
	assignment, err := h.coursework.CreateAssignment(c.Request.Context(), principal.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// ListAssignments godoc
// @Summary List assignments for a course
// @Tags Coursework
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{courseId}/assignments [get]
func (h *CourseworkHandler) ListAssignments(c *gin.Context) {
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
	assignments, err := h.coursework.ListAssignments(c.Request.Context(), courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}

// DeleteAssignment godoc
// @Summary Delete an assignment
// @Tags Coursework
// @Produce json
// @Param id path string true "Assignment ID"
// @Success 204
// @Router /assignments/{id} [delete]
func (h *CourseworkHandler) DeleteAssignment(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	assignment, err := h.coursework.GetAssignment(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.authz.CanManageCourseContent(c.Request.Context(), principal, assignment.CourseID); err != nil {
		response.Error(c, err)
		return
	}
	if err := h.coursework.DeleteAssignment(c.Request.Context(), assignment.ID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CreateQuiz godoc
// @Summary Publish a quiz
// @Tags Coursework
// @Accept json
// @Produce json
// @Param payload body service.CreateQuizRequest true "Quiz payload"
// @Success 201 {object} response.Envelope
// @Router /quizzes [post]
func (h *CourseworkHandler) CreateQuiz(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.authz.CanManageCourseContent(c.Request.Context(), principal, req.CourseID); err != nil {
		response.Error(c, err)
		return
	}
	quiz, err := h.coursework.CreateQuiz(c.Request.Context(), principal.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, quiz)
}

// ListQuizzes godoc
// @Summary List quizzes for a course
// @Tags Coursework
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{courseId}/quizzes [get]
func (h *CourseworkHandler) ListQuizzes(c *gin.Context) {
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
	quizzes, err := h.coursework.ListQuizzes(c.Request.Context(), courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, quizzes, nil)
}

// Submit godoc
// @Summary Submit work against an assignment or quiz
// @Description Every submission is a new attempt; earlier attempts are kept
// @Tags Coursework
// @Accept multipart/form-data
// @Produce json
// @Param kind formData string true "ASSIGNMENT or QUIZ"
// @Param targetId formData string true "Assignment or quiz ID"
// @Param file formData file true "Submission file"
// @Success 201 {object} response.Envelope
// @Router /submissions [post]
func (h *CourseworkHandler) Submit(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
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

	submission, err := h.coursework.Submit(c.Request.Context(), principal, service.SubmitWorkRequest{
		Kind:        models.SubmissionKind(c.PostForm("kind")),
		TargetID:    c.PostForm("targetId"),
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, submission)
}

// SubmissionStatus godoc
// @Summary Current student's submission status for a target
// @Description A student who has submitted stays submitted regardless of later attempts
// @Tags Coursework
// @Produce json
// @Param kind query string true "ASSIGNMENT or QUIZ"
// @Param targetId query string true "Assignment or quiz ID"
// @Success 200 {object} response.Envelope
// @Router /submissions/status [get]
func (h *CourseworkHandler) SubmissionStatus(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	status, err := h.coursework.SubmissionStatus(c.Request.Context(), principal,
		models.SubmissionKind(c.Query("kind")), c.Query("targetId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// targetCourseID resolves the course an assignment or quiz belongs to.
// Writes the error response itself on failure.
func (h *CourseworkHandler) targetCourseID(c *gin.Context, kind models.SubmissionKind, targetID string) (string, bool) {
	switch kind {
	case models.SubmissionAssignment:
		assignment, err := h.coursework.GetAssignment(c.Request.Context(), targetID)
		if err != nil {
			response.Error(c, err)
			return "", false
		}
		return assignment.CourseID, true
	case models.SubmissionQuiz:
		quiz, err := h.coursework.GetQuiz(c.Request.Context(), targetID)
		if err != nil {
			response.Error(c, err)
			return "", false
		}
		return quiz.CourseID, true
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown submission kind"))
		return "", false
	}
}

// ListForGrading godoc
// @Summary Latest submissions per student for grading
// @Tags Coursework
// @Produce json
// @Param kind query string true "ASSIGNMENT or QUIZ"
// @Param targetId query string true "Assignment or quiz ID"
// @Success 200 {object} response.Envelope
// @Router /submissions/grading [get]
func (h *CourseworkHandler) ListForGrading(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	kind := models.SubmissionKind(c.Query("kind"))
	targetID := c.Query("targetId")
	courseID, ok := h.targetCourseID(c, kind, targetID)
	if !ok {
		return
	}
	if err := h.authz.CanGradeEnrollmentsOf(c.Request.Context(), principal, courseID); err != nil {
		response.Error(c, err)
		return
	}
	submissions, err := h.coursework.ListSubmissionsForGrading(c.Request.Context(), kind, targetID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submissions, nil)
}

// GradeSubmission godoc
// @Summary Score a submission
// @Tags Coursework
// @Accept json
// @Produce json
// @Param payload body service.GradeSubmissionRequest true "Score payload"
// @Success 200 {object} response.Envelope
// @Router /submissions/grade [post]
func (h *CourseworkHandler) GradeSubmission(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.GradeSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	target, err := h.coursework.GetSubmission(c.Request.Context(), req.SubmissionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	courseID, ok := h.targetCourseID(c, target.Kind, target.TargetID)
	if !ok {
		return
	}
	if err := h.authz.CanGradeEnrollmentsOf(c.Request.Context(), principal, courseID); err != nil {
		response.Error(c, err)
		return
	}
	submission, err := h.coursework.GradeSubmission(c.Request.Context(), principal.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submission, nil)
}
