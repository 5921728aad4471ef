package handler

import (
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campuscore/uni-admin-api/internal/service"
	appErrors "github.com/campuscore/uni-admin-api/pkg/errors"
	"github.com/campuscore/uni-admin-api/pkg/response"
)

// TranscriptHandler exposes transcript assembly, rendering and download endpoints.
type TranscriptHandler struct {
	transcripts *service.TranscriptService
	authz       *service.AuthzService
}

// NewTranscriptHandler constructs TranscriptHandler.
func NewTranscriptHandler(transcripts *service.TranscriptService, authz *service.AuthzService) *TranscriptHandler {
	return &TranscriptHandler{transcripts: transcripts, authz: authz}
}

// Assemble godoc
// @Summary Assemble a student's transcript
// @Tags Transcripts
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{studentId}/transcript [get]
func (h *TranscriptHandler) Assemble(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	studentID := c.Param("id")
	if err := h.authz.CanViewStudentRecord(c.Request.Context(), principal, studentID); err != nil {
		response.Error(c, err)
		return
	}
	transcript, err := h.transcripts.Assemble(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, transcript, nil)
}

// RequestRender godoc
// @Summary Queue a transcript PDF render
// @Tags Transcripts
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 202 {object} response.Envelope
// @Router /students/{studentId}/transcript/render [post]
func (h *TranscriptHandler) RequestRender(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	studentID := c.Param("id")
	if err := h.authz.CanViewStudentRecord(c.Request.Context(), principal, studentID); err != nil {
		response.Error(c, err)
		return
	}
	job, err := h.transcripts.RequestRender(c.Request.Context(), principal.UserID, studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, job, nil)
}

// GetJob godoc
// @Summary Inspect a render job
// @Tags Transcripts
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /transcripts/jobs/{id} [get]
func (h *TranscriptHandler) GetJob(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	job, err := h.transcripts.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.authz.CanViewStudentRecord(c.Request.Context(), principal, job.StudentID); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}

// ListJobs godoc
// @Summary List render jobs for a student
// @Tags Transcripts
// @Produce json
// @Param studentId path string true "Student ID"
// @Param limit query int false "Max jobs to return"
// @Success 200 {object} response.Envelope
// @Router /students/{studentId}/transcript/jobs [get]
func (h *TranscriptHandler) ListJobs(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	studentID := c.Param("id")
	if err := h.authz.CanViewStudentRecord(c.Request.Context(), principal, studentID); err != nil {
		response.Error(c, err)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	jobs, err := h.transcripts.ListJobs(c.Request.Context(), studentID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, jobs, nil)
}

// GrantDownload godoc
// @Summary Issue a signed download link for a ready transcript
// @Tags Transcripts
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /transcripts/jobs/{id}/download-link [post]
func (h *TranscriptHandler) GrantDownload(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	job, err := h.transcripts.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.authz.CanViewStudentRecord(c.Request.Context(), principal, job.StudentID); err != nil {
		response.Error(c, err)
		return
	}
	grant, err := h.transcripts.GrantDownload(c.Request.Context(), job.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grant, nil)
}

// Download godoc
// @Summary Download a rendered transcript using a signed token
// @Description The token embeds the job identity and expiry; no session is required
// @Tags Transcripts
// @Produce application/pdf
// @Param token query string true "Signed download token"
// @Success 200 {file} file
// @Router /transcripts/download [get]
func (h *TranscriptHandler) Download(c *gin.Context) {
	file, err := h.transcripts.OpenDownload(c.Request.Context(), c.Query("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to read transcript file"))
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filepath.Base(file.Name())+`"`)
	c.DataFromReader(http.StatusOK, info.Size(), "application/pdf", file, nil)
}
