package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campuscore/uni-admin-api/internal/models"
	"github.com/campuscore/uni-admin-api/internal/service"
	appErrors "github.com/campuscore/uni-admin-api/pkg/errors"
	"github.com/campuscore/uni-admin-api/pkg/response"
)

// FinanceHandler exposes fee structure and staff salary endpoints.
type FinanceHandler struct {
	finance *service.FinanceService
}

// NewFinanceHandler constructs FinanceHandler.
func NewFinanceHandler(finance *service.FinanceService) *FinanceHandler {
	return &FinanceHandler{finance: finance}
}

// CreateFee godoc
// @Summary Define a fee for a program and semester
// @Tags Finance
// @Accept json
// @Produce json
// @Param payload body service.UpsertFeeRequest true "Fee payload"
// @Success 201 {object} response.Envelope
// @Router /fees [post]
func (h *FinanceHandler) CreateFee(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.UpsertFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	fee, err := h.finance.CreateFee(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, fee)
}

// UpdateFee godoc
// @Summary Update a fee structure
// @Tags Finance
// @Accept json
// @Produce json
// @Param id path string true "Fee ID"
// @Param payload body service.UpsertFeeRequest true "Fee payload"
// @Success 200 {object} response.Envelope
// @Router /fees/{id} [put]
func (h *FinanceHandler) UpdateFee(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.UpsertFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	fee, err := h.finance.UpdateFee(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fee, nil)
}

// ListFees godoc
// @Summary List fee structures
// @Tags Finance
// @Produce json
// @Param programId query string false "Filter by program"
// @Param semesterId query string false "Filter by semester"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /fees [get]
func (h *FinanceHandler) ListFees(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	filter := models.FeeFilter{
		ProgramID:  c.Query("programId"),
		SemesterID: c.Query("semesterId"),
		Page:       page,
		PageSize:   limit,
	}
	fees, total, err := h.finance.ListFees(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fees, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total})
}

// UpsertSalary godoc
// @Summary Create or replace a staff member's salary
// @Tags Finance
// @Accept json
// @Produce json
// @Param payload body service.UpsertSalaryRequest true "Salary payload"
// @Success 200 {object} response.Envelope
// @Router /salaries [put]
func (h *FinanceHandler) UpsertSalary(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.UpsertSalaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	salary, err := h.finance.UpsertSalary(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, salary, nil)
}

// ListSalaries godoc
// @Summary List staff salaries
// @Tags Finance
// @Produce json
// @Param userId query string false "Filter by staff user"
// @Param role query string false "Filter by role"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /salaries [get]
func (h *FinanceHandler) ListSalaries(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	filter := models.SalaryFilter{
		UserID:   c.Query("userId"),
		Role:     models.UserRole(c.Query("role")),
		Page:     page,
		PageSize: limit,
	}
	salaries, total, err := h.finance.ListSalaries(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, salaries, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total})
}

// ExportFees godoc
// @Summary Export fee structures as CSV
// @Tags Finance
// @Produce text/csv
// @Param programId query string false "Filter by program"
// @Param semesterId query string false "Filter by semester"
// @Success 200 {file} file
// @Router /fees/export [get]
func (h *FinanceHandler) ExportFees(c *gin.Context) {
	filter := models.FeeFilter{
		ProgramID:  c.Query("programId"),
		SemesterID: c.Query("semesterId"),
	}
	data, err := h.finance.ExportFeesCSV(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := "fees-" + time.Now().Format("2006-01-02") + ".csv"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv", data)
}

// ExportSalaries godoc
// @Summary Export staff salaries as CSV
// @Tags Finance
// @Produce text/csv
// @Param role query string false "Filter by role"
// @Success 200 {file} file
// @Router /salaries/export [get]
func (h *FinanceHandler) ExportSalaries(c *gin.Context) {
	filter := models.SalaryFilter{
		UserID: c.Query("userId"),
		Role:   models.UserRole(c.Query("role")),
	}
	data, err := h.finance.ExportSalariesCSV(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := "salaries-" + time.Now().Format("2006-01-02") + ".csv"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv", data)
}
