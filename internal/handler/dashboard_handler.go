package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuscore/uni-admin-api/internal/service"
	appErrors "github.com/campuscore/uni-admin-api/pkg/errors"
	"github.com/campuscore/uni-admin-api/pkg/response"
)

// DashboardHandler serves role-specific dashboards and system metrics.
type DashboardHandler struct {
	dashboards *service.DashboardService
	metrics    *service.MetricsService
}

// NewDashboardHandler constructs DashboardHandler.
func NewDashboardHandler(dashboards *service.DashboardService, metrics *service.MetricsService) *DashboardHandler {
	return &DashboardHandler{dashboards: dashboards, metrics: metrics}
}

// Admin godoc
// @Summary Admin dashboard counters
// @Tags Dashboards
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboards/admin [get]
func (h *DashboardHandler) Admin(c *gin.Context) {
	dashboard, err := h.dashboards.Admin(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dashboard, nil)
}

// Bursar godoc
// @Summary Bursar dashboard with fee and salary totals
// @Tags Dashboards
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboards/bursar [get]
func (h *DashboardHandler) Bursar(c *gin.Context) {
	dashboard, err := h.dashboards.Bursar(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dashboard, nil)
}

// Lecturer godoc
// @Summary Lecturer dashboard with course loads and pending grading
// @Tags Dashboards
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboards/lecturer [get]
func (h *DashboardHandler) Lecturer(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	dashboard, err := h.dashboards.Lecturer(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dashboard, nil)
}

// SystemMetrics godoc
// @Summary Runtime metrics snapshot
// @Tags Dashboards
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboards/system [get]
func (h *DashboardHandler) SystemMetrics(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.metrics.Snapshot(), nil)
}
