package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuscore/uni-admin-api/internal/service"
)

// InvalidateDashboards drops cached dashboard aggregates after any
// successful mutating request, so the next dashboard read rebuilds
// from the database.
func InvalidateDashboards(dashboards *service.DashboardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if dashboards == nil || c.Request.Method == http.MethodGet {
			return
		}
		if c.Writer.Status() >= http.StatusBadRequest {
			return
		}
		dashboards.Invalidate(c.Request.Context())
	}
}
