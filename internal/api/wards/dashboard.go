// dashboard.go implements the ward analytics dashboard. Every request
// recomputes the aggregates from current rows; nothing is cached. Viewing a
// dashboard is itself an audited action.
package wards

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/ward-census/ward-census/internal/apperr"
	"github.com/ward-census/ward-census/internal/api/respond"
	"github.com/ward-census/ward-census/internal/audit"
	"github.com/ward-census/ward-census/internal/db/repositories"
	"github.com/ward-census/ward-census/internal/telemetry"
)

// DashboardHandlers handles ward analytics endpoints
type DashboardHandlers struct {
	wardRepo      *repositories.WardRepository
	analyticsRepo *repositories.AnalyticsRepository
	recorder      *audit.Recorder
}

// NewDashboardHandlers creates a new DashboardHandlers instance
func NewDashboardHandlers(db *sql.DB, recorder *audit.Recorder) *DashboardHandlers {
	return &DashboardHandlers{
		wardRepo:      repositories.NewWardRepository(db),
		analyticsRepo: repositories.NewAnalyticsRepository(sqlx.NewDb(db, "postgres")),
		recorder:      recorder,
	}
}

// @Summary      Ward dashboard
// @Description  Compute visit progress, ration card and gender distributions, and population counts for a ward. A ward with no households reports all zeros. The view is recorded in the audit log. Requires access to the ward.
// @Tags         Dashboard
// @Security     Bearer
// @Produce      json
// @Param        wardId  path  string  true  "Ward ID"
// @Success      200  {object}  map[string]interface{}  "ward: models.Ward, analytics: models.WardAnalytics"
// @Failure      403  {object}  map[string]interface{}  "Forbidden"
// @Failure      404  {object}  map[string]interface{}  "Ward not found"
// @Router       /api/wards/{wardId}/dashboard [get]
// WardDashboardHandler computes the analytics summary for a ward
// GET /api/wards/:wardId/dashboard
func (h *DashboardHandlers) WardDashboardHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		wardID := c.Param("wardId")

		ward, err := h.wardRepo.GetByID(c.Request.Context(), wardID)
		if err != nil {
			respond.Error(c, apperr.Unexpected(err))
			return
		}
		if ward == nil {
			respond.Error(c, apperr.NotFound("ward not found"))
			return
		}

		analytics, err := h.analyticsRepo.WardAnalytics(c.Request.Context(), wardID)
		if err != nil {
			respond.Error(c, apperr.Unexpected(err))
			return
		}
		telemetry.WardAnalyticsTotal.Inc()

		if err := h.recorder.Record(c.Request.Context(), c.GetString("user_id"), "VIEW_DASHBOARD", audit.EntityDashboard, wardID, wardID, ""); err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"ward":      ward,
			"analytics": analytics,
		})
	}
}
