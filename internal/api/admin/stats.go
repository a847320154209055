package admin

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/ward-census/ward-census/internal/apperr"
	"github.com/ward-census/ward-census/internal/api/respond"
	"github.com/ward-census/ward-census/internal/db/repositories"
)

// StatsHandlers handles global statistics endpoints
type StatsHandlers struct {
	analyticsRepo *repositories.AnalyticsRepository
}

// NewStatsHandlers creates a new StatsHandlers instance
func NewStatsHandlers(db *sql.DB) *StatsHandlers {
	return &StatsHandlers{
		analyticsRepo: repositories.NewAnalyticsRepository(sqlx.NewDb(db, "postgres")),
	}
}

// @Summary      Global statistics
// @Description  System-wide counts computed on demand: wards, households, family members, and active agent accounts. Requires SUPER_ADMIN.
// @Tags         Admin
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "stats: models.GlobalStats"
// @Failure      403  {object}  map[string]interface{}  "Forbidden"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/admin/stats [get]
// GlobalStatsHandler returns system-wide counts
// GET /api/admin/stats
func (h *StatsHandlers) GlobalStatsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := h.analyticsRepo.GlobalStats(c.Request.Context())
		if err != nil {
			respond.Error(c, apperr.Unexpected(err))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"stats": stats,
		})
	}
}
