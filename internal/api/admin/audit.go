package admin

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ward-census/ward-census/internal/apperr"
	"github.com/ward-census/ward-census/internal/api/respond"
	"github.com/ward-census/ward-census/internal/db/repositories"
)

const (
	defaultAuditPageSize = 50
	maxAuditPageSize     = 200
)

// AuditLogHandlers handles audit log query endpoints
type AuditLogHandlers struct {
	auditRepo *repositories.AuditRepository
}

// NewAuditLogHandlers creates a new AuditLogHandlers instance
func NewAuditLogHandlers(db *sql.DB) *AuditLogHandlers {
	return &AuditLogHandlers{
		auditRepo: repositories.NewAuditRepository(db),
	}
}

// @Summary      List audit logs
// @Description  Query the append-only audit trail, newest first. Filterable by user, ward, action, entity, and date range. Requires SUPER_ADMIN.
// @Tags         Admin
// @Security     Bearer
// @Produce      json
// @Param        userId    query  string  false  "Filter by acting user ID"
// @Param        wardId    query  string  false  "Filter by ward ID"
// @Param        action    query  string  false  "Filter by action (e.g. CREATE_HOUSEHOLD)"
// @Param        entity    query  string  false  "Filter by entity type"
// @Param        startDate query  string  false  "RFC 3339 lower bound on created time"
// @Param        endDate   query  string  false  "RFC 3339 upper bound on created time"
// @Param        limit     query  int     false  "Page size (default 50, max 200)"
// @Param        offset    query  int     false  "Row offset"
// @Success      200  {object}  map[string]interface{}  "logs: []models.AuditLog, total: int"
// @Failure      400  {object}  map[string]interface{}  "Invalid filter"
// @Failure      403  {object}  map[string]interface{}  "Forbidden"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/admin/audit-logs [get]
// ListAuditLogsHandler returns a filtered page of the audit trail
// GET /api/admin/audit-logs
func (h *AuditLogHandlers) ListAuditLogsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		filters, err := parseAuditFilters(c)
		if err != nil {
			respond.Error(c, err)
			return
		}

		limit := defaultAuditPageSize
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				respond.Error(c, apperr.Invalid("invalid limit %q", raw))
				return
			}
			if n > maxAuditPageSize {
				n = maxAuditPageSize
			}
			limit = n
		}

		offset := 0
		if raw := c.Query("offset"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				respond.Error(c, apperr.Invalid("invalid offset %q", raw))
				return
			}
			offset = n
		}

		logs, total, err := h.auditRepo.List(c.Request.Context(), filters, limit, offset)
		if err != nil {
			respond.Error(c, apperr.Unexpected(err))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"logs":   logs,
			"total":  total,
			"limit":  limit,
			"offset": offset,
		})
	}
}

func parseAuditFilters(c *gin.Context) (repositories.AuditFilters, error) {
	var filters repositories.AuditFilters

	if v := c.Query("userId"); v != "" {
		filters.UserID = &v
	}
	if v := c.Query("wardId"); v != "" {
		filters.WardID = &v
	}
	if v := c.Query("action"); v != "" {
		filters.Action = &v
	}
	if v := c.Query("entity"); v != "" {
		filters.Entity = &v
	}
	if v := c.Query("startDate"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filters, apperr.Invalid("invalid startDate %q", v)
		}
		filters.StartDate = &t
	}
	if v := c.Query("endDate"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filters, apperr.Invalid("invalid endDate %q", v)
		}
		filters.EndDate = &t
	}

	return filters, nil
}
