// households.go implements household survey endpoints. Ward-path routes are
// gated by RequireWardAccess middleware; entity-path routes resolve the
// household's ward first and then check access, so an unknown id reports 404
// while a known but out-of-scope id reports 403.
package wards

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ward-census/ward-census/internal/access"
	"github.com/ward-census/ward-census/internal/apperr"
	"github.com/ward-census/ward-census/internal/api/respond"
	"github.com/ward-census/ward-census/internal/audit"
	"github.com/ward-census/ward-census/internal/config"
	"github.com/ward-census/ward-census/internal/db/models"
	"github.com/ward-census/ward-census/internal/db/repositories"
	"github.com/ward-census/ward-census/internal/middleware"
)

// HouseholdHandlers handles household survey endpoints
type HouseholdHandlers struct {
	cfg           *config.Config
	householdRepo *repositories.HouseholdRepository
	resolver      *access.Resolver
	recorder      *audit.Recorder
}

// NewHouseholdHandlers creates a new HouseholdHandlers instance
func NewHouseholdHandlers(cfg *config.Config, db *sql.DB, recorder *audit.Recorder) *HouseholdHandlers {
	householdRepo := repositories.NewHouseholdRepository(db)
	memberRepo := repositories.NewFamilyMemberRepository(db)
	return &HouseholdHandlers{
		cfg:           cfg,
		householdRepo: householdRepo,
		resolver:      access.NewResolver(householdRepo, memberRepo),
		recorder:      recorder,
	}
}

// authorizeHousehold resolves the household's ward and checks the caller's
// access to it. Returns the ward ID on success.
func (h *HouseholdHandlers) authorizeHousehold(c *gin.Context, householdID string) (string, error) {
	wardID, err := h.resolver.WardOfHousehold(c.Request.Context(), householdID)
	if err != nil {
		return "", err
	}

	principal, ok := middleware.CurrentPrincipal(c)
	if !ok || !principal.HasAccess(wardID) {
		return "", apperr.Forbidden("no access to this household's ward")
	}

	return wardID, nil
}

// CreateHouseholdRequest represents the request to record a surveyed
// household. Recording one implies the agent is standing at the door, so the
// visit status and timestamp are set by the server, not the payload.
type CreateHouseholdRequest struct {
	HouseNumber      string   `json:"houseNumber" binding:"required"`
	FullAddress      string   `json:"fullAddress" binding:"required"`
	Landmark         *string  `json:"landmark"`
	RationCardNumber *string  `json:"rationCardNumber"`
	RationCardType   string   `json:"rationCardType"`
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`
}

// @Summary      Record household
// @Description  Record a surveyed household in the path ward. The ward, visit status (VISITED), visit time, and recording agent are set by the server. Requires the AGENT role and access to the ward.
// @Tags         Households
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        wardId  path  string                  true  "Ward ID"
// @Param        body    body  CreateHouseholdRequest  true  "Household survey data"
// @Success      201  {object}  map[string]interface{}  "household: models.Household"
// @Failure      400  {object}  map[string]interface{}  "Invalid request"
// @Failure      403  {object}  map[string]interface{}  "Forbidden"
// @Failure      409  {object}  map[string]interface{}  "Ration card number already recorded"
// @Router       /api/wards/{wardId}/households [post]
// CreateHouseholdHandler records a surveyed household
// POST /api/wards/:wardId/households
func (h *HouseholdHandlers) CreateHouseholdHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		wardID := c.Param("wardId")

		var req CreateHouseholdRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, apperr.Invalid("invalid request: %s", err.Error()))
			return
		}

		rationType := models.RationNone
		if req.RationCardType != "" {
			rationType = models.RationCardType(req.RationCardType)
			if !rationType.Valid() {
				respond.Error(c, apperr.Invalid("unknown ration card type %q", req.RationCardType))
				return
			}
		}

		now := time.Now()
		agentID := c.GetString("user_id")
		household := &models.Household{
			WardID:           wardID,
			HouseNumber:      req.HouseNumber,
			FullAddress:      req.FullAddress,
			Landmark:         req.Landmark,
			RationCardNumber: req.RationCardNumber,
			RationCardType:   rationType,
			Latitude:         req.Latitude,
			Longitude:        req.Longitude,
			VisitStatus:      models.VisitVisited,
			VisitedAt:        &now,
			CreatedByAgentID: &agentID,
		}

		if err := h.householdRepo.Create(c.Request.Context(), household); err != nil {
			respond.Error(c, apperr.FromDB(err))
			return
		}

		if err := h.recorder.Record(c.Request.Context(), agentID, "CREATE_HOUSEHOLD", audit.EntityHousehold, household.ID, wardID, household.HouseNumber); err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"household": household,
		})
	}
}

// @Summary      List households
// @Description  Get a page of a ward's households ordered by house number. Requires access to the ward.
// @Tags         Households
// @Security     Bearer
// @Produce      json
// @Param        wardId  path   string  true   "Ward ID"
// @Param        limit   query  int     false  "Page size (default 20, max 200)"
// @Param        offset  query  int     false  "Row offset"
// @Success      200  {object}  map[string]interface{}  "households: []models.Household, total: int"
// @Failure      400  {object}  map[string]interface{}  "Invalid paging"
// @Failure      403  {object}  map[string]interface{}  "Forbidden"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/wards/{wardId}/households [get]
// ListHouseholdsHandler returns one page of a ward's households
// GET /api/wards/:wardId/households
func (h *HouseholdHandlers) ListHouseholdsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset, err := parseListPage(c, defaultHouseholdPageSize)
		if err != nil {
			respond.Error(c, err)
			return
		}

		households, total, err := h.householdRepo.ListByWardPage(c.Request.Context(), c.Param("wardId"), limit, offset)
		if err != nil {
			respond.Error(c, apperr.Unexpected(err))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"households": households,
			"total":      total,
			"limit":      limit,
			"offset":     offset,
		})
	}
}

// @Summary      Get household
// @Description  Get a household by ID. Requires access to the household's ward.
// @Tags         Households
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Household ID"
// @Success      200  {object}  map[string]interface{}  "household: models.Household"
// @Failure      403  {object}  map[string]interface{}  "Forbidden"
// @Failure      404  {object}  map[string]interface{}  "Household not found"
// @Router       /api/households/{id} [get]
// GetHouseholdHandler retrieves a household by ID
// GET /api/households/:id
func (h *HouseholdHandlers) GetHouseholdHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		householdID := c.Param("id")

		if _, err := h.authorizeHousehold(c, householdID); err != nil {
			respond.Error(c, err)
			return
		}

		household, err := h.householdRepo.GetByID(c.Request.Context(), householdID)
		if err != nil {
			respond.Error(c, apperr.Unexpected(err))
			return
		}
		if household == nil {
			respond.Error(c, apperr.NotFound("household not found"))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"household": household,
		})
	}
}

// UpdateHouseholdRequest represents the request to update a household's
// survey fields. The owning ward and recording agent are fixed at creation
// and absent here.
type UpdateHouseholdRequest struct {
	HouseNumber      *string  `json:"houseNumber"`
	FullAddress      *string  `json:"fullAddress"`
	Landmark         *string  `json:"landmark"`
	RationCardNumber *string  `json:"rationCardNumber"`
	RationCardType   *string  `json:"rationCardType"`
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`
	VisitStatus      *string  `json:"visitStatus"`
}

// @Summary      Update household
// @Description  Update a household's survey fields. The owning ward cannot be changed. Requires access to the household's ward.
// @Tags         Households
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "Household ID"
// @Param        body  body  UpdateHouseholdRequest  true  "Household update request"
// @Success      200  {object}  map[string]interface{}  "household: models.Household"
// @Failure      400  {object}  map[string]interface{}  "Invalid request"
// @Failure      403  {object}  map[string]interface{}  "Forbidden"
// @Failure      404  {object}  map[string]interface{}  "Household not found"
// @Failure      409  {object}  map[string]interface{}  "Ration card number already recorded"
// @Router       /api/households/{id} [put]
// UpdateHouseholdHandler updates a household's survey fields
// PUT /api/households/:id
func (h *HouseholdHandlers) UpdateHouseholdHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		householdID := c.Param("id")

		var req UpdateHouseholdRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, apperr.Invalid("invalid request: %s", err.Error()))
			return
		}

		wardID, err := h.authorizeHousehold(c, householdID)
		if err != nil {
			respond.Error(c, err)
			return
		}

		household, err := h.householdRepo.GetByID(c.Request.Context(), householdID)
		if err != nil {
			respond.Error(c, apperr.Unexpected(err))
			return
		}
		if household == nil {
			respond.Error(c, apperr.NotFound("household not found"))
			return
		}

		if req.HouseNumber != nil {
			household.HouseNumber = *req.HouseNumber
		}
		if req.FullAddress != nil {
			household.FullAddress = *req.FullAddress
		}
		if req.Landmark != nil {
			household.Landmark = req.Landmark
		}
		if req.RationCardNumber != nil {
			household.RationCardNumber = req.RationCardNumber
		}
		if req.RationCardType != nil {
			rationType := models.RationCardType(*req.RationCardType)
			if !rationType.Valid() {
				respond.Error(c, apperr.Invalid("unknown ration card type %q", *req.RationCardType))
				return
			}
			household.RationCardType = rationType
		}
		if req.Latitude != nil {
			household.Latitude = req.Latitude
		}
		if req.Longitude != nil {
			household.Longitude = req.Longitude
		}
		if req.VisitStatus != nil {
			status := models.VisitStatus(*req.VisitStatus)
			if !status.Valid() {
				respond.Error(c, apperr.Invalid("unknown visit status %q", *req.VisitStatus))
				return
			}
			if status != models.VisitNotVisited && household.VisitedAt == nil {
				now := time.Now()
				household.VisitedAt = &now
			}
			household.VisitStatus = status
		}

		if err := h.householdRepo.Update(c.Request.Context(), household); err != nil {
			respond.Error(c, apperr.FromDB(err))
			return
		}

		if err := h.recorder.Record(c.Request.Context(), c.GetString("user_id"), "UPDATE_HOUSEHOLD", audit.EntityHousehold, household.ID, wardID, ""); err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"household": household,
		})
	}
}

// @Summary      Delete household
// @Description  Delete a household and its family members. Requires access to the household's ward.
// @Tags         Households
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Household ID"
// @Success      200  {object}  map[string]interface{}  "message: Household deleted successfully"
// @Failure      403  {object}  map[string]interface{}  "Forbidden"
// @Failure      404  {object}  map[string]interface{}  "Household not found"
// @Router       /api/households/{id} [delete]
// DeleteHouseholdHandler deletes a household
// DELETE /api/households/:id
func (h *HouseholdHandlers) DeleteHouseholdHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		householdID := c.Param("id")

		wardID, err := h.authorizeHousehold(c, householdID)
		if err != nil {
			respond.Error(c, err)
			return
		}

		if err := h.householdRepo.Delete(c.Request.Context(), householdID); err != nil {
			respond.Error(c, apperr.Unexpected(err))
			return
		}

		if err := h.recorder.Record(c.Request.Context(), c.GetString("user_id"), "DELETE_HOUSEHOLD", audit.EntityHousehold, householdID, wardID, ""); err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "Household deleted successfully",
		})
	}
}
