// Package wards implements the ward-scoped HTTP handlers: ward CRUD, agent
// provisioning, household and family member survey data, the analytics
// dashboard, and the CSV export. Ward access and management gates run as
// middleware before these handlers; entity-path routes (households, family
// members) resolve ownership themselves because the ward is not in the URL.
package wards

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ward-census/ward-census/internal/apperr"
	"github.com/ward-census/ward-census/internal/api/respond"
	"github.com/ward-census/ward-census/internal/audit"
	"github.com/ward-census/ward-census/internal/config"
	"github.com/ward-census/ward-census/internal/db/models"
	"github.com/ward-census/ward-census/internal/db/repositories"
	"github.com/ward-census/ward-census/internal/middleware"
)

const (
	defaultWardPageSize      = 10
	defaultHouseholdPageSize = 20
	maxListPageSize          = 200
)

// parseListPage reads the optional limit and offset query parameters with
// the given default page size. Limits are clamped to maxListPageSize.
func parseListPage(c *gin.Context, defaultLimit int) (limit, offset int, err error) {
	limit = defaultLimit
	if raw := c.Query("limit"); raw != "" {
		n, convErr := strconv.Atoi(raw)
		if convErr != nil || n <= 0 {
			return 0, 0, apperr.Invalid("invalid limit %q", raw)
		}
		if n > maxListPageSize {
			n = maxListPageSize
		}
		limit = n
	}

	if raw := c.Query("offset"); raw != "" {
		n, convErr := strconv.Atoi(raw)
		if convErr != nil || n < 0 {
			return 0, 0, apperr.Invalid("invalid offset %q", raw)
		}
		offset = n
	}

	return limit, offset, nil
}

// WardHandlers handles ward CRUD and ward staff listing endpoints
type WardHandlers struct {
	cfg      *config.Config
	wardRepo *repositories.WardRepository
	userRepo *repositories.UserRepository
	recorder *audit.Recorder
}

// NewWardHandlers creates a new WardHandlers instance
func NewWardHandlers(cfg *config.Config, db *sql.DB, recorder *audit.Recorder) *WardHandlers {
	return &WardHandlers{
		cfg:      cfg,
		wardRepo: repositories.NewWardRepository(db),
		userRepo: repositories.NewUserRepository(db),
		recorder: recorder,
	}
}

// @Summary      List wards
// @Description  Get a page of wards ordered by ward number. Requires SUPER_ADMIN.
// @Tags         Wards
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Page size (default 10, max 200)"
// @Param        offset  query  int  false  "Row offset"
// @Success      200  {object}  map[string]interface{}  "wards: []models.Ward, total: int"
// @Failure      400  {object}  map[string]interface{}  "Invalid paging"
// @Failure      403  {object}  map[string]interface{}  "Forbidden"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/wards [get]
// ListWardsHandler returns one page of wards
// GET /api/wards
func (h *WardHandlers) ListWardsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset, err := parseListPage(c, defaultWardPageSize)
		if err != nil {
			respond.Error(c, err)
			return
		}

		wards, total, err := h.wardRepo.ListPage(c.Request.Context(), limit, offset)
		if err != nil {
			respond.Error(c, apperr.Unexpected(err))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"wards":  wards,
			"total":  total,
			"limit":  limit,
			"offset": offset,
		})
	}
}

// @Summary      My wards
// @Description  Get the wards visible to the caller: all wards for SUPER_ADMIN, assigned wards for everyone else.
// @Tags         Wards
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "wards: []models.Ward"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/my-wards [get]
// MyWardsHandler lists the caller's visible wards
// GET /api/my-wards
func (h *WardHandlers) MyWardsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := middleware.CurrentPrincipal(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "User not authenticated",
			})
			return
		}

		var (
			wards []*models.Ward
			err   error
		)
		if principal.Role == models.RoleSuperAdmin {
			wards, err = h.wardRepo.List(c.Request.Context())
		} else {
			wards, err = h.wardRepo.ListByIDs(c.Request.Context(), principal.WardIDs)
		}
		if err != nil {
			respond.Error(c, apperr.Unexpected(err))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"wards": wards,
		})
	}
}

// @Summary      Get ward
// @Description  Get a ward by ID. Requires access to the ward.
// @Tags         Wards
// @Security     Bearer
// @Produce      json
// @Param        wardId  path  string  true  "Ward ID"
// @Success      200  {object}  map[string]interface{}  "ward: models.Ward"
// @Failure      403  {object}  map[string]interface{}  "Forbidden"
// @Failure      404  {object}  map[string]interface{}  "Ward not found"
// @Router       /api/wards/{wardId} [get]
// GetWardHandler retrieves a ward by ID
// GET /api/wards/:wardId
func (h *WardHandlers) GetWardHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ward, err := h.wardRepo.GetByID(c.Request.Context(), c.Param("wardId"))
		if err != nil {
			respond.Error(c, apperr.Unexpected(err))
			return
		}
		if ward == nil {
			respond.Error(c, apperr.NotFound("ward not found"))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"ward": ward,
		})
	}
}

// CreateWardRequest represents the request to create a ward
type CreateWardRequest struct {
	Name        string `json:"name" binding:"required"`
	WardNumber  int    `json:"wardNumber" binding:"required"`
	LocalBody   string `json:"localBody" binding:"required"`
	District    string `json:"district" binding:"required"`
	TotalHouses int    `json:"totalHouses"`
}

// @Summary      Create ward
// @Description  Create a new ward. Ward number must be unique within the local body. Requires SUPER_ADMIN.
// @Tags         Wards
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  CreateWardRequest  true  "Ward creation request"
// @Success      201  {object}  map[string]interface{}  "ward: models.Ward"
// @Failure      400  {object}  map[string]interface{}  "Invalid request"
// @Failure      409  {object}  map[string]interface{}  "Ward number already exists"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/wards [post]
// CreateWardHandler creates a new ward
// POST /api/wards
func (h *WardHandlers) CreateWardHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateWardRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, apperr.Invalid("invalid request: %s", err.Error()))
			return
		}

		ward := &models.Ward{
			Name:        req.Name,
			WardNumber:  req.WardNumber,
			LocalBody:   req.LocalBody,
			District:    req.District,
			TotalHouses: req.TotalHouses,
		}

		if err := h.wardRepo.Create(c.Request.Context(), ward); err != nil {
			respond.Error(c, apperr.FromDB(err))
			return
		}

		if err := h.recorder.Record(c.Request.Context(), c.GetString("user_id"), "CREATE_WARD", audit.EntityWard, ward.ID, ward.ID, ward.Name); err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"ward": ward,
		})
	}
}

// UpdateWardRequest represents the request to update a ward. Nil fields are
// left unchanged.
type UpdateWardRequest struct {
	Name        *string `json:"name"`
	WardNumber  *int    `json:"wardNumber"`
	LocalBody   *string `json:"localBody"`
	District    *string `json:"district"`
	TotalHouses *int    `json:"totalHouses"`
}

// @Summary      Update ward
// @Description  Update a ward's fields. Requires SUPER_ADMIN.
// @Tags         Wards
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        wardId  path  string             true  "Ward ID"
// @Param        body    body  UpdateWardRequest  true  "Ward update request"
// @Success      200  {object}  map[string]interface{}  "ward: models.Ward"
// @Failure      400  {object}  map[string]interface{}  "Invalid request"
// @Failure      404  {object}  map[string]interface{}  "Ward not found"
// @Failure      409  {object}  map[string]interface{}  "Ward number already exists"
// @Router       /api/wards/{wardId} [put]
// UpdateWardHandler updates a ward
// PUT /api/wards/:wardId
func (h *WardHandlers) UpdateWardHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateWardRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, apperr.Invalid("invalid request: %s", err.Error()))
			return
		}

		ward, err := h.wardRepo.GetByID(c.Request.Context(), c.Param("wardId"))
		if err != nil {
			respond.Error(c, apperr.Unexpected(err))
			return
		}
		if ward == nil {
			respond.Error(c, apperr.NotFound("ward not found"))
			return
		}

		if req.Name != nil {
			ward.Name = *req.Name
		}
		if req.WardNumber != nil {
			ward.WardNumber = *req.WardNumber
		}
		if req.LocalBody != nil {
			ward.LocalBody = *req.LocalBody
		}
		if req.District != nil {
			ward.District = *req.District
		}
		if req.TotalHouses != nil {
			ward.TotalHouses = *req.TotalHouses
		}

		if err := h.wardRepo.Update(c.Request.Context(), ward); err != nil {
			respond.Error(c, apperr.FromDB(err))
			return
		}

		if err := h.recorder.Record(c.Request.Context(), c.GetString("user_id"), "UPDATE_WARD", audit.EntityWard, ward.ID, ward.ID, ""); err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"ward": ward,
		})
	}
}

// @Summary      Delete ward
// @Description  Delete a ward. Refused while households or user assignments still reference it; census data is never cascaded away implicitly. Requires SUPER_ADMIN.
// @Tags         Wards
// @Security     Bearer
// @Produce      json
// @Param        wardId  path  string  true  "Ward ID"
// @Success      200  {object}  map[string]interface{}  "message: Ward deleted successfully"
// @Failure      404  {object}  map[string]interface{}  "Ward not found"
// @Failure      409  {object}  map[string]interface{}  "Ward still has dependents"
// @Router       /api/wards/{wardId} [delete]
// DeleteWardHandler deletes an empty ward
// DELETE /api/wards/:wardId
func (h *WardHandlers) DeleteWardHandler() gin.HandlerFunc {
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

		households, assignments, err := h.wardRepo.CountDependents(c.Request.Context(), wardID)
		if err != nil {
			respond.Error(c, apperr.Unexpected(err))
			return
		}
		if households > 0 || assignments > 0 {
			respond.Error(c, apperr.Conflict("ward has %d households and %d user assignments; remove them first", households, assignments))
			return
		}

		if err := h.wardRepo.Delete(c.Request.Context(), wardID); err != nil {
			respond.Error(c, apperr.Unexpected(err))
			return
		}

		if err := h.recorder.Record(c.Request.Context(), c.GetString("user_id"), "DELETE_WARD", audit.EntityWard, wardID, wardID, ward.Name); err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "Ward deleted successfully",
		})
	}
}

// @Summary      List ward staff
// @Description  Get the users assigned to a ward, optionally filtered by role. Requires ward management rights.
// @Tags         Wards
// @Security     Bearer
// @Produce      json
// @Param        wardId  path   string  true   "Ward ID"
// @Param        role    query  string  false  "Filter by role (SUPER_ADMIN, WARD_MEMBER, AGENT)"
// @Success      200  {object}  map[string]interface{}  "users: []models.User"
// @Failure      400  {object}  map[string]interface{}  "Invalid role filter"
// @Failure      403  {object}  map[string]interface{}  "Forbidden"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/wards/{wardId}/users [get]
// ListWardUsersHandler lists the users assigned to a ward
// GET /api/wards/:wardId/users?role=
func (h *WardHandlers) ListWardUsersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		role := models.Role(c.Query("role"))
		if role != "" && !role.Valid() {
			respond.Error(c, apperr.Invalid("unknown role %q", string(role)))
			return
		}

		users, err := h.userRepo.ListByWard(c.Request.Context(), c.Param("wardId"), role)
		if err != nil {
			respond.Error(c, apperr.Unexpected(err))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"users": users,
		})
	}
}
