// users.go implements handlers for user account CRUD operations including
// listing, creating, updating, and deleting users.
package admin

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ward-census/ward-census/internal/apperr"
	"github.com/ward-census/ward-census/internal/api/respond"
	"github.com/ward-census/ward-census/internal/audit"
	"github.com/ward-census/ward-census/internal/auth"
	"github.com/ward-census/ward-census/internal/config"
	"github.com/ward-census/ward-census/internal/db/models"
	"github.com/ward-census/ward-census/internal/db/repositories"
)

// UserHandlers handles user management endpoints
type UserHandlers struct {
	cfg      *config.Config
	userRepo *repositories.UserRepository
	wardRepo *repositories.WardRepository
	recorder *audit.Recorder
}

// NewUserHandlers creates a new UserHandlers instance
func NewUserHandlers(cfg *config.Config, db *sql.DB, recorder *audit.Recorder) *UserHandlers {
	return &UserHandlers{
		cfg:      cfg,
		userRepo: repositories.NewUserRepository(db),
		wardRepo: repositories.NewWardRepository(db),
		recorder: recorder,
	}
}

// resolveWardIDs re-resolves requested ward IDs against the wards table.
// Unknown IDs are dropped silently so a stale client selection never blocks
// account creation; the response shows what was actually assigned.
func (h *UserHandlers) resolveWardIDs(c *gin.Context, requested []string) ([]string, error) {
	if len(requested) == 0 {
		return []string{}, nil
	}

	wards, err := h.wardRepo.ListByIDs(c.Request.Context(), requested)
	if err != nil {
		return nil, apperr.Unexpected(err)
	}

	resolved := make([]string, 0, len(wards))
	for _, w := range wards {
		resolved = append(resolved, w.ID)
	}
	return resolved, nil
}

// @Summary      List users
// @Description  Get all users with their assigned ward IDs, optionally filtered by role. Requires SUPER_ADMIN.
// @Tags         Users
// @Security     Bearer
// @Produce      json
// @Param        role  query  string  false  "Filter by role (SUPER_ADMIN, WARD_MEMBER, AGENT)"
// @Success      200  {object}  map[string]interface{}  "users: []models.User"
// @Failure      400  {object}  map[string]interface{}  "Invalid role filter"
// @Failure      403  {object}  map[string]interface{}  "Forbidden"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/users [get]
// ListUsersHandler lists all users, optionally filtered by role
// GET /api/users?role=
func (h *UserHandlers) ListUsersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, err := parseRoleFilter(c)
		if err != nil {
			respond.Error(c, err)
			return
		}

		users, err := h.userRepo.List(c.Request.Context(), role)
		if err != nil {
			respond.Error(c, apperr.Unexpected(err))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"users": users,
		})
	}
}

// parseRoleFilter reads the optional role query parameter. Empty means no
// filter; anything else must be a known role.
func parseRoleFilter(c *gin.Context) (models.Role, error) {
	raw := c.Query("role")
	if raw == "" {
		return "", nil
	}

	role := models.Role(raw)
	if !role.Valid() {
		return "", apperr.Invalid("unknown role %q", raw)
	}
	return role, nil
}

// @Summary      Get user
// @Description  Get a user by ID with their assigned ward IDs. Requires SUPER_ADMIN.
// @Tags         Users
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "User ID"
// @Success      200  {object}  map[string]interface{}  "user: models.User"
// @Failure      404  {object}  map[string]interface{}  "User not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/users/{id} [get]
// GetUserHandler retrieves a specific user by ID
// GET /api/users/:id
func (h *UserHandlers) GetUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := h.userRepo.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			respond.Error(c, apperr.Unexpected(err))
			return
		}
		if user == nil {
			respond.Error(c, apperr.NotFound("user not found"))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"user": user,
		})
	}
}

// CreateUserRequest represents the request to create a new user
type CreateUserRequest struct {
	Name          string   `json:"name" binding:"required"`
	Email         string   `json:"email" binding:"required,email"`
	Mobile        *string  `json:"mobile"`
	Password      string   `json:"password" binding:"required,min=8"`
	Role          string   `json:"role" binding:"required"`
	AssignedWards []string `json:"assignedWards"`
}

// @Summary      Create user
// @Description  Create a user with any role. New accounts always start active. Unknown ward IDs in assignedWards are dropped. Requires SUPER_ADMIN.
// @Tags         Users
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  CreateUserRequest  true  "User creation request"
// @Success      201  {object}  map[string]interface{}  "user: models.User"
// @Failure      400  {object}  map[string]interface{}  "Invalid request"
// @Failure      409  {object}  map[string]interface{}  "Email or mobile already registered"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/users [post]
// CreateUserHandler creates a new user with any role
// POST /api/users
func (h *UserHandlers) CreateUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, apperr.Invalid("invalid request: %s", err.Error()))
			return
		}

		role := models.Role(req.Role)
		if !role.Valid() {
			respond.Error(c, apperr.Invalid("unknown role %q", req.Role))
			return
		}

		wardIDs, err := h.resolveWardIDs(c, req.AssignedWards)
		if err != nil {
			respond.Error(c, err)
			return
		}

		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			respond.Error(c, apperr.Unexpected(err))
			return
		}

		user := &models.User{
			Name:            req.Name,
			Email:           NormalizeEmail(req.Email),
			Mobile:          req.Mobile,
			PasswordHash:    hash,
			Role:            role,
			Active:          true,
			AssignedWardIDs: wardIDs,
		}

		if err := h.userRepo.Create(c.Request.Context(), user); err != nil {
			respond.Error(c, apperr.FromDB(err))
			return
		}

		if err := h.recorder.Record(c.Request.Context(), c.GetString("user_id"), "CREATE_USER", audit.EntityUser, user.ID, "", string(user.Role)); err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"user": user,
		})
	}
}

// UpdateUserRequest represents the request to update a user. Nil fields are
// left unchanged. Role is deliberately absent from the mutable fields: it is
// set once at creation and rejected on update.
type UpdateUserRequest struct {
	Name          *string   `json:"name"`
	Email         *string   `json:"email"`
	Mobile        *string   `json:"mobile"`
	Password      *string   `json:"password"`
	Role          *string   `json:"role"`
	Active        *bool     `json:"active"`
	AssignedWards *[]string `json:"assignedWards"`
}

// @Summary      Update user
// @Description  Update a user's account fields, active flag, or ward assignments. Role cannot be changed after creation. Requires SUPER_ADMIN.
// @Tags         Users
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string             true  "User ID"
// @Param        body  body  UpdateUserRequest  true  "User update request"
// @Success      200  {object}  map[string]interface{}  "user: models.User"
// @Failure      400  {object}  map[string]interface{}  "Invalid request"
// @Failure      404  {object}  map[string]interface{}  "User not found"
// @Failure      409  {object}  map[string]interface{}  "Email or mobile already registered"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/users/{id} [put]
// UpdateUserHandler updates a user
// PUT /api/users/:id
func (h *UserHandlers) UpdateUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("id")

		var req UpdateUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, apperr.Invalid("invalid request: %s", err.Error()))
			return
		}

		user, err := h.userRepo.GetByID(c.Request.Context(), userID)
		if err != nil {
			respond.Error(c, apperr.Unexpected(err))
			return
		}
		if user == nil {
			respond.Error(c, apperr.NotFound("user not found"))
			return
		}

		if req.Name != nil {
			user.Name = *req.Name
		}
		if req.Email != nil {
			user.Email = NormalizeEmail(*req.Email)
		}
		if req.Mobile != nil {
			user.Mobile = req.Mobile
		}
		if req.Password != nil {
			hash, err := auth.HashPassword(*req.Password)
			if err != nil {
				respond.Error(c, apperr.Unexpected(err))
				return
			}
			user.PasswordHash = hash
		}
		// Role determines authority and is fixed at creation.
		if req.Role != nil && models.Role(*req.Role) != user.Role {
			respond.Error(c, apperr.Invalid("role is immutable"))
			return
		}
		if req.Active != nil {
			user.Active = *req.Active
		}
		if req.AssignedWards != nil {
			wardIDs, err := h.resolveWardIDs(c, *req.AssignedWards)
			if err != nil {
				respond.Error(c, err)
				return
			}
			user.AssignedWardIDs = wardIDs
		}

		if err := h.userRepo.Update(c.Request.Context(), user); err != nil {
			respond.Error(c, apperr.FromDB(err))
			return
		}

		if err := h.recorder.Record(c.Request.Context(), c.GetString("user_id"), "UPDATE_USER", audit.EntityUser, user.ID, "", ""); err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"user": user,
		})
	}
}

// @Summary      Delete user
// @Description  Delete a user by ID. Ward assignments are removed with the account. Requires SUPER_ADMIN.
// @Tags         Users
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "User ID"
// @Success      200  {object}  map[string]interface{}  "message: User deleted successfully"
// @Failure      404  {object}  map[string]interface{}  "User not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/users/{id} [delete]
// DeleteUserHandler deletes a user
// DELETE /api/users/:id
func (h *UserHandlers) DeleteUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("id")

		// Deleting an unknown id is an error, not a silent no-op.
		user, err := h.userRepo.GetByID(c.Request.Context(), userID)
		if err != nil {
			respond.Error(c, apperr.Unexpected(err))
			return
		}
		if user == nil {
			respond.Error(c, apperr.NotFound("user not found"))
			return
		}

		if err := h.userRepo.Delete(c.Request.Context(), userID); err != nil {
			respond.Error(c, apperr.Unexpected(err))
			return
		}

		if err := h.recorder.Record(c.Request.Context(), c.GetString("user_id"), "DELETE_USER", audit.EntityUser, userID, "", user.Email); err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "User deleted successfully",
		})
	}
}
