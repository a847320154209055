// Package admin implements the administrative HTTP handlers: authentication,
// user management, global statistics, and the audit log. Everything here
// except first-run registration and login requires an authenticated user, and
// most routes additionally require the SUPER_ADMIN role (enforced in
// router.go).
package admin

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ward-census/ward-census/internal/apperr"
	"github.com/ward-census/ward-census/internal/api/respond"
	"github.com/ward-census/ward-census/internal/audit"
	"github.com/ward-census/ward-census/internal/auth"
	"github.com/ward-census/ward-census/internal/config"
	"github.com/ward-census/ward-census/internal/db/models"
	"github.com/ward-census/ward-census/internal/db/repositories"
	"github.com/ward-census/ward-census/internal/middleware"
)

// AuthHandlers handles registration, login, and the current-user endpoint
type AuthHandlers struct {
	cfg      *config.Config
	userRepo *repositories.UserRepository
	recorder *audit.Recorder
}

// NewAuthHandlers creates a new AuthHandlers instance
func NewAuthHandlers(cfg *config.Config, db *sql.DB, recorder *audit.Recorder) *AuthHandlers {
	return &AuthHandlers{
		cfg:      cfg,
		userRepo: repositories.NewUserRepository(db),
		recorder: recorder,
	}
}

// NormalizeEmail trims whitespace and lowercases an email address. Every
// path that stores or looks up an email goes through this, so the uniqueness
// constraint on users.email cannot be dodged with case or padding.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RegisterAdminRequest is the first-run administrator registration payload
type RegisterAdminRequest struct {
	Name     string  `json:"name" binding:"required"`
	Email    string  `json:"email" binding:"required,email"`
	Mobile   *string `json:"mobile"`
	Password string  `json:"password" binding:"required,min=8"`
}

// @Summary      Register first administrator
// @Description  Create the initial SUPER_ADMIN account. Only available while no users exist; afterwards the endpoint is permanently closed.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body  RegisterAdminRequest  true  "Administrator registration request"
// @Success      201  {object}  map[string]interface{}  "user: models.User, token: JWT"
// @Failure      400  {object}  map[string]interface{}  "Invalid request"
// @Failure      403  {object}  map[string]interface{}  "Registration is closed"
// @Failure      409  {object}  map[string]interface{}  "Email already registered"
// @Router       /api/auth/register [post]
// RegisterAdminHandler creates the bootstrap SUPER_ADMIN account
// POST /api/auth/register
func (h *AuthHandlers) RegisterAdminHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterAdminRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, apperr.Invalid("invalid request: %s", err.Error()))
			return
		}

		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			respond.Error(c, apperr.Unexpected(err))
			return
		}

		user := &models.User{
			Name:         req.Name,
			Email:        NormalizeEmail(req.Email),
			Mobile:       req.Mobile,
			PasswordHash: hash,
			Role:         models.RoleSuperAdmin,
			Active:       true,
		}

		if err := h.userRepo.Create(c.Request.Context(), user); err != nil {
			respond.Error(c, apperr.FromDB(err))
			return
		}

		if err := h.recorder.Record(c.Request.Context(), user.ID, "REGISTER_ADMIN", audit.EntityUser, user.ID, "", ""); err != nil {
			respond.Error(c, err)
			return
		}

		token, err := auth.GenerateJWT(user.ID, user.Email, string(user.Role), h.cfg.Auth.TokenTTL)
		if err != nil {
			respond.Error(c, apperr.Unexpected(err))
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"user":  user,
			"token": token,
		})
	}
}

// LoginRequest is the credential login payload
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// @Summary      Login
// @Description  Authenticate with email and password. Returns a JWT valid for the configured token TTL.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body  LoginRequest  true  "Login request"
// @Success      200  {object}  map[string]interface{}  "user: models.User, token: JWT"
// @Failure      400  {object}  map[string]interface{}  "Invalid request"
// @Failure      401  {object}  map[string]interface{}  "Invalid credentials"
// @Router       /api/auth/login [post]
// LoginHandler authenticates a user by email and password
// POST /api/auth/login
func (h *AuthHandlers) LoginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, apperr.Invalid("invalid request: %s", err.Error()))
			return
		}

		user, err := h.userRepo.GetByEmail(c.Request.Context(), NormalizeEmail(req.Email))
		if err != nil {
			respond.Error(c, apperr.Unexpected(err))
			return
		}

		// Same response for unknown email, wrong password, and deactivated
		// account so login failures don't reveal which one it was.
		if user == nil || !user.Active || !auth.CheckPassword(req.Password, user.PasswordHash) {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid credentials",
			})
			return
		}

		token, err := auth.GenerateJWT(user.ID, user.Email, string(user.Role), h.cfg.Auth.TokenTTL)
		if err != nil {
			respond.Error(c, apperr.Unexpected(err))
			return
		}

		if err := h.recorder.Record(c.Request.Context(), user.ID, "LOGIN", audit.EntityUser, user.ID, "", ""); err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"user":  user,
			"token": token,
		})
	}
}

// @Summary      Current user
// @Description  Returns the authenticated user's account, including assigned ward IDs.
// @Tags         Auth
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "user: models.User"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Router       /api/auth/me [get]
// MeHandler returns the authenticated user
// GET /api/auth/me
func (h *AuthHandlers) MeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "User not authenticated",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"user": user,
		})
	}
}
