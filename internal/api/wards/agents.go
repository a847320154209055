// agents.go implements agent provisioning under a ward by ward members and
// super admins.
package wards

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ward-census/ward-census/internal/apperr"
	"github.com/ward-census/ward-census/internal/api/admin"
	"github.com/ward-census/ward-census/internal/api/respond"
	"github.com/ward-census/ward-census/internal/audit"
	"github.com/ward-census/ward-census/internal/auth"
	"github.com/ward-census/ward-census/internal/config"
	"github.com/ward-census/ward-census/internal/db/models"
	"github.com/ward-census/ward-census/internal/db/repositories"
)

// AgentHandlers handles agent account creation under a ward
type AgentHandlers struct {
	cfg      *config.Config
	userRepo *repositories.UserRepository
	wardRepo *repositories.WardRepository
	recorder *audit.Recorder
}

// NewAgentHandlers creates a new AgentHandlers instance
func NewAgentHandlers(cfg *config.Config, db *sql.DB, recorder *audit.Recorder) *AgentHandlers {
	return &AgentHandlers{
		cfg:      cfg,
		userRepo: repositories.NewUserRepository(db),
		wardRepo: repositories.NewWardRepository(db),
		recorder: recorder,
	}
}

// CreateAgentRequest represents the request to create an agent under a ward.
// The role field must be AGENT; the ward path decides the assignment, and any
// assignedWards in the payload are ignored.
type CreateAgentRequest struct {
	Name     string  `json:"name" binding:"required"`
	Email    string  `json:"email" binding:"required,email"`
	Mobile   *string `json:"mobile"`
	Password string  `json:"password" binding:"required,min=8"`
	Role     string  `json:"role" binding:"required"`
}

// @Summary      Create agent
// @Description  Create an AGENT account assigned to exactly the path ward. Requesting any other role is refused as forbidden; ward members may only provision agents. Requires ward management rights.
// @Tags         Wards
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        wardId  path  string              true  "Ward ID"
// @Param        body    body  CreateAgentRequest  true  "Agent creation request"
// @Success      201  {object}  map[string]interface{}  "user: models.User"
// @Failure      400  {object}  map[string]interface{}  "Invalid request"
// @Failure      403  {object}  map[string]interface{}  "Forbidden"
// @Failure      404  {object}  map[string]interface{}  "Ward not found"
// @Failure      409  {object}  map[string]interface{}  "Email already registered"
// @Router       /api/wards/{wardId}/agents [post]
// CreateAgentHandler creates an agent account scoped to the path ward
// POST /api/wards/:wardId/agents
func (h *AgentHandlers) CreateAgentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		wardID := c.Param("wardId")

		var req CreateAgentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, apperr.Invalid("invalid request: %s", err.Error()))
			return
		}

		// Asking this endpoint for a non-agent role is an authority problem,
		// not a malformed request.
		if models.Role(req.Role) != models.RoleAgent {
			respond.Error(c, apperr.Forbidden("only AGENT accounts can be created under a ward"))
			return
		}

		ward, err := h.wardRepo.GetByID(c.Request.Context(), wardID)
		if err != nil {
			respond.Error(c, apperr.Unexpected(err))
			return
		}
		if ward == nil {
			respond.Error(c, apperr.NotFound("ward not found"))
			return
		}

		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			respond.Error(c, apperr.Unexpected(err))
			return
		}

		user := &models.User{
			Name:         req.Name,
			Email:        admin.NormalizeEmail(req.Email),
			Mobile:       req.Mobile,
			PasswordHash: hash,
			Role:         models.RoleAgent,
			Active:       true,
			// The path ward is the whole assignment set.
			AssignedWardIDs: []string{wardID},
		}

		if err := h.userRepo.Create(c.Request.Context(), user); err != nil {
			respond.Error(c, apperr.FromDB(err))
			return
		}

		if err := h.recorder.Record(c.Request.Context(), c.GetString("user_id"), "CREATE_AGENT", audit.EntityUser, user.ID, wardID, user.Email); err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"user": user,
		})
	}
}
