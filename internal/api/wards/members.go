// members.go implements family member endpoints. A member's ward is derived
// through its household, so every route here starts with the two-hop
// resolution before the access check.
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

// FamilyMemberHandlers handles family member endpoints
type FamilyMemberHandlers struct {
	cfg        *config.Config
	memberRepo *repositories.FamilyMemberRepository
	resolver   *access.Resolver
	recorder   *audit.Recorder
}

// NewFamilyMemberHandlers creates a new FamilyMemberHandlers instance
func NewFamilyMemberHandlers(cfg *config.Config, db *sql.DB, recorder *audit.Recorder) *FamilyMemberHandlers {
	householdRepo := repositories.NewHouseholdRepository(db)
	memberRepo := repositories.NewFamilyMemberRepository(db)
	return &FamilyMemberHandlers{
		cfg:        cfg,
		memberRepo: memberRepo,
		resolver:   access.NewResolver(householdRepo, memberRepo),
		recorder:   recorder,
	}
}

func (h *FamilyMemberHandlers) checkAccess(c *gin.Context, wardID string) error {
	principal, ok := middleware.CurrentPrincipal(c)
	if !ok || !principal.HasAccess(wardID) {
		return apperr.Forbidden("no access to this ward")
	}
	return nil
}

// CreateFamilyMemberRequest represents the request to record a family member
type CreateFamilyMemberRequest struct {
	FullName           string   `json:"fullName" binding:"required"`
	Gender             string   `json:"gender" binding:"required"`
	DateOfBirth        *string  `json:"dateOfBirth"`
	RelationshipToHead string   `json:"relationshipToHead" binding:"required"`
	Education          *string  `json:"education"`
	Occupation         *string  `json:"occupation"`
	MonthlyIncome      *float64 `json:"monthlyIncome"`
	AadhaarNumber      *string  `json:"aadhaarNumber"`
	MobileNumber       *string  `json:"mobileNumber"`
	IsDisabled         bool     `json:"isDisabled"`
	IsSeniorCitizen    bool     `json:"isSeniorCitizen"`
}

// @Summary      Record family member
// @Description  Record a person under a household. The household is taken from the path and fixed for the member's lifetime. Requires access to the household's ward.
// @Tags         FamilyMembers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                     true  "Household ID"
// @Param        body  body  CreateFamilyMemberRequest  true  "Family member data"
// @Success      201  {object}  map[string]interface{}  "member: models.FamilyMember"
// @Failure      400  {object}  map[string]interface{}  "Invalid request"
// @Failure      403  {object}  map[string]interface{}  "Forbidden"
// @Failure      404  {object}  map[string]interface{}  "Household not found"
// @Failure      409  {object}  map[string]interface{}  "Aadhaar number already recorded"
// @Router       /api/households/{id}/family-members [post]
// CreateFamilyMemberHandler records a person under a household
// POST /api/households/:id/family-members
func (h *FamilyMemberHandlers) CreateFamilyMemberHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		householdID := c.Param("id")

		var req CreateFamilyMemberRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, apperr.Invalid("invalid request: %s", err.Error()))
			return
		}

		gender := models.Gender(req.Gender)
		if !gender.Valid() {
			respond.Error(c, apperr.Invalid("unknown gender %q", req.Gender))
			return
		}

		var dob *time.Time
		if req.DateOfBirth != nil {
			t, err := time.Parse("2006-01-02", *req.DateOfBirth)
			if err != nil {
				respond.Error(c, apperr.Invalid("invalid dateOfBirth %q, want YYYY-MM-DD", *req.DateOfBirth))
				return
			}
			dob = &t
		}

		wardID, err := h.resolver.WardOfHousehold(c.Request.Context(), householdID)
		if err != nil {
			respond.Error(c, err)
			return
		}
		if err := h.checkAccess(c, wardID); err != nil {
			respond.Error(c, err)
			return
		}

		member := &models.FamilyMember{
			HouseholdID:        householdID,
			FullName:           req.FullName,
			Gender:             gender,
			DateOfBirth:        dob,
			RelationshipToHead: req.RelationshipToHead,
			Education:          req.Education,
			Occupation:         req.Occupation,
			MonthlyIncome:      req.MonthlyIncome,
			AadhaarNumber:      req.AadhaarNumber,
			MobileNumber:       req.MobileNumber,
			IsDisabled:         req.IsDisabled,
			IsSeniorCitizen:    req.IsSeniorCitizen,
		}

		if err := h.memberRepo.Create(c.Request.Context(), member); err != nil {
			respond.Error(c, apperr.FromDB(err))
			return
		}

		if err := h.recorder.Record(c.Request.Context(), c.GetString("user_id"), "CREATE_FAMILY_MEMBER", audit.EntityFamilyMember, member.ID, wardID, ""); err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"member": member,
		})
	}
}

// @Summary      List family members
// @Description  Get all members of a household, oldest record first. Requires access to the household's ward.
// @Tags         FamilyMembers
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Household ID"
// @Success      200  {object}  map[string]interface{}  "members: []models.FamilyMember"
// @Failure      403  {object}  map[string]interface{}  "Forbidden"
// @Failure      404  {object}  map[string]interface{}  "Household not found"
// @Router       /api/households/{id}/family-members [get]
// ListFamilyMembersHandler lists the members of a household
// GET /api/households/:id/family-members
func (h *FamilyMemberHandlers) ListFamilyMembersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		householdID := c.Param("id")

		wardID, err := h.resolver.WardOfHousehold(c.Request.Context(), householdID)
		if err != nil {
			respond.Error(c, err)
			return
		}
		if err := h.checkAccess(c, wardID); err != nil {
			respond.Error(c, err)
			return
		}

		members, err := h.memberRepo.ListByHousehold(c.Request.Context(), householdID)
		if err != nil {
			respond.Error(c, apperr.Unexpected(err))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"members": members,
		})
	}
}

// @Summary      Get family member
// @Description  Get a family member by ID. Requires access to the member's ward, resolved through its household.
// @Tags         FamilyMembers
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Family member ID"
// @Success      200  {object}  map[string]interface{}  "member: models.FamilyMember"
// @Failure      403  {object}  map[string]interface{}  "Forbidden"
// @Failure      404  {object}  map[string]interface{}  "Family member not found"
// @Router       /api/family-members/{id} [get]
// GetFamilyMemberHandler retrieves a family member by ID
// GET /api/family-members/:id
func (h *FamilyMemberHandlers) GetFamilyMemberHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		memberID := c.Param("id")

		wardID, err := h.resolver.WardOfMember(c.Request.Context(), memberID)
		if err != nil {
			respond.Error(c, err)
			return
		}
		if err := h.checkAccess(c, wardID); err != nil {
			respond.Error(c, err)
			return
		}

		member, err := h.memberRepo.GetByID(c.Request.Context(), memberID)
		if err != nil {
			respond.Error(c, apperr.Unexpected(err))
			return
		}
		if member == nil {
			respond.Error(c, apperr.NotFound("family member not found"))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"member": member,
		})
	}
}

// UpdateFamilyMemberRequest represents the request to update a member's
// survey fields. The owning household is fixed at creation and absent here.
type UpdateFamilyMemberRequest struct {
	FullName           *string  `json:"fullName"`
	Gender             *string  `json:"gender"`
	DateOfBirth        *string  `json:"dateOfBirth"`
	RelationshipToHead *string  `json:"relationshipToHead"`
	Education          *string  `json:"education"`
	Occupation         *string  `json:"occupation"`
	MonthlyIncome      *float64 `json:"monthlyIncome"`
	AadhaarNumber      *string  `json:"aadhaarNumber"`
	MobileNumber       *string  `json:"mobileNumber"`
	IsDisabled         *bool    `json:"isDisabled"`
	IsSeniorCitizen    *bool    `json:"isSeniorCitizen"`
}

// @Summary      Update family member
// @Description  Update a member's survey fields. The owning household cannot be changed. Requires access to the member's ward.
// @Tags         FamilyMembers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                     true  "Family member ID"
// @Param        body  body  UpdateFamilyMemberRequest  true  "Family member update request"
// @Success      200  {object}  map[string]interface{}  "member: models.FamilyMember"
// @Failure      400  {object}  map[string]interface{}  "Invalid request"
// @Failure      403  {object}  map[string]interface{}  "Forbidden"
// @Failure      404  {object}  map[string]interface{}  "Family member not found"
// @Failure      409  {object}  map[string]interface{}  "Aadhaar number already recorded"
// @Router       /api/family-members/{id} [put]
// UpdateFamilyMemberHandler updates a member's survey fields
// PUT /api/family-members/:id
func (h *FamilyMemberHandlers) UpdateFamilyMemberHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		memberID := c.Param("id")

		var req UpdateFamilyMemberRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, apperr.Invalid("invalid request: %s", err.Error()))
			return
		}

		wardID, err := h.resolver.WardOfMember(c.Request.Context(), memberID)
		if err != nil {
			respond.Error(c, err)
			return
		}
		if err := h.checkAccess(c, wardID); err != nil {
			respond.Error(c, err)
			return
		}

		member, err := h.memberRepo.GetByID(c.Request.Context(), memberID)
		if err != nil {
			respond.Error(c, apperr.Unexpected(err))
			return
		}
		if member == nil {
			respond.Error(c, apperr.NotFound("family member not found"))
			return
		}

		if req.FullName != nil {
			member.FullName = *req.FullName
		}
		if req.Gender != nil {
			gender := models.Gender(*req.Gender)
			if !gender.Valid() {
				respond.Error(c, apperr.Invalid("unknown gender %q", *req.Gender))
				return
			}
			member.Gender = gender
		}
		if req.DateOfBirth != nil {
			t, err := time.Parse("2006-01-02", *req.DateOfBirth)
			if err != nil {
				respond.Error(c, apperr.Invalid("invalid dateOfBirth %q, want YYYY-MM-DD", *req.DateOfBirth))
				return
			}
			member.DateOfBirth = &t
		}
		if req.RelationshipToHead != nil {
			member.RelationshipToHead = *req.RelationshipToHead
		}
		if req.Education != nil {
			member.Education = req.Education
		}
		if req.Occupation != nil {
			member.Occupation = req.Occupation
		}
		if req.MonthlyIncome != nil {
			member.MonthlyIncome = req.MonthlyIncome
		}
		if req.AadhaarNumber != nil {
			member.AadhaarNumber = req.AadhaarNumber
		}
		if req.MobileNumber != nil {
			member.MobileNumber = req.MobileNumber
		}
		if req.IsDisabled != nil {
			member.IsDisabled = *req.IsDisabled
		}
		if req.IsSeniorCitizen != nil {
			member.IsSeniorCitizen = *req.IsSeniorCitizen
		}

		if err := h.memberRepo.Update(c.Request.Context(), member); err != nil {
			respond.Error(c, apperr.FromDB(err))
			return
		}

		if err := h.recorder.Record(c.Request.Context(), c.GetString("user_id"), "UPDATE_FAMILY_MEMBER", audit.EntityFamilyMember, member.ID, wardID, ""); err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"member": member,
		})
	}
}

// @Summary      Delete family member
// @Description  Delete a family member. Requires access to the member's ward.
// @Tags         FamilyMembers
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Family member ID"
// @Success      200  {object}  map[string]interface{}  "message: Family member deleted successfully"
// @Failure      403  {object}  map[string]interface{}  "Forbidden"
// @Failure      404  {object}  map[string]interface{}  "Family member not found"
// @Router       /api/family-members/{id} [delete]
// DeleteFamilyMemberHandler deletes a family member
// DELETE /api/family-members/:id
func (h *FamilyMemberHandlers) DeleteFamilyMemberHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		memberID := c.Param("id")

		wardID, err := h.resolver.WardOfMember(c.Request.Context(), memberID)
		if err != nil {
			respond.Error(c, err)
			return
		}
		if err := h.checkAccess(c, wardID); err != nil {
			respond.Error(c, err)
			return
		}

		if err := h.memberRepo.Delete(c.Request.Context(), memberID); err != nil {
			respond.Error(c, apperr.Unexpected(err))
			return
		}

		if err := h.recorder.Record(c.Request.Context(), c.GetString("user_id"), "DELETE_FAMILY_MEMBER", audit.EntityFamilyMember, memberID, wardID, ""); err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "Family member deleted successfully",
		})
	}
}
