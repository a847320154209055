// Package middleware provides Gin HTTP middleware for authentication, authorization,
// rate limiting, security headers, and request tracing.
//
// Middleware ordering matters and is enforced in router.go:
//
//	Security → RateLimit → Auth → Role → Handler
//
// Security headers run first so they appear on all responses including errors.
// Rate limiting runs before auth to block brute-force attacks before any DB work.
// Auth populates the user identity and ward assignments; role checks read from
// that context.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ward-census/ward-census/internal/access"
	"github.com/ward-census/ward-census/internal/auth"
	"github.com/ward-census/ward-census/internal/db/models"
	"github.com/ward-census/ward-census/internal/db/repositories"
)

const (
	// UserKey is the gin.Context key holding the authenticated *models.User.
	UserKey = "user"

	// UserIDKey is the gin.Context key holding the authenticated user's ID string.
	UserIDKey = "user_id"

	// PrincipalKey is the gin.Context key holding the access.Principal built from
	// the authenticated user's role and ward assignments.
	PrincipalKey = "principal"
)

// AuthMiddleware validates the bearer JWT and loads the authenticated user.
//
// The token carries only the user ID; role and ward assignments are reloaded
// from the database on every request so that revoking a user or changing their
// assignments takes effect immediately rather than at token expiry.
func AuthMiddleware(userRepo *repositories.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Missing authorization header",
			})
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header must start with 'Bearer '",
			})
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization token is empty",
			})
			return
		}

		claims, err := auth.ValidateJWT(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid credentials",
			})
			return
		}

		user, err := userRepo.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to load user",
			})
			return
		}
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "User not found",
			})
			return
		}
		if !user.Active {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Account is deactivated",
			})
			return
		}

		c.Set(UserKey, user)
		c.Set(UserIDKey, user.ID)
		c.Set(PrincipalKey, access.Principal{
			UserID:  user.ID,
			Role:    user.Role,
			WardIDs: user.AssignedWardIDs,
		})

		c.Next()
	}
}

// CurrentUser returns the authenticated user stored by AuthMiddleware.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, exists := c.Get(UserKey)
	if !exists {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}

// CurrentPrincipal returns the access principal stored by AuthMiddleware.
func CurrentPrincipal(c *gin.Context) (access.Principal, bool) {
	v, exists := c.Get(PrincipalKey)
	if !exists {
		return access.Principal{}, false
	}
	p, ok := v.(access.Principal)
	return p, ok
}
