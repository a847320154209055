// Package middleware (role.go) implements role and ward authorization middleware.
//
// Roles and ward assignments are checked at request time rather than being
// embedded in the JWT: when a user's role or assignments change, the change
// takes effect on their next request without reissuing their token. Access
// denials return 403 before any existence check on the target, so a caller
// without access cannot enumerate which ward IDs exist.

package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ward-census/ward-census/internal/db/models"
)

// RequireRole allows the request through only if the authenticated user has
// one of the given roles.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "User not authenticated",
			})
			return
		}

		for _, role := range roles {
			if user.Role == role {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": "Insufficient permissions",
		})
	}
}

// RequireWardAccess allows the request through only if the authenticated user
// can read the ward named by the given path parameter.
func RequireWardAccess(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := CurrentPrincipal(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "User not authenticated",
			})
			return
		}

		if !principal.HasAccess(c.Param(param)) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Access to this ward is not allowed",
			})
			return
		}

		c.Next()
	}
}

// RequireWardManage allows the request through only if the authenticated user
// can manage the ward named by the given path parameter. Agents never pass
// this gate.
func RequireWardManage(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := CurrentPrincipal(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "User not authenticated",
			})
			return
		}

		if !principal.CanManageWard(c.Param(param)) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Managing this ward is not allowed",
			})
			return
		}

		c.Next()
	}
}
