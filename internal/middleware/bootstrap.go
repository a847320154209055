// bootstrap.go provides middleware guarding the first-run administrator
// registration endpoint. Registration is open only while the users table is
// empty; once any account exists the endpoint is permanently disabled and all
// further user creation goes through the authenticated admin API.
package middleware

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ward-census/ward-census/internal/db/repositories"
)

// bootstrapRateLimiter tracks per-IP attempt counts to prevent hammering of
// the open registration endpoint. Allows maxAttempts per window per IP.
type bootstrapRateLimiter struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
}

func newBootstrapRateLimiter() *bootstrapRateLimiter {
	return &bootstrapRateLimiter{
		attempts: make(map[string][]time.Time),
	}
}

const (
	bootstrapMaxAttempts = 5
	bootstrapRateWindow  = time.Minute
)

// allow returns true if the IP has not exceeded the rate limit.
func (rl *bootstrapRateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-bootstrapRateWindow)

	// Prune old entries
	recent := make([]time.Time, 0, len(rl.attempts[ip]))
	for _, t := range rl.attempts[ip] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= bootstrapMaxAttempts {
		rl.attempts[ip] = recent
		return false
	}

	rl.attempts[ip] = append(recent, now)
	return true
}

// BootstrapGuardMiddleware allows the request through only while no user
// accounts exist. It checks that:
//  1. The IP is not rate-limited (max 5 attempts per minute).
//  2. The users table is empty (returns 403 otherwise).
func BootstrapGuardMiddleware(userRepo *repositories.UserRepository) gin.HandlerFunc {
	rateLimiter := newBootstrapRateLimiter()

	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		if !rateLimiter.allow(clientIP) {
			slog.Warn("bootstrap middleware: rate limit exceeded", "ip", clientIP)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many registration attempts. Try again in one minute.",
			})
			return
		}

		count, err := userRepo.Count(c.Request.Context())
		if err != nil {
			slog.Error("bootstrap middleware: failed to count users", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to check registration status",
			})
			return
		}
		if count > 0 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Registration is closed. Ask an administrator to create your account.",
			})
			return
		}

		c.Next()
	}
}
