// Package api wires together all HTTP routes for the ward census backend.
//
// Route grouping philosophy:
//   - /api/auth/register and /api/auth/login are the only unauthenticated
//     routes. Register is additionally gated by the bootstrap guard so it only
//     works while the users table is empty.
//   - Ward-scoped routes (/api/wards/:wardId/...) are gated by ward-access
//     middleware before the handler runs. A caller outside the ward gets 403
//     whether or not the ward exists.
//   - Entity routes (/api/households/:id, /api/family-members/:id) carry no
//     ward in the path, so the handlers resolve the owning ward themselves and
//     answer 404 for unknown ids before checking access.
package api

import (
	"database/sql"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ward-census/ward-census/internal/api/admin"
	"github.com/ward-census/ward-census/internal/api/wards"
	"github.com/ward-census/ward-census/internal/audit"
	"github.com/ward-census/ward-census/internal/config"
	"github.com/ward-census/ward-census/internal/db/models"
	"github.com/ward-census/ward-census/internal/db/repositories"
	"github.com/ward-census/ward-census/internal/middleware"
)

// BackgroundServices holds references to background resources that must be
// stopped during graceful shutdown. The caller (cmd/server) is responsible for
// calling Shutdown() when the process receives a termination signal.
type BackgroundServices struct {
	rateLimiters []*middleware.RateLimiter
	auditMirror  *audit.MultiShipper
}

// Shutdown stops all background goroutines. It should be called after the HTTP
// server has been shut down so that in-flight requests are drained first.
func (bg *BackgroundServices) Shutdown() {
	slog.Info("stopping background services")
	for _, rl := range bg.rateLimiters {
		rl.Stop()
	}
	if bg.auditMirror != nil {
		if err := bg.auditMirror.Close(); err != nil {
			slog.Error("failed to close audit mirror", "error", err)
		}
	}
	slog.Info("all background services stopped")
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, db *sql.DB) (*gin.Engine, *BackgroundServices) {
	router := gin.New()

	userRepo := repositories.NewUserRepository(db)
	auditRepo := repositories.NewAuditRepository(db)
	recorder := audit.NewRecorder(auditRepo)

	// Mirror audit entries to external destinations when configured. A broken
	// mirror config is fatal: silently dropping a configured audit copy is
	// worse than refusing to start.
	auditMirror := newAuditMirror(cfg)
	if auditMirror != nil {
		recorder.SetMirror(auditMirror)
	}

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(LoggerMiddleware(cfg))
	router.Use(CORSMiddleware(cfg))
	router.Use(middleware.SecurityHeadersMiddleware(middleware.APISecurityHeadersConfig()))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	// API version
	router.GET("/version", versionHandler())

	// Initialize handlers. All of them share the one *sql.DB pool and the one
	// audit recorder so that audit sequence numbers come from a single source.
	authHandlers := admin.NewAuthHandlers(cfg, db, recorder)
	userHandlers := admin.NewUserHandlers(cfg, db, recorder)
	statsHandlers := admin.NewStatsHandlers(db)
	auditLogHandlers := admin.NewAuditLogHandlers(db)

	wardHandlers := wards.NewWardHandlers(cfg, db, recorder)
	agentHandlers := wards.NewAgentHandlers(cfg, db, recorder)
	householdHandlers := wards.NewHouseholdHandlers(cfg, db, recorder)
	memberHandlers := wards.NewFamilyMemberHandlers(cfg, db, recorder)
	dashboardHandlers := wards.NewDashboardHandlers(db, recorder)
	exportHandlers := wards.NewExportHandlers(db, recorder)

	// Initialize rate limiters
	authRateLimiter := middleware.NewRateLimiter(middleware.AuthRateLimitConfig())
	generalRateLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimitConfig())
	exportRateLimiter := middleware.NewRateLimiter(middleware.ExportRateLimitConfig())

	api := router.Group("/api")
	{
		// Public authentication endpoints (no auth required, but rate limited).
		// Register is further gated by the bootstrap guard: it only succeeds
		// while no users exist, after which admins create accounts themselves.
		authGroup := api.Group("/auth")
		authGroup.Use(middleware.RateLimitMiddleware(authRateLimiter))
		{
			authGroup.POST("/register", middleware.BootstrapGuardMiddleware(userRepo), authHandlers.RegisterAdminHandler())
			authGroup.POST("/login", authHandlers.LoginHandler())
		}

		// Authenticated-only endpoints
		authenticated := api.Group("")
		authenticated.Use(middleware.AuthMiddleware(userRepo))
		authenticated.Use(middleware.RateLimitMiddleware(generalRateLimiter))
		{
			authenticated.GET("/auth/me", authHandlers.MeHandler())

			// User administration (SUPER_ADMIN only)
			usersGroup := authenticated.Group("/users")
			usersGroup.Use(middleware.RequireRole(models.RoleSuperAdmin))
			{
				usersGroup.GET("", userHandlers.ListUsersHandler())
				usersGroup.POST("", userHandlers.CreateUserHandler())
				usersGroup.GET("/:id", userHandlers.GetUserHandler())
				usersGroup.PUT("/:id", userHandlers.UpdateUserHandler())
				usersGroup.DELETE("/:id", userHandlers.DeleteUserHandler())
			}

			// Admin reporting (SUPER_ADMIN only)
			adminGroup := authenticated.Group("/admin")
			adminGroup.Use(middleware.RequireRole(models.RoleSuperAdmin))
			{
				adminGroup.GET("/stats", statsHandlers.GlobalStatsHandler())
				adminGroup.GET("/audit-logs", auditLogHandlers.ListAuditLogsHandler())
			}

			// Wards visible to the caller (all of them for a super admin)
			authenticated.GET("/my-wards", wardHandlers.MyWardsHandler())

			// Ward catalogue. Listing and mutation are SUPER_ADMIN operations;
			// reading a single ward only needs access to that ward.
			authenticated.GET("/wards", middleware.RequireRole(models.RoleSuperAdmin), wardHandlers.ListWardsHandler())
			authenticated.POST("/wards", middleware.RequireRole(models.RoleSuperAdmin), wardHandlers.CreateWardHandler())
			authenticated.PUT("/wards/:wardId", middleware.RequireRole(models.RoleSuperAdmin), wardHandlers.UpdateWardHandler())
			authenticated.DELETE("/wards/:wardId", middleware.RequireRole(models.RoleSuperAdmin), wardHandlers.DeleteWardHandler())
			authenticated.GET("/wards/:wardId", middleware.RequireWardAccess("wardId"), wardHandlers.GetWardHandler())

			// Ward management (SUPER_ADMIN or assigned WARD_MEMBER)
			wardManage := authenticated.Group("/wards/:wardId")
			wardManage.Use(middleware.RequireWardManage("wardId"))
			{
				wardManage.GET("/users", wardHandlers.ListWardUsersHandler())
				wardManage.POST("/agents", agentHandlers.CreateAgentHandler())
			}

			// Ward field work (any role assigned to the ward)
			wardScoped := authenticated.Group("/wards/:wardId")
			wardScoped.Use(middleware.RequireWardAccess("wardId"))
			{
				wardScoped.GET("/households", householdHandlers.ListHouseholdsHandler())
				// Only field agents record households.
				wardScoped.POST("/households", middleware.RequireRole(models.RoleAgent), householdHandlers.CreateHouseholdHandler())
				wardScoped.GET("/dashboard", dashboardHandlers.WardDashboardHandler())
				wardScoped.GET("/export",
					middleware.RateLimitMiddleware(exportRateLimiter), // CSV export walks the whole ward
					exportHandlers.ExportWardHandler())
			}

			// Household and family member routes resolve ward ownership inside
			// the handler; no ward middleware applies here.
			authenticated.GET("/households/:id", householdHandlers.GetHouseholdHandler())
			authenticated.PUT("/households/:id", householdHandlers.UpdateHouseholdHandler())
			authenticated.DELETE("/households/:id", householdHandlers.DeleteHouseholdHandler())
			authenticated.GET("/households/:id/family-members", memberHandlers.ListFamilyMembersHandler())
			authenticated.POST("/households/:id/family-members", memberHandlers.CreateFamilyMemberHandler())

			authenticated.GET("/family-members/:id", memberHandlers.GetFamilyMemberHandler())
			authenticated.PUT("/family-members/:id", memberHandlers.UpdateFamilyMemberHandler())
			authenticated.DELETE("/family-members/:id", memberHandlers.DeleteFamilyMemberHandler())
		}
	}

	bg := &BackgroundServices{
		rateLimiters: []*middleware.RateLimiter{authRateLimiter, generalRateLimiter, exportRateLimiter},
		auditMirror:  auditMirror,
	}

	return router, bg
}

// newAuditMirror builds the optional audit shipper from config. Returns nil
// when no destination is configured.
func newAuditMirror(cfg *config.Config) *audit.MultiShipper {
	var configs []audit.ShipperConfig
	if cfg.Audit.ShipFile != "" {
		configs = append(configs, audit.ShipperConfig{
			Enabled: true,
			Type:    "file",
			File:    &audit.FileConfig{Path: cfg.Audit.ShipFile, MaxSizeMB: 100, MaxBackups: 5},
		})
	}
	if cfg.Audit.ShipWebhookURL != "" {
		configs = append(configs, audit.ShipperConfig{
			Enabled: true,
			Type:    "webhook",
			Webhook: &audit.WebhookConfig{URL: cfg.Audit.ShipWebhookURL, Timeout: 10 * time.Second},
		})
	}
	if len(configs) == 0 {
		return nil
	}

	ms, err := audit.NewMultiShipper(configs)
	if err != nil {
		log.Fatalf("Failed to initialize audit mirror: %v", err)
	}
	slog.Info("audit mirroring enabled", "destinations", len(configs))
	return ms
}

// @Summary      Health check
// @Description  Returns the health status of the service, including database connectivity.
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status: healthy, time: RFC3339 timestamp"
// @Failure      503  {object}  map[string]interface{}  "status: unhealthy, error: database connection failed"
// @Router       /health [get]
// healthCheckHandler returns the health status of the service
func healthCheckHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check database connection
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database connection failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// @Summary      API version
// @Description  Returns the current API version.
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "version, api_version"
// @Router       /version [get]
// versionHandler returns the API version
func versionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":     "0.1.0",
			"api_version": "v1",
		})
	}
}

// LoggerMiddleware provides structured logging
func LoggerMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		// Log the request
		if cfg.Logging.Format == "json" {
			logJSON(c, latency, path, query)
		} else {
			logText(c, latency, path, query)
		}
	}
}

// logJSON logs a request as a JSON-structured slog record.
func logJSON(c *gin.Context, latency time.Duration, path, query string) {
	slog.LogAttrs(
		c.Request.Context(),
		slog.LevelInfo,
		"http request",
		slog.String("method", c.Request.Method),
		slog.String("path", path),
		slog.String("query", query),
		slog.Int("status", c.Writer.Status()),
		slog.Int("size", c.Writer.Size()),
		slog.Duration("latency", latency),
		slog.String("ip", c.ClientIP()),
		slog.String("request_id", middleware.RequestID(c)),
		slog.String("user_agent", c.Request.UserAgent()),
	)
}

// logText logs a request as a human-readable slog text record.
func logText(c *gin.Context, latency time.Duration, path, query string) {
	// reuse the same structured output; slog will emit text format when the global
	// handler is a TextHandler (configured in telemetry.SetupLogger).
	logJSON(c, latency, path, query)
}

// CORSMiddleware handles CORS
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		// Check if origin is allowed
		allowed := false
		for _, allowedOrigin := range cfg.Security.CORS.AllowedOrigins {
			if allowedOrigin == "*" || allowedOrigin == origin {
				allowed = true
				break
			}
		}

		if allowed {
			if origin == "" {
				c.Header("Access-Control-Allow-Origin", "*")
			} else {
				c.Header("Access-Control-Allow-Origin", origin)
			}
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With")
			c.Header("Access-Control-Max-Age", "3600")
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
