package main

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ingatatech/e-learning-sub003/internal/auth"
	"github.com/ingatatech/e-learning-sub003/internal/httpapi"
	"github.com/ingatatech/e-learning-sub003/internal/obs"
	"github.com/ingatatech/e-learning-sub003/internal/rbac"
	"github.com/ingatatech/e-learning-sub003/pkg/utils"
)

type routeDeps struct {
	auth     *auth.Manager
	handlers httpapi.Handlers
	limiter  *httpapi.RateLimiter
	pageGate gin.HandlerFunc
	db       *sql.DB
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, d routeDeps) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		if d.db != nil {
			if err := utils.HealthCheck(c.Request.Context(), d.db, 2*time.Second); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(obs.Handler()))

	h := d.handlers
	api := r.Group("/api/auth")
	{
		api.POST("/login", d.limiter.Middleware(), h.Login)
		api.POST("/logout", h.Logout)
		api.POST("/refresh", d.limiter.Middleware(), h.Refresh)
		api.GET("/me", auth.RequireAccessToken(d.auth, httpapi.StoreOrBearer(h.Stores)), h.Me)
	}

	admin := r.Group("/api/admin")
	admin.Use(auth.RequireAccessToken(d.auth, httpapi.StoreOrBearer(h.Stores)), rbac.RequireAnyRole(auth.RoleAdmin))
	{
		admin.GET("/audit-events", h.AuditEvents)
	}

	// Every other GET is a page navigation and goes through the gate.
	r.NoRoute(pagesOnly, d.pageGate, renderPage)
}

func pagesOnly(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.Next()
}

// renderPage stands in for the page renderer: it reports what would be shown.
func renderPage(c *gin.Context) {
	resp := gin.H{"page": c.Request.URL.Path}
	if id, ok := auth.IdentityFrom(c.Request.Context()); ok {
		resp["user"] = id.Identity()
	}
	c.JSON(http.StatusOK, resp)
}
