package main

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"chatline-platform/internal/auth"
	"chatline-platform/internal/chat"
	"chatline-platform/internal/httpapi"
	"chatline-platform/internal/metrics"
	"chatline-platform/internal/rbac"
	"chatline-platform/pkg/utils"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, authManager *auth.Manager, collector *metrics.Collector, gateway *chat.Gateway, db *sql.DB) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		if err := utils.HealthCheck(c.Request.Context(), db, 2*time.Second); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(collector.Handler()))

	// The gateway performs its own token verification: browser websocket
	// dials carry the token in the query string, not a header.
	r.GET("/ws", gateway.Handle)

	v1 := r.Group("/v1")

	// AUTH routes (registration and token issuance).
	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/signup", h.Signup)
		authGroup.POST("/login", h.Login)
		authGroup.GET("/me", auth.RequireAccessToken(authManager), h.Me)
	}

	// protected API group
	protected := v1.Group("")
	protected.Use(auth.RequireAccessToken(authManager))
	{
		protected.GET("/chatters/busy", h.ChatterBusy)
		protected.GET("/sessions/check", h.SessionCheck)
		protected.POST("/purchase/plan", h.PurchasePlan)
		protected.GET("/sessions/history", h.SessionHistory)
		protected.GET("/messages/:session_id", h.FetchMessages)
		protected.POST("/voice-message/send", h.SendVoice)

		// CHATTER routes
		chatter := protected.Group("")
		chatter.Use(rbac.RequireAnyRole(rbac.RoleChatter))
		{
			chatter.GET("/chatter/sessions", h.ChatterSessions)
			chatter.GET("/chatter/balance", h.ChatterBalance)
			chatter.POST("/withdraws", h.RequestWithdraw)
			chatter.GET("/withdraws", h.ListWithdraws)
		}

		// ADMIN routes
		admin := protected.Group("/admin")
		admin.Use(rbac.RequireAnyRole(rbac.RoleAdmin))
		{
			admin.GET("/session-requests", h.AdminListSessions)
			admin.PUT("/session-requests/:id/status", h.AdminUpdateSession)
			admin.DELETE("/session-requests/:id", h.AdminDeleteSession)
			admin.GET("/withdraw-requests", h.AdminListWithdraws)
			admin.PUT("/withdraw-requests/:id/status", h.AdminUpdateWithdraw)
		}
	}
}
