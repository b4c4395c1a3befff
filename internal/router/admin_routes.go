package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/eventpass/invite-registry/internal/handler"    // admin handlers
	"github.com/eventpass/invite-registry/internal/middleware" // JWT + capability middlewares
	"github.com/eventpass/invite-registry/internal/utils"
)

// RegisterAdmin registers the admin surface under /v1/admin.
// Login is the only unauthenticated route; everything else requires a
// valid session token carrying the admin capability.
func RegisterAdmin(e *echo.Echo, a *handler.AdminAuthHandler, inv *handler.AdminInviteHandler, jwtSecret string, rdb *redis.Client) {
	// Exchange the admin password for a session token.
	e.POST("/v1/admin/login", a.Login)

	// Attach middlewares at group construction time for clarity.
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret, rdb),
		middleware.RequireCapability(utils.CapabilityAdmin),
	)

	// Revoke the current session token.
	g.POST("/logout", a.Logout)

	// ---- Dashboard ----
	g.GET("/dashboard", inv.Dashboard)

	// ---- Invites ----
	g.POST("/invites", inv.CreateBatch)
	g.POST("/invites/:id/revoke", inv.Revoke)
	g.POST("/invites/:id/reserve", inv.Reserve)
	g.POST("/invites/:id/assign", inv.Assign)
	g.GET("/invites/:id/pass", inv.DownloadPass)
}
