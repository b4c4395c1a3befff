package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/eventpass/invite-registry/internal/config"
	"github.com/eventpass/invite-registry/internal/handler"
	"github.com/eventpass/invite-registry/internal/middleware"
)

// RegisterPublic registers the guest-facing invite endpoints under /v1.
// Everything here is keyed by the opaque invite token and requires no
// authentication; the token itself is the credential.  The token-bucket
// rate limiter fronts the whole group so that token guessing stays
// expensive even though lookups are unauthenticated.
func RegisterPublic(e *echo.Echo, p *handler.PublicInviteHandler, rlCfg config.RateLimitConfig, rdb *redis.Client) {
	g := e.Group(
		"/v1/invites",
		middleware.NewTokenBucket(rlCfg, rdb),
	)
	// Look up an invite by token.  Returns the redemption form payload for
	// an available invite and the already-used view for a consumed one.
	g.GET("/:token", p.Show)
	// Redeem an invite.  One-shot: the first successful request wins and
	// every later attempt gets a 409.
	g.POST("/:token/redeem", p.Redeem)
	// Download the PDF event pass.  Only redeemed invites have a pass.
	g.GET("/:token/pass", p.DownloadPass)
}
