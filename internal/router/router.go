package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/eventpass/invite-registry/internal/handler" // import the handlers that implement business logic
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterSetup registers the one-time installation endpoints under /v1/setup.
// GET reports whether the deployment is configured; POST performs the initial
// configuration.  Once an event exists, POST becomes a no-op and the admin
// password can no longer be changed through this surface, so the routes stay
// unauthenticated.
func RegisterSetup(e *echo.Echo, s *handler.SetupHandler) {
	g := e.Group("/v1/setup")
	// Report setup state.  The dashboard frontend polls this to decide
	// whether to show the installation wizard or the login form.
	g.GET("", s.Status)
	// Perform first-time setup: create the event and the admin password.
	g.POST("", s.Create)
}
