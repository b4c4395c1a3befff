package handler // declare the package name; contains HTTP handlers

import (
    "net/http" // net/http provides status codes and response helpers

    "github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// Health is the liveness probe for the invite registry.  Load balancers
// and uptime monitors hit /healthz to verify the service is accepting
// requests; it answers a plain text "ok" with HTTP 200 and touches no
// downstream dependency, so it stays green even while MySQL or redis
// are unreachable.
func Health(c echo.Context) error {
    return c.String(http.StatusOK, "ok") // write "ok" with a 200 OK status
}
