package middleware // middleware provides shared request processing for handlers

import (
    "net/http" // http package defines standard HTTP status codes

    "github.com/labstack/echo/v4" // echo provides middleware chaining and context
)

// RequireCapability returns a middleware function that enforces that the
// session token carries one of the specified capabilities.  The values
// should correspond to the JWT's "cap" claim.  If the capability is not
// in the allowed set, the request is aborted with a 403 Forbidden
// response.  It assumes JWTAuth has already extracted the claim into the
// context under the key "cap".  Checking a capability rather than an
// identity keeps the registry decoupled from the credential mechanism: a
// later move to per-admin accounts only changes what issues the claim.
func RequireCapability(caps ...string) echo.MiddlewareFunc {
    // Build a set of allowed capabilities for constant‑time lookups.  The
    // map value is a boolean and is always true when present.
    allowed := make(map[string]bool, len(caps))
    for _, cp := range caps {
        allowed[cp] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            // Retrieve the capability from context.  It should have been
            // stored by JWTAuth middleware as a string.  If not present
            // or of wrong type, treat as missing.
            v := c.Get("cap")
            capability, ok := v.(string)
            if !ok || !allowed[capability] {
                // If the capability is missing or not allowed, return 403
                return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
            }
            // Otherwise call the next handler in the chain
            return next(c)
        }
    }
}
