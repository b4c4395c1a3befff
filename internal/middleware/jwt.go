package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "net/http" // HTTP status codes for responses
    "strings"  // string utilities for prefix checking and trimming

    "github.com/golang-jwt/jwt/v5" // JWT library for parsing and validating tokens
    "github.com/labstack/echo/v4"  // Echo framework used for defining middleware and handlers
    "github.com/redis/go-redis/v9" // redis client used for the logout denylist

    "github.com/eventpass/invite-registry/internal/utils"
)

// DenylistKeyPrefix namespaces the redis keys holding hashes of logged-out
// session tokens.  Keys expire with the token, so the denylist never grows
// past the set of sessions that could still be replayed.
const DenylistKeyPrefix = "session:denied:"

// JWTAuth returns an Echo middleware that validates a Bearer session token
// and injects its capability claim into the request context.  The provided
// secret must match the one used when issuing tokens.  When rdb is non-nil
// the token is also checked against the logout denylist; with no redis the
// check is skipped and a logged-out token simply ages out at its expiry.
// Handlers and downstream middleware read the capability via `c.Get("cap")`.
func JWTAuth(secret string, rdb *redis.Client) echo.MiddlewareFunc {
    // The outer function returns a middleware function.  Echo executes this
    // once when registering the middleware.
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        // The returned handler is invoked for each incoming HTTP request.
        return func(c echo.Context) error {
            // Read the Authorization header.  A valid header should start
            // with "Bearer " followed by the JWT.  If it doesn't, respond
            // with 401 Unauthorized indicating that authentication is
            // required.
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            // Remove the "Bearer " prefix to obtain the raw token string.
            raw := strings.TrimPrefix(auth, "Bearer ")

            // Parse the token using the HS256 signing method and our secret.
            // The callback provided to jwt.Parse supplies the signing key and
            // ensures that the algorithm matches what we expect.  If the
            // signing method differs, we reject the token by returning an
            // unauthorized error.
            tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
                // Type assert the signing method to HMAC; reject others.
                if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
                    return nil, echo.ErrUnauthorized
                }
                // Return the secret bytes used to sign the token.
                return []byte(secret), nil
            })
            // If parsing failed or the token is invalid, respond with 401.
            if err != nil || !tok.Valid {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }

            // Reject tokens that were logged out.  A redis error here is
            // treated as "not denylisted": the token still carries a valid
            // signature and expiry, and logout is explicitly best-effort.
            if rdb != nil {
                key := DenylistKeyPrefix + utils.HashSessionToken(raw)
                if n, err := rdb.Exists(c.Request().Context(), key).Result(); err == nil && n > 0 {
                    return c.JSON(http.StatusUnauthorized, echo.Map{"error": "session revoked"})
                }
            }

            // Extract the claims into a map for easy access.  If the
            // assertion fails, the claims are not in the expected format.
            claims, ok := tok.Claims.(jwt.MapClaims)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
            }

            // Store the capability claim in the context.  Handlers and
            // downstream middleware can access it via c.Get().
            c.Set("cap", claims["cap"])
            // Call the next handler in the chain and return its result.
            return next(c)
        }
    }
}
