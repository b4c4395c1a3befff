package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/eventpass/invite-registry/internal/config"
	"github.com/eventpass/invite-registry/internal/middleware"
	"github.com/eventpass/invite-registry/internal/repository"
	"github.com/eventpass/invite-registry/internal/utils"
)

// AdminAuthHandler bundles dependencies for the admin session endpoints.
// There is a single shared password stored as a bcrypt hash on the event
// row; a successful login yields a short-lived capability token.
type AdminAuthHandler struct {
	Cfg    config.Config
	Events *repository.EventRepo
	RDB    *redis.Client
}

func NewAdminAuthHandler(cfg config.Config, events *repository.EventRepo, rdb *redis.Client) *AdminAuthHandler {
	return &AdminAuthHandler{Cfg: cfg, Events: events, RDB: rdb}
}

// ----- DTOs -----

type loginReq struct {
	Password string `json:"password"`
}

type sessionResp struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

// Login verifies the shared admin password and issues a session token.
// An unconfigured deployment and a wrong password both answer 401 with
// the same message; the login form is no place to probe setup state.
func (h *AdminAuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":  "validation failed",
			"fields": map[string]string{"password": "required"},
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ev, err := h.Events.First(ctx)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(ev.AdminPasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	session, err := utils.NewSessionToken(h.Cfg.JWTSecret, h.Cfg.SessionTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue session failed"})
	}
	return c.JSON(http.StatusOK, sessionResp{Token: session.Token, Expires: session.Exp})
}

// Logout revokes the presented session token by denylisting its hash in
// redis until the token would have expired anyway.  Without redis the
// revocation is skipped and the token ages out; logout is best-effort
// either way, so the endpoint always answers 204 for a bearer-shaped
// request.
func (h *AdminAuthHandler) Logout(c echo.Context) error {
	auth := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing bearer token"})
	}
	raw := strings.TrimPrefix(auth, "Bearer ")

	if h.RDB != nil {
		// Parse only to learn the expiry; an unparsable or expired token
		// needs no denylist entry.
		tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, echo.ErrUnauthorized
			}
			return []byte(h.Cfg.JWTSecret), nil
		})
		if err == nil && tok.Valid {
			if claims, ok := tok.Claims.(jwt.MapClaims); ok {
				if expFloat, ok := claims["exp"].(float64); ok {
					ttl := time.Until(time.Unix(int64(expFloat), 0))
					if ttl > 0 {
						key := middleware.DenylistKeyPrefix + utils.HashSessionToken(raw)
						_ = h.RDB.Set(c.Request().Context(), key, "1", ttl).Err()
					}
				}
			}
		}
	}
	return c.NoContent(http.StatusNoContent)
}
