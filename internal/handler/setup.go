package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eventpass/invite-registry/internal/config"
	"github.com/eventpass/invite-registry/internal/model"
	"github.com/eventpass/invite-registry/internal/registry"
	"github.com/eventpass/invite-registry/internal/repository"
	"github.com/eventpass/invite-registry/internal/utils"
)

// SetupHandler serves the first-run flow that creates the singleton event.
// Once an event exists the flow is permanently locked out: Status reports
// the deployment as configured and Create becomes a no-op.
type SetupHandler struct {
	Cfg    config.Config
	Events *repository.EventRepo
	Active *registry.ActiveEvent
}

func NewSetupHandler(cfg config.Config, events *repository.EventRepo, active *registry.ActiveEvent) *SetupHandler {
	return &SetupHandler{Cfg: cfg, Events: events, Active: active}
}

type setupReq struct {
	Title         string `json:"title"`
	Address       string `json:"address"`
	EventTime     string `json:"event_time"` // RFC3339
	RSVPEnabled   *bool  `json:"rsvp_enabled"`
	AdminPassword string `json:"admin_password"`
}

// Status reports whether setup has already run.  The event title is
// included once configured so a UI can show which event this is.
func (h *SetupHandler) Status(c echo.Context) error {
	if !h.Active.Configured() {
		return c.JSON(http.StatusOK, echo.Map{"configured": false})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	ev, err := h.Events.GetByID(ctx, h.Active.ID())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"configured": true, "title": ev.Title})
}

// Create performs first-run setup.  When an event already exists the
// request succeeds without doing anything, mirroring a redirect to the
// login page rather than an error.
func (h *SetupHandler) Create(c echo.Context) error {
	if h.Active.Configured() {
		return c.JSON(http.StatusOK, echo.Map{"already_configured": true})
	}

	var req setupReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Address = strings.TrimSpace(req.Address)

	fields := map[string]string{}
	if req.Title == "" {
		fields["title"] = "required"
	} else if len(req.Title) > 255 {
		fields["title"] = "must be at most 255 characters"
	}
	if req.Address == "" {
		fields["address"] = "required"
	}
	var eventTime time.Time
	if req.EventTime == "" {
		fields["event_time"] = "required"
	} else {
		t, err := time.Parse(time.RFC3339, req.EventTime)
		if err != nil {
			fields["event_time"] = "must be an RFC3339 timestamp"
		} else {
			eventTime = t.UTC()
		}
	}
	if len(req.AdminPassword) < 6 {
		fields["admin_password"] = "must be at least 6 characters"
	}
	if len(fields) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": fields})
	}

	rsvp := true
	if req.RSVPEnabled != nil {
		rsvp = *req.RSVPEnabled
	}
	hash, err := utils.HashPassword(req.AdminPassword, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash password failed"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	id, err := h.Events.Create(ctx, &model.Event{
		Title:             req.Title,
		Address:           req.Address,
		EventTime:         eventTime,
		RSVPEnabled:       rsvp,
		AdminPasswordHash: hash,
	})
	if err != nil {
		if err == repository.ErrEventExists {
			// Lost a setup race; treat exactly like the locked-out case.
			return c.JSON(http.StatusOK, echo.Map{"already_configured": true})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create event failed"})
	}
	h.Active.Set(id)

	return c.JSON(http.StatusCreated, echo.Map{
		"event": echo.Map{"id": id, "title": req.Title},
	})
}
