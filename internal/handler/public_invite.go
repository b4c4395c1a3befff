package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eventpass/invite-registry/internal/model"
	"github.com/eventpass/invite-registry/internal/pass"
	"github.com/eventpass/invite-registry/internal/registry"
	"github.com/eventpass/invite-registry/internal/repository"
)

// PublicInviteHandler serves the guest-facing surface: invite lookup,
// redemption and pass download, all keyed by the opaque token.  Numeric
// invite IDs are never accepted here.
type PublicInviteHandler struct {
	Reg      *registry.Registry
	Events   *repository.EventRepo
	Active   *registry.ActiveEvent
	Renderer *pass.Renderer
}

func NewPublicInviteHandler(reg *registry.Registry, events *repository.EventRepo, active *registry.ActiveEvent, renderer *pass.Renderer) *PublicInviteHandler {
	if reg == nil || events == nil || active == nil || renderer == nil {
		panic("nil dependency passed to NewPublicInviteHandler")
	}
	return &PublicInviteHandler{Reg: reg, Events: events, Active: active, Renderer: renderer}
}

// lookup fetches the invite for the :token path parameter together with
// its event.  Both a malformed token and an unknown one answer the same
// generic 404; the public surface gives nothing away.
func (h *PublicInviteHandler) lookup(c echo.Context) (model.Invite, model.Event, bool) {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		_ = c.JSON(http.StatusNotFound, echo.Map{"error": "invite not found"})
		return model.Invite{}, model.Event{}, false
	}
	inv, err := h.Reg.GetByToken(c.Request().Context(), token)
	if err != nil {
		if err == repository.ErrNotFound {
			_ = c.JSON(http.StatusNotFound, echo.Map{"error": "invite not found"})
		} else {
			_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
		return model.Invite{}, model.Event{}, false
	}
	ev, err := h.Events.GetByID(c.Request().Context(), inv.EventID)
	if err != nil {
		_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		return model.Invite{}, model.Event{}, false
	}
	return inv, ev, true
}

// publicInviteJSON is the token-keyed invite shape.  It omits the numeric
// id: guests only ever address their invite by token.
func publicInviteJSON(inv *model.Invite) echo.Map {
	m := inviteJSON(inv)
	delete(m, "id")
	delete(m, "invitee_phone")
	return m
}

// Show handles GET /v1/invites/:token.  An available invite answers with
// the redemption form payload; a consumed one answers with the
// already-used view so the page can tell the guest the table is taken.
func (h *PublicInviteHandler) Show(c echo.Context) error {
	inv, ev, ok := h.lookup(c)
	if !ok {
		return nil
	}
	state, err := inv.State()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "invite state corrupt"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"invite":     publicInviteJSON(&inv),
		"event":      eventJSON(&ev),
		"redeemable": state == model.StateAvailable,
	})
}

// Redeem handles POST /v1/invites/:token/redeem.  Redemption is strictly
// one-shot: whichever request commits the conditional update first wins
// and every other attempt, concurrent or later, gets a 409 and no state
// change.
func (h *PublicInviteHandler) Redeem(c echo.Context) error {
	inv, ev, ok := h.lookup(c)
	if !ok {
		return nil
	}
	var req guestReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if fields := validateGuest(&req); len(fields) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": fields})
	}

	fresh, err := h.Reg.Redeem(c.Request().Context(), inv.Token, req.Name, req.Phone, req.HasPlusOne)
	if err != nil {
		switch err {
		case repository.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "invite not found"})
		case repository.ErrAlreadyUsed:
			return c.JSON(http.StatusConflict, echo.Map{"error": "This invite has already been used."})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "redeem failed"})
	}

	publishRedeemed(&fresh, &ev, "redeem")

	return c.JSON(http.StatusOK, echo.Map{
		"message":  "Invite redeemed successfully.",
		"invite":   publicInviteJSON(&fresh),
		"event":    eventJSON(&ev),
		"pass_url": fmt.Sprintf("/v1/invites/%s/pass", fresh.Token),
	})
}

// DownloadPass handles GET /v1/invites/:token/pass.  The pass exists only
// once the invite is consumed; an available invite is refused with 403.
func (h *PublicInviteHandler) DownloadPass(c echo.Context) error {
	inv, ev, ok := h.lookup(c)
	if !ok {
		return nil
	}
	doc, err := h.Renderer.RenderPass(&inv, &ev)
	if err != nil {
		if err == pass.ErrNotEligible {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "Invite must be redeemed first."})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "render pass failed"})
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", pass.Filename(&inv)))
	return c.Blob(http.StatusOK, "application/pdf", doc)
}
