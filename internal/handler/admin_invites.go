package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eventpass/invite-registry/internal/model"
	"github.com/eventpass/invite-registry/internal/pass"
	"github.com/eventpass/invite-registry/internal/queue"
	"github.com/eventpass/invite-registry/internal/registry"
	"github.com/eventpass/invite-registry/internal/repository"
	queue_publisher "github.com/eventpass/invite-registry/internal/service"
)

// AdminInviteHandler serves the dashboard and every admin-side invite
// transition.  All methods run behind JWTAuth + RequireCapability, so by
// the time they execute the caller has proven the admin capability.
type AdminInviteHandler struct {
	Reg      *registry.Registry
	Events   *repository.EventRepo
	Active   *registry.ActiveEvent
	Renderer *pass.Renderer
}

func NewAdminInviteHandler(reg *registry.Registry, events *repository.EventRepo, active *registry.ActiveEvent, renderer *pass.Renderer) *AdminInviteHandler {
	if reg == nil || events == nil || active == nil || renderer == nil {
		panic("nil dependency passed to NewAdminInviteHandler")
	}
	return &AdminInviteHandler{Reg: reg, Events: events, Active: active, Renderer: renderer}
}

// activeEvent loads the configured event or reports the deployment as
// unconfigured with a 409 so the admin UI can point at setup.
func (h *AdminInviteHandler) activeEvent(c echo.Context) (model.Event, bool) {
	if !h.Active.Configured() {
		_ = c.JSON(http.StatusConflict, echo.Map{"error": "setup has not run yet"})
		return model.Event{}, false
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	ev, err := h.Events.GetByID(ctx, h.Active.ID())
	if err != nil {
		_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		return model.Event{}, false
	}
	return ev, true
}

// Dashboard handles GET /v1/admin/dashboard.  It returns the event, the
// full invite pool ordered by table number and the aggregate stats.
func (h *AdminInviteHandler) Dashboard(c echo.Context) error {
	ev, ok := h.activeEvent(c)
	if !ok {
		return nil
	}
	invites, stats, err := h.Reg.List(c.Request().Context(), ev.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]echo.Map, 0, len(invites))
	for i := range invites {
		out = append(out, inviteJSON(&invites[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"event":   eventJSON(&ev),
		"invites": out,
		"stats":   stats,
	})
}

type createBatchReq struct {
	Count         int  `json:"count"`
	TableStart    int  `json:"table_start"`
	ReserveTables bool `json:"reserve_tables"`
	ReservedCount int  `json:"reserved_count"`
}

// CreateBatch handles POST /v1/admin/invites.  It creates count invites
// with sequential table numbers; when reserve_tables is set the first
// reserved_count of them start out reserved.
func (h *AdminInviteHandler) CreateBatch(c echo.Context) error {
	ev, ok := h.activeEvent(c)
	if !ok {
		return nil
	}
	var req createBatchReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	fields := map[string]string{}
	if req.Count < registry.MinBatchCount || req.Count > registry.MaxBatchCount {
		fields["count"] = fmt.Sprintf("must be between %d and %d", registry.MinBatchCount, registry.MaxBatchCount)
	}
	if req.TableStart < 1 {
		fields["table_start"] = "must be at least 1"
	}
	reserveCount := 0
	if req.ReserveTables {
		reserveCount = req.ReservedCount
		if reserveCount < 0 {
			fields["reserved_count"] = "must not be negative"
		} else if req.Count >= registry.MinBatchCount && reserveCount > req.Count {
			fields["reserved_count"] = "must not exceed count"
		}
	}
	if len(fields) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": fields})
	}

	if err := h.Reg.CreateBatch(c.Request().Context(), ev.ID, req.Count, req.TableStart, reserveCount); err != nil {
		switch err {
		case registry.ErrInvalidBatch:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid batch parameters"})
		case repository.ErrDuplicateToken:
			return c.JSON(http.StatusConflict, echo.Map{"error": "token collision, batch not created"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create invites failed"})
	}

	msg := fmt.Sprintf("Created %d invites successfully.", req.Count)
	if reserveCount > 0 {
		msg = fmt.Sprintf("%s (%d reserved)", msg, reserveCount)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": msg})
}

// inviteID parses the :id path parameter.
func inviteID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id")
	}
	return id, nil
}

// Revoke handles POST /v1/admin/invites/:id/revoke.  The invite returns
// to the available state from wherever it was; there is no undo.
func (h *AdminInviteHandler) Revoke(c echo.Context) error {
	id, err := inviteID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	inv, err := h.Reg.Revoke(c.Request().Context(), id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "invite not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revoke failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Invite revoked successfully. It can now be used again.",
		"invite":  inviteJSON(&inv),
	})
}

// Reserve handles POST /v1/admin/invites/:id/reserve.  A claimed invite
// is rejected; reserving an already reserved table is a harmless
// overwrite.
func (h *AdminInviteHandler) Reserve(c echo.Context) error {
	id, err := inviteID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	inv, err := h.Reg.ReserveTable(c.Request().Context(), id)
	if err != nil {
		switch err {
		case repository.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "invite not found"})
		case repository.ErrAlreadyUsed:
			return c.JSON(http.StatusConflict, echo.Map{"error": "This invite has already been used."})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reserve failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Table reserved successfully.",
		"invite":  inviteJSON(&inv),
	})
}

// Assign handles POST /v1/admin/invites/:id/assign.  It fills a reserved
// table with real guest details, making it claimed, and reports the pass
// download URL for immediate printing.
func (h *AdminInviteHandler) Assign(c echo.Context) error {
	ev, ok := h.activeEvent(c)
	if !ok {
		return nil
	}
	id, err := inviteID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req guestReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if fields := validateGuest(&req); len(fields) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": fields})
	}

	inv, err := h.Reg.AssignReservedTable(c.Request().Context(), id, req.Name, req.Phone, req.HasPlusOne)
	if err != nil {
		switch err {
		case repository.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "invite not found"})
		case repository.ErrNotReserved:
			return c.JSON(http.StatusConflict, echo.Map{"error": "This invite is not reserved."})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "assign failed"})
	}

	publishRedeemed(&inv, &ev, "assign")

	return c.JSON(http.StatusOK, echo.Map{
		"message":  "Table assigned successfully.",
		"invite":   inviteJSON(&inv),
		"pass_url": fmt.Sprintf("/v1/admin/invites/%d/pass", inv.ID),
	})
}

// DownloadPass handles GET /v1/admin/invites/:id/pass.  Reserved invites
// are downloadable too (the placeholder pass marks a held table); only an
// available invite is refused.
func (h *AdminInviteHandler) DownloadPass(c echo.Context) error {
	ev, ok := h.activeEvent(c)
	if !ok {
		return nil
	}
	id, err := inviteID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	inv, err := h.Reg.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "invite not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	doc, err := h.Renderer.RenderPass(&inv, &ev)
	if err != nil {
		if err == pass.ErrNotEligible {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "Invite must be used first."})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "render pass failed"})
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", pass.Filename(&inv)))
	return c.Blob(http.StatusOK, "application/pdf", doc)
}

// publishRedeemed emits the invite.redeemed event without blocking the
// request.  The transition has already committed; a publish failure is
// logged by the publisher and otherwise ignored.
func publishRedeemed(inv *model.Invite, ev *model.Event, source string) {
	name := ""
	if inv.InviteeName != nil {
		name = *inv.InviteeName
	}
	redeemedAt := time.Now().UTC()
	if inv.UsedAt != nil {
		redeemedAt = inv.UsedAt.UTC()
	}
	evt := queue.InviteRedeemedEvent{
		InviteID:    inv.ID,
		EventID:     ev.ID,
		EventTitle:  ev.Title,
		TableNumber: inv.TableNumber,
		InviteeName: name,
		HasPlusOne:  inv.HasPlusOne,
		Source:      source,
		RedeemedAt:  redeemedAt.Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = queue_publisher.PublishInviteRedeemed(ctx, evt)
	}()
}
