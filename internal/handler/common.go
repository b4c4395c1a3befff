package handler

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eventpass/invite-registry/internal/model"
)

// inviteJSON shapes an invite for API responses.  The derived state is
// included alongside the raw fields so clients never reimplement the
// flag-pair decoding.
func inviteJSON(inv *model.Invite) echo.Map {
	state, err := inv.State()
	stateName := state.String()
	if err != nil {
		stateName = "unknown"
	}
	m := echo.Map{
		"id":           inv.ID,
		"token":        inv.Token,
		"table_number": inv.TableNumber,
		"state":        stateName,
		"has_plus_one": inv.HasPlusOne,
	}
	if inv.InviteeName != nil {
		m["invitee_name"] = *inv.InviteeName
	}
	if inv.InviteePhone != nil {
		m["invitee_phone"] = *inv.InviteePhone
	}
	if inv.UsedAt != nil {
		m["used_at"] = inv.UsedAt.UTC().Format(time.RFC3339)
	}
	return m
}

// eventJSON shapes the event for API responses.  The password hash never
// leaves the handler layer.
func eventJSON(ev *model.Event) echo.Map {
	return echo.Map{
		"id":           ev.ID,
		"title":        ev.Title,
		"address":      ev.Address,
		"event_time":   ev.EventTime.UTC().Format(time.RFC3339),
		"rsvp_enabled": ev.RSVPEnabled,
	}
}

// guestReq is the body shared by guest redemption and reserved-table
// assignment.
type guestReq struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	HasPlusOne bool   `json:"has_plus_one"`
}

// validateGuest normalizes and validates guest details, returning a
// per-field error map.  An empty map means the input is acceptable.
func validateGuest(req *guestReq) map[string]string {
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	fields := map[string]string{}
	if req.Name == "" {
		fields["name"] = "required"
	} else if len(req.Name) > 255 {
		fields["name"] = "must be at most 255 characters"
	}
	if req.Phone == "" {
		fields["phone"] = "required"
	} else if len(req.Phone) > 20 {
		fields["phone"] = "must be at most 20 characters"
	}
	return fields
}
