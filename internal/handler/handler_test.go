package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/eventpass/invite-registry/internal/config"
	"github.com/eventpass/invite-registry/internal/model"
	"github.com/eventpass/invite-registry/internal/pass"
	"github.com/eventpass/invite-registry/internal/registry"
	"github.com/eventpass/invite-registry/internal/repository"
)

// testEnv bundles the sqlmock-backed dependencies handlers are built on.
type testEnv struct {
	mock   sqlmock.Sqlmock
	cfg    config.Config
	events *repository.EventRepo
	reg    *registry.Registry
	active *registry.ActiveEvent
	rend   *pass.Renderer
}

func newTestEnv(t *testing.T) (*testEnv, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	events := repository.NewEventRepo(db)
	invites := repository.NewInviteRepo(db)
	env := &testEnv{
		mock: mock,
		cfg: config.Config{
			Env: "test", JWTSecret: "handler-test-secret",
			SessionTTLMin: 30, BcryptCost: 4,
			PublicBaseURL: "https://invites.example.com",
		},
		events: events,
		reg:    registry.New(events, invites),
		active: &registry.ActiveEvent{},
		rend:   pass.NewRenderer("https://invites.example.com"),
	}
	teardown := func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		_ = db.Close()
	}
	return env, teardown
}

var eventCols = []string{
	"id", "title", "address", "event_time", "rsvp_enabled",
	"admin_password_hash", "created_at", "updated_at",
}

func eventRow(ev model.Event) *sqlmock.Rows {
	return sqlmock.NewRows(eventCols).AddRow(
		ev.ID, ev.Title, ev.Address, ev.EventTime, ev.RSVPEnabled,
		ev.AdminPasswordHash, ev.CreatedAt, ev.UpdatedAt,
	)
}

var inviteCols = []string{
	"id", "event_id", "token", "table_number", "is_used", "is_reserved",
	"invitee_name", "invitee_phone", "has_plus_one", "used_at", "created_at", "updated_at",
}

func inviteRow(inv model.Invite) *sqlmock.Rows {
	var name, phone any
	if inv.InviteeName != nil {
		name = *inv.InviteeName
	}
	if inv.InviteePhone != nil {
		phone = *inv.InviteePhone
	}
	var usedAt any
	if inv.UsedAt != nil {
		usedAt = *inv.UsedAt
	}
	return sqlmock.NewRows(inviteCols).AddRow(
		inv.ID, inv.EventID, inv.Token, inv.TableNumber, inv.IsUsed, inv.IsReserved,
		name, phone, inv.HasPlusOne, usedAt, inv.CreatedAt, inv.UpdatedAt,
	)
}

func testEventFixture() model.Event {
	now := time.Now().UTC()
	return model.Event{
		ID: 1, Title: "Annual Gala", Address: "12 Harbour St",
		EventTime: time.Date(2026, 9, 12, 19, 0, 0, 0, time.UTC), RSVPEnabled: true,
		AdminPasswordHash: "$2a$04$notachievablehashforunittests0000000000000000000000000",
		CreatedAt:         now, UpdatedAt: now,
	}
}

func strPtr(s string) *string { return &s }

// doJSON performs a request against the given handler with optional JSON
// body and path parameters, returning the recorder.
func doJSON(t *testing.T, h echo.HandlerFunc, method, target, body string, params map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if len(params) > 0 {
		names := make([]string, 0, len(params))
		values := make([]string, 0, len(params))
		for k, v := range params {
			names = append(names, k)
			values = append(values, v)
		}
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}
	if err := h(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec
}
