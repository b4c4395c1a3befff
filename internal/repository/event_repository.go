package repository

import (
	"context"
	"database/sql"

	"github.com/eventpass/invite-registry/internal/model"
)

// EventRepo provides access to the singleton events row.  The application
// creates the event once during setup and treats it as immutable; there is
// deliberately no update method.
type EventRepo struct{ DB *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{DB: db} }

// Create inserts the event row and returns its ID.  It refuses to insert a
// second event: setup is permanently locked out once a row exists.
func (r *EventRepo) Create(ctx context.Context, ev *model.Event) (uint64, error) {
	// Existence check and insert are not atomic, but setup is a one-time
	// operator action; a second concurrent setup loses on the check or ends
	// up ignored because the process pins the first row at startup.
	var exists bool
	if err := r.DB.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM events LIMIT 1)").Scan(&exists); err != nil {
		return 0, err
	}
	if exists {
		return 0, ErrEventExists
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO events (title, address, event_time, rsvp_enabled, admin_password_hash) VALUES (?,?,?,?,?)",
		ev.Title, ev.Address, ev.EventTime.UTC(), ev.RSVPEnabled, ev.AdminPasswordHash)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// First returns the singleton event.  ErrNotFound means setup has not run.
func (r *EventRepo) First(ctx context.Context) (model.Event, error) {
	var ev model.Event
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,title,address,event_time,rsvp_enabled,admin_password_hash,created_at,updated_at FROM events ORDER BY id LIMIT 1").
		Scan(&ev.ID, &ev.Title, &ev.Address, &ev.EventTime, &ev.RSVPEnabled, &ev.AdminPasswordHash, &ev.CreatedAt, &ev.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.Event{}, ErrNotFound
	}
	return ev, err
}

// GetByID fetches an event by id.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (model.Event, error) {
	var ev model.Event
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,title,address,event_time,rsvp_enabled,admin_password_hash,created_at,updated_at FROM events WHERE id=? LIMIT 1",
		id).Scan(&ev.ID, &ev.Title, &ev.Address, &ev.EventTime, &ev.RSVPEnabled, &ev.AdminPasswordHash, &ev.CreatedAt, &ev.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.Event{}, ErrNotFound
	}
	return ev, err
}
