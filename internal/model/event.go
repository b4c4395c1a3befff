package model

import "time"

// Event is the single event this deployment manages.  Exactly one row
// exists after setup; it is created once and never edited.  The admin
// password hash stored here gates every admin operation.
//
// Fields:
//  ID                – primary key identifier.
//  Title             – display title of the event.
//  Address           – venue address printed on passes.
//  EventTime         – when the event takes place.
//  RSVPEnabled       – whether the public redemption form is open.
//  AdminPasswordHash – bcrypt hash of the shared admin password.
//  CreatedAt         – creation timestamp.
//  UpdatedAt         – last update timestamp.
type Event struct {
    ID                uint64    // events.id
    Title             string    // events.title
    Address           string    // events.address
    EventTime         time.Time // events.event_time
    RSVPEnabled       bool      // events.rsvp_enabled
    AdminPasswordHash string    // events.admin_password_hash
    CreatedAt         time.Time // events.created_at
    UpdatedAt         time.Time // events.updated_at
}
