package model

import (
    "errors"
    "time"
)

// ReservedPlaceholderName is stored as the invitee name while a table is
// reserved by an admin but not yet assigned to a real guest.
const ReservedPlaceholderName = "Reserved"

// Invite is a single-use token entitling its bearer to one table at the
// event.  The token is the only external identifier; numeric IDs never
// leave the admin surface.
//
// Fields:
//  ID           – primary key identifier.
//  EventID      – event this invite belongs to.
//  Token        – unique opaque token, immutable once created.
//  TableNumber  – table assigned to this invite.
//  IsUsed       – set once the invite is consumed (claimed or reserved).
//  IsReserved   – set while the table is held under the placeholder name.
//  InviteeName  – guest name; "Reserved" while reserved, nil while available.
//  InviteePhone – guest phone; nil outside the claimed state.
//  HasPlusOne   – whether the guest brings a plus-one.
//  UsedAt       – when the invite was consumed; nil while available.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type Invite struct {
    ID           uint64     // invites.id
    EventID      uint64     // invites.event_id
    Token        string     // invites.token
    TableNumber  uint32     // invites.table_number
    IsUsed       bool       // invites.is_used
    IsReserved   bool       // invites.is_reserved
    InviteeName  *string    // invites.invitee_name (nullable)
    InviteePhone *string    // invites.invitee_phone (nullable)
    HasPlusOne   bool       // invites.has_plus_one
    UsedAt       *time.Time // invites.used_at (nullable)
    CreatedAt    time.Time  // invites.created_at
    UpdatedAt    time.Time  // invites.updated_at
}

// State is the explicit lifecycle state of an invite.  The database keeps
// the is_used/is_reserved flag pair; everything above the persistence
// boundary works with this tagged value instead so the impossible flag
// combination cannot circulate.
type State int

const (
    // StateAvailable means the invite has never been consumed (or was
    // revoked) and its token can still be redeemed.
    StateAvailable State = iota
    // StateReserved means an admin is holding the table under the
    // placeholder name, pending a real guest assignment.
    StateReserved
    // StateClaimed means a real guest redeemed the invite; it carries
    // invitee data and is no longer redeemable.
    StateClaimed
)

// String returns the state name for logs and API payloads.
func (s State) String() string {
    switch s {
    case StateAvailable:
        return "available"
    case StateReserved:
        return "reserved"
    case StateClaimed:
        return "claimed"
    }
    return "unknown"
}

// ErrInvalidFlags reports the flag combination is_reserved=1,is_used=0,
// which no transition ever produces.  Seeing it means the row was edited
// outside the application.
var ErrInvalidFlags = errors.New("invite flags inconsistent: reserved but not used")

// StateOf derives the lifecycle state from the persisted flag pair.
//
//   is_used=0, is_reserved=0 -> Available
//   is_used=1, is_reserved=1 -> Reserved
//   is_used=1, is_reserved=0 -> Claimed
//
// The remaining combination is rejected with ErrInvalidFlags.
func StateOf(isUsed, isReserved bool) (State, error) {
    switch {
    case !isUsed && !isReserved:
        return StateAvailable, nil
    case isUsed && isReserved:
        return StateReserved, nil
    case isUsed && !isReserved:
        return StateClaimed, nil
    }
    return StateAvailable, ErrInvalidFlags
}

// State derives the invite's lifecycle state from its flags.
func (i *Invite) State() (State, error) {
    return StateOf(i.IsUsed, i.IsReserved)
}

// Stats aggregates the state of an invite pool.  The counts always
// satisfy Total == Remaining + Reserved + Used.
type Stats struct {
    Total     int `json:"total"`     // all invites in the pool
    Used      int `json:"used"`      // claimed by a real guest
    Reserved  int `json:"reserved"`  // held under the placeholder name
    Remaining int `json:"remaining"` // still redeemable
}

// ComputeStats derives pool statistics from the state of each invite.
// Rows with inconsistent flags are reported via ErrInvalidFlags rather
// than silently skewing a bucket.
func ComputeStats(invites []Invite) (Stats, error) {
    st := Stats{Total: len(invites)}
    for idx := range invites {
        s, err := invites[idx].State()
        if err != nil {
            return Stats{}, err
        }
        switch s {
        case StateAvailable:
            st.Remaining++
        case StateReserved:
            st.Reserved++
        case StateClaimed:
            st.Used++
        }
    }
    return st, nil
}
