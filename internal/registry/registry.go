// Package registry implements the invite lifecycle state machine.  Every
// transition an invite can make (batch creation, redemption, reservation,
// assignment, revocation) goes through this type; handlers stay thin and
// the guard rules live in exactly one place.
package registry

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/eventpass/invite-registry/internal/model"
    "github.com/eventpass/invite-registry/internal/repository"
    "github.com/eventpass/invite-registry/internal/utils"
)

// Batch creation guards.  The upper bound keeps a single admin request
// from generating an unbounded pool.
const (
    MinBatchCount = 1
    MaxBatchCount = 1000
)

// ErrInvalidBatch is returned when the batch parameters violate the
// creation guards (count out of range, reserve count exceeding count, or
// a non-positive starting table number).
var ErrInvalidBatch = errors.New("invalid batch parameters")

// Registry orchestrates the invite repositories.  Admin transitions run
// in a transaction that locks the target row so the guard check and the
// write observe the same state; redemption instead relies on the
// repository's conditional UPDATE and needs no lock.
type Registry struct {
    events  *repository.EventRepo
    invites *repository.InviteRepo
}

// New returns a Registry over the given repositories.
func New(events *repository.EventRepo, invites *repository.InviteRepo) *Registry {
    if events == nil || invites == nil {
        panic("nil repository passed to registry.New")
    }
    return &Registry{events: events, invites: invites}
}

// CreateBatch generates count invites with sequential table numbers
// starting at startTable.  The first reserveCount of them are created in
// the reserved state under the placeholder name with used_at set; the
// rest are available.  Tokens come from utils.NewInviteToken and are not
// collision-checked here: the unique constraint rejects a duplicate and
// the whole batch fails with ErrDuplicateToken.
func (g *Registry) CreateBatch(ctx context.Context, eventID uint64, count, startTable, reserveCount int) error {
    if count < MinBatchCount || count > MaxBatchCount || startTable < 1 ||
        reserveCount < 0 || reserveCount > count {
        return ErrInvalidBatch
    }
    now := time.Now().UTC()
    invites := make([]model.Invite, 0, count)
    for i := 0; i < count; i++ {
        token, err := utils.NewInviteToken()
        if err != nil {
            return err
        }
        inv := model.Invite{
            EventID:     eventID,
            Token:       token,
            TableNumber: uint32(startTable + i),
        }
        if i < reserveCount {
            name := model.ReservedPlaceholderName
            usedAt := now
            inv.IsUsed = true
            inv.IsReserved = true
            inv.InviteeName = &name
            inv.UsedAt = &usedAt
        }
        invites = append(invites, inv)
    }
    tx, err := g.invites.DB().BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    if err := g.invites.CreateBatchTx(ctx, tx, invites); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// Redeem claims an available invite by token on behalf of a guest.  It is
// strictly one-shot: a token that is already claimed or reserved (or that
// loses a concurrent race) yields repository.ErrAlreadyUsed and no state
// change.
func (g *Registry) Redeem(ctx context.Context, token, name, phone string, plusOne bool) (model.Invite, error) {
    return g.invites.RedeemByToken(ctx, token, name, phone, plusOne, time.Now().UTC())
}

// ReserveTable puts an invite into the reserved state under the
// placeholder name.  A genuinely claimed invite (real guest data) is
// rejected with repository.ErrAlreadyUsed; re-reserving an already
// reserved slot is permitted and simply overwrites it.
func (g *Registry) ReserveTable(ctx context.Context, id uint64) (model.Invite, error) {
    return g.adminTransition(ctx, id, func(ctx context.Context, tx *sql.Tx, inv model.Invite) error {
        state, err := inv.State()
        if err != nil {
            return err
        }
        if state == model.StateClaimed {
            return repository.ErrAlreadyUsed
        }
        return g.invites.ReserveTx(ctx, tx, id, time.Now().UTC())
    })
}

// AssignReservedTable fills a reserved invite with real guest details,
// moving it to the claimed state.  Any other starting state yields
// repository.ErrNotReserved.
func (g *Registry) AssignReservedTable(ctx context.Context, id uint64, name, phone string, plusOne bool) (model.Invite, error) {
    return g.adminTransition(ctx, id, func(ctx context.Context, tx *sql.Tx, inv model.Invite) error {
        state, err := inv.State()
        if err != nil {
            return err
        }
        if state != model.StateReserved {
            return repository.ErrNotReserved
        }
        return g.invites.AssignReservedTx(ctx, tx, id, name, phone, plusOne, time.Now().UTC())
    })
}

// Revoke resets an invite to the available state from any state,
// clearing the invitee name, phone, plus-one flag and used_at timestamp.
// There is no audit trail; the prior occupant is gone.
func (g *Registry) Revoke(ctx context.Context, id uint64) (model.Invite, error) {
    return g.adminTransition(ctx, id, func(ctx context.Context, tx *sql.Tx, inv model.Invite) error {
        return g.invites.RevokeTx(ctx, tx, id)
    })
}

// adminTransition runs an admin-side transition inside a transaction:
// lock the row, apply the guarded mutation, commit, then read back the
// fresh invite.  It returns repository sentinels unchanged.
func (g *Registry) adminTransition(ctx context.Context, id uint64, fn func(context.Context, *sql.Tx, model.Invite) error) (model.Invite, error) {
    tx, err := g.invites.DB().BeginTx(ctx, nil)
    if err != nil {
        return model.Invite{}, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    inv, err := g.invites.GetByIDForUpdateTx(ctx, tx, id)
    if err != nil {
        return model.Invite{}, err
    }
    if err := fn(ctx, tx, inv); err != nil {
        return model.Invite{}, err
    }
    if err := tx.Commit(); err != nil {
        return model.Invite{}, err
    }
    committed = true
    return g.invites.GetByID(ctx, id)
}

// GetByToken returns the invite carrying the given public token.
func (g *Registry) GetByToken(ctx context.Context, token string) (model.Invite, error) {
    return g.invites.GetByToken(ctx, token)
}

// GetByID returns the invite with the given id.
func (g *Registry) GetByID(ctx context.Context, id uint64) (model.Invite, error) {
    return g.invites.GetByID(ctx, id)
}

// List returns the full invite pool for the event together with its
// aggregate statistics.
func (g *Registry) List(ctx context.Context, eventID uint64) ([]model.Invite, model.Stats, error) {
    invites, err := g.invites.ListByEvent(ctx, eventID)
    if err != nil {
        return nil, model.Stats{}, err
    }
    stats, err := model.ComputeStats(invites)
    if err != nil {
        return nil, model.Stats{}, err
    }
    return invites, stats, nil
}
