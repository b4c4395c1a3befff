package repository

import (
    "context"
    "database/sql"
    "strings"
    "time"

    "github.com/eventpass/invite-registry/internal/model"
)

// InviteRepo provides CRUD operations for invites.  Invites are created in
// batches, looked up by token from the public surface and by id from the
// admin surface.  The redemption path is a single conditional UPDATE so
// that two racing requests on the same token resolve to exactly one
// winner at the database, not in application code.
type InviteRepo struct{ db *sql.DB }

// NewInviteRepo returns a new InviteRepo bound to the given database.
func NewInviteRepo(db *sql.DB) *InviteRepo { return &InviteRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions that
// span multiple repository calls.
func (r *InviteRepo) DB() *sql.DB { return r.db }

const inviteColumns = "id,event_id,token,table_number,is_used,is_reserved,invitee_name,invitee_phone,has_plus_one,used_at,created_at,updated_at"

// scanInvite reads one invites row into a model.Invite, converting the
// nullable columns to pointers.
func scanInvite(row interface{ Scan(...any) error }) (model.Invite, error) {
    var inv model.Invite
    var name, phone sql.NullString
    var usedAt sql.NullTime
    err := row.Scan(&inv.ID, &inv.EventID, &inv.Token, &inv.TableNumber,
        &inv.IsUsed, &inv.IsReserved, &name, &phone, &inv.HasPlusOne,
        &usedAt, &inv.CreatedAt, &inv.UpdatedAt)
    if err != nil {
        return model.Invite{}, err
    }
    if name.Valid {
        v := name.String
        inv.InviteeName = &v
    }
    if phone.Valid {
        v := phone.String
        inv.InviteePhone = &v
    }
    if usedAt.Valid {
        t := usedAt.Time
        inv.UsedAt = &t
    }
    return inv, nil
}

// CreateBatchTx inserts the given invites in a single statement within the
// provided transaction.  A violation of the unique token constraint is
// surfaced as ErrDuplicateToken; the batch is not retried.  Passing an
// empty slice has no effect and returns nil.
func (r *InviteRepo) CreateBatchTx(ctx context.Context, tx *sql.Tx, invites []model.Invite) error {
    if len(invites) == 0 {
        return nil
    }
    query := `INSERT INTO invites (event_id, token, table_number, is_used, is_reserved, invitee_name, used_at) VALUES `
    args := make([]any, 0, len(invites)*7)
    for i := range invites {
        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?, ?, ?, ?, ?)"
        inv := &invites[i]
        var name any
        if inv.InviteeName != nil {
            name = *inv.InviteeName
        }
        var usedAt any
        if inv.UsedAt != nil {
            usedAt = inv.UsedAt.UTC()
        }
        args = append(args, inv.EventID, inv.Token, inv.TableNumber, inv.IsUsed, inv.IsReserved, name, usedAt)
    }
    if _, err := tx.ExecContext(ctx, query, args...); err != nil {
        if strings.Contains(strings.ToLower(err.Error()), "1062") {
            return ErrDuplicateToken
        }
        return err
    }
    return nil
}

// GetByToken fetches an invite by its public token.
func (r *InviteRepo) GetByToken(ctx context.Context, token string) (model.Invite, error) {
    row := r.db.QueryRowContext(ctx,
        "SELECT "+inviteColumns+" FROM invites WHERE token=? LIMIT 1", token)
    inv, err := scanInvite(row)
    if err == sql.ErrNoRows {
        return model.Invite{}, ErrNotFound
    }
    return inv, err
}

// GetByID fetches an invite by id.
func (r *InviteRepo) GetByID(ctx context.Context, id uint64) (model.Invite, error) {
    row := r.db.QueryRowContext(ctx,
        "SELECT "+inviteColumns+" FROM invites WHERE id=? LIMIT 1", id)
    inv, err := scanInvite(row)
    if err == sql.ErrNoRows {
        return model.Invite{}, ErrNotFound
    }
    return inv, err
}

// GetByIDForUpdateTx fetches an invite by id and locks the row for the
// remainder of the transaction.  Used by the admin transitions to make
// their guard check and subsequent write consistent.
func (r *InviteRepo) GetByIDForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Invite, error) {
    row := tx.QueryRowContext(ctx,
        "SELECT "+inviteColumns+" FROM invites WHERE id=? LIMIT 1 FOR UPDATE", id)
    inv, err := scanInvite(row)
    if err == sql.ErrNoRows {
        return model.Invite{}, ErrNotFound
    }
    return inv, err
}

// ListByEvent returns all invites for the event ordered by table number.
func (r *InviteRepo) ListByEvent(ctx context.Context, eventID uint64) ([]model.Invite, error) {
    rows, err := r.db.QueryContext(ctx,
        "SELECT "+inviteColumns+" FROM invites WHERE event_id=? ORDER BY table_number", eventID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    invites := make([]model.Invite, 0)
    for rows.Next() {
        inv, err := scanInvite(rows)
        if err != nil {
            return nil, err
        }
        invites = append(invites, inv)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return invites, nil
}

// RedeemByToken performs the one-shot redemption as a single conditional
// write.  The WHERE clause admits only an unused invite, so of N
// concurrent attempts exactly one statement reports an affected row; the
// others observe zero and receive ErrAlreadyUsed (or ErrNotFound when the
// token never existed).  There is no read-then-write window to lose.
func (r *InviteRepo) RedeemByToken(ctx context.Context, token, name, phone string, plusOne bool, now time.Time) (model.Invite, error) {
    res, err := r.db.ExecContext(ctx,
        `UPDATE invites
            SET is_used=1, is_reserved=0, invitee_name=?, invitee_phone=?, has_plus_one=?, used_at=?
          WHERE token=? AND is_used=0`,
        name, phone, plusOne, now.UTC(), token)
    if err != nil {
        return model.Invite{}, err
    }
    affected, err := res.RowsAffected()
    if err != nil {
        return model.Invite{}, err
    }
    if affected == 0 {
        // Lost the race or the token was consumed earlier; disambiguate
        // from a token that never existed.
        if _, err := r.GetByToken(ctx, token); err != nil {
            return model.Invite{}, err
        }
        return model.Invite{}, ErrAlreadyUsed
    }
    return r.GetByToken(ctx, token)
}

// ReserveTx marks the invite as reserved under the placeholder name,
// clearing any guest details.  The caller holds the row lock and has
// already verified the invite is not claimed.
func (r *InviteRepo) ReserveTx(ctx context.Context, tx *sql.Tx, id uint64, now time.Time) error {
    _, err := tx.ExecContext(ctx,
        `UPDATE invites
            SET is_used=1, is_reserved=1, invitee_name=?, invitee_phone=NULL, has_plus_one=0, used_at=?
          WHERE id=?`,
        model.ReservedPlaceholderName, now.UTC(), id)
    return err
}

// AssignReservedTx converts a reserved invite into a claimed one with the
// real guest details.  The caller holds the row lock and has already
// verified the invite is reserved.
func (r *InviteRepo) AssignReservedTx(ctx context.Context, tx *sql.Tx, id uint64, name, phone string, plusOne bool, now time.Time) error {
    _, err := tx.ExecContext(ctx,
        `UPDATE invites
            SET is_used=1, is_reserved=0, invitee_name=?, invitee_phone=?, has_plus_one=?, used_at=?
          WHERE id=?`,
        name, phone, plusOne, now.UTC(), id)
    return err
}

// RevokeTx resets the invite to the available state, clearing every
// invitee field.  Revocation is a hard reset; no history is kept.
func (r *InviteRepo) RevokeTx(ctx context.Context, tx *sql.Tx, id uint64) error {
    _, err := tx.ExecContext(ctx,
        `UPDATE invites
            SET is_used=0, is_reserved=0, invitee_name=NULL, invitee_phone=NULL, has_plus_one=0, used_at=NULL
          WHERE id=?`, id)
    return err
}
