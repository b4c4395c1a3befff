package registry

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/eventpass/invite-registry/internal/model"
	"github.com/eventpass/invite-registry/internal/repository"
	"github.com/eventpass/invite-registry/internal/utils"
)

// newTestRegistry wires a Registry over a sqlmock database.
func newTestRegistry(t *testing.T) (*Registry, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	reg := New(repository.NewEventRepo(db), repository.NewInviteRepo(db))
	teardown := func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		_ = db.Close()
	}
	return reg, mock, teardown
}

var inviteCols = []string{
	"id", "event_id", "token", "table_number", "is_used", "is_reserved",
	"invitee_name", "invitee_phone", "has_plus_one", "used_at", "created_at", "updated_at",
}

// inviteRow builds a single-row result set for the given invite.
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

func strPtr(s string) *string { return &s }

func claimedInvite() model.Invite {
	now := time.Now().UTC()
	return model.Invite{
		ID: 7, EventID: 1, Token: "tok7", TableNumber: 7,
		IsUsed: true, InviteeName: strPtr("Dana Guest"), InviteePhone: strPtr("555-0100"),
		UsedAt: &now, CreatedAt: now, UpdatedAt: now,
	}
}

func reservedInvite() model.Invite {
	now := time.Now().UTC()
	return model.Invite{
		ID: 7, EventID: 1, Token: "tok7", TableNumber: 7,
		IsUsed: true, IsReserved: true, InviteeName: strPtr(model.ReservedPlaceholderName),
		UsedAt: &now, CreatedAt: now, UpdatedAt: now,
	}
}

func availableInvite() model.Invite {
	now := time.Now().UTC()
	return model.Invite{
		ID: 7, EventID: 1, Token: "tok7", TableNumber: 7,
		CreatedAt: now, UpdatedAt: now,
	}
}

func TestRedeemWinsWhenUnused(t *testing.T) {
	reg, mock, teardown := newTestRegistry(t)
	defer teardown()

	mock.ExpectExec("UPDATE invites").
		WithArgs("Dana Guest", "555-0100", true, sqlmock.AnyArg(), "tok7").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT .* FROM invites WHERE token=").
		WithArgs("tok7").
		WillReturnRows(inviteRow(claimedInvite()))

	inv, err := reg.Redeem(context.Background(), "tok7", "Dana Guest", "555-0100", true)
	if err != nil {
		t.Fatalf("Redeem: %v", err)
	}
	if !inv.IsUsed || inv.IsReserved {
		t.Errorf("invite flags after redeem: used=%v reserved=%v", inv.IsUsed, inv.IsReserved)
	}
	if inv.InviteeName == nil || *inv.InviteeName != "Dana Guest" {
		t.Errorf("invitee name = %v, want Dana Guest", inv.InviteeName)
	}
}

// A concurrent loser sees zero affected rows even though the token exists;
// that must surface as ErrAlreadyUsed, never as a second success.
func TestRedeemLosesRace(t *testing.T) {
	reg, mock, teardown := newTestRegistry(t)
	defer teardown()

	mock.ExpectExec("UPDATE invites").
		WithArgs("Late Guest", "555-0199", false, sqlmock.AnyArg(), "tok7").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT .* FROM invites WHERE token=").
		WithArgs("tok7").
		WillReturnRows(inviteRow(claimedInvite()))

	_, err := reg.Redeem(context.Background(), "tok7", "Late Guest", "555-0199", false)
	if !errors.Is(err, repository.ErrAlreadyUsed) {
		t.Fatalf("Redeem err = %v, want ErrAlreadyUsed", err)
	}
}

func TestRedeemUnknownToken(t *testing.T) {
	reg, mock, teardown := newTestRegistry(t)
	defer teardown()

	mock.ExpectExec("UPDATE invites").
		WithArgs("Ghost", "555-0000", false, sqlmock.AnyArg(), "nope").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT .* FROM invites WHERE token=").
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)

	_, err := reg.Redeem(context.Background(), "nope", "Ghost", "555-0000", false)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("Redeem err = %v, want ErrNotFound", err)
	}
}

// A reserved invite is still redeemable-looking to the guest page but the
// conditional UPDATE rejects it: is_used is already 1.
func TestRedeemReservedInviteRefused(t *testing.T) {
	reg, mock, teardown := newTestRegistry(t)
	defer teardown()

	mock.ExpectExec("UPDATE invites").
		WithArgs("Walk In", "555-0111", false, sqlmock.AnyArg(), "tok7").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT .* FROM invites WHERE token=").
		WithArgs("tok7").
		WillReturnRows(inviteRow(reservedInvite()))

	_, err := reg.Redeem(context.Background(), "tok7", "Walk In", "555-0111", false)
	if !errors.Is(err, repository.ErrAlreadyUsed) {
		t.Fatalf("Redeem err = %v, want ErrAlreadyUsed", err)
	}
}

func TestCreateBatchGuards(t *testing.T) {
	reg, _, teardown := newTestRegistry(t)
	defer teardown()

	cases := []struct {
		name                           string
		count, startTable, reserveCnt int
	}{
		{"count too small", 0, 1, 0},
		{"count too large", MaxBatchCount + 1, 1, 0},
		{"start table zero", 10, 0, 0},
		{"negative reserve", 10, 1, -1},
		{"reserve exceeds count", 10, 1, 11},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := reg.CreateBatch(context.Background(), 1, tc.count, tc.startTable, tc.reserveCnt)
			if !errors.Is(err, ErrInvalidBatch) {
				t.Errorf("CreateBatch(%d,%d,%d) err = %v, want ErrInvalidBatch",
					tc.count, tc.startTable, tc.reserveCnt, err)
			}
		})
	}
}

func TestCreateBatchInsertsAndCommits(t *testing.T) {
	reg, mock, teardown := newTestRegistry(t)
	defer teardown()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO invites").
		WillReturnResult(sqlmock.NewResult(1, 3))
	mock.ExpectCommit()

	if err := reg.CreateBatch(context.Background(), 1, 3, 10, 1); err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}
}

// tokenArg matches a well-formed invite token and rejects any token it
// has already seen, so one matcher instance asserts batch-level
// distinctness as a side effect.
type tokenArg struct{ seen map[string]struct{} }

func newTokenArg() *tokenArg { return &tokenArg{seen: map[string]struct{}{}} }

func (a *tokenArg) Match(v driver.Value) bool {
	s, ok := v.(string)
	if !ok || len(s) != utils.InviteTokenLength {
		return false
	}
	if _, dup := a.seen[s]; dup {
		return false
	}
	a.seen[s] = struct{}{}
	return true
}

// timeArg matches any non-nil timestamp.
type timeArg struct{}

func (timeArg) Match(v driver.Value) bool {
	_, ok := v.(time.Time)
	return ok
}

// A batch of 10 starting at table 1 with 2 reserved must insert tables
// 1 and 2 reserved under the placeholder name with used_at set, and
// tables 3 through 10 available with every invitee column empty.
func TestCreateBatchReservedFirstSequentialTables(t *testing.T) {
	reg, mock, teardown := newTestRegistry(t)
	defer teardown()

	const count, startTable, reserveCount = 10, 1, 2
	tokens := newTokenArg()
	args := make([]driver.Value, 0, count*7)
	for i := 0; i < count; i++ {
		table := startTable + i
		if i < reserveCount {
			args = append(args, 1, tokens, table, true, true, model.ReservedPlaceholderName, timeArg{})
		} else {
			args = append(args, 1, tokens, table, false, false, nil, nil)
		}
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO invites").
		WithArgs(args...).
		WillReturnResult(sqlmock.NewResult(1, count))
	mock.ExpectCommit()

	if err := reg.CreateBatch(context.Background(), 1, count, startTable, reserveCount); err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}
	if got := len(tokens.seen); got != count {
		t.Errorf("distinct tokens inserted = %d, want %d", got, count)
	}
}

func TestCreateBatchDuplicateTokenRollsBack(t *testing.T) {
	reg, mock, teardown := newTestRegistry(t)
	defer teardown()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO invites").
		WillReturnError(errors.New("Error 1062: Duplicate entry 'tok' for key 'uq_invites_token'"))
	mock.ExpectRollback()

	err := reg.CreateBatch(context.Background(), 1, 2, 1, 0)
	if !errors.Is(err, repository.ErrDuplicateToken) {
		t.Fatalf("CreateBatch err = %v, want ErrDuplicateToken", err)
	}
}

func TestReserveTableRejectsClaimed(t *testing.T) {
	reg, mock, teardown := newTestRegistry(t)
	defer teardown()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM invites WHERE id=.* FOR UPDATE").
		WithArgs(uint64(7)).
		WillReturnRows(inviteRow(claimedInvite()))
	mock.ExpectRollback()

	_, err := reg.ReserveTable(context.Background(), 7)
	if !errors.Is(err, repository.ErrAlreadyUsed) {
		t.Fatalf("ReserveTable err = %v, want ErrAlreadyUsed", err)
	}
}

func TestReserveTableAvailable(t *testing.T) {
	reg, mock, teardown := newTestRegistry(t)
	defer teardown()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM invites WHERE id=.* FOR UPDATE").
		WithArgs(uint64(7)).
		WillReturnRows(inviteRow(availableInvite()))
	mock.ExpectExec("UPDATE invites").
		WithArgs(model.ReservedPlaceholderName, sqlmock.AnyArg(), uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT .* FROM invites WHERE id=").
		WithArgs(uint64(7)).
		WillReturnRows(inviteRow(reservedInvite()))

	inv, err := reg.ReserveTable(context.Background(), 7)
	if err != nil {
		t.Fatalf("ReserveTable: %v", err)
	}
	if state, _ := inv.State(); state != model.StateReserved {
		t.Errorf("state after reserve = %v, want reserved", state)
	}
}

func TestAssignReservedTable(t *testing.T) {
	reg, mock, teardown := newTestRegistry(t)
	defer teardown()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM invites WHERE id=.* FOR UPDATE").
		WithArgs(uint64(7)).
		WillReturnRows(inviteRow(reservedInvite()))
	mock.ExpectExec("UPDATE invites").
		WithArgs("Dana Guest", "555-0100", true, sqlmock.AnyArg(), uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT .* FROM invites WHERE id=").
		WithArgs(uint64(7)).
		WillReturnRows(inviteRow(claimedInvite()))

	inv, err := reg.AssignReservedTable(context.Background(), 7, "Dana Guest", "555-0100", true)
	if err != nil {
		t.Fatalf("AssignReservedTable: %v", err)
	}
	if state, _ := inv.State(); state != model.StateClaimed {
		t.Errorf("state after assign = %v, want claimed", state)
	}
}

func TestAssignRejectsUnreserved(t *testing.T) {
	reg, mock, teardown := newTestRegistry(t)
	defer teardown()

	for name, inv := range map[string]model.Invite{
		"available": availableInvite(),
		"claimed":   claimedInvite(),
	} {
		t.Run(name, func(t *testing.T) {
			mock.ExpectBegin()
			mock.ExpectQuery("SELECT .* FROM invites WHERE id=.* FOR UPDATE").
				WithArgs(uint64(7)).
				WillReturnRows(inviteRow(inv))
			mock.ExpectRollback()

			_, err := reg.AssignReservedTable(context.Background(), 7, "X", "555", false)
			if !errors.Is(err, repository.ErrNotReserved) {
				t.Fatalf("AssignReservedTable err = %v, want ErrNotReserved", err)
			}
		})
	}
}

func TestRevokeResetsInvite(t *testing.T) {
	reg, mock, teardown := newTestRegistry(t)
	defer teardown()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM invites WHERE id=.* FOR UPDATE").
		WithArgs(uint64(7)).
		WillReturnRows(inviteRow(claimedInvite()))
	mock.ExpectExec("UPDATE invites").
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT .* FROM invites WHERE id=").
		WithArgs(uint64(7)).
		WillReturnRows(inviteRow(availableInvite()))

	inv, err := reg.Revoke(context.Background(), 7)
	if err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if state, _ := inv.State(); state != model.StateAvailable {
		t.Errorf("state after revoke = %v, want available", state)
	}
	if inv.InviteeName != nil || inv.UsedAt != nil {
		t.Errorf("invitee data survived revoke: name=%v usedAt=%v", inv.InviteeName, inv.UsedAt)
	}
}

func TestRevokeUnknownID(t *testing.T) {
	reg, mock, teardown := newTestRegistry(t)
	defer teardown()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM invites WHERE id=.* FOR UPDATE").
		WithArgs(uint64(99)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := reg.Revoke(context.Background(), 99)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("Revoke err = %v, want ErrNotFound", err)
	}
}

func TestListComputesStats(t *testing.T) {
	reg, mock, teardown := newTestRegistry(t)
	defer teardown()

	rows := sqlmock.NewRows(inviteCols)
	now := time.Now().UTC()
	rows.AddRow(1, 1, "a", 1, false, false, nil, nil, false, nil, now, now)
	rows.AddRow(2, 1, "b", 2, true, true, model.ReservedPlaceholderName, nil, false, now, now, now)
	rows.AddRow(3, 1, "c", 3, true, false, "Guest", "555", true, now, now, now)
	mock.ExpectQuery("SELECT .* FROM invites WHERE event_id=").
		WithArgs(uint64(1)).
		WillReturnRows(rows)

	invites, stats, err := reg.List(context.Background(), 1)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(invites) != 3 {
		t.Fatalf("len(invites) = %d, want 3", len(invites))
	}
	want := model.Stats{Total: 3, Used: 1, Reserved: 1, Remaining: 1}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
}
