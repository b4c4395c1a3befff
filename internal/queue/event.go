// Package queue defines message payloads exchanged over the message broker.
package queue

// InviteRedeemedEvent is published when a table is claimed, either by a
// guest redeeming their token or by an admin assigning a reserved table.
// It contains enough information for downstream consumers to log, notify,
// or trigger analytics without querying the primary database.
type InviteRedeemedEvent struct {
    InviteID    uint64 `json:"invite_id"`
    EventID     uint64 `json:"event_id"`
    EventTitle  string `json:"event_title"`
    TableNumber uint32 `json:"table_number"`
    InviteeName string `json:"invitee_name"`
    HasPlusOne  bool   `json:"has_plus_one"`
    // Source distinguishes a guest redemption ("redeem") from an admin
    // assignment of a reserved table ("assign").
    Source     string `json:"source"`
    RedeemedAt string `json:"redeemed_at"`
}
