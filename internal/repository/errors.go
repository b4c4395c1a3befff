// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrAlreadyUsed signals a guard violation on a state
// transition (the invite was consumed first), while ErrDuplicateToken
// surfaces a collision against the unique token constraint.
package repository

import "errors"

// ErrNotFound is returned when no invite or event matches the given
// identifier or token. Handlers should translate this into an HTTP 404
// response.
var ErrNotFound = errors.New("not found")

// ErrAlreadyUsed is returned when a transition requires an available
// (or reservable) invite but the target has already been claimed, or
// when a concurrent redemption won the race. Handlers should translate
// this into an HTTP 409 response. The operation must not be retried.
var ErrAlreadyUsed = errors.New("invite already used")

// ErrNotReserved is returned when assigning guest details to an invite
// that is not in the reserved state. Handlers should translate this
// into an HTTP 409 response.
var ErrNotReserved = errors.New("invite not reserved")

// ErrDuplicateToken is returned when an insert violates the unique
// constraint on invites.token. Token generation does not retry on
// collision; the failure is surfaced to the caller.
var ErrDuplicateToken = errors.New("duplicate invite token")

// ErrEventExists is returned when setup runs while an event row is
// already present. Setup is a one-shot operation.
var ErrEventExists = errors.New("event already exists")
