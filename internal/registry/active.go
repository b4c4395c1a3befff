package registry

import "sync"

// ActiveEvent holds the identifier of the deployment's single event.  It
// is resolved once, either from the database at startup or by the setup
// endpoint on first run, and is immutable afterwards: Set keeps the first
// value it is given and ignores the rest, which is what makes a second
// setup attempt a harmless no-op.
type ActiveEvent struct {
    mu sync.RWMutex
    id uint64
}

// Set records the active event ID.  Only the first call has any effect.
// It reports whether the value was taken.
func (a *ActiveEvent) Set(id uint64) bool {
    a.mu.Lock()
    defer a.mu.Unlock()
    if a.id != 0 || id == 0 {
        return false
    }
    a.id = id
    return true
}

// ID returns the active event ID, or zero when setup has not run yet.
func (a *ActiveEvent) ID() uint64 {
    a.mu.RLock()
    defer a.mu.RUnlock()
    return a.id
}

// Configured reports whether an active event has been recorded.
func (a *ActiveEvent) Configured() bool { return a.ID() != 0 }
