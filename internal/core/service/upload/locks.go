package upload

import (
	"sync"

	"github.com/google/uuid"
)

// Arena is a table of per-session finalize locks. Holding a session's lock is
// what makes finalize, cancel and garbage collection mutually exclusive: a
// finalize in progress must run to a terminal outcome before any other actor
// may cancel or expire the session. Acquisition never blocks; the loser of a
// race observes the lock as held and backs off.
type Arena struct {
	mu   sync.Mutex
	held map[uuid.UUID]bool
}

// NewArena creates an empty lock arena
func NewArena() *Arena {
	return &Arena{held: make(map[uuid.UUID]bool)}
}

// TryAcquire attempts to take the session's lock without blocking. It returns
// false if another actor currently holds it.
func (a *Arena) TryAcquire(id uuid.UUID) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.held[id] {
		return false
	}
	a.held[id] = true
	return true
}

// Release frees the session's lock
func (a *Arena) Release(id uuid.UUID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.held, id)
}

// Held reports whether the session's lock is currently taken
func (a *Arena) Held(id uuid.UUID) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.held[id]
}
