package registry

import "sync"

// Role is the position a connection holds inside a room.
type Role string

const (
	// RoleTracker is the occupant whose viewport is authoritative.
	RoleTracker Role = "tracker"

	// RoleTracked is the occupant mirroring the tracker's viewport.
	RoleTracked Role = "tracked"
)

// Association records which room a connection belongs to and as what.
type Association struct {
	RoomKey string
	Role    Role
}

// Registry is the lookup table from connection id to its room association.
// A connection holds at most one association at a time; Associate replaces
// any previous entry.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Association
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		entries: make(map[string]Association),
	}
}

// Associate records the (roomKey, role) pair for a connection.
func (r *Registry) Associate(connID string, assoc Association) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[connID] = assoc
}

// Dissociate removes the connection's association, if any.
func (r *Registry) Dissociate(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, connID)
}

// Lookup returns the connection's current association.
func (r *Registry) Lookup(connID string) (Association, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	assoc, ok := r.entries[connID]
	return assoc, ok
}
