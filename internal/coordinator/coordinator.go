package coordinator

import (
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"geosync/internal/registry"
)

// ConnRegistry is the slice of the connection registry the coordinator needs.
// The concrete implementation lives in internal/registry; tests may inject a
// fake.
type ConnRegistry interface {
	Associate(connID string, assoc registry.Association)
	Dissociate(connID string)
	Lookup(connID string) (registry.Association, bool)
}

// Coordinator owns the room table and implements the join / update /
// disconnect state machine. Every operation takes the table lock, performs an
// in-memory O(1) transition, and returns the resulting effects; it never
// performs I/O and never talks to the transport.
type Coordinator struct {
	mu    sync.Mutex
	rooms map[string]*room

	reg      ConnRegistry
	validate *validator.Validate
	logger   *log.Logger
}

// New creates a Coordinator backed by the given connection registry.
func New(reg ConnRegistry, logger *log.Logger) *Coordinator {
	return &Coordinator{
		rooms:    make(map[string]*room),
		reg:      reg,
		validate: validator.New(),
		logger:   logger,
	}
}

// JoinRoom places the connection into the room named by roomKey, creating the
// room on first join. Slot order is strict: the first occupant becomes the
// tracker, the second the tracked. A join to a full room mutates nothing and
// yields room_full to the joiner; an empty or whitespace-only key yields
// invalid_room.
func (c *Coordinator) JoinRoom(connID, roomKey string) []Effect {
	var effects effectList

	roomKey = strings.TrimSpace(roomKey)
	if roomKey == "" {
		effects.add(connID, EventInvalidRoom, "room key must not be empty")
		return effects
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	rm, ok := c.rooms[roomKey]
	if !ok {
		rm = &room{key: roomKey}
		c.rooms[roomKey] = rm
	}

	if rm.full() {
		c.logger.Debug("join rejected, room full", "room", roomKey, "conn", connID)
		effects.add(connID, EventRoomFull, nil)
		return effects
	}

	var role registry.Role
	if rm.trackerSlot == "" {
		rm.trackerSlot = connID
		role = registry.RoleTracker
	} else {
		rm.trackedSlot = connID
		role = registry.RoleTracked
	}
	c.reg.Associate(connID, registry.Association{RoomKey: roomKey, Role: role})

	c.logger.Info("joined room", "room", roomKey, "conn", connID, "role", role)

	effects.add(connID, EventRoleAssigned, string(role))
	if role == registry.RoleTracked {
		effects.add(rm.trackerSlot, EventParticipantJoined, nil)
		// Late-joiner catch-up: replay the last accepted viewport.
		if rm.lastViewport != nil {
			effects.add(connID, EventMapSync, rm.lastViewport)
		}
	}
	return effects
}

// UpdatePosition stores the tracker's viewport as the room's last known
// position and relays it to the tracked occupant. Updates from a connection
// that does not hold the tracker slot are dropped silently: tracker status
// can race with a disconnect in flight, so this is an expected condition,
// not a caller error. A payload with no center is rejected with
// invalid_update.
func (c *Coordinator) UpdatePosition(connID string, upd PositionUpdate) []Effect {
	var effects effectList

	if err := c.validate.Struct(upd); err != nil {
		effects.add(connID, EventInvalidUpdate, "malformed map_update payload")
		return effects
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	rm, ok := c.rooms[strings.TrimSpace(upd.RoomKey)]
	if !ok || rm.trackerSlot != connID {
		return nil
	}

	vp := upd.Viewport
	rm.lastViewport = &vp
	if rm.trackedSlot != "" {
		effects.add(rm.trackedSlot, EventMapSync, &vp)
	}
	return effects
}

// RequestSync replays the room's last known viewport to a tracked occupant
// that asks for it, the same catch-up a late joiner gets. Requests from a
// tracker, or from a connection with no room, are no-ops.
func (c *Coordinator) RequestSync(connID string) []Effect {
	c.mu.Lock()
	defer c.mu.Unlock()

	assoc, ok := c.reg.Lookup(connID)
	if !ok || assoc.Role != registry.RoleTracked {
		return nil
	}

	rm, ok := c.rooms[assoc.RoomKey]
	if !ok || rm.lastViewport == nil {
		return nil
	}

	var effects effectList
	effects.add(connID, EventMapSync, rm.lastViewport)
	return effects
}

// Disconnect runs the disconnect state machine for a connection. It is
// idempotent: the association is cleared on the first call, so a duplicate
// disconnect finds nothing and does nothing.
//
// A departing tracker hands authority to the tracked occupant (promotion) or,
// alone, tears the room down. A departing tracked occupant merely leaves the
// tracker waiting; the room survives.
func (c *Coordinator) Disconnect(connID string) []Effect {
	c.mu.Lock()
	defer c.mu.Unlock()

	assoc, ok := c.reg.Lookup(connID)
	if !ok {
		return nil
	}
	c.reg.Dissociate(connID)

	rm, ok := c.rooms[assoc.RoomKey]
	if !ok {
		return nil
	}

	var effects effectList
	switch connID {
	case rm.trackerSlot:
		if rm.trackedSlot != "" {
			promoted := rm.trackedSlot
			rm.trackerSlot = promoted
			rm.trackedSlot = ""
			c.reg.Associate(promoted, registry.Association{RoomKey: rm.key, Role: registry.RoleTracker})

			c.logger.Info("tracker left, promoting tracked occupant", "room", rm.key, "conn", promoted)
			effects.add(promoted, EventRoleAssigned, string(registry.RoleTracker))
			effects.add(promoted, EventUserDisconnected, ReasonTrackerLeftPromoted)
		} else {
			delete(c.rooms, rm.key)
			c.logger.Info("room deleted", "room", rm.key)
		}
	case rm.trackedSlot:
		rm.trackedSlot = ""
		if rm.trackerSlot != "" {
			effects.add(rm.trackerSlot, EventUserDisconnected, ReasonTrackedLeft)
		}
	default:
		// Stale association pointing at a slot this connection no longer
		// holds. Nothing to do.
	}
	return effects
}

// Stats is a read-only snapshot of the room table for the stats endpoint.
type Stats struct {
	Rooms   int `json:"rooms"`
	Paired  int `json:"paired"`
	Waiting int `json:"waiting"`
}

// Snapshot reports how many rooms exist and how many of them are paired
// versus still waiting for a second participant.
func (c *Coordinator) Snapshot() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	paired := lo.CountBy(lo.Values(c.rooms), (*room).full)
	return Stats{
		Rooms:   len(c.rooms),
		Paired:  paired,
		Waiting: len(c.rooms) - paired,
	}
}
