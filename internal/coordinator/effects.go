package coordinator

// Event names every message the coordinator can address to a connection.
// The values are the wire-level event names.
type Event string

const (
	EventRoleAssigned      Event = "role_assigned"
	EventRoomFull          Event = "room_full"
	EventParticipantJoined Event = "participant_joined"
	EventMapSync           Event = "map_sync"
	EventUserDisconnected  Event = "user_disconnected"
	EventInvalidRoom       Event = "invalid_room"
	EventInvalidUpdate     Event = "invalid_update"
)

// Reasons carried by user_disconnected.
const (
	ReasonTrackerLeftPromoted = "tracker_left_promoted"
	ReasonTrackedLeft         = "tracked_left"
)

// Effect is one addressed outbound message produced by a coordinator
// operation. The coordinator never touches the transport; it returns effects
// and the relay gateway delivers each one to its single target.
type Effect struct {
	Target  string
	Event   Event
	Payload any
}

// effectList collects effects in emission order.
type effectList []Effect

func (e *effectList) add(target string, event Event, payload any) {
	*e = append(*e, Effect{Target: target, Event: event, Payload: payload})
}
