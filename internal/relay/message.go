package relay

import "encoding/json"

// Inbound event names accepted from clients.
const (
	eventJoinRoom    = "join_room"
	eventMapUpdate   = "map_update"
	eventRequestSync = "request_sync"
)

// Envelope is the wire format for every message in both directions: an event
// name plus an event-specific JSON payload. join_room carries a bare string,
// map_update an object; outbound payloads mirror the coordinator's effects.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}
