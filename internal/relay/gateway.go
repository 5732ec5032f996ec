package relay

import (
	"encoding/json"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"geosync/internal/coordinator"
)

// Gateway is the transport-facing boundary. It owns the table of live
// clients, turns inbound envelopes into coordinator calls, and delivers
// the coordinator's effects back out, each to its single named target.
// Delivery to a connection that is gone is a no-op, so one client's failure
// never disrupts another room.
type Gateway struct {
	coord  *coordinator.Coordinator
	logger *log.Logger

	sendBuffer int

	mu      sync.RWMutex
	clients map[string]*Client
}

// NewGateway creates a Gateway dispatching into the given coordinator.
// sendBuffer is the per-connection outbound queue length; a client that
// cannot drain it is dropped rather than allowed to block delivery.
func NewGateway(coord *coordinator.Coordinator, sendBuffer int, logger *log.Logger) *Gateway {
	return &Gateway{
		coord:      coord,
		logger:     logger,
		sendBuffer: sendBuffer,
		clients:    make(map[string]*Client),
	}
}

// Accept wraps an upgraded websocket connection in a Client, issues its
// connection id, and starts its read and write pumps.
func (g *Gateway) Accept(conn *websocket.Conn) *Client {
	client := &Client{
		ID:      uuid.NewString(),
		gateway: g,
		conn:    conn,
		send:    make(chan Envelope, g.sendBuffer),
		done:    make(chan struct{}),
	}

	g.mu.Lock()
	g.clients[client.ID] = client
	g.mu.Unlock()

	g.logger.Info("client connected", "conn", client.ID, "remote", conn.RemoteAddr())

	go client.writePump()
	go client.readPump()
	return client
}

// drop removes the client and runs the coordinator's disconnect transition.
// The transition runs once: a second drop for the same client finds it
// already removed and returns.
func (g *Gateway) drop(c *Client) {
	g.mu.Lock()
	if _, ok := g.clients[c.ID]; !ok {
		g.mu.Unlock()
		return
	}
	delete(g.clients, c.ID)
	g.mu.Unlock()

	c.close()
	g.logger.Info("client disconnected", "conn", c.ID)
	g.deliver(g.coord.Disconnect(c.ID))
}

// dispatch maps one inbound envelope onto a coordinator call and delivers
// the resulting effects. Unknown events are logged and dropped.
func (g *Gateway) dispatch(c *Client, env Envelope) {
	var effects []coordinator.Effect

	switch env.Event {
	case eventJoinRoom:
		var roomKey string
		if err := json.Unmarshal(env.Payload, &roomKey); err != nil {
			effects = []coordinator.Effect{{Target: c.ID, Event: coordinator.EventInvalidRoom, Payload: "room key must be a string"}}
			break
		}
		effects = g.coord.JoinRoom(c.ID, roomKey)
	case eventMapUpdate:
		var upd coordinator.PositionUpdate
		if err := json.Unmarshal(env.Payload, &upd); err != nil {
			effects = []coordinator.Effect{{Target: c.ID, Event: coordinator.EventInvalidUpdate, Payload: "malformed map_update payload"}}
			break
		}
		effects = g.coord.UpdatePosition(c.ID, upd)
	case eventRequestSync:
		effects = g.coord.RequestSync(c.ID)
	default:
		g.logger.Warn("unknown event", "event", env.Event, "conn", c.ID)
		return
	}

	g.deliver(effects)
}

// deliver sends each effect to its target connection. A missing target means
// the connection raced away; the effect is dropped. A target whose send
// buffer is full is disconnected to protect the rest of the process.
func (g *Gateway) deliver(effects []coordinator.Effect) {
	for _, effect := range effects {
		g.mu.RLock()
		target, ok := g.clients[effect.Target]
		g.mu.RUnlock()
		if !ok {
			continue
		}

		env := Envelope{Event: string(effect.Event)}
		if effect.Payload != nil {
			payload, err := json.Marshal(effect.Payload)
			if err != nil {
				g.logger.Error("marshal payload", "event", effect.Event, "err", err)
				continue
			}
			env.Payload = payload
		}

		if !target.enqueue(env) {
			g.logger.Warn("send buffer full, dropping client", "conn", target.ID)
			target.close()
		}
	}
}

// Clients reports the number of live connections.
func (g *Gateway) Clients() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.clients)
}
