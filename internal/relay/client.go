package relay

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Viewport updates are tiny;
	// 8 KB leaves plenty of headroom.
	maxMessageSize = 8 * 1024
)

// Client wraps a single websocket connection. The gateway issues it an
// opaque id at accept time; the id is the only identity the coordinator
// ever sees.
type Client struct {
	ID string

	gateway *Gateway
	conn    *websocket.Conn

	// send is the buffered channel of outbound envelopes. The write pump is
	// the sole writer to the connection.
	send chan Envelope

	// done is closed exactly once when the client is being torn down. It
	// stops the write pump and makes further enqueues no-ops.
	done      chan struct{}
	closeOnce sync.Once
}

// close makes the client unusable and wakes the write pump. Safe to call
// more than once.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// enqueue hands an envelope to the write pump. It reports false when the
// client is gone or its buffer is full; it never blocks the caller.
func (c *Client) enqueue(env Envelope) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- env:
		return true
	default:
		return false
	}
}

// readPump pumps messages from the websocket connection into the gateway
// dispatcher.
//
// The gateway runs readPump in a per-connection goroutine, which is the only
// reader on the connection. When the pump exits the connection is considered
// disconnected and the gateway runs the coordinator's disconnect transition.
func (c *Client) readPump() {
	defer func() {
		c.gateway.drop(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var env Envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.gateway.logger.Warn("read error", "conn", c.ID, "err", err)
			}
			return
		}
		c.gateway.dispatch(c, env)
	}
}

// writePump pumps envelopes from the send channel to the websocket
// connection, interleaved with keepalive pings. One writePump goroutine per
// connection is the only writer on it.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case env := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(env); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
