package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"geosync/internal/coordinator"
	"geosync/internal/registry"
	"geosync/internal/relay"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := log.New(io.Discard)
	coord := coordinator.New(registry.New(), logger)
	gw := relay.NewGateway(coord, 16, logger)
	srv := httptest.NewServer(New(gw, coord, logger))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendEvent(t *testing.T, conn *websocket.Conn, event string, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(relay.Envelope{Event: event, Payload: raw}))
}

func readEvent(t *testing.T, conn *websocket.Conn) relay.Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var env relay.Envelope
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

// TestSessionOverWebsocket drives a whole pairing session over real
// websockets: join, pair, relay, tracker loss, promotion.
func TestSessionOverWebsocket(t *testing.T) {
	req := require.New(t)
	srv := newTestServer(t)

	a := dial(t, srv)
	sendEvent(t, a, "join_room", "room1")
	env := readEvent(t, a)
	req.Equal("role_assigned", env.Event)
	req.Equal(`"tracker"`, string(env.Payload))

	b := dial(t, srv)
	sendEvent(t, b, "join_room", "room1")
	env = readEvent(t, b)
	req.Equal("role_assigned", env.Event)
	req.Equal(`"tracked"`, string(env.Payload))
	req.Equal("participant_joined", readEvent(t, a).Event)

	sendEvent(t, a, "map_update", map[string]any{
		"roomKey":   "room1",
		"center":    map[string]float64{"lat": 1, "lng": 2},
		"zoom":      5,
		"tilt":      0,
		"timestamp": 1000,
	})
	env = readEvent(t, b)
	req.Equal("map_sync", env.Event)

	var vp coordinator.Viewport
	req.NoError(json.Unmarshal(env.Payload, &vp))
	req.Equal(coordinator.LatLng{Lat: 1, Lng: 2}, *vp.Center)
	req.Equal(int64(1000), vp.Timestamp)

	// The tracked occupant can ask for the cached viewport again
	sendEvent(t, b, "request_sync", nil)
	req.Equal("map_sync", readEvent(t, b).Event)

	// When the tracker's connection goes away, the tracked peer takes over
	req.NoError(a.Close())
	env = readEvent(t, b)
	req.Equal("role_assigned", env.Event)
	req.Equal(`"tracker"`, string(env.Payload))
	env = readEvent(t, b)
	req.Equal("user_disconnected", env.Event)
	req.Equal(`"tracker_left_promoted"`, string(env.Payload))
}

func TestThirdJoinerRejected(t *testing.T) {
	req := require.New(t)
	srv := newTestServer(t)

	a := dial(t, srv)
	sendEvent(t, a, "join_room", "room1")
	readEvent(t, a)

	b := dial(t, srv)
	sendEvent(t, b, "join_room", "room1")
	readEvent(t, b)

	c := dial(t, srv)
	sendEvent(t, c, "join_room", "room1")
	req.Equal("room_full", readEvent(t, c).Event)
}

func TestHealthEndpoint(t *testing.T) {
	req := require.New(t)
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusOK, resp.StatusCode)
}

func TestStatsEndpoint(t *testing.T) {
	req := require.New(t)
	srv := newTestServer(t)

	a := dial(t, srv)
	sendEvent(t, a, "join_room", "room1")
	readEvent(t, a)

	resp, err := http.Get(srv.URL + "/stats")
	req.NoError(err)
	defer resp.Body.Close()

	var stats struct {
		Rooms       int `json:"rooms"`
		Waiting     int `json:"waiting"`
		Connections int `json:"connections"`
	}
	req.NoError(json.NewDecoder(resp.Body).Decode(&stats))
	req.Equal(1, stats.Rooms)
	req.Equal(1, stats.Waiting)
	req.Equal(1, stats.Connections)
}

func TestRoomKeyEndpoint(t *testing.T) {
	req := require.New(t)
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/roomkey")
	req.NoError(err)
	defer resp.Body.Close()

	var body map[string]string
	req.NoError(json.NewDecoder(resp.Body).Decode(&body))
	req.NotEmpty(body["roomKey"])
	req.Len(strings.Split(body["roomKey"], "-"), 3)
}
