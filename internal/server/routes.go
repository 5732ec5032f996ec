package server

import (
	"encoding/json"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"geosync/internal/coordinator"
	"geosync/internal/relay"
)

// Configure the websocket upgrader. The origin policy is deliberately
// permissive: the deployment fronts the server with its own origin rules,
// and the coordinator's contract does not depend on where clients come from.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  4 * 1024,
	WriteBufferSize: 4 * 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// New builds the HTTP surface: the /ws upgrade endpoint plus the small
// operational endpoints around it.
func New(gw *relay.Gateway, coord *coordinator.Coordinator, logger *log.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", serveWs(gw, logger))
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/stats", statsHandler(gw, coord))
	mux.HandleFunc("/roomkey", roomKeyHandler)
	return mux
}

// serveWs upgrades the HTTP connection to a websocket and hands it to the
// relay gateway.
func serveWs(gw *relay.Gateway, logger *log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("failed to upgrade connection", "err", err)
			return
		}
		gw.Accept(conn)
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("GeoSync server is healthy."))
}

// statsHandler reports room and connection counts.
func statsHandler(gw *relay.Gateway, coord *coordinator.Coordinator) http.HandlerFunc {
	type stats struct {
		coordinator.Stats
		Connections int `json:"connections"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(stats{
			Stats:       coord.Snapshot(),
			Connections: gw.Clients(),
		})
	}
}

// roomKeyHandler suggests a memorable key for a new room. Keys are only
// suggestions; any trimmed non-empty string joins a room.
func roomKeyHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"roomKey": suggestRoomKey()})
}
