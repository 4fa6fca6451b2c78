package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"cryptoduel/internal/infra"

	"github.com/gorilla/websocket"
)

// writeWait bounds each broadcast write. Snapshots are pushed from the
// session loop, so a client that stops draining its connection must be
// dropped rather than allowed to stall the game.
const writeWait = 3 * time.Second

// Hub fans state snapshots out to connected presentation clients.
// Clients are read-only observers; intents go through the HTTP API.
type Hub struct {
	upgrader websocket.Upgrader
	mu       sync.Mutex
	clients  map[*websocket.Conn]bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Local game shell; all origins accepted
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]bool),
	}
}

// BroadcastJSON sends v to every connected client. Dead or stalled
// connections are dropped on write failure or deadline expiry.
func (h *Hub) BroadcastJSON(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal broadcast payload", slog.Any("error", err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		c.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
			delete(h.clients, c)
			c.Close()
			infra.GlobalMetrics.DecrementClients()
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades the connection and keeps it registered until the
// client goes away. Inbound messages are discarded.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()
	infra.GlobalMetrics.IncrementClients()

	defer func() {
		h.mu.Lock()
		if _, ok := h.clients[conn]; ok {
			delete(h.clients, conn)
			infra.GlobalMetrics.DecrementClients()
		}
		h.mu.Unlock()
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
