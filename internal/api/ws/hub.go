package ws

import (
	"log/slog"
	"sync"
	"time"
)

// writeWait bounds how long a single broadcast send may block on one peer
const writeWait = 10 * time.Second

// Conn is the subset of *websocket.Conn the hub writes to
type Conn interface {
	SetWriteDeadline(t time.Time) error
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// textMessage mirrors websocket.TextMessage so the hub does not need the
// gorilla package on its import path
const textMessage = 1

// Hub holds the set of live client connections and broadcasts payloads to
// all of them. It is constructed once at process start and passed to every
// handler that needs it; there is no package-level instance.
type Hub struct {
	mu     sync.Mutex
	conns  []Conn
	logger *slog.Logger
}

// NewHub creates an empty hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger: logger,
	}
}

// Register adds a connection to the live set
func (h *Hub) Register(conn Conn) {
	h.mu.Lock()
	h.conns = append(h.conns, conn)
	count := len(h.conns)
	h.mu.Unlock()

	h.logger.Info("WebSocket client connected",
		slog.Int("live_connections", count),
	)
}

// Unregister removes a connection from the live set. Removing a connection
// that is no longer present is a no-op, so a peer pruned during a broadcast
// and then unregistered by its read loop is only removed once.
func (h *Hub) Unregister(conn Conn) {
	h.mu.Lock()
	removed := h.remove(conn)
	count := len(h.conns)
	h.mu.Unlock()

	if removed {
		h.logger.Info("WebSocket client disconnected",
			slog.Int("live_connections", count),
		)
	}
}

// Broadcast sends payload to every live connection. It iterates a snapshot
// of the set so connections pruned mid-broadcast do not corrupt iteration;
// any connection whose send fails is removed from the live set and closed.
func (h *Hub) Broadcast(payload []byte) {
	h.mu.Lock()
	snapshot := make([]Conn, len(h.conns))
	copy(snapshot, h.conns)
	h.mu.Unlock()

	for _, conn := range snapshot {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(textMessage, payload); err != nil {
			h.logger.Warn("Failed to send to WebSocket client, pruning connection",
				slog.Any("error", err),
			)

			h.mu.Lock()
			h.remove(conn)
			h.mu.Unlock()

			conn.Close()
		}
	}
}

// Count returns the number of live connections
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// remove deletes conn from the set. Caller must hold h.mu.
func (h *Hub) remove(conn Conn) bool {
	for i, c := range h.conns {
		if c == conn {
			h.conns = append(h.conns[:i], h.conns[i+1:]...)
			return true
		}
	}
	return false
}
