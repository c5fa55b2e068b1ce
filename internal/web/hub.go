package web

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const wsWriteWait = 10 * time.Second

// Hub fans committed cycles out to connected dashboard sockets. Slow or dead
// clients are dropped on the next broadcast instead of blocking the cycle.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	closed  bool
	onCount func(int)
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// OnCount registers a client-count hook. Call before serving.
func (h *Hub) OnCount(fn func(int)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onCount = fn
}

// ServeHTTP upgrades the request and holds the socket until the peer leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Str("remote", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}
	if !h.add(conn) {
		_ = conn.Close()
		return
	}
	defer h.remove(conn)

	// Drain client frames; the dashboard never sends data, so the first
	// read error means the peer is gone.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Broadcast pushes one JSON message to every client.
func (h *Hub) Broadcast(v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("broadcast encode failed")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			delete(h.clients, conn)
			_ = conn.Close()
		}
	}
	h.notifyLocked()
}

// Count returns the connected client count.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for conn := range h.clients {
		msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		_ = conn.Close()
	}
	h.clients = make(map[*websocket.Conn]struct{})
	h.notifyLocked()
}

func (h *Hub) add(conn *websocket.Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[conn] = struct{}{}
	h.notifyLocked()
	return true
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
	_ = conn.Close()
	h.notifyLocked()
}

func (h *Hub) notifyLocked() {
	if h.onCount != nil {
		h.onCount(len(h.clients))
	}
}
