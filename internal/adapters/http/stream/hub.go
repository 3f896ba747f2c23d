package stream

import (
	"errors"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/SaideepGaunker/Interview-prep-AI-coach/pkg/metrics"
)

// ErrNotConnected is returned when pushing to a session with no open
// connection. Callers treat it as a drop, not a failure.
var ErrNotConnected = errors.New("session has no open connection")

// Conn is one registered WebSocket connection. Writes are serialized
// through the connection's own mutex; teardown runs exactly once even
// when a client close races a server-side error.
type Conn struct {
	sessionID string
	ws        *websocket.Conn

	writeMu  sync.Mutex
	teardown sync.Once
}

func (c *Conn) send(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteJSON(v)
}

func (c *Conn) sendClose(code int, reason string) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason))
}

// Hub is the active-connection table. One logical connection per
// session id; a new connection for a live session replaces the old one.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]*Conn
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[string]*Conn)}
}

// Register adds a connection for the session, returning the previous
// connection if one was displaced.
func (h *Hub) Register(sessionID string, ws *websocket.Conn) (conn, displaced *Conn) {
	conn = &Conn{sessionID: sessionID, ws: ws}

	h.mu.Lock()
	displaced = h.conns[sessionID]
	h.conns[sessionID] = conn
	size := len(h.conns)
	h.mu.Unlock()

	metrics.UpdateOpenConnections(size)
	return conn, displaced
}

// Unregister removes the connection from the table if it is still the
// session's current one.
func (h *Hub) Unregister(conn *Conn) {
	h.mu.Lock()
	if h.conns[conn.sessionID] == conn {
		delete(h.conns, conn.sessionID)
	}
	size := len(h.conns)
	h.mu.Unlock()

	metrics.UpdateOpenConnections(size)
}

// Send pushes a message to the session's connection.
func (h *Hub) Send(sessionID string, v any) error {
	h.mu.RLock()
	conn, ok := h.conns[sessionID]
	h.mu.RUnlock()

	if !ok {
		return ErrNotConnected
	}
	return conn.send(v)
}

// Connected reports whether the session has an open connection.
func (h *Hub) Connected(sessionID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.conns[sessionID]
	return ok
}

// Len reports the number of open connections.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}
