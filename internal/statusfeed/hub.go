package statusfeed

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"calmspace/internal/domain"
)

const (
	MsgSnapshot = "snapshot"
	MsgPlayback = "playback"
	MsgSession  = "session"
	MsgError    = "error"
)

// Message is the envelope pushed to every feed client.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type SnapshotPayload struct {
	Session  domain.SessionStatus  `json:"session"`
	Playback domain.PlaybackStatus `json:"playback"`
}

type SessionPayload struct {
	Status domain.SessionStatus       `json:"status"`
	Reason domain.SessionStateReason `json:"reason"`
}

type ErrorPayload struct {
	Code   domain.ErrorCode `json:"code"`
	Detail string           `json:"detail"`
}

// SnapshotFunc returns the current state sent to newly connected clients.
type SnapshotFunc func() SnapshotPayload

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func newClient(conn *websocket.Conn) *client {
	c := &client{
		conn: conn,
		send: make(chan []byte, 64),
	}
	go c.writePump()
	return c
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// Hub pushes playback and session changes to websocket clients.
// It implements ports.EventSink.
type Hub struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu       sync.RWMutex
	clients  map[*client]struct{}
	snapshot SnapshotFunc
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger:  logger,
		clients: make(map[*client]struct{}),
	}
}

// SetSnapshot installs the snapshot source. Must be called before serving.
func (h *Hub) SetSnapshot(fn SnapshotFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.snapshot = fn
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("status feed upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	c := h.addClient(conn)
	h.logger.Debug("status feed client connected", "remote", r.RemoteAddr)

	defer func() {
		h.removeClient(c)
		h.logger.Debug("status feed client disconnected", "remote", r.RemoteAddr)
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) PlaybackChanged(status domain.PlaybackStatus) {
	h.broadcast(Message{Type: MsgPlayback, Payload: status})
}

func (h *Hub) SessionStateChanged(status domain.SessionStatus, reason domain.SessionStateReason) {
	h.broadcast(Message{Type: MsgSession, Payload: SessionPayload{Status: status, Reason: reason}})
}

func (h *Hub) SessionError(code domain.ErrorCode, detail string) {
	h.broadcast(Message{Type: MsgError, Payload: ErrorPayload{Code: code, Detail: detail}})
}

func (h *Hub) addClient(conn *websocket.Conn) *client {
	c := newClient(conn)

	h.mu.RLock()
	snapshot := h.snapshot
	h.mu.RUnlock()

	var initial []byte
	if snapshot != nil {
		data, err := json.Marshal(Message{Type: MsgSnapshot, Payload: snapshot()})
		if err != nil {
			h.logger.Error("status feed snapshot marshal failed", "error", err)
		} else {
			initial = data
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	if initial != nil {
		c.send <- initial
	}
	return c
}

func (h *Hub) removeClient(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("status feed marshal failed", "type", msg.Type, "error", err)
		return
	}

	var slow []*client
	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("status feed client too slow, disconnecting")
		h.removeClient(c)
	}
}
