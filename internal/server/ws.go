package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

const (
	writeWait  = 5 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 20 * time.Second
	sendBuffer = 16
)

// envelope is the wire format for state messages.
type envelope struct {
	Type string    `json:"type"`
	Ts   time.Time `json:"ts"`
	Data any       `json:"data"`
}

// stateClient is one websocket viewer with its own outbound queue.
type stateClient struct {
	conn *websocket.Conn
	send chan []byte
}

// StateHub fans per-frame snapshots out to websocket clients. A client that
// cannot keep up is disconnected rather than slowing the frame loop.
type StateHub struct {
	logger *slog.Logger

	mu      sync.Mutex
	clients map[*stateClient]struct{}
	last    any
}

// NewStateHub creates a StateHub.
func NewStateHub(logger *slog.Logger) *StateHub {
	if logger == nil {
		logger = slog.Default()
	}
	return &StateHub{
		logger:  logger,
		clients: make(map[*stateClient]struct{}),
	}
}

// Clients returns the number of connected clients.
func (h *StateHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// PublishState records state as the latest snapshot and broadcasts it.
// It never blocks.
func (h *StateHub) PublishState(state any) {
	h.mu.Lock()
	h.last = state
	if len(h.clients) == 0 {
		h.mu.Unlock()
		return
	}
	h.mu.Unlock()

	msg, err := json.Marshal(envelope{Type: "state", Ts: time.Now(), Data: state})
	if err != nil {
		h.logger.Warn("failed to encode state", "error", err)
		return
	}

	var slow []*stateClient

	h.mu.Lock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.Unlock()

	for _, c := range slow {
		h.remove(c, "slow_client")
	}
}

// ServeHTTP upgrades the connection, sends the latest snapshot and then
// streams every published one.
func (h *StateHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &stateClient{
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}

	h.mu.Lock()
	if h.last != nil {
		if msg, err := json.Marshal(envelope{Type: "state_init", Ts: time.Now(), Data: h.last}); err == nil {
			c.send <- msg
		}
	}
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug("state client connected", "remote_addr", r.RemoteAddr, "clients", n)

	go h.writePump(c)
	h.readPump(c)
}

func (h *StateHub) remove(c *stateClient, reason string) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()

	if ok {
		c.conn.Close()
		h.logger.Debug("state client disconnected", "reason", reason, "clients", n)
	}
}

// Close disconnects every client.
func (h *StateHub) Close() {
	h.mu.Lock()
	clients := make([]*stateClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.remove(c, "shutdown")
	}
}

func (h *StateHub) writePump(c *stateClient) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.remove(c, "write_error")
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.remove(c, "ping_error")
				return
			}
		}
	}
}

// readPump discards client messages; it only exists to notice disconnects
// and to answer pings.
func (h *StateHub) readPump(c *stateClient) {
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			reason := "read_error"
			var ce *websocket.CloseError
			if errors.As(err, &ce) {
				reason = "closed"
			}
			h.remove(c, reason)
			return
		}
	}
}
