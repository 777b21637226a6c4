// Package stream broadcasts solver progress to WebSocket subscribers.
package stream

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"espionage-duopoly-lab/internal/domain"
	"espionage-duopoly-lab/internal/nash"
)

// Event types pushed to subscribers.
const (
	EventProgress = "progress"
	EventSolved   = "solved"
	EventFailed   = "failed"
)

// Event is one frame on the progress stream.
type Event struct {
	Type  string      `json:"type"`
	RunID string      `json:"run_id,omitempty"`
	Data  interface{} `json:"data,omitempty"`
}

// ProgressEvent wraps an optimizer generation update.
func ProgressEvent(runID string, p nash.Progress) Event {
	return Event{Type: EventProgress, RunID: runID, Data: p}
}

// SolvedEvent wraps a finished solution in its contract form.
func SolvedEvent(runID string, s *domain.EquilibriumSolution) Event {
	return Event{Type: EventSolved, RunID: runID, Data: s.ToDict()}
}

// FailedEvent wraps a solve error.
func FailedEvent(runID string, err error) Event {
	return Event{Type: EventFailed, RunID: runID, Data: map[string]string{"error": err.Error()}}
}

// HubConfig configures WebSocket hub behavior.
type HubConfig struct {
	// WriteTimeout is timeout for writing frames to a subscriber.
	WriteTimeout time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// PongTimeout is how long a subscriber may stay silent before the
	// connection is considered dead.
	PongTimeout time.Duration
	// SendBuffer is the per-subscriber frame buffer.
	SendBuffer int
}

// DefaultHubConfig returns default hub configuration.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		WriteTimeout: 10 * time.Second,
		PingInterval: 30 * time.Second,
		PongTimeout:  60 * time.Second,
		SendBuffer:   64,
	}
}

// Hub fans solver events out to connected WebSocket subscribers.
//
// Progress frames are incumbent-best snapshots, so a subscriber that
// cannot keep up skips frames rather than stalling the solver.
type Hub struct {
	config   HubConfig
	upgrader websocket.Upgrader
	log      *slog.Logger

	clients   map[*client]struct{}
	clientsMu sync.RWMutex

	closed atomic.Bool
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

// NewHub creates a hub with the given configuration. A nil config uses
// defaults.
func NewHub(log *slog.Logger, config *HubConfig) *Hub {
	cfg := DefaultHubConfig()
	if config != nil {
		cfg = *config
	}
	if log == nil {
		log = slog.Default()
	}

	return &Hub{
		config: cfg,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log:     log,
		clients: make(map[*client]struct{}),
	}
}

// ServeHTTP upgrades the request and keeps the subscriber attached until
// it disconnects or the hub closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.closed.Load() {
		http.Error(w, "stream closed", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, h.config.SendBuffer),
	}

	h.clientsMu.Lock()
	h.clients[c] = struct{}{}
	count := len(h.clients)
	h.clientsMu.Unlock()

	h.log.Debug("subscriber connected", "remote", conn.RemoteAddr().String(), "subscribers", count)

	go h.writeLoop(c)
	go h.readLoop(c)
}

// Broadcast sends an event to every connected subscriber. Frames to slow
// subscribers are dropped once their buffer is full.
func (h *Hub) Broadcast(event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.log.Error("marshal stream event", "type", event.Type, "error", err)
		return
	}

	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
		}
	}
}

// ClientCount returns the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// Close disconnects all subscribers and rejects new ones.
func (h *Hub) Close() error {
	if h.closed.Swap(true) {
		return nil // Already closed
	}

	h.clientsMu.Lock()
	for c := range h.clients {
		h.detachLocked(c)
	}
	h.clientsMu.Unlock()

	return nil
}

// remove unregisters a client and closes its connection.
func (h *Hub) remove(c *client) {
	h.clientsMu.Lock()
	if _, ok := h.clients[c]; ok {
		h.detachLocked(c)
	}
	h.clientsMu.Unlock()
}

func (h *Hub) detachLocked(c *client) {
	delete(h.clients, c)
	c.once.Do(func() { close(c.send) })
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(h.config.WriteTimeout))
	c.conn.Close()
}

// writeLoop drains the client's send channel and keeps the connection
// alive with periodic pings.
func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(h.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case payload, ok := <-c.send:
			if !ok {
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.remove(c)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.remove(c)
				return
			}
		}
	}
}

// readLoop discards inbound frames; the stream is one-way. It exists to
// process pongs and notice the subscriber hanging up.
func (h *Hub) readLoop(c *client) {
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(h.config.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(h.config.PongTimeout))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.remove(c)
			return
		}
	}
}
