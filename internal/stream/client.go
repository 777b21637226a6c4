package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// ClientConfig configures progress stream client behavior.
type ClientConfig struct {
	// ReconnectDelay is initial delay before a reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// ReadTimeout is how long the connection may stay silent. The hub
	// pings idle subscribers, so this must comfortably exceed its
	// ping interval.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing control frames.
	WriteTimeout time.Duration
	// EventBuffer is the capacity of the Events channel.
	EventBuffer int
}

// DefaultClientConfig returns default client configuration.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		ReadTimeout:       90 * time.Second,
		WriteTimeout:      10 * time.Second,
		EventBuffer:       256,
	}
}

// Client subscribes to a hub's progress stream and decodes incoming
// frames onto the Events channel. When the connection drops it redials
// with exponential backoff; the Events channel closes only on Close.
type Client struct {
	endpoint string
	config   ClientConfig
	log      *slog.Logger

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	events chan Event
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewClient connects to the stream endpoint and starts reading events.
func NewClient(ctx context.Context, endpoint string, config *ClientConfig, log *slog.Logger) (*Client, error) {
	cfg := DefaultClientConfig()
	if config != nil {
		cfg = *config
	}
	if log == nil {
		log = slog.Default()
	}

	c := &Client{
		endpoint: endpoint,
		config:   cfg,
		log:      log,
		events:   make(chan Event, cfg.EventBuffer),
		done:     make(chan struct{}),
	}

	if err := c.connect(ctx); err != nil {
		return nil, err
	}

	c.wg.Add(1)
	go c.readLoop()

	return c, nil
}

// Events returns the stream of decoded events. The channel closes when
// the client is closed.
func (c *Client) Events() <-chan Event {
	return c.events
}

// connect establishes the WebSocket connection.
func (c *Client) connect(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	// Answering the hub's pings extends the read window across idle
	// stretches between solves.
	conn.SetPingHandler(func(payload string) error {
		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
		return conn.WriteControl(websocket.PongMessage, []byte(payload),
			time.Now().Add(c.config.WriteTimeout))
	})

	c.connMu.Lock()
	if c.closed.Load() {
		c.connMu.Unlock()
		conn.Close()
		return fmt.Errorf("client closed")
	}
	c.conn = conn
	c.connMu.Unlock()
	return nil
}

// Close tears down the connection and closes the Events channel.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil // Already closed
	}

	close(c.done)

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.conn.Close()
	}
	c.connMu.Unlock()

	c.wg.Wait()
	return nil
}

// readLoop reads frames, decodes them, and redials with exponential
// backoff when the connection drops.
func (c *Client) readLoop() {
	defer c.wg.Done()
	defer close(c.events)

	delay := c.config.ReconnectDelay

	for !c.closed.Load() {
		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		if conn == nil {
			if !c.redial(delay) {
				return
			}
			delay *= 2
			if delay > c.config.MaxReconnectDelay {
				delay = c.config.MaxReconnectDelay
			}
			continue
		}

		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}
			c.log.Warn("progress stream read failed", "error", err)
			c.dropConn()
			continue
		}

		// Reset delay on successful read
		delay = c.config.ReconnectDelay

		var event Event
		if err := json.Unmarshal(message, &event); err != nil {
			c.log.Warn("discarding malformed frame", "error", err)
			continue
		}

		select {
		case c.events <- event:
		case <-c.done:
			return
		}
	}
}

// redial waits out the backoff delay and attempts one reconnect. It
// returns false when the client closed during the wait.
func (c *Client) redial(delay time.Duration) bool {
	select {
	case <-c.done:
		return false
	case <-time.After(delay):
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.connect(ctx); err != nil {
		c.log.Warn("progress stream reconnect failed", "error", err)
		return true
	}

	c.log.Info("progress stream reconnected", "endpoint", c.endpoint)
	return true
}

// dropConn closes the current connection so the read loop redials.
func (c *Client) dropConn() {
	c.connMu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.connMu.Unlock()
}
