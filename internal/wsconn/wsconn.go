// Package wsconn provides a WebSocket client with automatic reconnection.
package wsconn

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
)

// State represents the connection state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
)

// Config holds WebSocket client configuration.
type Config struct {
	URL            string
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	MaxReconnects  int // 0 = infinite
	PingInterval   time.Duration
	ReadLimit      int64
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(url string) Config {
	return Config{
		URL:            url,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
		MaxReconnects:  0, // infinite
		PingInterval:   30 * time.Second,
		ReadLimit:      1 << 20,
	}
}

// Client maintains a WebSocket connection, reconnecting with exponential
// backoff on failure, and delivers inbound messages on a channel.
type Client struct {
	config Config

	connMu sync.Mutex
	conn   *websocket.Conn

	state    atomic.Value // State
	messages chan []byte
	done     chan struct{}
	once     sync.Once

	reconnects atomic.Int64
}

// New creates a new WebSocket client.
func New(config Config) *Client {
	c := &Client{
		config:   config,
		messages: make(chan []byte, 100),
		done:     make(chan struct{}),
	}
	c.state.Store(StateDisconnected)
	return c
}

// Connect dials the endpoint and starts the read/ping loops. It returns once
// the first connection attempt resolves; later drops reconnect in background.
func (c *Client) Connect(ctx context.Context) error {
	c.setState(StateConnecting)

	if err := c.dial(ctx); err != nil {
		c.setState(StateDisconnected)
		return err
	}

	c.setState(StateConnected)
	go c.readLoop(ctx)
	go c.pingLoop(ctx)
	return nil
}

func (c *Client) dial(ctx context.Context) error {
	conn, _, err := websocket.Dial(ctx, c.config.URL, nil)
	if err != nil {
		return err
	}
	if c.config.ReadLimit > 0 {
		conn.SetReadLimit(c.config.ReadLimit)
	}

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()
	return nil
}

// Send sends a text message through the WebSocket.
func (c *Client) Send(ctx context.Context, msg []byte) error {
	c.connMu.Lock()
	conn := c.conn
	c.connMu.Unlock()

	if conn == nil {
		return websocket.CloseError{Code: websocket.StatusAbnormalClosure, Reason: "not connected"}
	}
	return conn.Write(ctx, websocket.MessageText, msg)
}

// Messages returns the channel for receiving messages. The channel is closed
// when the client shuts down for good.
func (c *Client) Messages() <-chan []byte {
	return c.messages
}

// State returns the current connection state.
func (c *Client) State() State {
	return c.state.Load().(State)
}

// Reconnects returns how many reconnection attempts have been made.
func (c *Client) Reconnects() int64 {
	return c.reconnects.Load()
}

// Close gracefully closes the WebSocket connection.
func (c *Client) Close() error {
	c.once.Do(func() { close(c.done) })

	c.connMu.Lock()
	conn := c.conn
	c.conn = nil
	c.connMu.Unlock()

	c.setState(StateDisconnected)
	if conn != nil {
		return conn.Close(websocket.StatusNormalClosure, "client closing")
	}
	return nil
}

func (c *Client) readLoop(ctx context.Context) {
	for {
		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()
		if conn == nil {
			return
		}

		_, data, err := conn.Read(ctx)
		if err != nil {
			select {
			case <-c.done:
				return
			case <-ctx.Done():
				return
			default:
			}
			if !c.reconnect(ctx) {
				close(c.messages)
				return
			}
			continue
		}

		select {
		case c.messages <- data:
		case <-c.done:
			return
		case <-ctx.Done():
			return
		default:
			// Consumer is behind; drop the oldest message to keep the feed live.
			select {
			case <-c.messages:
			default:
			}
			c.messages <- data
		}
	}
}

func (c *Client) pingLoop(ctx context.Context) {
	if c.config.PingInterval <= 0 {
		return
	}

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.connMu.Lock()
			conn := c.conn
			c.connMu.Unlock()
			if conn == nil {
				continue
			}
			pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			_ = conn.Ping(pingCtx)
			cancel()
		}
	}
}

// reconnect dials with exponential backoff until success, the reconnect
// budget is exhausted, or the client shuts down. Returns false to stop.
func (c *Client) reconnect(ctx context.Context) bool {
	c.setState(StateReconnecting)
	backoff := c.config.InitialBackoff

	for attempt := 1; ; attempt++ {
		if c.config.MaxReconnects > 0 && attempt > c.config.MaxReconnects {
			c.setState(StateDisconnected)
			return false
		}

		c.reconnects.Add(1)

		// Jitter avoids thundering-herd reconnects against the same endpoint.
		wait := backoff + time.Duration(rand.Int63n(int64(backoff)/2+1))
		select {
		case <-c.done:
			return false
		case <-ctx.Done():
			return false
		case <-time.After(wait):
		}

		if err := c.dial(ctx); err == nil {
			c.setState(StateConnected)
			return true
		}

		backoff *= 2
		if backoff > c.config.MaxBackoff {
			backoff = c.config.MaxBackoff
		}
	}
}

func (c *Client) setState(state State) {
	c.state.Store(state)
}
