package wsclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ErrMaxAttemptsReached is the terminal connectivity failure surfaced after
// the configured number of consecutive reconnect attempts.
var ErrMaxAttemptsReached = errors.New("max reconnect attempts reached")

type Config struct {
	URL         string
	Backoff     Backoff
	MaxAttempts int

	// OnOpen runs after every successful (re)open. A client never assumes
	// server-side state survived a reconnect: registration and subscriptions
	// are replayed here.
	OnOpen func(c *Client)
	// OnMessage receives every inbound envelope.
	OnMessage func(messageType string, payload json.RawMessage)
	// OnTerminal runs exactly once, when the client gives up reconnecting.
	OnTerminal func(err error)

	Logger *slog.Logger
}

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Client is a reconnecting websocket client. On transport close it redials
// with the configured backoff, resetting the attempt counter on every
// successful open.
type Client struct {
	cfg  Config
	conn *websocket.Conn
	mu   sync.Mutex
}

func New(cfg Config) *Client {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Client{cfg: cfg}
}

// Run dials and serves the connection until ctx is done or the reconnect
// attempts are exhausted.
func (c *Client) Run(ctx context.Context) error {
	attempts := 0

	for {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.cfg.URL, nil)
		if err == nil {
			attempts = 0
			c.setConn(conn)
			c.cfg.Logger.InfoContext(ctx, "websocket connected", "url", c.cfg.URL)

			if c.cfg.OnOpen != nil {
				c.cfg.OnOpen(c)
			}

			readErr := c.readLoop(conn)
			c.setConn(nil)
			conn.Close()

			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.cfg.Logger.InfoContext(ctx, "websocket disconnected", "error", readErr)
		} else {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.cfg.Logger.InfoContext(ctx, "websocket dial failed", "error", err)
		}

		if attempts >= c.cfg.MaxAttempts {
			terminalErr := fmt.Errorf("%w after %d attempts", ErrMaxAttemptsReached, attempts)
			if c.cfg.OnTerminal != nil {
				c.cfg.OnTerminal(terminalErr)
			}

			return terminalErr
		}

		delay := c.cfg.Backoff.Delay(attempts)
		attempts++
		c.cfg.Logger.InfoContext(ctx, "scheduling reconnect",
			"attempt", attempts,
			"max_attempts", c.cfg.MaxAttempts,
			"delay", delay,
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (c *Client) readLoop(conn *websocket.Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.cfg.Logger.Warn("dropping malformed message", "error", err)
			continue
		}

		if c.cfg.OnMessage != nil {
			c.cfg.OnMessage(env.Type, env.Payload)
		}
	}
}

func (c *Client) setConn(conn *websocket.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn = conn
}

// Send writes a {type, payload} envelope. It fails when the client is
// between connections.
func (c *Client) Send(messageType string, payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return errors.New("not connected")
	}

	return c.conn.WriteJSON(map[string]any{
		"type":    messageType,
		"payload": payload,
	})
}

func (c *Client) Register(role string) error {
	return c.Send("session:register", map[string]any{"role": role})
}

func (c *Client) Subscribe(channel string) error {
	return c.Send("subscribe", map[string]any{"channel": channel})
}

func (c *Client) Unsubscribe(channel string) error {
	return c.Send("unsubscribe", map[string]any{"channel": channel})
}
