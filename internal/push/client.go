package push

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/matheus3301/botdesk/internal/status"
	"go.uber.org/zap"
)

var (
	// ErrRetriesExhausted is passed to OnExhausted.
	ErrRetriesExhausted = errors.New("live channel lost: reconnection attempts exhausted")
	// ErrServerDisconnect is reported when the server closes the namespace.
	ErrServerDisconnect = errors.New("server closed the live channel")
	// ErrConnectRefused is returned when the server rejects the namespace connect.
	ErrConnectRefused = errors.New("live channel connect refused")
)

// Options configures the reconnection policy.
type Options struct {
	BaseURL string
	// ReconnectDelay is the fixed wait before every reconnection attempt.
	ReconnectDelay time.Duration
	// MaxAttempts is the retry ceiling; the disconnect after the last attempt
	// is terminal.
	MaxAttempts int
	// HandshakeTimeout bounds dial plus namespace connect.
	HandshakeTimeout time.Duration
}

// Client keeps one live Socket.IO connection to the backend and reconnects
// with a fixed delay up to a fixed number of attempts.
type Client struct {
	opts     Options
	dialer   Dialer
	handlers Handlers
	machine  *status.Machine
	logger   *zap.Logger

	mu       sync.Mutex
	conn     Conn
	attempts int
	timer    *time.Timer
	closed   bool
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewClient creates a push channel client. machine receives every connection
// state change.
func NewClient(opts Options, dialer Dialer, handlers Handlers, machine *status.Machine, logger *zap.Logger) *Client {
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = time.Second
	}
	if opts.MaxAttempts < 0 {
		opts.MaxAttempts = 0
	}
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = 10 * time.Second
	}
	if dialer == nil {
		dialer = WebSocketDialer{}
	}
	return &Client{
		opts:     opts,
		dialer:   dialer,
		handlers: handlers,
		machine:  machine,
		logger:   logger,
	}
}

// Start opens the connection in the background.
func (c *Client) Start(ctx context.Context) {
	c.mu.Lock()
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.mu.Unlock()
	go c.connect()
}

// Connected reports whether a live connection is currently up.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Attempts returns the number of consecutive disconnects since the last
// successful connection.
func (c *Client) Attempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

// Emit sends an event when connected. While disconnected it logs a warning
// and drops the event; nothing is queued.
func (c *Client) Emit(event string, data any) bool {
	c.mu.Lock()
	conn, ctx := c.conn, c.ctx
	c.mu.Unlock()
	if conn == nil {
		c.logger.Warn("emit while disconnected, dropping event", zap.String("event", event))
		return false
	}
	frame, err := encodeEvent(event, data)
	if err != nil {
		c.logger.Warn("emit encode failed", zap.String("event", event), zap.Error(err))
		return false
	}
	if err := conn.Write(ctx, frame); err != nil {
		c.logger.Warn("emit failed", zap.String("event", event), zap.Error(err))
		return false
	}
	return true
}

// Close stops the connection and any pending reconnection.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
	}
	conn := c.conn
	c.conn = nil
	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	c.transition(status.Closed)
}

func (c *Client) connect() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	ctx := c.ctx
	c.mu.Unlock()

	c.transition(status.Connecting)
	conn, err := c.dial(ctx)
	if err != nil {
		c.logger.Warn("live channel connect failed", zap.Error(err))
		c.handleDrop(err, false)
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = conn.Close()
		return
	}
	c.conn = conn
	c.attempts = 0
	c.mu.Unlock()

	c.transition(status.Connected)
	c.logger.Info("live channel connected")
	if c.handlers.OnConnect != nil {
		c.handlers.OnConnect()
	}

	err = c.readLoop(ctx, conn)
	_ = conn.Close()
	c.handleDrop(err, true)
}

// dial opens the websocket and joins the default namespace.
func (c *Client) dial(ctx context.Context) (Conn, error) {
	u, err := socketURL(c.opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("live channel url: %w", err)
	}
	hctx, cancel := context.WithTimeout(ctx, c.opts.HandshakeTimeout)
	defer cancel()

	conn, err := c.dialer.Dial(hctx, u)
	if err != nil {
		return nil, err
	}
	if err := handshake(hctx, conn); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}

func handshake(ctx context.Context, conn Conn) error {
	frame, err := conn.Read(ctx)
	if err != nil {
		return fmt.Errorf("read open packet: %w", err)
	}
	if p, err := decodePacket(frame); err != nil || p.engine != engineOpen {
		return fmt.Errorf("%w: expected open packet, got %q", errBadPacket, frame)
	}
	if err := conn.Write(ctx, connectFrame); err != nil {
		return fmt.Errorf("send connect: %w", err)
	}
	for {
		frame, err := conn.Read(ctx)
		if err != nil {
			return fmt.Errorf("read connect ack: %w", err)
		}
		p, err := decodePacket(frame)
		if err != nil {
			return err
		}
		switch {
		case p.engine == enginePing:
			if err := conn.Write(ctx, pongFrame); err != nil {
				return err
			}
		case p.engine == engineMessage && p.socket == socketConnect:
			return nil
		case p.engine == engineMessage && p.socket == socketConnectError:
			return fmt.Errorf("%w: %s", ErrConnectRefused, string(p.data))
		}
	}
}

func (c *Client) readLoop(ctx context.Context, conn Conn) error {
	for {
		frame, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		p, err := decodePacket(frame)
		if err != nil {
			c.logger.Debug("skipping malformed frame", zap.Error(err))
			continue
		}
		switch p.engine {
		case enginePing:
			if err := conn.Write(ctx, pongFrame); err != nil {
				return err
			}
		case engineClose:
			return ErrServerDisconnect
		case engineMessage:
			switch p.socket {
			case socketEvent:
				if !c.handlers.dispatch(p.event, p.data) {
					c.logger.Debug("unhandled live event", zap.String("event", p.event))
				}
			case socketDisconnect:
				return ErrServerDisconnect
			}
		}
	}
}

// handleDrop counts a lost connection or failed attempt and either schedules
// the next attempt or gives up for good.
func (c *Client) handleDrop(err error, wasConnected bool) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.attempts++
	attempt := c.attempts
	exhausted := attempt > c.opts.MaxAttempts
	c.mu.Unlock()

	if wasConnected {
		c.logger.Warn("live channel disconnected", zap.Error(err))
		if c.handlers.OnDisconnect != nil {
			c.handlers.OnDisconnect(err)
		}
	}

	if exhausted {
		c.transition(status.Failed)
		c.logger.Error("live channel retries exhausted", zap.Int("attempts", attempt-1))
		if c.handlers.OnExhausted != nil {
			c.handlers.OnExhausted(ErrRetriesExhausted)
		}
		return
	}

	c.transition(status.Reconnecting)
	c.logger.Info("scheduling reconnect",
		zap.Int("attempt", attempt),
		zap.Int("max_attempts", c.opts.MaxAttempts),
		zap.Duration("delay", c.opts.ReconnectDelay))

	c.mu.Lock()
	if !c.closed {
		c.timer = time.AfterFunc(c.opts.ReconnectDelay, c.connect)
	}
	c.mu.Unlock()
}

func (c *Client) transition(to status.State) {
	if c.machine == nil {
		return
	}
	if err := c.machine.Transition(to); err != nil {
		c.logger.Debug("ignored status transition", zap.Error(err))
	}
}
