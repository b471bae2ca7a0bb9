// Package channel is the real-time connection to the backend: one websocket,
// JSON envelopes of {event, data}, typed fan-out to subscribers. Everything
// pushy in the app (offers, proposals, acceptance, tracking) rides on it.
package channel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gocar-app/gocar/internal/domain/models"
	"github.com/gocar-app/gocar/internal/domain/types"
	"github.com/gocar-app/gocar/pkg/logger"
	wrap "github.com/gocar-app/gocar/pkg/logger/wrapper"
	"github.com/gocar-app/gocar/pkg/metrics"
)

const (
	maxDialAttempts = 5
	dialBackoff     = time.Second
)

// Handler receives one decoded event payload. Handlers run on the reader
// goroutine, so they must not block.
type Handler func(payload any)

// Subscription is a live event registration. Cancel removes exactly this
// handler; every screen that subscribes must cancel on exit or the handler
// keeps firing for the lifetime of the connection.
type Subscription struct {
	once   sync.Once
	cancel func()
}

func (s *Subscription) Cancel() {
	if s == nil {
		return
	}
	s.once.Do(s.cancel)
}

// Config for a channel client.
type Config struct {
	URL  string     // ws:// or wss:// endpoint
	Role types.Role // announced after every (re)connect

	// ParticipantID is the user or driver id sent in the join announcement.
	ParticipantID string

	// OnDown is called once when reconnection gives up. Optional.
	OnDown func(err error)
}

type Channel struct {
	cfg Config
	log logger.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool

	writeMu sync.Mutex

	subsMu sync.Mutex
	subs   map[string]map[int]Handler
	nextID int
}

func New(cfg Config, log logger.Logger) *Channel {
	return &Channel{
		cfg:  cfg,
		log:  log,
		subs: make(map[string]map[int]Handler),
	}
}

// Connect dials the backend, announces the participant, and starts the reader
// loop. Up to maxDialAttempts dials with a fixed pause in between; after that
// the connection is reported failed rather than retried forever.
func (c *Channel) Connect(ctx context.Context) error {
	ctx = wrap.WithAction(wrap.WithUserID(ctx, c.cfg.ParticipantID), "channel_connect")

	conn, err := c.dial(ctx)
	if err != nil {
		return wrap.Error(ctx, err)
	}

	c.mu.Lock()
	c.conn = conn
	c.closed = false
	c.mu.Unlock()

	if err := c.announce(ctx); err != nil {
		conn.Close()
		return wrap.Error(ctx, err)
	}

	metrics.ChannelConnectionsGauge.WithLabelValues(c.cfg.Role.String()).Inc()
	go c.readLoop(conn)

	c.log.Info(ctx, "channel connected", "role", c.cfg.Role)
	return nil
}

func (c *Channel) dial(ctx context.Context) (*websocket.Conn, error) {
	var lastErr error
	for attempt := 1; attempt <= maxDialAttempts; attempt++ {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.cfg.URL, nil)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		c.log.Warn(ctx, "channel dial failed", "attempt", attempt, "error", err.Error())

		if attempt == maxDialAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(dialBackoff):
		}
	}
	return nil, fmt.Errorf("%w: %v", types.ErrConnectFailed, lastErr)
}

// announce tells the backend who this connection belongs to. Sent after every
// dial, including reconnects, because the server keys its push routing on it.
func (c *Channel) announce(ctx context.Context) error {
	switch c.cfg.Role {
	case types.RoleDriver:
		return c.Emit(ctx, models.EventDriverJoin, models.DriverJoin{DriverID: c.cfg.ParticipantID})
	default:
		return c.Emit(ctx, models.EventUserJoin, models.UserJoin{UserID: c.cfg.ParticipantID})
	}
}

// Subscribe registers a handler for one event name and returns its cancel
// handle. Multiple handlers per event are fine; each gets every payload.
func (c *Channel) Subscribe(event string, h Handler) *Subscription {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()

	if c.subs[event] == nil {
		c.subs[event] = make(map[int]Handler)
	}
	id := c.nextID
	c.nextID++
	c.subs[event][id] = h

	return &Subscription{cancel: func() {
		c.subsMu.Lock()
		defer c.subsMu.Unlock()
		delete(c.subs[event], id)
	}}
}

// Emit sends one event to the backend.
func (c *Channel) Emit(ctx context.Context, event string, payload any) error {
	env, err := models.NewEnvelope(event, payload)
	if err != nil {
		return wrap.Error(ctx, err)
	}

	c.mu.Lock()
	conn := c.conn
	closed := c.closed
	c.mu.Unlock()

	if closed {
		return wrap.Error(ctx, types.ErrChannelClosed)
	}
	if conn == nil {
		return wrap.Error(ctx, types.ErrNotConnected)
	}

	// gorilla/websocket allows one concurrent writer only.
	c.writeMu.Lock()
	err = conn.WriteJSON(env)
	c.writeMu.Unlock()
	if err != nil {
		return wrap.Error(ctx, fmt.Errorf("emit %s: %w", event, err))
	}

	metrics.ChannelEventsTotal.WithLabelValues(event, "out").Inc()
	return nil
}

// Close shuts the connection down for good. No reconnect after this.
func (c *Channel) Close() error {
	c.mu.Lock()
	c.closed = true
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	metrics.ChannelConnectionsGauge.WithLabelValues(c.cfg.Role.String()).Dec()
	return conn.Close()
}

func (c *Channel) readLoop(conn *websocket.Conn) {
	ctx := wrap.WithAction(context.Background(), "channel_read")

	for {
		var env models.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			c.mu.Lock()
			closed := c.closed || c.conn != conn
			c.mu.Unlock()
			if closed {
				return
			}

			metrics.ChannelConnectionsGauge.WithLabelValues(c.cfg.Role.String()).Dec()
			c.log.Warn(ctx, "channel read failed, reconnecting", "error", err.Error())
			c.reconnect(ctx)
			return
		}

		c.dispatch(ctx, env)
	}
}

func (c *Channel) dispatch(ctx context.Context, env models.Envelope) {
	payload, err := models.DecodeEvent(env)
	if err != nil {
		// Unknown or malformed events are dropped, never fatal.
		c.log.Warn(ctx, "dropping channel event", "event", env.Event, "error", err.Error())
		return
	}

	metrics.ChannelEventsTotal.WithLabelValues(env.Event, "in").Inc()

	c.subsMu.Lock()
	handlers := make([]Handler, 0, len(c.subs[env.Event]))
	for _, h := range c.subs[env.Event] {
		handlers = append(handlers, h)
	}
	c.subsMu.Unlock()

	for _, h := range handlers {
		h(payload)
	}
}

// reconnect re-dials with the same bounded policy as Connect and re-announces
// the participant. Subscriptions survive the reconnect untouched.
func (c *Channel) reconnect(ctx context.Context) {
	ctx = wrap.WithAction(ctx, "channel_reconnect")

	conn, err := c.dial(ctx)
	if err != nil {
		c.log.Error(ctx, "channel reconnect gave up", err)
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		if c.cfg.OnDown != nil {
			c.cfg.OnDown(err)
		}
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		conn.Close()
		return
	}
	c.conn = conn
	c.mu.Unlock()

	if err := c.announce(ctx); err != nil {
		c.log.Error(ctx, "re-announce after reconnect failed", err)
		conn.Close()
		return
	}

	metrics.ChannelConnectionsGauge.WithLabelValues(c.cfg.Role.String()).Inc()
	c.log.Info(ctx, "channel reconnected")
	go c.readLoop(conn)
}
