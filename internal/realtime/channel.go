// Package realtime maintains the WebSocket connection that streams staff
// notifications from the backend. A Channel keeps the connection alive with
// periodic pings, reconnects with exponential backoff when the connection
// drops, and exposes the last observed notification state. Connection
// failures are logged, never returned; callers that need fresh data while
// the channel is down should poll over HTTP instead.
package realtime

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/alnah/go-surrocare/internal/logging"
)

const (
	// notificationsPath is appended to the API base URL (with the scheme
	// swapped to ws or wss) to form the WebSocket endpoint.
	notificationsPath = "/ws/notifications"

	// pingInterval is how often the keep-alive frame is sent while open.
	pingInterval = 30 * time.Second

	// pingMessage is the literal keep-alive frame body. The server answers
	// with a plain "pong" frame.
	pingMessage = "ping"

	// Reconnect policy: the delay doubles per attempt and the schedule
	// gives up after maxReconnectAttempts.
	reconnectBaseDelay   = 1 * time.Second
	maxReconnectAttempts = 10

	// closeReasonInactive is sent when a dial completes after the channel
	// was shut down or the gate stopped passing.
	closeReasonInactive = "inactive"
)

// Conn abstracts a WebSocket connection for testability.
type Conn interface {
	ReadMessage() (messageType int, data []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Compile-time interface compliance check.
var _ Conn = (*websocket.Conn)(nil)

// DialFunc opens a WebSocket connection to url.
type DialFunc func(ctx context.Context, url string) (Conn, error)

// GateFunc reports whether the channel may dial. The CLI wires a predicate
// checking that a session is configured and realtime is enabled. The
// predicate is called with internal locks held and must not call back into
// the Channel.
type GateFunc func() bool

// Channel maintains one WebSocket connection to the notifications endpoint.
// Create one per backend with New; the zero value is not usable. All
// exported methods are safe for concurrent use.
type Channel struct {
	url            string
	gate           GateFunc
	dial           DialFunc
	pingInterval   time.Duration
	baseDelay      time.Duration
	onNotification func(Notification)
	onCount        func(int)
	log            zerolog.Logger

	mu            sync.Mutex
	active        bool
	connecting    bool
	attempts      int
	failureLogged bool
	sess          *session
	done          chan struct{}
	lastNote      *Notification
	unreadCount   int
}

// Option configures a Channel.
type Option func(*Channel)

// WithGate sets the predicate consulted before any dial.
func WithGate(fn GateFunc) Option {
	return func(c *Channel) {
		if fn != nil {
			c.gate = fn
		}
	}
}

// WithDialer sets a custom dial function (for testing).
func WithDialer(fn DialFunc) Option {
	return func(c *Channel) {
		if fn != nil {
			c.dial = fn
		}
	}
}

// WithPingInterval sets the keep-alive cadence.
func WithPingInterval(d time.Duration) Option {
	return func(c *Channel) {
		if d > 0 {
			c.pingInterval = d
		}
	}
}

// WithBackoffBase sets the first reconnect delay. Each further attempt
// doubles it.
func WithBackoffBase(d time.Duration) Option {
	return func(c *Channel) {
		if d > 0 {
			c.baseDelay = d
		}
	}
}

// WithNotificationHandler sets the callback invoked for each notification.
// The callback runs on the read loop and must not block.
func WithNotificationHandler(fn func(Notification)) Option {
	return func(c *Channel) {
		c.onNotification = fn
	}
}

// WithCountHandler sets the callback invoked for each unread-count update.
// The callback runs on the read loop and must not block.
func WithCountHandler(fn func(int)) Option {
	return func(c *Channel) {
		c.onCount = fn
	}
}

// WithLogger sets the channel's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Channel) {
		c.log = l
	}
}

// New creates a Channel for the notifications endpoint derived from
// apiBaseURL. Nothing is dialed until Connect.
func New(apiBaseURL string, opts ...Option) *Channel {
	c := &Channel{
		url:          endpointURL(apiBaseURL),
		gate:         func() bool { return true },
		dial:         dialWebSocket,
		pingInterval: pingInterval,
		baseDelay:    reconnectBaseDelay,
		log:          logging.Component("realtime"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// endpointURL derives the WebSocket endpoint from the API base URL by
// swapping http to ws (https to wss) and appending the notifications path.
func endpointURL(apiBase string) string {
	u := strings.TrimSuffix(apiBase, "/")
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + notificationsPath
}

// dialWebSocket is the default DialFunc.
func dialWebSocket(ctx context.Context, url string) (Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// session is one live connection. stop is closed exactly once when the
// session ends, which terminates its ping loop.
type session struct {
	conn Conn
	stop chan struct{}
	once sync.Once
}

func newSession(conn Conn) *session {
	return &session{conn: conn, stop: make(chan struct{})}
}

// shutdown sends a normal-closure frame with reason and closes the
// connection. Safe to call more than once.
func (s *session) shutdown(reason string) {
	s.once.Do(func() {
		close(s.stop)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
		_ = s.conn.WriteMessage(websocket.CloseMessage, msg)
		_ = s.conn.Close()
	})
}

// URL returns the WebSocket endpoint this channel connects to.
func (c *Channel) URL() string {
	return c.url
}

// Connect opens the channel. It returns immediately; the dial runs in the
// background and failures feed the reconnect schedule. Calling Connect while
// a connection is open or in flight is a no-op, as is calling it while the
// gate fails.
func (c *Channel) Connect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sess != nil || c.connecting {
		return
	}
	if !c.gate() {
		return
	}
	if !c.active {
		c.active = true
		c.attempts = 0
		c.failureLogged = false
		c.done = make(chan struct{})
	}
	c.connecting = true
	go c.runDial(c.done)
}

// Reconnect forces a fresh connection. The attempt counter resets so the
// schedule starts over: an open connection is closed and the normal failure
// path redials, a dial already in flight keeps going, and otherwise a dial
// starts directly.
func (c *Channel) Reconnect() {
	c.mu.Lock()
	c.attempts = 0
	c.failureLogged = false

	if sess := c.sess; sess != nil {
		c.mu.Unlock()
		sess.shutdown("")
		return
	}
	if c.connecting {
		c.mu.Unlock()
		return
	}
	if !c.active {
		c.mu.Unlock()
		c.Connect()
		return
	}
	c.connecting = true
	done := c.done
	c.mu.Unlock()
	go c.runDial(done)
}

// Close tears the channel down. The live connection receives a normal
// closure frame and no reconnect follows, even when a read error or a
// pending dial lands afterwards. A later Connect starts a fresh cycle.
func (c *Channel) Close() {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return
	}
	c.active = false
	c.connecting = false
	close(c.done)
	sess := c.sess
	c.sess = nil
	c.mu.Unlock()

	if sess != nil {
		sess.shutdown("")
	}
	c.log.Debug().Msg("channel closed")
}

// IsConnected reports whether a connection is currently open.
func (c *Channel) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess != nil
}

// LastNotification returns the most recent notification received, if any.
func (c *Channel) LastNotification() (Notification, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastNote == nil {
		return Notification{}, false
	}
	return *c.lastNote, true
}

// UnreadCount returns the count from the latest count update.
func (c *Channel) UnreadCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unreadCount
}

// runDial dials once and either promotes the connection to the live session
// or feeds the failure into the reconnect schedule. done identifies the
// activation cycle; a stale cycle never touches current state.
func (c *Channel) runDial(done chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-done:
			cancel()
		case <-ctx.Done():
		}
	}()
	conn, err := c.dial(ctx, c.url)
	cancel()

	c.mu.Lock()
	current := c.active && c.done == done

	if err != nil {
		if !current {
			c.mu.Unlock()
			return
		}
		c.connecting = false
		if !c.failureLogged {
			c.failureLogged = true
			c.log.Warn().Err(err).Str("url", c.url).Msg("dial failed")
		}
		c.mu.Unlock()
		c.scheduleReconnect(done)
		return
	}

	if !current {
		c.mu.Unlock()
		newSession(conn).shutdown(closeReasonInactive)
		return
	}
	if !c.gate() {
		c.connecting = false
		c.mu.Unlock()
		newSession(conn).shutdown(closeReasonInactive)
		return
	}

	sess := newSession(conn)
	c.sess = sess
	c.connecting = false
	c.attempts = 0
	c.failureLogged = false
	c.log.Info().Str("url", c.url).Msg("connected")
	c.mu.Unlock()

	go c.pingLoop(sess)
	c.readLoop(sess, done)
}

// readLoop consumes frames until the connection drops, then hands off to
// the reconnect schedule if this session is still current.
func (c *Channel) readLoop(sess *session, done chan struct{}) {
	for {
		_, data, err := sess.conn.ReadMessage()
		if err != nil {
			c.dropSession(sess, done, err)
			return
		}
		c.handleFrame(data)
	}
}

// dropSession tears down sess after a read failure and schedules a
// reconnect when sess is still the live session.
func (c *Channel) dropSession(sess *session, done chan struct{}, err error) {
	c.mu.Lock()
	if c.sess != sess {
		// Close or Reconnect already took over.
		c.mu.Unlock()
		return
	}
	c.sess = nil
	if !c.failureLogged {
		c.failureLogged = true
		c.log.Warn().Err(err).Msg("connection lost")
	}
	c.mu.Unlock()

	sess.shutdown("")
	c.scheduleReconnect(done)
}

// scheduleReconnect arms the next automatic dial. It gives up when the
// channel is inactive, the gate fails, or the attempt budget is spent.
func (c *Channel) scheduleReconnect(done chan struct{}) {
	c.mu.Lock()
	if !c.active || c.done != done || !c.gate() {
		c.mu.Unlock()
		return
	}
	if c.attempts >= maxReconnectAttempts {
		c.log.Warn().Int("attempts", c.attempts).Msg("reconnect attempts exhausted")
		c.mu.Unlock()
		return
	}
	delay := time.Duration(1<<c.attempts) * c.baseDelay
	c.attempts++
	c.connecting = true
	c.log.Debug().Int("attempt", c.attempts).Dur("delay", delay).Msg("reconnecting")
	c.mu.Unlock()

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-done:
		c.mu.Lock()
		if c.done == done {
			c.connecting = false
		}
		c.mu.Unlock()
		return
	case <-timer.C:
	}
	c.runDial(done)
}

// pingLoop sends the keep-alive frame until the session ends. A write
// failure ends the loop; the read side notices the dead connection and
// drives the reconnect.
func (c *Channel) pingLoop(sess *session) {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-sess.stop:
			return
		case <-ticker.C:
			if err := sess.conn.WriteMessage(websocket.TextMessage, []byte(pingMessage)); err != nil {
				return
			}
		}
	}
}

// handleFrame dispatches one inbound frame.
func (c *Channel) handleFrame(data []byte) {
	f := parseFrame(data)
	switch f.kind {
	case frameNotification:
		c.mu.Lock()
		n := f.notification
		c.lastNote = &n
		handler := c.onNotification
		c.mu.Unlock()
		c.log.Debug().Int64("id", n.ID).Str("type", n.Type).Msg("notification")
		if handler != nil {
			handler(n)
		}
	case frameCountUpdate:
		c.mu.Lock()
		c.unreadCount = f.count
		handler := c.onCount
		c.mu.Unlock()
		if handler != nil {
			handler(f.count)
		}
	case frameKeepalive:
		// server pong
	default:
		c.log.Warn().Str("type", f.msgType).Msg("unknown message type")
	}
}
