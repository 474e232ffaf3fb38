package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/spec-kit/volunteer-client/internal/observability"
)

// State enumerates the connection lifecycle. givenUp is terminal: the
// client stops retrying until restarted.
type State string

const (
	StateDisconnected       State = "disconnected"
	StateConnecting         State = "connecting"
	StateConnected          State = "connected"
	StateReconnectScheduled State = "reconnect_scheduled"
	StateGivenUp            State = "given_up"
)

// ErrRetriesExhausted is surfaced once when the reconnect budget runs out.
var ErrRetriesExhausted = errors.New("realtime: reconnect attempts exhausted")

// ErrNotConnected is returned by Send outside the connected state.
var ErrNotConnected = errors.New("realtime: not connected")

// TokenSource supplies the credential token appended to the dial URL. The
// transport cannot carry custom headers, so the token rides as a query
// parameter.
type TokenSource interface {
	Token() (string, error)
}

// MessageHandler receives each successfully parsed inbound message, in
// arrival order, regardless of how many physical reconnects occurred.
type MessageHandler func(Message)

// StateHandler observes state transitions. err is non-nil only for the
// terminal transition to StateGivenUp.
type StateHandler func(State, error)

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	URL           string
	Tokens        TokenSource
	OnMessage     MessageHandler
	OnStateChange StateHandler
	MaxAttempts   int
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	Logger        *zap.Logger
	Metrics       *observability.Metrics
}

const (
	defaultMaxAttempts = 5
	defaultBaseDelay   = time.Second
	defaultMaxDelay    = 30 * time.Second
)

// Client maintains one logical persistent server-push subscription, hiding
// reconnection churn from the consumer. Close codes 1000 and 1008 are
// terminal; everything else is retried with bounded exponential backoff.
type Client struct {
	opts Options

	dial      func(ctx context.Context, addr string) (wsConn, error)
	retryWait func(ctx context.Context, delay time.Duration) bool

	mu       sync.Mutex
	state    State
	attempts int
	conn     wsConn
	cancel   context.CancelFunc
	done     chan struct{}
}

// wsConn is the slice of the websocket connection the client drives.
// *websocket.Conn satisfies it.
type wsConn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// New builds a stopped client. Call Start to open the subscription.
func New(opts Options) *Client {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = defaultBaseDelay
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = defaultMaxDelay
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &Client{
		opts:      opts,
		dial:      gorillaDial,
		retryWait: waitOrCancelled,
		state:     StateDisconnected,
	}
}

// Start opens the logical subscription. Calling Start on a running client
// is a no-op.
func (c *Client) Start() {
	c.mu.Lock()
	if c.done != nil {
		c.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})
	c.attempts = 0
	done := c.done
	c.mu.Unlock()

	go c.run(ctx, done)
}

// Stop tears the subscription down: it cancels any pending reconnect timer,
// closes the live socket, and blocks until the run loop has exited in the
// disconnected state. Safe to call repeatedly.
func (c *Client) Stop() {
	c.mu.Lock()
	if c.done == nil {
		c.mu.Unlock()
		return
	}
	done := c.done
	c.done = nil
	c.cancel()
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.mu.Unlock()

	<-done
	c.setState(StateDisconnected, nil)
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connected reports whether the transport is currently open. This is the
// single authoritative gate consumers use to suppress fallback polling.
func (c *Client) Connected() bool {
	return c.State() == StateConnected
}

// Send writes a message on the live transport. Outside the connected state
// the message is dropped: outbound delivery is at-most-once, best-effort,
// with no queueing.
func (c *Client) Send(msg Message) error {
	c.mu.Lock()
	conn := c.conn
	state := c.state
	c.mu.Unlock()

	if state != StateConnected || conn == nil {
		c.opts.Logger.Warn("dropping outbound message, transport not connected",
			zap.String("type", string(msg.Type)),
			zap.String("state", string(state)))
		return ErrNotConnected
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (c *Client) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		c.setState(StateConnecting, nil)

		conn, err := c.dial(ctx, c.dialURL())
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.opts.Logger.Warn("websocket dial failed", zap.Error(err))
			if !c.scheduleReconnect(ctx) {
				return
			}
			continue
		}

		c.mu.Lock()
		if ctx.Err() != nil {
			// The handshake can complete after Stop already cancelled the
			// context. A late connection is closed, never adopted.
			c.mu.Unlock()
			_ = conn.Close()
			return
		}
		c.conn = conn
		c.attempts = 0
		c.mu.Unlock()
		c.setState(StateConnected, nil)
		c.opts.Logger.Info("websocket connected")

		closeCode := c.readLoop(conn)

		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		c.setState(StateDisconnected, nil)

		if closeCode == websocket.CloseNormalClosure || closeCode == websocket.ClosePolicyViolation {
			c.opts.Logger.Info("websocket closed cleanly, not reconnecting",
				zap.Int("code", closeCode))
			return
		}
		if !c.scheduleReconnect(ctx) {
			return
		}
	}
}

// readLoop pumps frames until the transport fails, returning the close code
// when one was delivered and -1 otherwise. A malformed frame is logged and
// dropped without affecting the connection.
func (c *Client) readLoop(conn wsConn) int {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				return closeErr.Code
			}
			return -1
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.opts.Logger.Warn("dropping malformed frame", zap.Error(err))
			continue
		}
		c.opts.Metrics.RecordMessage(string(msg.Type))
		if c.opts.OnMessage != nil {
			c.opts.OnMessage(msg)
		}
	}
}

// scheduleReconnect applies the backoff policy. It returns false when the
// retry budget is exhausted or the wait was cancelled.
func (c *Client) scheduleReconnect(ctx context.Context) bool {
	c.mu.Lock()
	if c.attempts >= c.opts.MaxAttempts {
		c.mu.Unlock()
		c.opts.Logger.Error("max reconnection attempts reached")
		c.setState(StateGivenUp, ErrRetriesExhausted)
		return false
	}
	delay := c.opts.BaseDelay << c.attempts
	if delay > c.opts.MaxDelay {
		delay = c.opts.MaxDelay
	}
	c.attempts++
	attempt := c.attempts
	c.mu.Unlock()

	c.opts.Metrics.RecordReconnect()
	c.opts.Logger.Info("scheduling reconnect",
		zap.Duration("delay", delay),
		zap.Int("attempt", attempt),
		zap.Int("max_attempts", c.opts.MaxAttempts))
	c.setState(StateReconnectScheduled, nil)

	return c.retryWait(ctx, delay)
}

func (c *Client) dialURL() string {
	addr := c.opts.URL
	if c.opts.Tokens == nil {
		return addr
	}
	token, err := c.opts.Tokens.Token()
	if err != nil || token == "" {
		if err != nil {
			c.opts.Logger.Warn("failed to read token for dial", zap.Error(err))
		}
		return addr
	}
	return addr + "?token=" + url.QueryEscape(token)
}

func (c *Client) setState(next State, err error) {
	c.mu.Lock()
	if c.state == next {
		c.mu.Unlock()
		return
	}
	c.state = next
	handler := c.opts.OnStateChange
	c.mu.Unlock()

	if handler != nil {
		handler(next, err)
	}
}

func gorillaDial(ctx context.Context, addr string) (wsConn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, addr, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func waitOrCancelled(ctx context.Context, delay time.Duration) bool {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
