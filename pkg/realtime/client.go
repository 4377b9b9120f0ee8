package realtime

import (
	"context"
	stderrors "errors"
	"io"
	"net/url"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/homewire/pkg/errors"
	"github.com/agentstation/homewire/pkg/logging"
)

// Client maintains exactly one push-channel connection and publishes the
// decoded events to its Registry.
//
// All connection state is owned by a single event-loop goroutine. Dial
// results, inbound frames, read errors and timer fires reach it as messages
// and are handled one at a time, so frames are published in the order the
// transport delivered them.
//
// Each transition is published once, with one exception: the close that
// spends the last reconnect attempt publishes DISCONNECTED followed by
// ERROR, and the client then stays in ERROR until Reconnect is called.
type Client struct {
	url      string
	dialer   Dialer
	policy   ReconnectPolicy
	clock    Clock
	logger   *zerolog.Logger
	registry *Registry
	status   *StatusBroadcaster

	inbox     chan loopMsg
	reconnect chan struct{}
	quit      chan struct{}
	done      chan struct{}
	stopOnce  sync.Once

	// Owned by the event loop.
	conn       Conn
	gen        uint64
	attempts   int
	pending    *reconnectTask
	taskSeq    uint64
	cancelDial context.CancelFunc
}

type loopMsg interface{}

type dialResult struct {
	gen  uint64
	conn Conn
	err  error
}

type frameReceived struct {
	gen  uint64
	data []byte
}

type readFailed struct {
	gen uint64
	err error
}

type timerFired struct {
	id uint64
}

// New starts a Client for the push endpoint rawURL and begins connecting
// in the background. The endpoint cannot be changed afterwards.
func New(rawURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil, errors.NewConfigError("ws_url", "invalid push endpoint "+rawURL, err)
	}
	switch u.Scheme {
	case "ws", "wss", "http", "https":
	default:
		return nil, errors.NewConfigError("ws_url", "unsupported scheme "+u.Scheme, nil)
	}

	c := &Client{
		url:       rawURL,
		dialer:    WebSocketDialer{},
		policy:    DefaultReconnectPolicy(),
		clock:     SystemClock{},
		logger:    logging.Default(),
		inbox:     make(chan loopMsg),
		reconnect: make(chan struct{}, 1),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.registry == nil {
		c.registry = NewRegistry(c.logger)
	}
	if c.status == nil {
		c.status = NewStatusBroadcaster(StatusDisconnected, c.logger)
	}

	go c.run()
	return c, nil
}

// Subscribe registers h for change events of kind. See Registry.Subscribe.
func (c *Client) Subscribe(kind EntityKind, h Handler) (unsubscribe func()) {
	return c.registry.Subscribe(kind, h)
}

// SubscribeToStatus calls h with the current status and then with every
// transition. See StatusBroadcaster.Subscribe.
func (c *Client) SubscribeToStatus(h StatusHandler) (unsubscribe func()) {
	return c.status.Subscribe(h)
}

// Status returns the current connection status.
func (c *Client) Status() Status {
	return c.status.Status()
}

// URL returns the push endpoint.
func (c *Client) URL() string {
	return c.url
}

// Registry returns the registry events are published to.
func (c *Client) Registry() *Registry {
	return c.registry
}

// Disconnect tears the client down: the pending reconnect is canceled, the
// connection is closed and every subscription is removed. It does not wait
// for the teardown, so it is safe to call from a handler; use Done to wait.
// Calling it again is a no-op.
func (c *Client) Disconnect() {
	c.stopOnce.Do(func() { close(c.quit) })
}

// Done is closed once Disconnect has finished tearing the client down.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Reconnect resets the attempt budget and connects immediately. It is the
// recovery path after the budget is spent. It does nothing while connected
// or connecting, or after Disconnect.
func (c *Client) Reconnect() {
	select {
	case c.reconnect <- struct{}{}:
	default:
	}
}

// post hands m to the event loop, giving up once the loop has stopped.
func (c *Client) post(m loopMsg) bool {
	select {
	case c.inbox <- m:
		return true
	case <-c.done:
		return false
	}
}

func (c *Client) run() {
	defer close(c.done)

	c.logger.Info().Str("endpoint", c.url).Msg("Starting realtime client")
	c.connect()

	for {
		select {
		case <-c.quit:
			c.teardown()
			return
		default:
		}

		select {
		case <-c.quit:
			c.teardown()
			return
		case <-c.reconnect:
			c.onReconnectRequest()
		case m := <-c.inbox:
			c.handle(m)
		}
	}
}

func (c *Client) handle(m loopMsg) {
	switch m := m.(type) {
	case dialResult:
		c.onDial(m)
	case frameReceived:
		if m.gen == c.gen && c.conn != nil {
			c.onFrame(m.data)
		}
	case readFailed:
		c.onReadFailed(m)
	case timerFired:
		c.onTimer(m.id)
	}
}

// connect starts a connection attempt, replacing any pending reconnect.
func (c *Client) connect() {
	c.cancelPending()
	c.gen++
	gen := c.gen

	ctx, cancel := context.WithCancel(context.Background())
	c.cancelDial = cancel

	c.status.set(StatusConnecting)
	c.logger.Debug().Str("endpoint", c.url).Int("attempt", c.attempts).Msg("Connecting")

	go func() {
		conn, err := c.dialer.Dial(ctx, c.url)
		if !c.post(dialResult{gen: gen, conn: conn, err: err}) && conn != nil {
			_ = conn.Close()
		}
	}()
}

func (c *Client) onDial(r dialResult) {
	if r.gen != c.gen {
		if r.conn != nil {
			_ = r.conn.Close()
		}
		return
	}
	c.clearDial()

	if r.err != nil {
		c.logger.Warn().Err(r.err).Str("endpoint", c.url).Msg("Push channel connection failed")
		c.status.set(StatusError)
		c.onClosed()
		return
	}

	c.conn = r.conn
	c.attempts = 0
	c.status.set(StatusConnected)
	c.logger.Info().Str("endpoint", c.url).Msg("Push channel connected")

	go c.readLoop(r.gen, r.conn)
}

// readLoop forwards frames from conn to the event loop until Read fails.
func (c *Client) readLoop(gen uint64, conn Conn) {
	for {
		data, err := conn.Read()
		if err != nil {
			c.post(readFailed{gen: gen, err: err})
			return
		}
		if !c.post(frameReceived{gen: gen, data: data}) {
			return
		}
	}
}

func (c *Client) onFrame(data []byte) {
	event, err := Decode(data)
	if err != nil {
		ev := c.logger.Warn().Err(err)
		var frameErr *errors.FrameError
		if stderrors.As(err, &frameErr) {
			ev = ev.Int("step", frameErr.Step).Str("reason", frameErr.Reason)
		}
		ev.Int("bytes", len(data)).Msg("Dropping invalid frame")
		return
	}

	n := c.registry.Publish(event)
	c.logger.Debug().
		Str("kind", event.Kind.String()).
		Str("action", event.Action.String()).
		Int64("id", event.Payload.ID).
		Int("subscribers", n).
		Msg("Change event published")
}

func (c *Client) onReadFailed(m readFailed) {
	if m.gen != c.gen || c.conn == nil {
		return
	}
	_ = c.conn.Close()
	c.conn = nil

	if m.err == io.EOF {
		c.logger.Info().Str("endpoint", c.url).Msg("Push channel closed by server")
	} else {
		c.logger.Warn().Err(m.err).Str("endpoint", c.url).Msg("Push channel error")
		c.status.set(StatusError)
	}
	c.onClosed()
}

func (c *Client) onReconnectRequest() {
	if c.conn != nil || c.cancelDial != nil {
		c.logger.Debug().Msg("Reconnect requested while connected or connecting, ignoring")
		return
	}
	c.logger.Info().Str("endpoint", c.url).Msg("Manual reconnect")
	c.attempts = 0
	c.connect()
}

func (c *Client) clearDial() {
	if c.cancelDial != nil {
		c.cancelDial()
		c.cancelDial = nil
	}
}

func (c *Client) teardown() {
	c.cancelPending()
	c.clearDial()
	c.gen++
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.registry.Clear()
	c.status.set(StatusDisconnected)
	c.logger.Info().Str("endpoint", c.url).Msg("Realtime client disconnected")
}
