package realtime

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/agentstation/homewire/pkg/logging"
)

const waitFor = 2 * time.Second
const tick = 5 * time.Millisecond

// manualClock records timers and fires them on demand.
type manualClock struct {
	mu     sync.Mutex
	timers []*manualTimer
}

type manualTimer struct {
	clock   *manualClock
	delay   time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, delay: d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// pending returns timers that are neither stopped nor fired.
func (c *manualClock) pending() []*manualTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*manualTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
	}
	return out
}

func (c *manualClock) created() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

func (t *manualTimer) isStopped() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	return t.stopped
}

// fire runs the timer callback as time.AfterFunc would, ignoring Stop.
func (t *manualTimer) fire() {
	t.clock.mu.Lock()
	t.fired = true
	t.clock.mu.Unlock()
	t.f()
}

// fireNext fires the single pending timer and fails if there is not exactly one.
func (c *manualClock) fireNext(t *testing.T) {
	t.Helper()
	p := c.pending()
	require.Len(t, p, 1, "expected exactly one pending reconnect timer")
	p[0].fire()
}

// fakeConn is an in-memory Conn fed by the test.
type fakeConn struct {
	frames chan []byte
	errs   chan error
	closed chan struct{}
	once   sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		frames: make(chan []byte, 16),
		errs:   make(chan error, 1),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) Read() ([]byte, error) {
	select {
	case data := <-c.frames:
		return data, nil
	case err := <-c.errs:
		return nil, err
	case <-c.closed:
		return nil, errors.New("use of closed connection")
	}
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *fakeConn) send(frame string) {
	c.frames <- []byte(frame)
}

// fakeDialer hands out connections produced by next and counts dials.
type fakeDialer struct {
	mu    sync.Mutex
	dials int
	conns []*fakeConn
	next  func(n int) (*fakeConn, error)
}

func (d *fakeDialer) Dial(ctx context.Context, url string) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	conn, err := d.next(d.dials)
	if err != nil {
		return nil, err
	}
	d.conns = append(d.conns, conn)
	return conn, nil
}

func (d *fakeDialer) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

func (d *fakeDialer) last() *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.conns) == 0 {
		return nil
	}
	return d.conns[len(d.conns)-1]
}

func alwaysConnect() func(int) (*fakeConn, error) {
	return func(int) (*fakeConn, error) { return newFakeConn(), nil }
}

func alwaysFail() func(int) (*fakeConn, error) {
	return func(int) (*fakeConn, error) { return nil, errors.New("connection refused") }
}

// statusRecorder collects status values in delivery order.
type statusRecorder struct {
	mu   sync.Mutex
	seen []Status
}

func (r *statusRecorder) record(s Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, s)
}

func (r *statusRecorder) values() []Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Status(nil), r.seen...)
}

func (r *statusRecorder) last() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.seen) == 0 {
		return ""
	}
	return r.seen[len(r.seen)-1]
}

// eventRecorder collects change events in delivery order.
type eventRecorder struct {
	mu     sync.Mutex
	events []ChangeEvent
}

func (r *eventRecorder) record(e ChangeEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *eventRecorder) all() []ChangeEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ChangeEvent(nil), r.events...)
}

func (r *eventRecorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

type harness struct {
	client   *Client
	dialer   *fakeDialer
	clock    *manualClock
	statuses *statusRecorder
	log      *logging.TestLogger
}

// newHarness builds a Client on fakes. The status recorder is attached
// before the client starts so it sees the initial DISCONNECTED.
func newHarness(t *testing.T, next func(int) (*fakeConn, error), opts ...Option) *harness {
	t.Helper()

	h := &harness{
		dialer:   &fakeDialer{next: next},
		clock:    &manualClock{},
		statuses: &statusRecorder{},
		log:      logging.NewTestLogger(t),
	}
	broadcaster := NewStatusBroadcaster(StatusDisconnected, h.log.Logger)
	broadcaster.Subscribe(h.statuses.record)

	base := []Option{
		WithDialer(h.dialer),
		WithClock(h.clock),
		WithLogger(h.log.Logger),
		WithStatusBroadcaster(broadcaster),
	}
	client, err := New("ws://push.test/websocket/updates", append(base, opts...)...)
	require.NoError(t, err)
	h.client = client

	t.Cleanup(func() {
		client.Disconnect()
		<-client.Done()
	})
	return h
}

func (h *harness) waitStatus(t *testing.T, want Status) {
	t.Helper()
	require.Eventually(t, func() bool { return h.statuses.last() == want }, waitFor, tick,
		"status never became %s, saw %v", want, h.statuses.values())
}

func (h *harness) waitDials(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return h.dialer.count() == n }, waitFor, tick,
		"expected %d dials, got %d", n, h.dialer.count())
}

func (h *harness) waitPending(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return len(h.clock.pending()) == n }, waitFor, tick,
		"expected %d pending timers, got %d", n, len(h.clock.pending()))
}

func (h *harness) waitLog(t *testing.T, substr string) {
	t.Helper()
	require.Eventually(t, func() bool { return h.log.Contains(substr) }, waitFor, tick,
		"log never contained %q", substr)
}

// closeClean makes the current connection report a clean server close.
func (c *fakeConn) closeClean() {
	c.errs <- io.EOF
}

// fail makes the current connection report an abnormal read error.
func (c *fakeConn) fail() {
	c.errs <- errors.New("connection reset by peer")
}
