package realtime

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/agentstation/homewire/pkg/errors"
	"github.com/agentstation/homewire/pkg/logging"
)

// StatusBroadcaster holds the current connection Status and notifies
// observers of every change. A new observer is called synchronously with
// the current value before Subscribe returns.
//
// Each observer sees the replayed value followed by every later transition,
// exactly once and in order.
type StatusBroadcaster struct {
	mu        sync.Mutex
	status    Status
	observers map[string]*statusObserver
	logger    *zerolog.Logger
}

type statusObserver struct {
	id string
	h  StatusHandler

	// delivery serializes calls to h so the replay cannot be overtaken by a
	// concurrent transition.
	delivery sync.Mutex
	active   atomic.Bool
}

// NewStatusBroadcaster creates a broadcaster holding initial.
// A nil logger selects logging.Default().
func NewStatusBroadcaster(initial Status, logger *zerolog.Logger) *StatusBroadcaster {
	if logger == nil {
		logger = logging.Default()
	}
	return &StatusBroadcaster{
		status:    initial,
		observers: make(map[string]*statusObserver),
		logger:    logger,
	}
}

// Status returns the current value.
func (b *StatusBroadcaster) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

// Subscribe calls h with the current status, then with every transition
// until the returned function is called. The returned function is idempotent
// and may be called from inside h.
func (b *StatusBroadcaster) Subscribe(h StatusHandler) (unsubscribe func()) {
	if h == nil {
		return func() {}
	}

	o := &statusObserver{id: uuid.NewString(), h: h}
	o.active.Store(true)

	o.delivery.Lock()
	b.mu.Lock()
	b.observers[o.id] = o
	current := b.status
	b.mu.Unlock()

	b.call(o, current)
	o.delivery.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			o.active.Store(false)
			b.mu.Lock()
			delete(b.observers, o.id)
			b.mu.Unlock()
		})
	}
}

// set stores s and notifies every observer registered at the time of the
// call. It reports whether the value changed; setting the current value
// again is a no-op.
func (b *StatusBroadcaster) set(s Status) bool {
	b.mu.Lock()
	if b.status == s {
		b.mu.Unlock()
		return false
	}
	b.status = s
	snapshot := make([]*statusObserver, 0, len(b.observers))
	for _, o := range b.observers {
		snapshot = append(snapshot, o)
	}
	b.mu.Unlock()

	b.logger.Debug().Str("status", s.String()).Int("observers", len(snapshot)).Msg("Status changed")

	for _, o := range snapshot {
		o.delivery.Lock()
		b.call(o, s)
		o.delivery.Unlock()
	}
	return true
}

// Len returns the number of registered observers.
func (b *StatusBroadcaster) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.observers)
}

func (b *StatusBroadcaster) call(o *statusObserver, s Status) {
	if !o.active.Load() {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			b.logger.Error().
				Err(errors.NewCallbackError("status", o.id, rec)).
				Str("status", s.String()).
				Msg("Status observer panicked")
		}
	}()
	o.h(s)
}
