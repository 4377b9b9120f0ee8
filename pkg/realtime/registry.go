package realtime

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/agentstation/homewire/pkg/errors"
	"github.com/agentstation/homewire/pkg/logging"
)

// Registry fans change events out to handlers registered per EntityKind.
// It is safe for concurrent use. Handlers run on the publishing goroutine,
// outside the registry lock, so a handler may subscribe or unsubscribe.
type Registry struct {
	mu     sync.Mutex
	subs   map[EntityKind]map[string]Handler
	logger *zerolog.Logger
}

// NewRegistry creates an empty registry. A nil logger selects logging.Default().
func NewRegistry(logger *zerolog.Logger) *Registry {
	if logger == nil {
		logger = logging.Default()
	}
	return &Registry{
		subs:   make(map[EntityKind]map[string]Handler),
		logger: logger,
	}
}

// Subscribe registers h for events of kind and returns a function removing
// exactly that registration. The returned function is idempotent.
func (r *Registry) Subscribe(kind EntityKind, h Handler) (unsubscribe func()) {
	if h == nil {
		return func() {}
	}

	id := uuid.NewString()
	r.mu.Lock()
	set, ok := r.subs[kind]
	if !ok {
		set = make(map[string]Handler)
		r.subs[kind] = set
	}
	set[id] = h
	r.mu.Unlock()

	r.logger.Debug().
		Str("kind", kind.String()).
		Str("subscription_id", id).
		Msg("Subscribed")

	var once sync.Once
	return func() {
		once.Do(func() { r.remove(kind, id) })
	}
}

func (r *Registry) remove(kind EntityKind, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.subs[kind]
	if !ok {
		return
	}
	delete(set, id)
	if len(set) == 0 {
		delete(r.subs, kind)
	}
}

type subscription struct {
	id string
	h  Handler
}

// Publish delivers e to every handler registered for e.Kind at the time of
// the call and returns how many handlers were invoked. A panicking handler is
// logged and does not stop delivery to the others. Events with no handlers
// are dropped.
func (r *Registry) Publish(e ChangeEvent) int {
	r.mu.Lock()
	snapshot := make([]subscription, 0, len(r.subs[e.Kind]))
	for id, h := range r.subs[e.Kind] {
		snapshot = append(snapshot, subscription{id: id, h: h})
	}
	r.mu.Unlock()

	for _, s := range snapshot {
		r.deliver(s, e)
	}
	return len(snapshot)
}

func (r *Registry) deliver(s subscription, e ChangeEvent) {
	defer func() {
		if rec := recover(); rec != nil {
			err := errors.NewCallbackError(e.Kind.String(), s.id, rec)
			r.logger.Error().
				Err(err).
				Str("kind", e.Kind.String()).
				Str("action", e.Action.String()).
				Msg("Subscriber panicked")
		}
	}()
	s.h(e)
}

// Clear removes every registration. Unsubscribe functions obtained earlier
// become no-ops.
func (r *Registry) Clear() {
	r.mu.Lock()
	r.subs = make(map[EntityKind]map[string]Handler)
	r.mu.Unlock()
}

// Len returns the total number of registrations.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, set := range r.subs {
		n += len(set)
	}
	return n
}

// Count returns the number of registrations for kind.
func (r *Registry) Count(kind EntityKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs[kind])
}
