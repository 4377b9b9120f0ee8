// Package binding adapts realtime change events to typed per-action hooks
// for one entity kind.
//
// A Binding subscribes on construction and unsubscribes on Close. Record
// payloads of CREATE and UPDATE events are decoded into the binding's
// record type and validated before the typed hook sees them.
package binding

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"github.com/agentstation/homewire/pkg/errors"
	"github.com/agentstation/homewire/pkg/logging"
	"github.com/agentstation/homewire/pkg/realtime"
	"github.com/agentstation/homewire/pkg/records"
)

// Source is anything change events can be subscribed to, such as a
// *realtime.Client or a *realtime.Registry.
type Source interface {
	Subscribe(kind realtime.EntityKind, h realtime.Handler) (unsubscribe func())
}

// Hooks are the callbacks of a binding. Any of them may be nil.
//
// OnCreate and OnUpdate receive every record that decodes into T. With
// WithValidation(true) they only see records passing records.Validate.
type Hooks[T records.Record] struct {
	OnCreate func(record T)
	OnUpdate func(record T)
	OnDelete func(id int64)

	// OnDataChange runs after every event, whatever the action and whether
	// or not the typed hook ran.
	OnDataChange func()
}

type config struct {
	notify   bool
	validate bool
	notifier Notifier
	language language.Tag
	logger   *zerolog.Logger
}

// Option configures a binding.
type Option func(*config)

// WithNotifications turns notifications on or off. They are on by default.
func WithNotifications(show bool) Option {
	return func(c *config) {
		c.notify = show
	}
}

// WithValidation makes typed hooks skip records that fail records.Validate.
// It is off by default.
func WithValidation(on bool) Option {
	return func(c *config) {
		c.validate = on
	}
}

// WithNotifier sets where notifications go. The default logs them.
func WithNotifier(n Notifier) Option {
	return func(c *config) {
		if n != nil {
			c.notifier = n
		}
	}
}

// WithLanguage sets the notification language.
func WithLanguage(tag language.Tag) Option {
	return func(c *config) {
		c.language = tag
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Binding is a live subscription for one entity kind.
type Binding struct {
	kind        realtime.EntityKind
	unsubscribe func()
	once        sync.Once
	closed      atomic.Bool
}

// Kind returns the entity kind the binding listens to.
func (b *Binding) Kind() realtime.EntityKind {
	return b.kind
}

// Close unsubscribes. It is idempotent and may be called from a hook.
// No hook runs after Close returns, except one already executing.
func (b *Binding) Close() {
	b.once.Do(func() {
		b.closed.Store(true)
		b.unsubscribe()
	})
}

// Closed reports whether Close has been called.
func (b *Binding) Closed() bool {
	return b.closed.Load()
}

// Bind subscribes hooks to events of kind on src. The record type T must
// match kind: records.Flat for FLAT and records.House for HOUSE.
func Bind[T records.Record](src Source, kind realtime.EntityKind, hooks Hooks[T], opts ...Option) (*Binding, error) {
	if src == nil {
		return nil, errors.NewValidationError("source", nil, "is required")
	}
	if !kind.Valid() {
		return nil, errors.NewValidationError("kind", kind, "must be FLAT or HOUSE")
	}
	if want := kindOf[T](); want != kind {
		return nil, errors.NewValidationError("kind", kind, fmt.Sprintf("record type %T is bound to %s", *new(T), want))
	}

	cfg := &config{
		notify:   true,
		language: language.English,
		logger:   logging.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.notifier == nil {
		cfg.notifier = LogNotifier{Logger: cfg.logger}
	}

	b := &Binding{kind: kind}
	h := &handler[T]{binding: b, hooks: hooks, cfg: cfg}
	b.unsubscribe = src.Subscribe(kind, h.handle)
	return b, nil
}

func kindOf[T records.Record]() realtime.EntityKind {
	switch any(*new(T)).(type) {
	case records.Flat:
		return realtime.KindFlat
	default:
		return realtime.KindHouse
	}
}

type handler[T records.Record] struct {
	binding *Binding
	hooks   Hooks[T]
	cfg     *config
}

func (h *handler[T]) handle(e realtime.ChangeEvent) {
	if h.binding.Closed() {
		return
	}

	if h.cfg.notify {
		h.cfg.notifier.Notify(Notification{
			Kind:   e.Kind,
			Action: e.Action,
			ID:     e.Payload.ID,
			Text:   Message(e.Kind, e.Action, h.cfg.language),
		})
	}

	switch e.Action {
	case realtime.ActionCreate:
		if h.hooks.OnCreate != nil {
			if rec, ok := h.decode(e); ok {
				h.hooks.OnCreate(rec)
			}
		}
	case realtime.ActionUpdate:
		if h.hooks.OnUpdate != nil {
			if rec, ok := h.decode(e); ok {
				h.hooks.OnUpdate(rec)
			}
		}
	case realtime.ActionDelete:
		if h.hooks.OnDelete != nil {
			h.hooks.OnDelete(e.Payload.ID)
		}
	}

	if h.hooks.OnDataChange != nil {
		h.hooks.OnDataChange()
	}
}

func (h *handler[T]) decode(e realtime.ChangeEvent) (T, bool) {
	var rec T
	if err := e.Payload.Decode(&rec); err != nil {
		h.cfg.logger.Warn().Err(err).
			Str("kind", e.Kind.String()).
			Str("action", e.Action.String()).
			Int64("id", e.Payload.ID).
			Msg("Skipping undecodable record")
		return rec, false
	}
	if !h.cfg.validate {
		return rec, true
	}
	if err := records.Validate(rec); err != nil {
		h.cfg.logger.Warn().Err(err).
			Str("kind", e.Kind.String()).
			Str("action", e.Action.String()).
			Int64("id", e.Payload.ID).
			Msg("Skipping invalid record")
		return rec, false
	}
	return rec, true
}
