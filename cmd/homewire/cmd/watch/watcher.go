package watch

import (
	"context"
	"io"
	"sync"

	"github.com/agentstation/utc"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"github.com/agentstation/homewire/internal/cmd/output"
	"github.com/agentstation/homewire/pkg/binding"
	"github.com/agentstation/homewire/pkg/realtime"
	"github.com/agentstation/homewire/pkg/records"
)

// Options control what a Watcher prints.
type Options struct {
	// Kinds to follow. Empty means every kind.
	Kinds []realtime.EntityKind

	// Notify adds the notification text to each event line.
	Notify bool

	// Language of status text and notifications.
	Language language.Tag
}

// Watcher prints status transitions and change events. When it has a
// fetcher it also reloads the record after CREATE and UPDATE events.
type Watcher struct {
	opts      Options
	formatter output.Formatter
	fetcher   *records.CachedFetcher
	logger    *zerolog.Logger

	mu  sync.Mutex
	out io.Writer

	// reloads in flight
	wg sync.WaitGroup
}

// NewWatcher creates a Watcher writing to out. fetcher may be nil.
func NewWatcher(out io.Writer, formatter output.Formatter, fetcher *records.CachedFetcher, logger *zerolog.Logger, opts Options) *Watcher {
	if len(opts.Kinds) == 0 {
		opts.Kinds = realtime.EntityKinds
	}
	return &Watcher{
		opts:      opts,
		formatter: formatter,
		fetcher:   fetcher,
		logger:    logger,
		out:       out,
	}
}

// Status prints one status transition.
func (w *Watcher) Status(s realtime.Status) {
	w.print(output.StatusLine{
		Time:        utc.Now(),
		Status:      s,
		Label:       s.Label(w.opts.Language),
		Description: s.Description(w.opts.Language),
	})
}

// Event prints one change event.
func (w *Watcher) Event(e realtime.ChangeEvent) {
	var notification string
	if w.opts.Notify {
		notification = binding.Message(e.Kind, e.Action, w.opts.Language)
	}
	w.print(output.NewEventLine(e, notification))
}

// Attach subscribes to src for every watched kind. Reloads run on ctx.
// The returned function detaches again.
func (w *Watcher) Attach(ctx context.Context, src binding.Source) (detach func(), err error) {
	var closers []func()
	detach = func() {
		for _, c := range closers {
			c()
		}
	}

	for _, kind := range w.opts.Kinds {
		closers = append(closers, src.Subscribe(kind, w.Event))

		if w.fetcher == nil {
			continue
		}
		b, err := w.bindReload(ctx, src, kind)
		if err != nil {
			detach()
			return nil, err
		}
		closers = append(closers, b.Close)
	}
	return detach, nil
}

// bindReload binds the typed hooks that keep the record cache fresh.
// Notifications are printed on event lines, so the binding's own are off.
func (w *Watcher) bindReload(ctx context.Context, src binding.Source, kind realtime.EntityKind) (*binding.Binding, error) {
	opts := []binding.Option{binding.WithNotifications(false), binding.WithLogger(w.logger)}

	if kind == realtime.KindFlat {
		reload := func(f records.Flat) {
			w.reload(ctx, kind, f.ID, func(ctx context.Context) (any, error) {
				return w.fetcher.FetchFlat(ctx, f.ID)
			})
		}
		return binding.Bind(src, kind, binding.Hooks[records.Flat]{
			OnCreate: reload,
			OnUpdate: reload,
			OnDelete: func(id int64) { w.fetcher.Invalidate(kind, id) },
		}, opts...)
	}

	reload := func(h records.House) {
		w.reload(ctx, kind, h.ID, func(ctx context.Context) (any, error) {
			return w.fetcher.FetchHouse(ctx, h.ID)
		})
	}
	return binding.Bind(src, kind, binding.Hooks[records.House]{
		OnCreate: reload,
		OnUpdate: reload,
		OnDelete: func(id int64) { w.fetcher.Invalidate(kind, id) },
	}, opts...)
}

// reload evicts the cached record and loads it again off the event path,
// since hooks run on the client's event loop.
func (w *Watcher) reload(ctx context.Context, kind realtime.EntityKind, id int64, fetch func(context.Context) (any, error)) {
	w.fetcher.Invalidate(kind, id)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		record, err := fetch(ctx)
		if err != nil {
			if ctx.Err() == nil {
				w.logger.Warn().Err(err).
					Str("kind", kind.String()).
					Int64("id", id).
					Msg("Failed to reload record")
			}
			return
		}
		w.print(output.RecordLine{Time: utc.Now(), Type: kind, ID: id, Record: record})
	}()
}

// Wait blocks until every reload has finished.
func (w *Watcher) Wait() {
	w.wg.Wait()
}

func (w *Watcher) print(v any) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.formatter.Format(w.out, v); err != nil {
		w.logger.Error().Err(err).Msg("Failed to write output")
	}
}
