package records

import (
	"context"
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/agentstation/homewire/pkg/logging"
	"github.com/agentstation/homewire/pkg/realtime"
)

// CachedFetcher wraps a Fetcher with a TTL cache. Change events evict the
// affected record through Observe, so the next fetch after a notification
// goes to the backend.
type CachedFetcher struct {
	next   Fetcher
	store  *gocache.Cache
	logger *zerolog.Logger
}

// NewCachedFetcher caches records loaded through next for ttl.
// cleanupInterval is how often expired items are removed from memory.
func NewCachedFetcher(next Fetcher, ttl, cleanupInterval time.Duration) *CachedFetcher {
	return &CachedFetcher{
		next:   next,
		store:  gocache.New(ttl, cleanupInterval),
		logger: logging.Default(),
	}
}

// WithLogger sets the logger used for cache diagnostics.
func (f *CachedFetcher) WithLogger(logger *zerolog.Logger) *CachedFetcher {
	if logger != nil {
		f.logger = logger
	}
	return f
}

func cacheKey(kind realtime.EntityKind, id int64) string {
	return kind.String() + ":" + strconv.FormatInt(id, 10)
}

// FetchFlat returns the cached flat or loads it.
func (f *CachedFetcher) FetchFlat(ctx context.Context, id int64) (*Flat, error) {
	return cached(f, realtime.KindFlat, id, func() (*Flat, error) {
		return f.next.FetchFlat(ctx, id)
	})
}

// FetchHouse returns the cached house or loads it.
func (f *CachedFetcher) FetchHouse(ctx context.Context, id int64) (*House, error) {
	return cached(f, realtime.KindHouse, id, func() (*House, error) {
		return f.next.FetchHouse(ctx, id)
	})
}

func cached[T Record](f *CachedFetcher, kind realtime.EntityKind, id int64, load func() (*T, error)) (*T, error) {
	key := cacheKey(kind, id)
	if v, ok := f.store.Get(key); ok {
		if rec, ok := v.(*T); ok {
			return rec, nil
		}
	}
	rec, err := load()
	if err != nil {
		return nil, err
	}
	f.store.Set(key, rec, gocache.DefaultExpiration)
	return rec, nil
}

// Invalidate evicts one record.
func (f *CachedFetcher) Invalidate(kind realtime.EntityKind, id int64) {
	f.store.Delete(cacheKey(kind, id))
}

// Observe evicts the record a change event refers to. It has the shape of
// a realtime.Handler so it can be subscribed directly.
func (f *CachedFetcher) Observe(e realtime.ChangeEvent) {
	if e.Payload.ID <= 0 {
		return
	}
	f.Invalidate(e.Kind, e.Payload.ID)
	f.logger.Debug().
		Str("kind", e.Kind.String()).
		Str("action", e.Action.String()).
		Int64("id", e.Payload.ID).
		Msg("Evicted cached record")
}

// Clear removes every cached record.
func (f *CachedFetcher) Clear() {
	f.store.Flush()
}

// Len returns the number of cached records.
func (f *CachedFetcher) Len() int {
	return f.store.ItemCount()
}
