package watch

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/agentstation/homewire/internal/cmd/output"
	"github.com/agentstation/homewire/pkg/errors"
	"github.com/agentstation/homewire/pkg/logging"
	"github.com/agentstation/homewire/pkg/realtime"
	"github.com/agentstation/homewire/pkg/records"
)

const flatJSON = `{"id":7,"name":"Sunny","coordinates":{"x":1,"y":2},"area":42,"price":100000,` +
	`"timeToMetroOnFoot":5,"numberOfRooms":2,"livingSpace":30,"furnish":"FINE","view":"YARD","floor":3}`

type fakeFetcher struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeFetcher) FetchFlat(_ context.Context, id int64) (*records.Flat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return &records.Flat{ID: id, Name: "Reloaded"}, nil
}

func (f *fakeFetcher) FetchHouse(_ context.Context, id int64) (*records.House, error) {
	return nil, errors.NewNotFoundError("house", strconv.FormatInt(id, 10))
}

func (f *fakeFetcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func lines(t *testing.T, buf *logging.SyncBuffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		out = append(out, m)
	}
	return out
}

func flatEvent(t *testing.T, action realtime.Action) realtime.ChangeEvent {
	t.Helper()
	if action == realtime.ActionDelete {
		return realtime.ChangeEvent{Kind: realtime.KindFlat, Action: action, Payload: realtime.IDPayload(7)}
	}
	payload, err := realtime.RecordPayload(json.RawMessage(flatJSON))
	require.NoError(t, err)
	return realtime.ChangeEvent{Kind: realtime.KindFlat, Action: action, Payload: payload}
}

func TestWatcherPrintsEventsForWatchedKinds(t *testing.T) {
	buf := &logging.SyncBuffer{}
	registry := realtime.NewRegistry(logging.NewNopLogger())
	w := NewWatcher(buf, output.NewFormatter(output.FormatJSON), nil, logging.NewNopLogger(), Options{
		Kinds:    []realtime.EntityKind{realtime.KindFlat},
		Notify:   true,
		Language: language.English,
	})

	detach, err := w.Attach(context.Background(), registry)
	require.NoError(t, err)
	defer detach()

	registry.Publish(flatEvent(t, realtime.ActionCreate))
	registry.Publish(realtime.ChangeEvent{Kind: realtime.KindHouse, Action: realtime.ActionDelete, Payload: realtime.IDPayload(3)})
	registry.Publish(flatEvent(t, realtime.ActionDelete))

	got := lines(t, buf)
	require.Len(t, got, 2)
	assert.Equal(t, "CREATE", got[0]["action"])
	assert.Equal(t, "New flat added", got[0]["notification"])
	assert.Equal(t, "Sunny", got[0]["record"].(map[string]any)["name"])
	assert.Equal(t, "DELETE", got[1]["action"])
	assert.Equal(t, "Flat deleted", got[1]["notification"])
	assert.NotContains(t, got[1], "record")
}

func TestWatcherWithoutNotifications(t *testing.T) {
	buf := &logging.SyncBuffer{}
	registry := realtime.NewRegistry(logging.NewNopLogger())
	w := NewWatcher(buf, output.NewFormatter(output.FormatJSON), nil, logging.NewNopLogger(), Options{})

	detach, err := w.Attach(context.Background(), registry)
	require.NoError(t, err)
	defer detach()

	registry.Publish(realtime.ChangeEvent{Kind: realtime.KindHouse, Action: realtime.ActionDelete, Payload: realtime.IDPayload(3)})

	got := lines(t, buf)
	require.Len(t, got, 1)
	assert.Equal(t, "HOUSE", got[0]["type"])
	assert.NotContains(t, got[0], "notification")
}

func TestWatcherDetach(t *testing.T) {
	buf := &logging.SyncBuffer{}
	registry := realtime.NewRegistry(logging.NewNopLogger())
	fetcher := records.NewCachedFetcher(&fakeFetcher{}, time.Minute, time.Minute)
	w := NewWatcher(buf, output.NewFormatter(output.FormatJSON), fetcher, logging.NewNopLogger(), Options{})

	detach, err := w.Attach(context.Background(), registry)
	require.NoError(t, err)
	assert.Equal(t, 4, registry.Len())

	detach()
	assert.Equal(t, 0, registry.Len())

	registry.Publish(flatEvent(t, realtime.ActionDelete))
	assert.Empty(t, buf.String())
}

func TestWatcherReloadsRecords(t *testing.T) {
	buf := &logging.SyncBuffer{}
	registry := realtime.NewRegistry(logging.NewNopLogger())
	fake := &fakeFetcher{}
	fetcher := records.NewCachedFetcher(fake, time.Minute, time.Minute)
	w := NewWatcher(buf, output.NewFormatter(output.FormatJSON), fetcher, logging.NewNopLogger(), Options{
		Kinds: []realtime.EntityKind{realtime.KindFlat},
	})

	detach, err := w.Attach(context.Background(), registry)
	require.NoError(t, err)
	defer detach()

	registry.Publish(flatEvent(t, realtime.ActionUpdate))
	w.Wait()
	registry.Publish(flatEvent(t, realtime.ActionUpdate))
	w.Wait()

	// Each update evicts the cached copy, so both reach the backend.
	assert.Equal(t, 2, fake.count())

	var reloaded []map[string]any
	for _, line := range lines(t, buf) {
		if _, ok := line["action"]; !ok {
			reloaded = append(reloaded, line)
		}
	}
	require.Len(t, reloaded, 2)
	assert.Equal(t, float64(7), reloaded[0]["id"])
	assert.Equal(t, "Reloaded", reloaded[0]["record"].(map[string]any)["name"])

	registry.Publish(flatEvent(t, realtime.ActionDelete))
	assert.Equal(t, 0, fetcher.Len())
}

func TestWatcherReloadFailureIsLogged(t *testing.T) {
	buf := &logging.SyncBuffer{}
	logs := logging.NewTestLogger(t)
	registry := realtime.NewRegistry(logging.NewNopLogger())
	fetcher := records.NewCachedFetcher(&fakeFetcher{}, time.Minute, time.Minute)
	w := NewWatcher(buf, output.NewFormatter(output.FormatJSON), fetcher, logs.Logger, Options{
		Kinds: []realtime.EntityKind{realtime.KindHouse},
	})

	detach, err := w.Attach(context.Background(), registry)
	require.NoError(t, err)
	defer detach()

	payload, err := realtime.RecordPayload(json.RawMessage(`{"id":3,"name":"Tower","year":1990,"numberOfFlatsOnFloor":4}`))
	require.NoError(t, err)
	registry.Publish(realtime.ChangeEvent{Kind: realtime.KindHouse, Action: realtime.ActionCreate, Payload: payload})
	w.Wait()

	assert.Len(t, lines(t, buf), 1)
	logs.AssertContains(t, "Failed to reload record")
}

func TestWatcherStatusLine(t *testing.T) {
	buf := &logging.SyncBuffer{}
	w := NewWatcher(buf, output.NewFormatter(output.FormatJSON), nil, logging.NewNopLogger(), Options{Language: language.Russian})

	w.Status(realtime.StatusConnected)

	got := lines(t, buf)
	require.Len(t, got, 1)
	assert.Equal(t, "CONNECTED", got[0]["status"])
	assert.Equal(t, "Подключено", got[0]["label"])
}
