package realtime

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/agentstation/homewire/pkg/errors"
	"github.com/agentstation/homewire/pkg/logging"
)

func TestNewRejectsInvalidEndpoint(t *testing.T) {
	for _, raw := range []string{"", "not a url", "ftp://host/updates", "ws://"} {
		_, err := New(raw, WithDialer(&fakeDialer{next: alwaysFail()}))
		var cfgErr *pkgerrors.ConfigError
		assert.True(t, errors.As(err, &cfgErr), "endpoint %q", raw)
	}
}

func TestClientStatusSequenceOnOpen(t *testing.T) {
	h := newHarness(t, alwaysConnect())

	h.waitStatus(t, StatusConnected)

	assert.Equal(t, []Status{StatusDisconnected, StatusConnecting, StatusConnected}, h.statuses.values())
	assert.Equal(t, StatusConnected, h.client.Status())
	assert.Equal(t, "ws://push.test/websocket/updates", h.client.URL())
}

func TestClientSubscribeToStatusReplays(t *testing.T) {
	h := newHarness(t, alwaysConnect())
	h.waitStatus(t, StatusConnected)

	rec := &statusRecorder{}
	unsubscribe := h.client.SubscribeToStatus(rec.record)
	defer unsubscribe()

	assert.Equal(t, []Status{StatusConnected}, rec.values())
}

func TestClientDispatchesDeleteByKind(t *testing.T) {
	h := newHarness(t, alwaysConnect())
	h.waitStatus(t, StatusConnected)

	flats, houses := &eventRecorder{}, &eventRecorder{}
	h.client.Subscribe(KindFlat, flats.record)
	h.client.Subscribe(KindHouse, houses.record)

	h.dialer.last().send(`{"type":"FLAT","action":"DELETE","data":42}`)

	require.Eventually(t, func() bool { return flats.len() == 1 }, waitFor, tick)
	event := flats.all()[0]
	assert.Equal(t, ActionDelete, event.Action)
	assert.Equal(t, int64(42), event.Payload.ID)
	assert.False(t, event.Payload.IsRecord())
	assert.Equal(t, 0, houses.len())
}

func TestClientDropsMalformedFramesAndKeepsOrder(t *testing.T) {
	h := newHarness(t, alwaysConnect())
	h.waitStatus(t, StatusConnected)

	rec := &eventRecorder{}
	h.client.Subscribe(KindFlat, rec.record)
	h.client.Subscribe(KindHouse, rec.record)

	conn := h.dialer.last()
	conn.send(`{"type":"FLAT","action":"CREATE","data":{"id":1,"name":"a"}}`)
	conn.send(`not json`)
	conn.send(`{"type":"GARAGE","action":"DELETE","data":1}`)
	conn.send(`{"type":"FLAT","action":"MOVE","data":1}`)
	conn.send(`{"type":"FLAT","action":"DELETE","data":{"id":1}}`)
	conn.send(`{"type":"HOUSE","action":"UPDATE","data":{"id":2}}`)
	conn.send(`{"type":"FLAT","action":"DELETE","data":3}`)

	require.Eventually(t, func() bool { return rec.len() == 3 }, waitFor, tick)
	events := rec.all()
	assert.Equal(t, []int64{1, 2, 3}, []int64{events[0].Payload.ID, events[1].Payload.ID, events[2].Payload.ID})
	assert.Equal(t, StatusConnected, h.client.Status(), "bad frames never affect the connection")
	h.log.AssertContains(t, "Dropping invalid frame")
	h.log.AssertContains(t, `"step":3`)
}

func TestClientPanickingSubscriberDoesNotBreakDelivery(t *testing.T) {
	h := newHarness(t, alwaysConnect())
	h.waitStatus(t, StatusConnected)

	rec := &eventRecorder{}
	h.client.Subscribe(KindHouse, func(ChangeEvent) { panic("boom") })
	h.client.Subscribe(KindHouse, rec.record)

	conn := h.dialer.last()
	conn.send(`{"type":"HOUSE","action":"DELETE","data":1}`)
	conn.send(`{"type":"HOUSE","action":"DELETE","data":2}`)

	require.Eventually(t, func() bool { return rec.len() == 2 }, waitFor, tick)
	assert.Equal(t, StatusConnected, h.client.Status())
}

func TestClientCleanCloseSchedulesReconnect(t *testing.T) {
	h := newHarness(t, alwaysConnect())
	h.waitStatus(t, StatusConnected)

	h.dialer.last().closeClean()
	h.waitPending(t, 1)

	assert.Equal(t, []Status{StatusDisconnected, StatusConnecting, StatusConnected, StatusDisconnected}, h.statuses.values())
	assert.Equal(t, 5*time.Second, h.clock.pending()[0].delay)

	h.clock.fireNext(t)
	h.waitDials(t, 2)
	h.waitStatus(t, StatusConnected)
}

func TestClientReadErrorPublishesErrorThenDisconnected(t *testing.T) {
	h := newHarness(t, alwaysConnect())
	h.waitStatus(t, StatusConnected)

	h.dialer.last().fail()
	h.waitPending(t, 1)

	assert.Equal(t, []Status{
		StatusDisconnected, StatusConnecting, StatusConnected, StatusError, StatusDisconnected,
	}, h.statuses.values())
}

func TestClientReconnectAttemptsAreCapped(t *testing.T) {
	h := newHarness(t, alwaysFail())

	for i := 1; i <= 10; i++ {
		h.waitDials(t, i)
		h.waitPending(t, 1)
		h.clock.fireNext(t)
	}

	h.waitDials(t, 11)
	h.waitLog(t, "Max reconnect attempts reached")

	// Give a stray 12th attempt a chance to show up.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 11, h.dialer.count(), "initial dial plus 10 reconnects")
	assert.Empty(t, h.clock.pending())
	assert.Equal(t, 10, h.clock.created())

	statuses := h.statuses.values()
	assert.Equal(t, []Status{StatusDisconnected, StatusError}, statuses[len(statuses)-2:])
}

func TestClientSuccessfulOpenResetsAttempts(t *testing.T) {
	h := newHarness(t, func(n int) (*fakeConn, error) {
		// dials 1-9 fail, 10 succeeds, everything after fails
		if n == 10 {
			return newFakeConn(), nil
		}
		return nil, errors.New("refused")
	})

	for i := 1; i <= 9; i++ {
		h.waitDials(t, i)
		h.waitPending(t, 1)
		h.clock.fireNext(t)
	}
	h.waitStatus(t, StatusConnected)

	h.dialer.last().fail()
	for i := 11; i <= 20; i++ {
		h.waitPending(t, 1)
		h.clock.fireNext(t)
		h.waitDials(t, i)
	}

	// A full fresh budget of 10 was available after the successful open.
	h.waitLog(t, "Max reconnect attempts reached")
	assert.Equal(t, 20, h.dialer.count())
	assert.Empty(t, h.clock.pending())
}

func TestClientAtMostOnePendingTimer(t *testing.T) {
	h := newHarness(t, func(n int) (*fakeConn, error) {
		if n == 1 {
			return newFakeConn(), nil
		}
		return nil, errors.New("refused")
	})
	h.waitStatus(t, StatusConnected)

	h.dialer.last().closeClean()
	h.waitPending(t, 1)
	first := h.clock.pending()[0]

	// A manual reconnect while a timer is pending replaces it.
	h.client.Reconnect()
	h.waitDials(t, 2)
	h.waitPending(t, 1)
	second := h.clock.pending()[0]

	assert.NotSame(t, first, second)
	assert.True(t, first.isStopped())

	// A fire from the replaced timer is ignored.
	first.fire()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 2, h.dialer.count())
	assert.Len(t, h.clock.pending(), 1)

	second.fire()
	h.waitDials(t, 3)
}

func TestClientReconnectAfterExhaustion(t *testing.T) {
	h := newHarness(t, alwaysFail(), WithReconnectPolicy(ReconnectPolicy{Delay: time.Second, MaxAttempts: 1}))

	h.waitDials(t, 1)
	h.waitPending(t, 1)
	h.clock.fireNext(t)
	h.waitDials(t, 2)
	h.waitLog(t, "Max reconnect attempts reached")
	assert.Equal(t, StatusError, h.client.Status())
	assert.Empty(t, h.clock.pending())

	h.client.Reconnect()
	h.waitDials(t, 3)
	h.waitPending(t, 1)
	assert.Equal(t, time.Second, h.clock.pending()[0].delay)
}

func TestClientReconnectIgnoredWhileConnected(t *testing.T) {
	h := newHarness(t, alwaysConnect())
	h.waitStatus(t, StatusConnected)

	h.client.Reconnect()
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, 1, h.dialer.count())
	assert.False(t, h.dialer.last().isClosed())
}

func TestClientDisconnectClearsSubscriptions(t *testing.T) {
	h := newHarness(t, alwaysConnect())
	h.waitStatus(t, StatusConnected)

	rec := &eventRecorder{}
	h.client.Subscribe(KindFlat, rec.record)
	h.client.Subscribe(KindFlat, rec.record)
	h.client.Subscribe(KindHouse, rec.record)
	require.Equal(t, 3, h.client.Registry().Len())

	h.client.Disconnect()
	<-h.client.Done()

	assert.Equal(t, 0, h.client.Registry().Len())
	assert.Equal(t, 0, h.client.Registry().Publish(deleteEvent(KindFlat, 1)))
	assert.Equal(t, 0, rec.len())
	assert.True(t, h.dialer.last().isClosed())
	assert.Equal(t, StatusDisconnected, h.client.Status())
	assert.Equal(t, StatusDisconnected, h.statuses.last())

	h.client.Disconnect()
	h.client.Reconnect()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, h.dialer.count())
}

func TestClientDisconnectCancelsPendingReconnect(t *testing.T) {
	h := newHarness(t, alwaysFail())
	h.waitPending(t, 1)
	timer := h.clock.pending()[0]

	h.client.Disconnect()
	<-h.client.Done()

	assert.True(t, timer.isStopped())
	assert.Empty(t, h.clock.pending())

	// A fire racing the teardown finds no loop and does nothing.
	timer.fire()
	assert.Equal(t, 1, h.dialer.count())
}

func TestClientDisconnectFromHandler(t *testing.T) {
	h := newHarness(t, alwaysConnect())
	h.waitStatus(t, StatusConnected)

	h.client.Subscribe(KindFlat, func(ChangeEvent) { h.client.Disconnect() })
	h.dialer.last().send(`{"type":"FLAT","action":"DELETE","data":1}`)

	select {
	case <-h.client.Done():
	case <-time.After(waitFor):
		t.Fatal("client did not shut down")
	}
	assert.Equal(t, StatusDisconnected, h.client.Status())
}

func TestClientDisconnectWhileDialing(t *testing.T) {
	release := make(chan struct{})
	conn := newFakeConn()

	blocking := &blockingDialer{release: release, conn: conn}
	client, err := New("ws://push.test/updates", WithDialer(blocking), WithLogger(logging.NewNopLogger()), WithClock(&manualClock{}))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return client.Status() == StatusConnecting }, waitFor, tick)

	client.Disconnect()
	<-client.Done()
	close(release)

	require.Eventually(t, conn.isClosed, waitFor, tick, "late connection is closed")
	assert.Equal(t, StatusDisconnected, client.Status())
}

// blockingDialer ignores cancellation and returns conn once released.
type blockingDialer struct {
	release chan struct{}
	conn    *fakeConn
}

func (d *blockingDialer) Dial(ctx context.Context, url string) (Conn, error) {
	<-d.release
	return d.conn, nil
}
