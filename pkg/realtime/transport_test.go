package realtime

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/homewire/pkg/logging"
)

// pushServer is a WebSocket endpoint that hands each accepted connection
// to the test.
type pushServer struct {
	*httptest.Server
	conns chan *websocket.Conn
}

func newPushServer(t *testing.T) *pushServer {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	s := &pushServer{conns: make(chan *websocket.Conn, 4)}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s.conns <- conn
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *pushServer) wsURL() string {
	return "ws" + strings.TrimPrefix(s.URL, "http") + "/websocket/updates"
}

func (s *pushServer) accept(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case conn := <-s.conns:
		t.Cleanup(func() { _ = conn.Close() })
		return conn
	case <-time.After(waitFor):
		t.Fatal("no connection accepted")
		return nil
	}
}

func TestWebSocketDialerReadsFrames(t *testing.T) {
	srv := newPushServer(t)

	conn, err := WebSocketDialer{}.Dial(t.Context(), srv.wsURL())
	require.NoError(t, err)
	defer conn.Close()
	server := srv.accept(t)

	require.NoError(t, server.WriteMessage(websocket.TextMessage, []byte(`{"type":"FLAT","action":"DELETE","data":1}`)))
	data, err := conn.Read()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"FLAT","action":"DELETE","data":1}`, string(data))

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")
	require.NoError(t, server.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second)))
	_, err = conn.Read()
	assert.Equal(t, io.EOF, err)
}

func TestWebSocketDialerFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := WebSocketDialer{}.Dial(t.Context(), "ws"+strings.TrimPrefix(srv.URL, "http"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transport dial")
}

func TestClientEndToEndOverWebSocket(t *testing.T) {
	srv := newPushServer(t)
	statuses := &statusRecorder{}
	broadcaster := NewStatusBroadcaster(StatusDisconnected, logging.NewNopLogger())
	broadcaster.Subscribe(statuses.record)

	clock := &manualClock{}
	client, err := New(srv.wsURL(),
		WithLogger(logging.NewNopLogger()),
		WithClock(clock),
		WithStatusBroadcaster(broadcaster),
	)
	require.NoError(t, err)
	defer func() {
		client.Disconnect()
		<-client.Done()
	}()

	flats := &eventRecorder{}
	client.Subscribe(KindFlat, flats.record)

	server := srv.accept(t)
	require.Eventually(t, func() bool { return client.Status() == StatusConnected }, waitFor, tick)

	for id := 1; id <= 3; id++ {
		frame := fmt.Sprintf(`{"type":"FLAT","action":"DELETE","data":%d}`, id)
		require.NoError(t, server.WriteMessage(websocket.TextMessage, []byte(frame)))
	}
	require.Eventually(t, func() bool { return flats.len() == 3 }, waitFor, tick)
	for i, e := range flats.all() {
		assert.Equal(t, int64(i+1), e.Payload.ID)
	}

	// Server drops the socket without a close frame.
	_ = server.Close()
	require.Eventually(t, func() bool { return len(clock.pending()) == 1 }, waitFor, tick)
	assert.Equal(t, []Status{StatusDisconnected, StatusConnecting, StatusConnected, StatusError, StatusDisconnected}, statuses.values())

	clock.fireNext(t)
	srv.accept(t)
	require.Eventually(t, func() bool { return client.Status() == StatusConnected }, waitFor, tick)
}

// sseServer streams frames pushed by the test as server-sent events.
type sseServer struct {
	*httptest.Server
	frames chan string
	mu     sync.Mutex
	opened int
}

func newSSEServer(t *testing.T) *sseServer {
	t.Helper()
	s := &sseServer{frames: make(chan string, 8)}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		s.mu.Lock()
		s.opened++
		s.mu.Unlock()

		for {
			select {
			case <-r.Context().Done():
				return
			case frame, ok := <-s.frames:
				if !ok {
					return
				}
				fmt.Fprintf(w, "event: update\ndata: %s\n\n", frame)
				flusher.Flush()
			}
		}
	}))
	t.Cleanup(s.Close)
	return s
}

func TestClientEndToEndOverSSE(t *testing.T) {
	srv := newSSEServer(t)

	client, err := New(srv.URL+"/api/v1/updates/stream",
		WithDialer(SSEDialer{}),
		WithLogger(logging.NewNopLogger()),
		WithClock(&manualClock{}),
	)
	require.NoError(t, err)
	defer func() {
		client.Disconnect()
		<-client.Done()
	}()

	houses := &eventRecorder{}
	client.Subscribe(KindHouse, houses.record)
	require.Eventually(t, func() bool { return client.Status() == StatusConnected }, waitFor, tick)

	srv.frames <- `{"type":"HOUSE","action":"UPDATE","data":{"id":4,"name":"Tower"}}`
	srv.frames <- `{"type":"HOUSE","action":"BOGUS","data":1}`
	srv.frames <- `{"type":"HOUSE","action":"DELETE","data":4}`

	require.Eventually(t, func() bool { return houses.len() == 2 }, waitFor, tick)
	events := houses.all()
	assert.Equal(t, ActionUpdate, events[0].Action)
	assert.JSONEq(t, `{"id":4,"name":"Tower"}`, string(events[0].Payload.Record))
	assert.Equal(t, ActionDelete, events[1].Action)
}

func TestSSEDialerFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := SSEDialer{}.Dial(t.Context(), srv.URL)
	require.Error(t, err)
}
