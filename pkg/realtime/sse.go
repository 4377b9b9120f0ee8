package realtime

import (
	"context"
	"io"
	"net/http"
	"sync"

	"github.com/launchdarkly/eventsource"

	"github.com/agentstation/homewire/pkg/constants"
	"github.com/agentstation/homewire/pkg/errors"
)

// SSEDialer opens the push channel as a server-sent event stream, for
// environments where WebSocket upgrades are blocked. Each event's data is
// one frame. The stream's own retry logic is disabled so the Client's
// reconnect policy stays in charge.
type SSEDialer struct {
	// HTTPClient defaults to a client with constants.DialTimeout on dial only.
	HTTPClient *http.Client
}

// Dial implements Dialer. The eventsource library does not take a context,
// so a canceled ctx closes the stream once it is established.
func (d SSEDialer) Dial(ctx context.Context, url string) (Conn, error) {
	client := d.HTTPClient
	if client == nil {
		client = &http.Client{}
	}

	c := &sseConn{
		url:    url,
		errs:   make(chan error, 1),
		closed: make(chan struct{}),
	}

	stream, err := eventsource.SubscribeWithURL(url,
		eventsource.StreamOptionHTTPClient(client),
		eventsource.StreamOptionReadTimeout(constants.PongWait),
		eventsource.StreamOptionErrorHandler(func(err error) eventsource.StreamErrorHandlerResult {
			select {
			case c.errs <- err:
			default:
			}
			return eventsource.StreamErrorHandlerResult{CloseNow: true}
		}),
	)
	if err != nil {
		return nil, errors.WrapTransport("dial", url, err)
	}
	c.stream = stream

	if ctx.Err() != nil {
		_ = c.Close()
		return nil, errors.WrapTransport("dial", url, ctx.Err())
	}
	return c, nil
}

type sseConn struct {
	url    string
	stream *eventsource.Stream
	errs   chan error
	closed chan struct{}
	once   sync.Once
}

// Read returns the data of the next event.
func (c *sseConn) Read() ([]byte, error) {
	select {
	case <-c.closed:
		return nil, io.EOF
	case err := <-c.errs:
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, errors.WrapTransport("read", c.url, err)
	case ev, ok := <-c.stream.Events:
		if !ok {
			return nil, io.EOF
		}
		return []byte(ev.Data()), nil
	}
}

// Close stops the stream.
func (c *sseConn) Close() error {
	c.once.Do(func() {
		close(c.closed)
		c.stream.Close()
	})
	return nil
}
