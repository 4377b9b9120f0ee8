package realtime

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/agentstation/homewire/pkg/constants"
	"github.com/agentstation/homewire/pkg/errors"
)

// Conn is one open push-channel connection. Read blocks for the next frame
// and returns io.EOF when the server closed the channel cleanly. Close must
// unblock a pending Read and may be called more than once.
type Conn interface {
	Read() ([]byte, error)
	Close() error
}

// Dialer opens push-channel connections.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(ctx context.Context, url string) (Conn, error)

// Dial implements Dialer.
func (f DialerFunc) Dial(ctx context.Context, url string) (Conn, error) {
	return f(ctx, url)
}

// WebSocketDialer dials the push channel over WebSocket.
type WebSocketDialer struct {
	// Header is sent with the opening handshake.
	Header http.Header

	// HandshakeTimeout defaults to constants.DialTimeout.
	HandshakeTimeout time.Duration

	// ReadLimit is the maximum frame size; defaults to constants.MaxFrameSize.
	ReadLimit int64
}

// Dial implements Dialer.
func (d WebSocketDialer) Dial(ctx context.Context, url string) (Conn, error) {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: d.HandshakeTimeout,
	}
	if dialer.HandshakeTimeout == 0 {
		dialer.HandshakeTimeout = constants.DialTimeout
	}

	conn, resp, err := dialer.DialContext(ctx, url, d.Header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, errors.WrapTransport("dial", url, err)
	}

	limit := d.ReadLimit
	if limit == 0 {
		limit = constants.MaxFrameSize
	}
	conn.SetReadLimit(limit)

	return &wsConn{conn: conn, url: url}, nil
}

type wsConn struct {
	conn *websocket.Conn
	url  string
}

// Read returns the next text or binary frame.
func (c *wsConn) Read() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return nil, io.EOF
		}
		return nil, errors.WrapTransport("read", c.url, err)
	}
	return data, nil
}

// Close sends a close frame and closes the socket.
func (c *wsConn) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(constants.WriteWait))
	return c.conn.Close()
}
