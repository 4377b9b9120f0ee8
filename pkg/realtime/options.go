package realtime

import (
	"github.com/rs/zerolog"
)

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger for diagnostics. Defaults to logging.Default().
func WithLogger(logger *zerolog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithDialer sets the transport. Defaults to WebSocketDialer.
func WithDialer(d Dialer) Option {
	return func(c *Client) {
		if d != nil {
			c.dialer = d
		}
	}
}

// WithReconnectPolicy overrides DefaultReconnectPolicy.
func WithReconnectPolicy(p ReconnectPolicy) Option {
	return func(c *Client) {
		c.policy = p
	}
}

// WithClock sets the clock used for reconnect timers.
func WithClock(clock Clock) Option {
	return func(c *Client) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithRegistry shares an existing Registry with the Client.
func WithRegistry(r *Registry) Option {
	return func(c *Client) {
		if r != nil {
			c.registry = r
		}
	}
}

// WithStatusBroadcaster shares an existing StatusBroadcaster with the Client.
// Observers registered on it before New see the whole status sequence.
func WithStatusBroadcaster(b *StatusBroadcaster) Option {
	return func(c *Client) {
		if b != nil {
			c.status = b
		}
	}
}
