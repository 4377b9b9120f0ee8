// Package constants provides shared constants used throughout the homewire codebase.
// This includes the reconnection policy, transport timeouts, cache settings,
// file permissions and default endpoints that should be consistent across the
// library and the CLI.
package constants

import "time"

// Reconnection policy constants define how the push-channel client recovers
// from a dropped connection.
const (
	// ReconnectDelay is the fixed delay between a close event and the next connection attempt
	ReconnectDelay = 5 * time.Second

	// MaxReconnectAttempts is the number of consecutive reconnects scheduled before giving up
	MaxReconnectAttempts = 10
)

// Timeout constants define various timeout durations used in the application
const (
	// DefaultHTTPTimeout is the standard timeout for REST requests to the records API
	DefaultHTTPTimeout = 10 * time.Second

	// DialTimeout is the timeout for establishing a push-channel connection
	DialTimeout = 10 * time.Second

	// ShutdownTimeout is the time allowed for graceful shutdown of servers and clients
	ShutdownTimeout = 5 * time.Second

	// RetryBackoff is the base backoff duration between REST retries
	RetryBackoff = 200 * time.Millisecond
)

// WebSocket constants mirror the read/write deadlines used by the push server hub.
const (
	// WriteWait is the time allowed to write a message to the peer
	WriteWait = 10 * time.Second

	// PongWait is the time allowed to read the next pong message from the peer
	PongWait = 60 * time.Second

	// PingPeriod is how often pings are sent. Must be less than PongWait.
	PingPeriod = (PongWait * 9) / 10

	// MaxFrameSize is the maximum inbound frame size accepted by the client
	MaxFrameSize = 1 << 20
)

// Limit constants define various limits and capacities
const (
	// MaxRetries is the maximum number of retry attempts for failed REST requests
	MaxRetries = 3

	// ChannelBufferSize is the default buffer size for channels
	ChannelBufferSize = 256
)

// Cache constants
const (
	// CacheTTL is the default time-to-live for fetched records
	CacheTTL = 5 * time.Minute

	// CacheCleanupInterval is how often to clean expired cache entries
	CacheCleanupInterval = 10 * time.Minute
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Default endpoints
const (
	// DefaultWebSocketURL is the push-channel endpoint of the records backend
	DefaultWebSocketURL = "ws://localhost:28123/websocket/updates"

	// DefaultAPIURL is the base URL of the records REST API
	DefaultAPIURL = "http://localhost:28600/is-lab1/api"

	// DefaultServerPort is the port used by the development push server
	DefaultServerPort = 28123

	// DefaultServerURL is the base URL of the development push server
	DefaultServerURL = "http://localhost:28123"
)
