package server

import (
	"fmt"
	"time"

	"github.com/agentstation/homewire/pkg/constants"
	"github.com/agentstation/homewire/pkg/errors"
)

// Config holds server configuration.
type Config struct {
	// Server settings
	Host string
	Port int

	// Route settings
	PathPrefix    string
	WebSocketPath string

	// CORS settings
	CORSEnabled bool
	CORSOrigins []string

	// Authentication settings, applied to publishing only
	AuthEnabled bool
	AuthHeader  string
	APIKey      string

	// Requests per minute per IP (0 to disable)
	RateLimit int

	// HTTP timeouts. WriteTimeout stays zero so push streams are not cut.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Host:          "localhost",
		Port:          constants.DefaultServerPort,
		PathPrefix:    "/api/v1",
		WebSocketPath: "/websocket/updates",
		CORSEnabled:   false,
		CORSOrigins:   []string{},
		AuthEnabled:   false,
		AuthHeader:    "X-API-Key",
		RateLimit:     100,
		ReadTimeout:   10 * time.Second,
		IdleTimeout:   120 * time.Second,
	}
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return errors.NewConfigError("server", fmt.Sprintf("invalid port %d", c.Port), nil)
	}
	if c.PathPrefix != "" && c.PathPrefix[0] != '/' {
		return errors.NewConfigError("server", "path prefix must start with /", nil)
	}
	if c.WebSocketPath == "" || c.WebSocketPath[0] != '/' {
		return errors.NewConfigError("server", "websocket path must start with /", nil)
	}
	if c.AuthEnabled && c.APIKey == "" {
		return errors.NewConfigError("server", "auth enabled without an API key", nil)
	}
	return nil
}
