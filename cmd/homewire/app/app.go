// Package app wires configuration, logging and shared clients for the
// homewire CLI.
package app

import (
	"context"
	"net/http"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"github.com/agentstation/homewire/internal/appcontext"
	"github.com/agentstation/homewire/internal/cmd/output"
	"github.com/agentstation/homewire/pkg/constants"
	"github.com/agentstation/homewire/pkg/errors"
	"github.com/agentstation/homewire/pkg/realtime"
	"github.com/agentstation/homewire/pkg/records"
)

// App represents the homewire application with all its dependencies.
type App struct {
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	// Record fetcher (lazy-initialized, singleton)
	mu      sync.Mutex
	records *records.CachedFetcher
}

// Ensure App implements appcontext.Interface at compile time.
var _ appcontext.Interface = (*App)(nil)

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig("")
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the configured format, or the one detected from
// the terminal when none is configured.
func (a *App) OutputFormat() string {
	return string(output.DetectFormat(a.config.Format))
}

// Language returns the configured language. An unparsable value falls back
// to English; Validate reports it before any command runs.
func (a *App) Language() language.Tag {
	tag, err := language.Parse(a.config.Language)
	if err != nil {
		return language.English
	}
	return tag
}

// WSURL returns the push-channel endpoint.
func (a *App) WSURL() string {
	return a.config.WSURL
}

// APIURL returns the records API base URL.
func (a *App) APIURL() string {
	return a.config.APIURL
}

// ServerURL returns the development push server base URL.
func (a *App) ServerURL() string {
	return a.config.ServerURL
}

// APIKey returns the key used to publish to the development server.
func (a *App) APIKey() string {
	return a.config.APIKey
}

// Dialer returns the dialer for the configured transport.
func (a *App) Dialer() realtime.Dialer {
	if a.config.Transport == TransportSSE {
		return realtime.SSEDialer{}
	}
	return realtime.WebSocketDialer{}
}

// ReconnectPolicy returns the configured reconnect policy.
func (a *App) ReconnectPolicy() realtime.ReconnectPolicy {
	return realtime.ReconnectPolicy{
		Delay:       a.config.ReconnectDelay,
		MaxAttempts: a.config.MaxReconnectAttempts,
	}
}

// Records returns the cached record fetcher, creating it lazily.
func (a *App) Records() *records.CachedFetcher {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.records == nil {
		client := records.NewClient(a.config.APIURL,
			records.WithHTTPClient(&http.Client{Timeout: constants.DefaultHTTPTimeout}),
			records.WithClientLogger(a.logger),
		)
		a.records = records.NewCachedFetcher(client, constants.CacheTTL, constants.CacheCleanupInterval).
			WithLogger(a.logger)
	}
	return a.records
}

// Shutdown releases shared resources.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.records != nil {
		a.records.Clear()
		a.records = nil
	}
	return nil
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithRecords sets a custom record fetcher (useful for testing).
func WithRecords(fetcher *records.CachedFetcher) Option {
	return func(a *App) error {
		a.records = fetcher
		return nil
	}
}
