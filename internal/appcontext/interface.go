// Package appcontext provides the shared application context interface
// used by all commands. Commands depend on this interface rather than on
// the concrete App so they can be tested with Mock.
package appcontext

import (
	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"github.com/agentstation/homewire/pkg/realtime"
	"github.com/agentstation/homewire/pkg/records"
)

// Interface defines the application context interface that commands need.
// The App struct from cmd/homewire/app implements it.
type Interface interface {
	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (text, table, json, yaml).
	OutputFormat() string

	// Language returns the language for status text and notifications.
	Language() language.Tag

	// WSURL returns the push-channel endpoint.
	WSURL() string

	// APIURL returns the base URL of the records REST API.
	APIURL() string

	// ServerURL returns the base URL of the development push server.
	ServerURL() string

	// APIKey returns the key sent to the development server when publishing.
	APIKey() string

	// Dialer returns the push-channel dialer for the configured transport.
	Dialer() realtime.Dialer

	// ReconnectPolicy returns the configured reconnect policy.
	ReconnectPolicy() realtime.ReconnectPolicy

	// Records returns the shared cached record fetcher, creating it lazily.
	Records() *records.CachedFetcher

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
