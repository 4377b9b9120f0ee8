package appcontext

import (
	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"github.com/agentstation/homewire/pkg/constants"
	"github.com/agentstation/homewire/pkg/realtime"
	"github.com/agentstation/homewire/pkg/records"
)

// Mock provides a mock implementation of Interface for testing.
// Each method can be customized by setting the corresponding function field.
// If a function field is nil, the method returns a default value.
type Mock struct {
	LoggerFunc          func() *zerolog.Logger
	OutputFormatFunc    func() string
	LanguageFunc        func() language.Tag
	WSURLFunc           func() string
	APIURLFunc          func() string
	ServerURLFunc       func() string
	APIKeyFunc          func() string
	DialerFunc          func() realtime.Dialer
	ReconnectPolicyFunc func() realtime.ReconnectPolicy
	RecordsFunc         func() *records.CachedFetcher
	VersionFunc         func() string
	CommitFunc          func() string
	DateFunc            func() string
	BuiltByFunc         func() string
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns the format using the mock function or "json".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "json"
}

// Language returns the language using the mock function or English.
func (m *Mock) Language() language.Tag {
	if m.LanguageFunc != nil {
		return m.LanguageFunc()
	}
	return language.English
}

// WSURL returns the push endpoint using the mock function or the default.
func (m *Mock) WSURL() string {
	if m.WSURLFunc != nil {
		return m.WSURLFunc()
	}
	return constants.DefaultWebSocketURL
}

// APIURL returns the records API URL using the mock function or the default.
func (m *Mock) APIURL() string {
	if m.APIURLFunc != nil {
		return m.APIURLFunc()
	}
	return constants.DefaultAPIURL
}

// ServerURL returns the dev server URL using the mock function or the default.
func (m *Mock) ServerURL() string {
	if m.ServerURLFunc != nil {
		return m.ServerURLFunc()
	}
	return constants.DefaultServerURL
}

// APIKey returns the API key using the mock function or "".
func (m *Mock) APIKey() string {
	if m.APIKeyFunc != nil {
		return m.APIKeyFunc()
	}
	return ""
}

// Dialer returns a dialer using the mock function or a WebSocket dialer.
func (m *Mock) Dialer() realtime.Dialer {
	if m.DialerFunc != nil {
		return m.DialerFunc()
	}
	return realtime.WebSocketDialer{}
}

// ReconnectPolicy returns a policy using the mock function or the default.
func (m *Mock) ReconnectPolicy() realtime.ReconnectPolicy {
	if m.ReconnectPolicyFunc != nil {
		return m.ReconnectPolicyFunc()
	}
	return realtime.DefaultReconnectPolicy()
}

// Records returns a fetcher using the mock function or nil.
func (m *Mock) Records() *records.CachedFetcher {
	if m.RecordsFunc != nil {
		return m.RecordsFunc()
	}
	return nil
}

// Version returns version using the mock function or "dev".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "dev"
}

// Commit returns commit using the mock function or "unknown".
func (m *Mock) Commit() string {
	if m.CommitFunc != nil {
		return m.CommitFunc()
	}
	return "unknown"
}

// Date returns date using the mock function or "unknown".
func (m *Mock) Date() string {
	if m.DateFunc != nil {
		return m.DateFunc()
	}
	return "unknown"
}

// BuiltBy returns builtBy using the mock function or "test".
func (m *Mock) BuiltBy() string {
	if m.BuiltByFunc != nil {
		return m.BuiltByFunc()
	}
	return "test"
}

// Ensure Mock implements Interface at compile time.
var _ Interface = (*Mock)(nil)
