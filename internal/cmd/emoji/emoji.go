// Package emoji provides symbol constants for CLI output.
// These symbols create a consistent visual language across all commands.
package emoji

import "github.com/agentstation/homewire/pkg/realtime"

// Symbol constants for CLI output.
const (
	// Success represents successful completion of an operation.
	Success = "✓"

	// Error represents failures.
	Error = "✗"

	// Stop represents shutdowns.
	Stop = "■"

	// Warning represents non-critical issues.
	Warning = "!"

	// Info represents informational messages and notifications.
	Info = "i"

	// Unknown represents indeterminate states.
	Unknown = "?"

	// Connected, Connecting and Disconnected mark push-channel status.
	Connected    = "●"
	Connecting   = "◌"
	Disconnected = "○"

	// Create, Update and Delete mark change events.
	Create = "+"
	Update = "~"
	Delete = "-"
)

// ForStatus returns the symbol for a connection status.
func ForStatus(s realtime.Status) string {
	switch s {
	case realtime.StatusConnected:
		return Connected
	case realtime.StatusConnecting:
		return Connecting
	case realtime.StatusDisconnected:
		return Disconnected
	case realtime.StatusError:
		return Error
	default:
		return Unknown
	}
}

// ForAction returns the symbol for a change action.
func ForAction(a realtime.Action) string {
	switch a {
	case realtime.ActionCreate:
		return Create
	case realtime.ActionUpdate:
		return Update
	case realtime.ActionDelete:
		return Delete
	default:
		return Unknown
	}
}
