package events

// Subscriber is a transport that delivers events to its clients.
type Subscriber interface {
	// Send hands an event to the transport. It must not block: the broker
	// calls it from its loop to keep events ordered.
	Send(Event) error

	// Close shuts the subscriber down.
	Close() error
}
