// Package events fans validated change events out to the push transports
// of the development server.
//
// The Broker is the single entry point: every accepted change is encoded
// once, stamped and handed to each registered Subscriber (the WebSocket hub
// and the SSE broadcaster) in publish order.
package events

import (
	"github.com/agentstation/utc"

	"github.com/agentstation/homewire/pkg/realtime"
)

// Event is a change event ready for delivery.
type Event struct {
	// ID is unique per published event.
	ID        string               `json:"id"`
	Timestamp utc.Time             `json:"timestamp"`
	Change    realtime.ChangeEvent `json:"change"`

	// Frame is the wire encoding of Change, sent as-is to clients.
	Frame []byte `json:"-"`
}
