package adapters

import (
	"github.com/agentstation/homewire/internal/server/events"
	"github.com/agentstation/homewire/internal/server/sse"
)

// SSEEventName is the SSE event type used for change frames.
const SSEEventName = "update"

// SSESubscriber adapts the SSE broadcaster to the Subscriber interface.
type SSESubscriber struct {
	broadcaster *sse.Broadcaster
}

// NewSSESubscriber creates a new SSE subscriber.
func NewSSESubscriber(broadcaster *sse.Broadcaster) *SSESubscriber {
	return &SSESubscriber{broadcaster: broadcaster}
}

// Send queues the event's frame for every SSE client.
func (s *SSESubscriber) Send(event events.Event) error {
	return s.broadcaster.Broadcast(sse.Event{
		Event: SSEEventName,
		ID:    event.ID,
		Data:  event.Frame,
	})
}

// Close is a no-op, the broadcaster manages its own lifecycle.
func (s *SSESubscriber) Close() error {
	return nil
}
