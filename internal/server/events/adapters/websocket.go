// Package adapters connects the push transports to the event broker.
package adapters

import (
	"github.com/agentstation/homewire/internal/server/events"
	ws "github.com/agentstation/homewire/internal/server/websocket"
)

// WebSocketSubscriber adapts the WebSocket hub to the Subscriber interface.
type WebSocketSubscriber struct {
	hub *ws.Hub
}

// NewWebSocketSubscriber creates a new WebSocket subscriber.
func NewWebSocketSubscriber(hub *ws.Hub) *WebSocketSubscriber {
	return &WebSocketSubscriber{hub: hub}
}

// Send queues the event's frame for every WebSocket client.
func (w *WebSocketSubscriber) Send(event events.Event) error {
	return w.hub.Broadcast(event.Frame)
}

// Close is a no-op, the hub manages its own lifecycle.
func (w *WebSocketSubscriber) Close() error {
	return nil
}
