package handlers

import (
	"net/http"
	"time"

	"github.com/agentstation/homewire/internal/server/response"
)

// HandleHealth handles GET /health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		response.MethodNotAllowed(w, r.Method)
		return
	}
	response.OK(w, map[string]any{
		"status":  "healthy",
		"service": "homewire",
		"version": "v1",
	})
}

// Stats describes the server's live connections.
type Stats struct {
	WebSocketClients int   `json:"websocket_clients" yaml:"websocket_clients"`
	SSEClients       int   `json:"sse_clients" yaml:"sse_clients"`
	Subscribers      int   `json:"subscribers" yaml:"subscribers"`
	UptimeSeconds    int64 `json:"uptime_seconds" yaml:"uptime_seconds"`
}

// HandleStats handles GET /api/v1/stats.
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		response.MethodNotAllowed(w, r.Method)
		return
	}
	response.OK(w, Stats{
		WebSocketClients: h.wsHub.ClientCount(),
		SSEClients:       h.sseBroadcaster.ClientCount(),
		Subscribers:      h.broker.SubscriberCount(),
		UptimeSeconds:    int64(time.Since(h.startTime).Seconds()),
	})
}
