package handlers

import (
	"net/http"
)

// HandleWebSocket upgrades a push-channel client at /websocket/updates.
func (h *Handlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if err := h.wsHub.Serve(h.upgrader, w, r); err != nil {
		// The upgrader has already replied to the client.
		h.logger.Warn().Err(err).Str("remote_addr", r.RemoteAddr).Msg("WebSocket upgrade failed")
	}
}

// HandleSSE streams change frames at /api/v1/updates/stream.
func (h *Handlers) HandleSSE(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.sseBroadcaster.ServeHTTP(w, r)
}
