package handlers

import (
	"io"
	"net/http"

	"github.com/agentstation/utc"

	"github.com/agentstation/homewire/internal/server/response"
	"github.com/agentstation/homewire/pkg/logging"
	"github.com/agentstation/homewire/pkg/realtime"
)

// maxEventBytes bounds a published frame.
const maxEventBytes = 1 << 20

// PublishResult is the reply to an accepted event.
type PublishResult struct {
	ID        string   `json:"id"`
	Type      string   `json:"type"`
	Action    string   `json:"action"`
	RecordID  int64    `json:"record_id"`
	Timestamp utc.Time `json:"timestamp"`
}

// HandlePublish handles POST /api/v1/events. The body is one change frame in
// the push-channel format; it is validated the same way clients validate
// it and then broadcast to every connected client.
func (h *Handlers) HandlePublish(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		response.MethodNotAllowed(w, r.Method)
		return
	}
	logger := logging.FromContext(r.Context())

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxEventBytes))
	if err != nil {
		response.BadRequest(w, "Unreadable request body", err.Error())
		return
	}

	change, err := realtime.Decode(body)
	if err != nil {
		logger.Warn().Err(err).Msg("Rejected change event")
		response.ErrorFromType(w, err)
		return
	}

	event, err := h.broker.Publish(change)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to publish change event")
		response.ErrorFromType(w, err)
		return
	}

	logger.Info().
		Str("event_id", event.ID).
		Str("kind", change.Kind.String()).
		Str("action", change.Action.String()).
		Int64("record_id", change.Payload.ID).
		Msg("Change event published")

	response.Accepted(w, PublishResult{
		ID:        event.ID,
		Type:      change.Kind.String(),
		Action:    change.Action.String(),
		RecordID:  change.Payload.ID,
		Timestamp: event.Timestamp,
	})
}
