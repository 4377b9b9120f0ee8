package output

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/agentstation/utc"

	"github.com/agentstation/homewire/internal/cmd/emoji"
	"github.com/agentstation/homewire/pkg/realtime"
)

// timeLayout is the clock shown on text lines.
const timeLayout = "15:04:05"

// StatusLine is one connection status transition.
type StatusLine struct {
	Time        utc.Time        `json:"time" yaml:"time"`
	Status      realtime.Status `json:"status" yaml:"status"`
	Label       string          `json:"label" yaml:"label"`
	Description string          `json:"description" yaml:"description"`
}

// String implements fmt.Stringer for text output.
func (l StatusLine) String() string {
	return fmt.Sprintf("%s %s %s: %s", l.Time.Format(timeLayout), emoji.ForStatus(l.Status), l.Label, l.Description)
}

// EventLine is one change event, with the notification shown for it.
type EventLine struct {
	Time         utc.Time            `json:"time" yaml:"time"`
	Type         realtime.EntityKind `json:"type" yaml:"type"`
	Action       realtime.Action     `json:"action" yaml:"action"`
	ID           int64               `json:"id" yaml:"id"`
	Record       any                 `json:"record,omitempty" yaml:"record,omitempty"`
	Notification string              `json:"notification,omitempty" yaml:"notification,omitempty"`
}

// NewEventLine builds an EventLine from a change event. A record payload is
// kept as a generic value so every format can render it.
func NewEventLine(e realtime.ChangeEvent, notification string) EventLine {
	line := EventLine{
		Time:         e.ReceivedAt,
		Type:         e.Kind,
		Action:       e.Action,
		ID:           e.Payload.ID,
		Notification: notification,
	}
	if line.Time.IsZero() {
		line.Time = utc.Now()
	}
	if e.Payload.IsRecord() {
		var record map[string]any
		if err := json.Unmarshal(e.Payload.Record, &record); err == nil {
			line.Record = record
		}
	}
	return line
}

// String implements fmt.Stringer for text output.
func (l EventLine) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s %s #%d", l.Time.Format(timeLayout), emoji.ForAction(l.Action), l.Type, l.Action, l.ID)
	if record, ok := l.Record.(map[string]any); ok {
		if name, ok := record["name"].(string); ok && name != "" {
			fmt.Fprintf(&b, " %q", name)
		}
	}
	if l.Notification != "" {
		fmt.Fprintf(&b, " (%s)", l.Notification)
	}
	return b.String()
}

// RecordLine is an authoritative record loaded after a change event.
type RecordLine struct {
	Time   utc.Time            `json:"time" yaml:"time"`
	Type   realtime.EntityKind `json:"type" yaml:"type"`
	ID     int64               `json:"id" yaml:"id"`
	Record any                 `json:"record" yaml:"record"`
}

// String implements fmt.Stringer for text output.
func (l RecordLine) String() string {
	data, err := json.Marshal(l.Record)
	if err != nil {
		data = []byte(fmt.Sprint(l.Record))
	}
	return fmt.Sprintf("%s %s %s #%d reloaded: %s", l.Time.Format(timeLayout), emoji.Info, l.Type, l.ID, data)
}
