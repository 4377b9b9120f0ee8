// Package realtime keeps a live push-channel connection to the records backend
// and fans decoded change notifications out to in-process subscribers.
//
// A Client owns one connection at a time. Inbound frames are decoded and
// validated by Decode, and valid ChangeEvents are published to the Registry
// under their EntityKind. Every connection lifecycle transition is published
// to a StatusBroadcaster which replays the current Status to new observers.
//
// Delivery is best effort and at most once. Events sent while the client is
// disconnected are lost, so consumers reload authoritative state on their own.
package realtime

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/agentstation/utc"

	"github.com/agentstation/homewire/pkg/errors"
)

// Status is the health of the push-channel connection.
type Status string

// Connection statuses.
const (
	StatusConnecting   Status = "CONNECTING"
	StatusConnected    Status = "CONNECTED"
	StatusDisconnected Status = "DISCONNECTED"
	StatusError        Status = "ERROR"
)

// String returns the wire name of the status.
func (s Status) String() string {
	return string(s)
}

// EntityKind identifies the record type a change event concerns.
type EntityKind string

// Entity kinds known to this client.
const (
	KindFlat  EntityKind = "FLAT"
	KindHouse EntityKind = "HOUSE"
)

// EntityKinds lists every known kind.
var EntityKinds = []EntityKind{KindFlat, KindHouse}

// Valid reports whether k is a known entity kind.
func (k EntityKind) Valid() bool {
	switch k {
	case KindFlat, KindHouse:
		return true
	}
	return false
}

// String returns the wire name of the kind.
func (k EntityKind) String() string {
	return string(k)
}

// ParseEntityKind parses a wire name such as "FLAT". Lower case is accepted.
func ParseEntityKind(s string) (EntityKind, error) {
	k := EntityKind(strings.ToUpper(s))
	if !k.Valid() {
		return "", errors.NewValidationError("kind", s, "must be FLAT or HOUSE")
	}
	return k, nil
}

// Action is the kind of change applied to a record.
type Action string

// Actions.
const (
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete:
		return true
	}
	return false
}

// String returns the wire name of the action.
func (a Action) String() string {
	return string(a)
}

// ParseAction parses a wire name such as "DELETE". Lower case is accepted.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToUpper(s))
	if !a.Valid() {
		return "", errors.NewValidationError("action", s, "must be CREATE, UPDATE or DELETE")
	}
	return a, nil
}

// Payload is the data of a change event. DELETE events carry only the
// record id. CREATE and UPDATE events carry the full record as raw JSON
// and ID holds the id read from it.
type Payload struct {
	ID     int64
	Record json.RawMessage
}

// IDPayload returns a payload carrying only a record id.
func IDPayload(id int64) Payload {
	return Payload{ID: id}
}

// RecordPayload returns a payload carrying a full record. The id is read
// from the record's "id" field.
func RecordPayload(record json.RawMessage) (Payload, error) {
	id, err := recordID(record)
	if err != nil {
		return Payload{}, err
	}
	return Payload{ID: id, Record: record}, nil
}

// IsRecord reports whether the payload carries a full record.
func (p Payload) IsRecord() bool {
	return len(p.Record) > 0
}

// Decode unmarshals the carried record into v.
func (p Payload) Decode(v any) error {
	if !p.IsRecord() {
		return errors.NewValidationError("data", p.ID, "payload carries no record")
	}
	return json.Unmarshal(p.Record, v)
}

// MarshalJSON writes the record, or the bare id for id-only payloads.
func (p Payload) MarshalJSON() ([]byte, error) {
	if p.IsRecord() {
		return p.Record, nil
	}
	return []byte(strconv.FormatInt(p.ID, 10)), nil
}

// String returns the id for id-only payloads and the record JSON otherwise.
func (p Payload) String() string {
	if p.IsRecord() {
		return string(p.Record)
	}
	return strconv.FormatInt(p.ID, 10)
}

// ChangeEvent is a validated change notification.
type ChangeEvent struct {
	Kind    EntityKind `json:"type"`
	Action  Action     `json:"action"`
	Payload Payload    `json:"data"`

	// ReceivedAt is stamped when the frame is decoded. It is not part of the wire format.
	ReceivedAt utc.Time `json:"-"`
}

// Handler receives change events for one entity kind.
type Handler func(ChangeEvent)

// StatusHandler receives connection status values.
type StatusHandler func(Status)
