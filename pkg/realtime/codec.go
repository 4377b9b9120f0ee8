package realtime

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/agentstation/utc"

	"github.com/agentstation/homewire/pkg/errors"
)

// Validation steps reported in errors.FrameError.Step.
const (
	StepSyntax = iota + 1
	StepShape
	StepEntityKind
	StepAction
	StepPayload
)

// Decode turns a raw text frame into a validated ChangeEvent. Any frame that
// fails validation yields a *errors.FrameError naming the failed step.
//
// The legacy shapes carrying a top-level "id" next to "data", or a DELETE
// payload wrapped as {"id": N}, are rejected with errors.ErrDeprecatedShape.
// Keys are matched exactly; "TYPE" or "Data" do not count.
func Decode(raw []byte) (ChangeEvent, error) {
	// 1. syntax
	if !json.Valid(raw) {
		return ChangeEvent{}, errors.NewFrameError(StepSyntax, "malformed JSON", nil)
	}

	// 2. shape
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return ChangeEvent{}, errors.NewFrameError(StepShape, "frame is not an object", nil)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return ChangeEvent{}, errors.NewFrameError(StepShape, "frame is not an object", err)
	}
	typ, act, data := fields["type"], fields["action"], fields["data"]
	if isAbsent(typ) {
		return ChangeEvent{}, errors.NewFrameError(StepShape, `missing "type"`, nil)
	}
	if isAbsent(act) {
		return ChangeEvent{}, errors.NewFrameError(StepShape, `missing "action"`, nil)
	}
	if isAbsent(data) {
		return ChangeEvent{}, errors.NewFrameError(StepShape, `missing "data"`, nil)
	}
	if !isAbsent(fields["id"]) {
		return ChangeEvent{}, errors.NewFrameError(StepShape, `top-level "id" next to "data"`, errors.ErrDeprecatedShape)
	}
	var kindName, actionName string
	if err := json.Unmarshal(typ, &kindName); err != nil {
		return ChangeEvent{}, errors.NewFrameError(StepShape, `"type" is not a string`, nil)
	}
	if err := json.Unmarshal(act, &actionName); err != nil {
		return ChangeEvent{}, errors.NewFrameError(StepShape, `"action" is not a string`, nil)
	}

	// 3. entity kind
	kind := EntityKind(kindName)
	if !kind.Valid() {
		return ChangeEvent{}, errors.NewFrameError(StepEntityKind, fmt.Sprintf("type %q", kindName), errors.ErrUnknownEntityKind)
	}

	// 4. action
	action := Action(actionName)
	if !action.Valid() {
		return ChangeEvent{}, errors.NewFrameError(StepAction, fmt.Sprintf("action %q", actionName), errors.ErrUnknownAction)
	}

	// 5. payload
	payload, err := decodePayload(action, data)
	if err != nil {
		return ChangeEvent{}, err
	}

	return ChangeEvent{
		Kind:       kind,
		Action:     action,
		Payload:    payload,
		ReceivedAt: utc.Now(),
	}, nil
}

func decodePayload(action Action, data json.RawMessage) (Payload, error) {
	if action == ActionDelete {
		if data[0] == '{' {
			return Payload{}, errors.NewFrameError(StepPayload, `DELETE payload wrapped as {"id": N}`, errors.ErrDeprecatedShape)
		}
		id, err := parseID(data)
		if err != nil {
			return Payload{}, errors.NewFrameError(StepPayload, "DELETE payload: "+err.Error(), errors.ErrInvalidPayload)
		}
		return IDPayload(id), nil
	}

	if data[0] != '{' {
		return Payload{}, errors.NewFrameError(StepPayload, string(action)+" payload is not an object", errors.ErrInvalidPayload)
	}
	p, err := RecordPayload(data)
	if err != nil {
		return Payload{}, errors.NewFrameError(StepPayload, string(action)+" payload: "+err.Error(), errors.ErrInvalidPayload)
	}
	return p, nil
}

// Encode renders an event in the wire shape. Invalid events are refused
// so that Encode(e) always satisfies Decode.
func Encode(e ChangeEvent) ([]byte, error) {
	if !e.Kind.Valid() {
		return nil, errors.NewFrameError(StepEntityKind, fmt.Sprintf("type %q", e.Kind), errors.ErrUnknownEntityKind)
	}
	if !e.Action.Valid() {
		return nil, errors.NewFrameError(StepAction, fmt.Sprintf("action %q", e.Action), errors.ErrUnknownAction)
	}
	switch {
	case e.Action == ActionDelete && e.Payload.IsRecord():
		return nil, errors.NewFrameError(StepPayload, "DELETE must carry only an id", errors.ErrInvalidPayload)
	case e.Action != ActionDelete && !e.Payload.IsRecord():
		return nil, errors.NewFrameError(StepPayload, string(e.Action)+" must carry a record", errors.ErrInvalidPayload)
	case e.Payload.ID <= 0:
		return nil, errors.NewFrameError(StepPayload, "id must be positive", errors.ErrInvalidPayload)
	}
	return json.Marshal(e)
}

// recordID reads the "id" field of a record object.
func recordID(record json.RawMessage) (int64, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(record, &fields); err != nil {
		return 0, fmt.Errorf("record is not an object")
	}
	raw, ok := fields["id"]
	if !ok || isAbsent(raw) {
		return 0, fmt.Errorf(`record has no "id"`)
	}
	return parseID(raw)
}

// parseID accepts a JSON number with a positive integral value that fits
// in an int64. float64(math.MaxInt64) is 2^63, hence >=.
func parseID(raw json.RawMessage) (int64, error) {
	if len(raw) == 0 || (raw[0] != '-' && (raw[0] < '0' || raw[0] > '9')) {
		return 0, fmt.Errorf("id is not a number")
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, fmt.Errorf("id is not a number")
	}
	if i, err := n.Int64(); err == nil {
		if i <= 0 {
			return 0, fmt.Errorf("id %d is not positive", i)
		}
		return i, nil
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || f < 1 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("id %s is not a positive integer", n)
	}
	return int64(f), nil
}

func isAbsent(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}
