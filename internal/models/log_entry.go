package models

import (
	"encoding/json"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// Log entry keys with a typed field.
const (
	logKeyTimestamp  = "timestamp"
	logKeyActor      = "actor"
	logKeyAgent      = "agent"
	logKeyAction     = "action"
	logKeyTarget     = "target"
	logKeyMsg        = "msg"
	logKeyError      = "error"
	logKeyEvent      = "event"
	logKeyReceivedAt = "received_at"
)

// LogEntry is one backend action-log line. The backend writes heterogeneous
// entries; the commonly present fields are typed and every other key (or a
// typed key carrying a non-string value) is kept verbatim in Extra, so the
// line is re-emitted as received.
type LogEntry struct {
	Timestamp  string                     `json:"timestamp,omitempty"` // backend clock, ISO-8601
	Actor      string                     `json:"actor,omitempty"`
	Agent      string                     `json:"agent,omitempty"`
	Action     string                     `json:"action,omitempty"`
	Target     string                     `json:"target,omitempty"`
	Msg        string                     `json:"msg,omitempty"`
	Error      string                     `json:"error,omitempty"`
	Event      json.RawMessage            `json:"event,omitempty"`
	Extra      map[string]json.RawMessage `json:"-"`
	ReceivedAt *time.Time                 `json:"received_at,omitempty"` // nil for snapshot-loaded lines
}

func (e *LogEntry) stringFields() map[string]*string {
	return map[string]*string{
		logKeyTimestamp: &e.Timestamp,
		logKeyActor:     &e.Actor,
		logKeyAgent:     &e.Agent,
		logKeyAction:    &e.Action,
		logKeyTarget:    &e.Target,
		logKeyMsg:       &e.Msg,
		logKeyError:     &e.Error,
	}
}

// UnmarshalJSON accepts any JSON object. It fails only when data is not an object.
func (e *LogEntry) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := codec.Unmarshal(data, &fields); err != nil {
		return err
	}

	*e = LogEntry{}
	typed := e.stringFields()
	for key, raw := range fields {
		raw = append(json.RawMessage(nil), raw...)
		switch key {
		case logKeyEvent:
			e.Event = raw
			continue
		case logKeyReceivedAt:
			if string(raw) == "null" {
				continue
			}
			var ts time.Time
			if err := codec.Unmarshal(raw, &ts); err == nil {
				e.ReceivedAt = &ts
				continue
			}
		default:
			if dst, ok := typed[key]; ok {
				if err := codec.Unmarshal(raw, dst); err == nil {
					continue
				}
				*dst = ""
			}
		}
		if e.Extra == nil {
			e.Extra = make(map[string]json.RawMessage)
		}
		e.Extra[key] = raw
	}
	return nil
}

// MarshalJSON emits Extra merged with the typed fields; a set typed field
// wins over an Extra key of the same name.
func (e LogEntry) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(e.Extra)+len(e.stringFields())+2)
	for key, raw := range e.Extra {
		out[key] = raw
	}
	for key, val := range e.stringFields() {
		if *val != "" {
			out[key] = *val
		}
	}
	if len(e.Event) > 0 {
		out[logKeyEvent] = e.Event
	}
	if e.ReceivedAt != nil {
		out[logKeyReceivedAt] = e.ReceivedAt
	}
	return codec.Marshal(out)
}
