package models

import "encoding/json"

// Safety incident statuses. Resolved is terminal as far as the stream is concerned;
// only a newer snapshot can move a record back to unresolved.
const (
	SafetyUnresolved = "unresolved"
	SafetyResolved   = "resolved"
)

// SafetyIncident is a safety log record. It is bulk-replaced by snapshots and
// patched in place by safety_resolved stream messages.
type SafetyIncident struct {
	ID         string          `json:"id"`
	EventType  string          `json:"event_type"`
	Location   string          `json:"location"`
	OperatorID string          `json:"operator_id"`
	Status     string          `json:"status"`
	Details    json.RawMessage `json:"details,omitempty"` // free-form, kept as received
}

// IsResolved reports whether the incident is marked resolved.
func (s SafetyIncident) IsResolved() bool {
	return s.Status == SafetyResolved
}

// SafetyResolvedPayload is the data of a safety_resolved stream message.
type SafetyResolvedPayload struct {
	ID string `json:"id"`
}
