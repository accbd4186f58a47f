package models

import "time"

// Outcomes of a manual resolution action.
const (
	OutcomePublished = "published"
	OutcomeFailed    = "failed"
)

// OperatorAction is an audit entry for a manual action taken from the dashboard.
type OperatorAction struct {
	ActionID   string    `json:"action_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Type       string    `json:"type"` // safety_resolve
	IncidentID string    `json:"incident_id"`
	UserID     int       `json:"user_id"`
	Outcome    string    `json:"outcome"`         // published | failed
	Error      string    `json:"error,omitempty"` // publish failure reason
}
