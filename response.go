package shopfloor_dashboard

import "encoding/json"

// Stream message kinds understood by the dashboard.
const (
	KindLog            = "log"
	KindTriage         = "triage"
	KindSafetyResolved = "safety_resolved"
)

// Outbound event type and source used by the manual resolution action.
const (
	EventSafetyResolve = "safety_resolve"
	SourceUI           = "UI"
)

// StreamMessage is a single frame received on the backend event stream.
type StreamMessage struct {
	Type string          `json:"type"`           // log | triage | safety_resolved | ...
	Data json.RawMessage `json:"data,omitempty"` // kind-specific payload, decoded on dispatch
}

// PublishEvent is the body accepted by the backend publish endpoint.
type PublishEvent struct {
	Source  string `json:"source"`
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// PublishAck is the backend acknowledgement. Only success/failure is interpreted.
type PublishAck struct {
	Status   string          `json:"status"`
	Enqueued bool            `json:"enqueued"`
	Result   json.RawMessage `json:"result,omitempty"`
}

// User is an operator account allowed to trigger manual actions.
type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"` // don’t expose hash
}
