package models

import (
	"encoding/json"
	"time"
)

// WorkflowEvent is the event that started a triage cycle.
type WorkflowEvent struct {
	Source  string          `json:"source"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ToolCall names a tool and its arguments.
type ToolCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// TriageVerdict is the triage agent's classification of an event.
type TriageVerdict struct {
	Severity    string     `json:"severity"` // S1 (critical) .. S4
	Category    string     `json:"category"`
	Rationale   string     `json:"rationale"`
	ToolsToCall []ToolCall `json:"tools_to_call,omitempty"`
}

// ToolExecution is one executed tool call and its result.
type ToolExecution struct {
	Call   ToolCall        `json:"call"`
	Result json.RawMessage `json:"result,omitempty"`
}

// WorkflowRecord is a complete event -> triage -> action cycle received on the stream.
// Records are never mutated after ingestion.
type WorkflowRecord struct {
	Event      WorkflowEvent   `json:"event"`
	Triage     TriageVerdict   `json:"triage"`
	Executed   []ToolExecution `json:"executed"`
	ReceivedAt time.Time       `json:"received_at"`
}
