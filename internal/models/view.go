package models

import "time"

// Collection names used for source status, metrics and routes.
const (
	CollectionMachines  = "machines"
	CollectionOrders    = "orders"
	CollectionSafety    = "safety"
	CollectionLogs      = "logs"
	CollectionWorkflows = "workflows"
)

// SourceStatus describes the freshness of one snapshot-backed collection.
type SourceStatus struct {
	LastAttempt time.Time `json:"last_attempt,omitempty"`
	LastSuccess time.Time `json:"last_success,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
}

// StreamStatus describes the persistent stream connection.
type StreamStatus struct {
	Connected      bool      `json:"connected"`
	ConnectedSince time.Time `json:"connected_since,omitempty"`
	Reconnects     int       `json:"reconnects"`
	LastError      string    `json:"last_error,omitempty"`
}

// TriageSummary counts the retained workflows by severity and category.
type TriageSummary struct {
	Total      int            `json:"total"`
	BySeverity map[string]int `json:"by_severity"`
	ByCategory map[string]int `json:"by_category"`
}

// DashboardView is the read-only projection handed to the presentation layer.
// Slices are copies; mutating them does not affect the stores.
type DashboardView struct {
	Version         uint64                  `json:"version"`
	Machines        []Machine               `json:"machines"`
	Orders          []Order                 `json:"orders"`
	SafetyIncidents []SafetyIncident        `json:"safety_incidents"`
	Workflows       []WorkflowRecord        `json:"workflows"`
	Logs            []LogEntry              `json:"logs"`
	Sources         map[string]SourceStatus `json:"sources"`
	Stream          StreamStatus            `json:"stream"`
	Triage          TriageSummary           `json:"triage"`
	GeneratedAt     time.Time               `json:"generated_at"`
}
