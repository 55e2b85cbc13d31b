package model

import "time"

// EventKind is emitted by the orchestrator for observability and for
// the approval frontend.
type EventKind string

const (
	EventSessionStart     EventKind = "session_start"
	EventProviderCall     EventKind = "provider_call"
	EventText             EventKind = "text"
	EventToolCallStart    EventKind = "tool_call_start"
	EventApprovalRequired EventKind = "tool_approval_required"
	EventToolSkipped      EventKind = "tool_skipped"
	EventToolCallComplete EventKind = "tool_call_complete"
	EventComplete         EventKind = "complete"
	EventError            EventKind = "error"
	EventCancelled        EventKind = "cancelled"
)

// Event is intentionally compact so consumers can map it to logs,
// the TUI, or the audit trail without interpretation.
type Event struct {
	SessionID string       `json:"session_id"`
	Turn      int          `json:"turn"`
	Kind      EventKind    `json:"kind"`
	State     SessionState `json:"state,omitempty"`
	Time      time.Time    `json:"time"`

	// For tool events.
	CallID   string `json:"call_id,omitempty"`
	ToolName string `json:"tool_name,omitempty"`
	Risk     string `json:"risk,omitempty"`

	// For text/error/complete events.
	Text string `json:"text,omitempty"`
}

// ApprovalRequest is the payload of an EventApprovalRequired event:
// everything a human needs to decide.
type ApprovalRequest struct {
	SessionID string         `json:"sessionId"`
	CallID    string         `json:"callId"`
	ToolName  string         `json:"toolName"`
	Risk      string         `json:"risk"`
	Arguments map[string]any `json:"arguments"`
}

// ApprovalResponse answers one ApprovalRequest. Responses whose
// CallID matches no pending request are ignored.
type ApprovalResponse struct {
	CallID   string `json:"callId"`
	Approved bool   `json:"approved"`
}
