package model

import (
	"context"
)

// GateDecision is the approval gate's verdict on one tool call.
type GateDecision int

const (
	// GateDispatch means the call may execute now.
	GateDispatch GateDecision = iota
	// GateDeny means a human rejected the call; a denied ToolResult
	// is fed back to the provider instead of executing.
	GateDeny
	// GateDryRun means the call is never executed and a synthetic
	// result describes what would have run.
	GateDryRun
)

// Gate decides whether a tool call may dispatch. Decide may block
// awaiting a human response; implementations must honour ctx
// cancellation so a cancelled session unblocks immediately.
type Gate interface {
	Decide(ctx context.Context, req ToolCallRequest) (GateDecision, error)
}

// Dispatcher executes approved tool calls and reports per-tool risk.
// It encapsulates schema validation, path guarding and permission
// rechecks; the orchestrator never sees those mechanisms directly.
type Dispatcher interface {
	Dispatch(ctx context.Context, req ToolCallRequest) ToolResult
	Risk(toolName string) (Risk, bool)
}

// Auditor persists an append-only trail of session activity. Each
// write completes before the loop takes its next transition, so a
// crash mid-loop leaves an inspectable record.
type Auditor interface {
	SessionStart(sessionID, task string) error
	Transition(sessionID string, from, to SessionState, turn int) error
	ProviderCall(sessionID string, turn int, tokens int, callErr error) error
	ToolCall(sessionID string, req ToolCallRequest, res ToolResult) error
	SessionEnd(sessionID string, state SessionState, errMsg string) error
}
