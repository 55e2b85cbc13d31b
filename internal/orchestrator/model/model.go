package model

// Message represents a single message in the conversation history
type Message struct {
	Role    string // "system", "user", "assistant", "tool"
	Content string

	// For assistant messages carrying tool calls
	ToolCalls []ToolCall

	// For tool messages carrying results
	ToolResults []ToolResult
}

// ToolCall is a structured tool invocation as returned by the provider.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// ToolCallRequest is a tool call bound to its session, carrying the
// derived risk classification. This is what travels through the
// approval gate and the registry.
type ToolCallRequest struct {
	SessionID string
	CallID    string
	Name      string
	Args      map[string]any
	Risk      Risk
}

// ToolResult is the outcome of one dispatched (or skipped) tool call.
// Exactly one result exists per dispatch decision; denials and dry
// runs produce results too, so the conversation can continue.
type ToolResult struct {
	CallID  string
	Name    string
	Content string
	Error   string

	// Denied is set when a human rejected the call. The content then
	// carries the denial text fed back to the provider.
	Denied bool

	// SideEffects summarises what the call touched, for the audit log.
	SideEffects []SideEffect

	DurationMs int64
}

// Failed reports whether the call produced an error.
func (r ToolResult) Failed() bool {
	return r.Error != ""
}

// SideEffect records one observable consequence of a tool call.
type SideEffect struct {
	Kind   string // "file_write", "file_append", "file_delete", "command"
	Target string // path or command line
}
