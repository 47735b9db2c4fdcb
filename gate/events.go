// Package gate is the online, per-session engine that decides block/allow
// for each tool-call event against one or more skill nets, tracks deferred
// (post-result) firings, and auto-advances silent structural transitions
// to quiescence.
package gate

// ToolCall is the §6 wire shape emitted by an agent before a tool runs.
type ToolCall struct {
	ToolCallID string
	ToolName   string
	Input      map[string]any
}

// ToolResult is the §6 wire shape reported once a tool call completes.
type ToolResult struct {
	ToolCallID string
	ToolName   string
	Input      map[string]any
	IsError    bool
}

// Decision is the outcome of HandleToolCall. The zero value (Blocked ==
// false) is "None" in spec terms — the net or manager has no objection.
type Decision struct {
	Blocked bool
	Reason  string
}

// Allow is the canonical "no objection" decision.
var Allow = Decision{}

// Block builds a blocking decision with the given reason.
func Block(reason string) Decision {
	return Decision{Blocked: true, Reason: reason}
}

// Context carries the caller's UI capability for manual (human-approval)
// transitions.
type Context struct {
	HasUI   bool
	Confirm func(title, message string) bool
}
