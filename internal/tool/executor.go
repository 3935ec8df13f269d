package tool

import "context"

// ToolExecutor runs one tool implementation kind (builtin, http, script-A,
// script-B). Keyed by valueobjects.ToolImplKind in the Engine's executor
// registry — the tagged-variant abstraction spec.md §9 calls for in place
// of duck-typed dispatch.
type ToolExecutor interface {
	Execute(ctx context.Context, t Tool, params map[string]any) (any, error)
}

// AuditSink receives a record of every tool call (C2's append-only store,
// installed via Engine.SetKnowledgeStore).
type AuditSink interface {
	Record(ctx context.Context, rec CallRecord)
}

// CallRecord is the tool-call record of spec.md §3.
type CallRecord struct {
	ToolName    string
	CallerType  string
	CallerID    string
	ConversationID string
	WorkflowID  string
	RunID       string
	Params      map[string]any
	Success     bool
	Output      any
	Error       string
	ErrorKind   string
	DurationMS  int64
	TraceID     string
}
