package workflow

import (
	"context"
	"time"

	"github.com/arcflow/substrate/internal/valueobjects"
)

// ToolLookup is the narrow slice of the tool repository the validator needs:
// whether a tool_id exists and whether it is deprecated. Kept separate from
// internal/repository so the validator depends on an interface, not a
// concrete store (mirrors the teacher's dependency-injected AgentServices
// pattern, narrowed to one method).
type ToolLookup interface {
	// Lookup returns the tool's deprecated flag, or ok=false if the tool_id
	// does not exist. err is non-nil only when the lookup itself failed
	// (e.g. the backing store is unreachable) — the fail-closed path of
	// spec.md §4.1 is driven by err, not by ok.
	Lookup(ctx context.Context, toolID string) (deprecated bool, ok bool, err error)
}

// NodeExecutor runs one node of a workflow.
type NodeExecutor interface {
	Execute(ctx context.Context, node Node, inputs map[string]any, rc *RunContext) (any, error)
}

// RunContext carries the information a node executor needs beyond its own
// inputs (spec.md §4.2: "workflow id, initial input, and a per-node
// timeout").
type RunContext struct {
	WorkflowID   string
	InitialInput any
	Timeout      time.Duration
}

// ExecutorRegistry looks up a NodeExecutor by node kind.
type ExecutorRegistry interface {
	Executor(kind valueobjects.NodeKind) (NodeExecutor, bool)
	Register(kind valueobjects.NodeKind, exec NodeExecutor)
}
