package react

import "context"

// LLMClient is the external collaborator of spec.md §1: "synchronous
// invoke(messages) → text and nothing more."
type LLMClient interface {
	Invoke(ctx context.Context, messages []Message) (string, error)
}

// NodeRunner is the narrow slice of the C5 DAG executor the orchestrator
// needs: run a single named node and return its output.
type NodeRunner interface {
	ExecuteNode(ctx context.Context, workflowID, nodeID string) (any, error)
}
