package entry

import (
	"github.com/arcflow/substrate/internal/valueobjects"
	"github.com/arcflow/substrate/internal/workflow"
)

const repairedTimeoutSeconds = 60

// Patch is a config-only mutation to a saved workflow, applied between run
// attempts (spec.md GLOSSARY "Patch (C7)").
type Patch struct {
	NodeID string
	Field  string
	Value  any
}

// Apply returns a copy of w with the patch's field set on the named node.
func (p Patch) Apply(w *workflow.Workflow) *workflow.Workflow {
	out := *w
	out.Nodes = make([]workflow.Node, len(w.Nodes))
	copy(out.Nodes, w.Nodes)
	for i, n := range out.Nodes {
		if n.ID != p.NodeID {
			continue
		}
		cfg := make(map[string]any, len(n.Config)+1)
		for k, v := range n.Config {
			cfg[k] = v
		}
		cfg[p.Field] = p.Value
		out.Nodes[i].Config = cfg
	}
	return &out
}

// ToolLookup finds a published, compatible replacement tool for a
// tool_not_found failure.
type ToolLookup interface {
	FindReplacement(category string, excludeID string) (toolID string, ok bool)
}

// RepairProposer proposes a patch for a recoverable node failure
// (spec.md §4.4 step 3).
type RepairProposer interface {
	Propose(w *workflow.Workflow, nodeID string, kind valueobjects.ErrorKind, retryable bool) (Patch, bool)
}

// DefaultRepairer implements the two recovery rules spec.md §4.4 names:
// timeout+retryable → raise the node's timeout; tool_not_found → swap
// tool_id for a compatible published tool.
type DefaultRepairer struct {
	Tools ToolLookup
}

func (r DefaultRepairer) Propose(w *workflow.Workflow, nodeID string, kind valueobjects.ErrorKind, retryable bool) (Patch, bool) {
	switch kind {
	case valueobjects.ErrTimeout:
		if !retryable {
			return Patch{}, false
		}
		return Patch{NodeID: nodeID, Field: "timeout", Value: repairedTimeoutSeconds}, true

	case valueobjects.ErrToolNotFound:
		node, ok := w.NodeByID(nodeID)
		if !ok || r.Tools == nil {
			return Patch{}, false
		}
		oldToolID, _ := node.Config["tool_id"].(string)
		replacement, ok := r.Tools.FindReplacement("", oldToolID)
		if !ok {
			return Patch{}, false
		}
		return Patch{NodeID: nodeID, Field: "tool_id", Value: replacement}, true
	}
	return Patch{}, false
}
