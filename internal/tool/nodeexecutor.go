package tool

import (
	"context"

	"github.com/arcflow/substrate/internal/valueobjects"
	"github.com/arcflow/substrate/internal/workflow"
)

// NodeExecutor adapts *Engine to workflow.NodeExecutor for tool-kind
// nodes: a node's Config carries "tool_id" and "params", per spec.md
// §4.2's tool-kind node contract.
type NodeExecutor struct {
	Engine *Engine
}

func NewNodeExecutor(engine *Engine) *NodeExecutor {
	return &NodeExecutor{Engine: engine}
}

func (n *NodeExecutor) Execute(ctx context.Context, node workflow.Node, inputs map[string]any, rc *workflow.RunContext) (any, error) {
	toolID, _ := node.Config["tool_id"].(string)
	if toolID == "" {
		return nil, valueobjects.Newf(valueobjects.ErrValidation, "tool node %q has no tool_id", node.ID)
	}

	params, _ := node.Config["params"].(map[string]any)
	if params == nil {
		params = inputs
	}

	caller := CallRecord{CallerType: "workflow_node", CallerID: node.ID}
	if rc != nil {
		caller.WorkflowID = rc.WorkflowID
	}

	res := n.Engine.Execute(ctx, toolID, params, caller)
	if !res.Success {
		kind := res.Kind
		if kind == "" {
			kind = valueobjects.ErrToolExecutionFailed
		}
		return nil, valueobjects.Newf(kind, "%s", res.Error)
	}
	return res.Output, nil
}
