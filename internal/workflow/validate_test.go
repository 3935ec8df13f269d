package workflow_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcflow/substrate/internal/tool/tooltest"
	"github.com/arcflow/substrate/internal/valueobjects"
	"github.com/arcflow/substrate/internal/workflow"
)

func basicWorkflow() *workflow.Workflow {
	return &workflow.Workflow{
		ID: "wf1",
		Nodes: []workflow.Node{
			{ID: "a", Kind: valueobjects.NodeStart},
			{ID: "b", Kind: valueobjects.NodeHTTP, Config: map[string]any{"url": "http://x", "method": "GET"}},
			{ID: "c", Kind: valueobjects.NodeEnd},
		},
		Edges: []workflow.Edge{
			{ID: "e1", SourceNodeID: "a", TargetNodeID: "b"},
			{ID: "e2", SourceNodeID: "b", TargetNodeID: "c"},
		},
	}
}

// executorsFor returns a registry holding a stub executor for each kind, so
// the missing_executor check passes for non-builtin nodes.
func executorsFor(kinds ...valueobjects.NodeKind) workflow.ExecutorRegistry {
	r := workflow.NewExecutorRegistry()
	for _, k := range kinds {
		r.Register(k, echoExecutor{})
	}
	return r
}

func TestValidate_HappyPath(t *testing.T) {
	w := basicWorkflow()
	v := workflow.NewValidator(executorsFor(valueobjects.NodeHTTP), tooltest.New())
	errs := v.Validate(context.Background(), w)
	assert.Empty(t, errs)
}

func TestValidate_S1_ToolNotFound(t *testing.T) {
	w := &workflow.Workflow{
		ID: "wf1",
		Nodes: []workflow.Node{
			{ID: "a", Kind: valueobjects.NodeStart},
			{ID: "b", Kind: valueobjects.NodeTool, Config: map[string]any{"tool_id": "tool_missing"}},
			{ID: "c", Kind: valueobjects.NodeEnd},
		},
		Edges: []workflow.Edge{
			{ID: "e1", SourceNodeID: "a", TargetNodeID: "b"},
			{ID: "e2", SourceNodeID: "b", TargetNodeID: "c"},
		},
	}
	v := workflow.NewValidator(executorsFor(valueobjects.NodeTool), &tooltest.Repo{Missing: map[string]bool{"tool_missing": true}})
	errs := v.Validate(context.Background(), w)
	require.Len(t, errs, 1)
	assert.Equal(t, workflow.CodeToolNotFound, errs[0].Code)
	assert.Equal(t, "nodes[1].config.tool_id", errs[0].Path)
}

func TestValidate_DuplicateNodeID(t *testing.T) {
	w := basicWorkflow()
	w.Nodes = append(w.Nodes, workflow.Node{ID: "a", Kind: valueobjects.NodeDefault})
	v := workflow.NewValidator(nil, tooltest.New())
	errs := v.Validate(context.Background(), w)
	found := false
	for _, e := range errs {
		if e.Code == workflow.CodeDuplicateNodeID {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidate_CycleDetected(t *testing.T) {
	w := basicWorkflow()
	w.Edges = append(w.Edges, workflow.Edge{ID: "e3", SourceNodeID: "c", TargetNodeID: "a"})
	v := workflow.NewValidator(nil, tooltest.New())
	errs := v.Validate(context.Background(), w)
	found := false
	for _, e := range errs {
		if e.Code == workflow.CodeCycleDetected {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidate_EmptyWorkflow(t *testing.T) {
	w := &workflow.Workflow{ID: "wf1"}
	v := workflow.NewValidator(nil, tooltest.New())
	errs := v.Validate(context.Background(), w)
	require.Len(t, errs, 1)
	assert.Equal(t, workflow.CodeEmptyWorkflow, errs[0].Code)
}

func TestValidate_MissingIntermediateNode(t *testing.T) {
	w := &workflow.Workflow{
		ID: "wf1",
		Nodes: []workflow.Node{
			{ID: "a", Kind: valueobjects.NodeStart},
			{ID: "b", Kind: valueobjects.NodeEnd},
		},
		Edges: []workflow.Edge{{ID: "e1", SourceNodeID: "a", TargetNodeID: "b"}},
	}
	v := workflow.NewValidator(nil, tooltest.New())
	errs := v.Validate(context.Background(), w)
	require.Len(t, errs, 1)
	assert.Equal(t, workflow.CodeMissingIntermediateNodes, errs[0].Code)
}

func TestValidate_ToolRepositoryUnavailable_FailsClosed(t *testing.T) {
	w := &workflow.Workflow{
		ID: "wf1",
		Nodes: []workflow.Node{
			{ID: "a", Kind: valueobjects.NodeStart},
			{ID: "b", Kind: valueobjects.NodeTool, Config: map[string]any{"tool_id": "t1"}},
			{ID: "c", Kind: valueobjects.NodeEnd},
		},
		Edges: []workflow.Edge{
			{ID: "e1", SourceNodeID: "a", TargetNodeID: "b"},
			{ID: "e2", SourceNodeID: "b", TargetNodeID: "c"},
		},
	}
	v := workflow.NewValidator(executorsFor(valueobjects.NodeTool), &tooltest.Repo{FailErr: assertErr{}})
	errs := v.Validate(context.Background(), w)
	require.Len(t, errs, 1)
	assert.Equal(t, workflow.CodeToolRepositoryUnavailable, errs[0].Code)
}

type assertErr struct{}

func (assertErr) Error() string { return "store unreachable" }

func TestNormalize_AliasAndIdempotence(t *testing.T) {
	w := &workflow.Workflow{Nodes: []workflow.Node{
		{ID: "a", Kind: valueobjects.NodeTool, Config: map[string]any{"toolId": " t1 "}},
	}}
	workflow.Normalize(w)
	assert.Equal(t, "t1", w.Nodes[0].Config["tool_id"])
	_, hasAlias := w.Nodes[0].Config["toolId"]
	assert.False(t, hasAlias)

	snapshot := map[string]any{"tool_id": w.Nodes[0].Config["tool_id"]}
	workflow.Normalize(w)
	assert.Equal(t, snapshot["tool_id"], w.Nodes[0].Config["tool_id"])
}
