package entry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcflow/substrate/internal/entry"
	"github.com/arcflow/substrate/internal/tool/tooltest"
	"github.com/arcflow/substrate/internal/valueobjects"
	"github.com/arcflow/substrate/internal/workflow"
)

func repairWorkflow() *workflow.Workflow {
	return &workflow.Workflow{
		ID: "wf1",
		Nodes: []workflow.Node{
			{ID: "a", Kind: valueobjects.NodeStart},
			{ID: "b", Kind: valueobjects.NodeTool, Config: map[string]any{"tool_id": "old_tool"}},
			{ID: "c", Kind: valueobjects.NodeEnd},
		},
	}
}

func TestDefaultRepairer_TimeoutRetryableRaisesTimeout(t *testing.T) {
	r := entry.DefaultRepairer{}
	patch, ok := r.Propose(repairWorkflow(), "b", valueobjects.ErrTimeout, true)
	require.True(t, ok)
	assert.Equal(t, "b", patch.NodeID)
	assert.Equal(t, "timeout", patch.Field)
	assert.Equal(t, 60, patch.Value)
}

func TestDefaultRepairer_TimeoutNotRetryableYieldsNoPatch(t *testing.T) {
	r := entry.DefaultRepairer{}
	_, ok := r.Propose(repairWorkflow(), "b", valueobjects.ErrTimeout, false)
	assert.False(t, ok)
}

func TestDefaultRepairer_ToolNotFoundSwapsToolID(t *testing.T) {
	tools := tooltest.New()
	tools.Replacements["old_tool"] = "new_tool"
	r := entry.DefaultRepairer{Tools: tools}

	patch, ok := r.Propose(repairWorkflow(), "b", valueobjects.ErrToolNotFound, false)
	require.True(t, ok)
	assert.Equal(t, "b", patch.NodeID)
	assert.Equal(t, "tool_id", patch.Field)
	assert.Equal(t, "new_tool", patch.Value)

	patched := patch.Apply(repairWorkflow())
	node, ok := patched.NodeByID("b")
	require.True(t, ok)
	assert.Equal(t, "new_tool", node.Config["tool_id"])
}

func TestDefaultRepairer_ToolNotFoundNoReplacementYieldsNoPatch(t *testing.T) {
	tools := tooltest.New()
	r := entry.DefaultRepairer{Tools: tools}
	_, ok := r.Propose(repairWorkflow(), "b", valueobjects.ErrToolNotFound, false)
	assert.False(t, ok)
}

func TestDefaultRepairer_ToolNotFoundNilLookupYieldsNoPatch(t *testing.T) {
	r := entry.DefaultRepairer{}
	_, ok := r.Propose(repairWorkflow(), "b", valueobjects.ErrToolNotFound, false)
	assert.False(t, ok)
}
