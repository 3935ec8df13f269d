package workflow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcflow/substrate/internal/valueobjects"
	"github.com/arcflow/substrate/internal/workflow"
)

func TestTopologicalSort_Exists(t *testing.T) {
	w := basicWorkflow()
	order, err := workflow.TopologicalSort(w)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestTopologicalSort_Cycle(t *testing.T) {
	w := &workflow.Workflow{
		Nodes: []workflow.Node{{ID: "a", Kind: valueobjects.NodeStart}, {ID: "b", Kind: valueobjects.NodeEnd}},
		Edges: []workflow.Edge{
			{ID: "e1", SourceNodeID: "a", TargetNodeID: "b"},
			{ID: "e2", SourceNodeID: "b", TargetNodeID: "a"},
		},
	}
	_, err := workflow.TopologicalSort(w)
	assert.ErrorIs(t, err, workflow.ErrCycle)
}
