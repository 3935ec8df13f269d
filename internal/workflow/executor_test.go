package workflow_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcflow/substrate/internal/valueobjects"
	"github.com/arcflow/substrate/internal/workflow"
)

type echoExecutor struct{ prefix string }

func (e echoExecutor) Execute(ctx context.Context, node workflow.Node, inputs map[string]any, rc *workflow.RunContext) (any, error) {
	return e.prefix + node.ID, nil
}

type failingExecutor struct{}

func (failingExecutor) Execute(ctx context.Context, node workflow.Node, inputs map[string]any, rc *workflow.RunContext) (any, error) {
	return nil, valueobjects.Newf(valueobjects.ErrToolNotFound, "boom")
}

func TestExecutor_HappyPath_S2Shape(t *testing.T) {
	w := basicWorkflow()
	registry := workflow.NewExecutorRegistry()
	registry.Register(valueobjects.NodeHTTP, echoExecutor{prefix: "out-"})

	var events []workflow.Event
	ex := workflow.NewExecutor(registry, nil, func(e workflow.Event) { events = append(events, e) })

	final, err := ex.Execute(context.Background(), w, "hello")
	require.NoError(t, err)
	assert.Equal(t, "out-b", final)

	require.GreaterOrEqual(t, len(events), 2)
	assert.Equal(t, workflow.EventWorkflowStart, events[0].Type)
	assert.Equal(t, workflow.EventWorkflowComplete, events[len(events)-1].Type)
}

func TestExecutor_NodeError_EmitsWorkflowError(t *testing.T) {
	w := basicWorkflow()
	registry := workflow.NewExecutorRegistry()
	registry.Register(valueobjects.NodeHTTP, failingExecutor{})

	var events []workflow.Event
	ex := workflow.NewExecutor(registry, nil, func(e workflow.Event) { events = append(events, e) })

	_, err := ex.Execute(context.Background(), w, nil)
	require.Error(t, err)

	last := events[len(events)-1]
	assert.Equal(t, workflow.EventWorkflowError, last.Type)
	assert.Equal(t, "b", last.NodeID)
}
