package react_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcflow/substrate/internal/react"
	"github.com/arcflow/substrate/internal/valueobjects"
)

// scriptedLLM replays a canned transcript, grounded on the teacher's
// stub-collaborator test style rather than a live provider.
type scriptedLLM struct {
	responses []string
	calls     int
}

func (s *scriptedLLM) Invoke(ctx context.Context, messages []react.Message) (string, error) {
	if s.calls >= len(s.responses) {
		return `{"type":"finish"}`, nil
	}
	r := s.responses[s.calls]
	s.calls++
	return r, nil
}

type recordingNodes struct {
	executed []string
}

func (r *recordingNodes) ExecuteNode(ctx context.Context, workflowID, nodeID string) (any, error) {
	r.executed = append(r.executed, nodeID)
	return "result-" + nodeID, nil
}

func TestOrchestrator_S2_ParsesExecutesFinishes(t *testing.T) {
	llm := &scriptedLLM{responses: []string{
		`{"type":"reason","reasoning":"plan"}`,
		`{"type":"execute_node","node_id":"b"}`,
		`{"type":"finish"}`,
	}}
	nodes := &recordingNodes{}
	var events []react.Event
	orch := react.NewOrchestrator("wf1", "demo", llm, nodes, nil, func(e react.Event) { events = append(events, e) })

	state, err := orch.Run(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, valueobjects.LoopCompleted, state.Status)
	assert.Equal(t, []string{"b"}, nodes.executed)

	started, loopCompleted := 0, 0
	for _, e := range events {
		if e.Type == react.EventWorkflowStarted {
			started++
		}
		if e.Type == react.EventLoopCompleted {
			loopCompleted++
		}
	}
	assert.Equal(t, 1, started)
	assert.Equal(t, 1, loopCompleted)
}

func TestOrchestrator_S3_RetryOnInvalidJSON(t *testing.T) {
	llm := &scriptedLLM{responses: []string{
		"not json at all",
		`{"type":"reason"}`,
		`{"type":"finish"}`,
	}}
	nodes := &recordingNodes{}
	orch := react.NewOrchestrator("wf1", "demo", llm, nodes, nil, nil)

	state, err := orch.Run(context.Background(), []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, valueobjects.LoopCompleted, state.Status)
}

func TestOrchestrator_ExecutedNodesSubsetOfAvailable(t *testing.T) {
	llm := &scriptedLLM{responses: []string{
		`{"type":"execute_node","node_id":"b"}`,
		`{"type":"finish"}`,
	}}
	nodes := &recordingNodes{}
	orch := react.NewOrchestrator("wf1", "demo", llm, nodes, nil, nil)

	state, err := orch.Run(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	for id := range state.ExecutedNodes {
		assert.Contains(t, state.AvailableNodes, id)
	}
}

func TestOrchestrator_ReasoningFailsAfterThreeAttempts(t *testing.T) {
	llm := &scriptedLLM{responses: []string{"bad", "bad", "bad"}}
	nodes := &recordingNodes{}
	orch := react.NewOrchestrator("wf1", "demo", llm, nodes, nil, nil)

	state, err := orch.Run(context.Background(), []string{"a"})
	require.Error(t, err)
	assert.Equal(t, valueobjects.LoopFailed, state.Status)
}

func TestOrchestrator_IterationAndStepBounds(t *testing.T) {
	responses := make([]string, 0, 60)
	for i := 0; i < 60; i++ {
		responses = append(responses, `{"type":"reason"}`)
	}
	llm := &scriptedLLM{responses: responses}
	nodes := &recordingNodes{}
	orch := react.NewOrchestrator("wf1", "demo", llm, nodes, nil, nil)

	state, _ := orch.Run(context.Background(), []string{"a"})
	assert.LessOrEqual(t, state.IterationCount, state.MaxIterations)
	assert.LessOrEqual(t, state.CurrentStep, state.MaxSteps)
}
