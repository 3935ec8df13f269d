package react_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcflow/substrate/internal/react"
	"github.com/arcflow/substrate/internal/valueobjects"
)

func TestParseAction_ReasonHappyPath(t *testing.T) {
	state := react.NewLoopState("wf1", []string{"a", "b", "c"})
	a, err := react.ParseAction(`{"type":"reason","reasoning":"plan"}`, 1, state)
	require.NoError(t, err)
	assert.Equal(t, valueobjects.ActionReason, a.Type)
}

func TestParseAction_StageA_NotJSON(t *testing.T) {
	state := react.NewLoopState("wf1", []string{"a"})
	_, err := react.ParseAction("not json at all", 1, state)
	require.Error(t, err)
	var perr *react.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "A", perr.Stage)
}

func TestParseAction_StageB_MissingNodeID(t *testing.T) {
	state := react.NewLoopState("wf1", []string{"a"})
	_, err := react.ParseAction(`{"type":"execute_node"}`, 1, state)
	require.Error(t, err)
	var perr *react.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "B", perr.Stage)
}

func TestParseAction_StageC_UnknownNode(t *testing.T) {
	state := react.NewLoopState("wf1", []string{"a"})
	_, err := react.ParseAction(`{"type":"execute_node","node_id":"zzz"}`, 1, state)
	require.Error(t, err)
	var perr *react.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "C", perr.Stage)
}

func TestParseAction_StageC_AlreadyExecuted(t *testing.T) {
	state := react.NewLoopState("wf1", []string{"a"})
	state.ExecutedNodes["a"] = react.NodeResult{}
	_, err := react.ParseAction(`{"type":"execute_node","node_id":"a"}`, 1, state)
	require.Error(t, err)

	// error_recovery is exempt from the already-executed guard.
	a, err := react.ParseAction(`{"type":"error_recovery","node_id":"a"}`, 1, state)
	require.NoError(t, err)
	assert.Equal(t, valueobjects.ActionErrorRecovery, a.Type)
}

func TestParseAction_MaxStepsRejectsNonFinish(t *testing.T) {
	state := react.NewLoopState("wf1", []string{"a"})
	state.CurrentStep = state.MaxSteps
	_, err := react.ParseAction(`{"type":"reason"}`, 1, state)
	require.Error(t, err)

	a, err := react.ParseAction(`{"type":"finish"}`, 1, state)
	require.NoError(t, err)
	assert.Equal(t, valueobjects.ActionFinish, a.Type)
}

func TestParseAction_NegativeRetryCountRejected(t *testing.T) {
	state := react.NewLoopState("wf1", []string{"a"})
	_, err := react.ParseAction(`{"type":"reason","retry_count":-1}`, 1, state)
	require.Error(t, err)
}
