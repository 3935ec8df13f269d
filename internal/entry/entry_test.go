package entry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcflow/substrate/internal/entry"
	"github.com/arcflow/substrate/internal/tool/tooltest"
	"github.com/arcflow/substrate/internal/valueobjects"
	"github.com/arcflow/substrate/internal/workflow"
)

// timeoutThenSucceedExecutor fails with a retryable timeout on its first
// invocation, and succeeds on every subsequent one — mirrors S4's
// "start → transform → end" timeout-then-recover shape.
type timeoutThenSucceedExecutor struct {
	calls int
}

func (e *timeoutThenSucceedExecutor) Execute(ctx context.Context, node workflow.Node, inputs map[string]any, rc *workflow.RunContext) (any, error) {
	e.calls++
	if e.calls == 1 {
		return nil, valueobjects.WrapRetryable(valueobjects.ErrTimeout, assertErr{"timed out"})
	}
	return "ok", nil
}

type alwaysTimeoutExecutor struct{}

func (alwaysTimeoutExecutor) Execute(ctx context.Context, node workflow.Node, inputs map[string]any, rc *workflow.RunContext) (any, error) {
	return nil, valueobjects.WrapRetryable(valueobjects.ErrTimeout, assertErr{"timed out"})
}

type assertErr struct{ msg string }

func (e assertErr) Error() string { return e.msg }

type fakePersister struct{ saved int }

func (f *fakePersister) Save(ctx context.Context, w *workflow.Workflow) error {
	f.saved++
	return nil
}

func transformWorkflow() *workflow.Workflow {
	return &workflow.Workflow{
		ID: "wf1",
		Nodes: []workflow.Node{
			{ID: "start", Kind: valueobjects.NodeStart},
			{ID: "transform", Kind: valueobjects.NodeTransform, Config: map[string]any{}},
			{ID: "end", Kind: valueobjects.NodeEnd},
		},
		Edges: []workflow.Edge{
			{ID: "e1", SourceNodeID: "start", TargetNodeID: "transform"},
			{ID: "e2", SourceNodeID: "transform", TargetNodeID: "end"},
		},
	}
}

func TestEntry_S4_SelfRepairOnTimeout(t *testing.T) {
	w := transformWorkflow()
	shared := &timeoutThenSucceedExecutor{}
	validatorExecs := workflow.NewExecutorRegistry()
	validatorExecs.Register(valueobjects.NodeTransform, shared)
	v := workflow.NewValidator(validatorExecs, tooltest.New())

	newExecutor := func(sink workflow.EventSink) *workflow.Executor {
		registry := workflow.NewExecutorRegistry()
		registry.Register(valueobjects.NodeTransform, shared)
		return workflow.NewExecutor(registry, nil, sink)
	}

	persister := &fakePersister{}
	var events []entry.Event
	e := entry.NewEntry(v, newExecutor, persister, entry.DefaultRepairer{}, nil, func(ev entry.Event) { events = append(events, ev) })

	_, err := e.Run(context.Background(), w, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, persister.saved)

	var sawPatch, sawError bool
	for _, ev := range events {
		if ev.Type == entry.EventPatchApplied {
			sawPatch = true
		}
		if ev.Type == entry.EventError {
			sawError = true
		}
	}
	assert.True(t, sawPatch)
	assert.False(t, sawError, "no terminal workflow_error expected on eventual success")
}

func TestEntry_S5_StopsAfterThreeFailures(t *testing.T) {
	w := transformWorkflow()
	validatorExecs := workflow.NewExecutorRegistry()
	validatorExecs.Register(valueobjects.NodeTransform, alwaysTimeoutExecutor{})
	v := workflow.NewValidator(validatorExecs, tooltest.New())

	newExecutor := func(sink workflow.EventSink) *workflow.Executor {
		registry := workflow.NewExecutorRegistry()
		registry.Register(valueobjects.NodeTransform, alwaysTimeoutExecutor{})
		return workflow.NewExecutor(registry, nil, sink)
	}

	var events []entry.Event
	e := entry.NewEntry(v, newExecutor, nil, entry.DefaultRepairer{}, nil, func(ev entry.Event) { events = append(events, ev) })

	_, err := e.Run(context.Background(), w, nil)
	require.Error(t, err)

	attemptFailures := 0
	for _, ev := range events {
		if ev.Type == entry.EventAttemptFailed {
			attemptFailures++
		}
	}
	assert.Equal(t, 3, attemptFailures)

	last := events[len(events)-1]
	assert.Equal(t, entry.EventError, last.Type)

	var report *entry.Event
	for i := range events {
		if events[i].Type == entry.EventTerminationReport {
			report = &events[i]
		}
	}
	require.NotNil(t, report)
	assert.Equal(t, entry.StopConsecutiveFailures, report.StopReason)
	assert.Equal(t, 3, report.AttemptsTotal)
}
