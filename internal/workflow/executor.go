package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/arcflow/substrate/internal/valueobjects"
)

const defaultNodeTimeout = 30 * time.Second

// Executor implements the C5 contract:
// "execute(w, initial_input) → final_value | error", streamed as events.
type Executor struct {
	Registry ExecutorRegistry
	Logger   *slog.Logger
	Sink     EventSink
}

func NewExecutor(registry ExecutorRegistry, logger *slog.Logger, sink EventSink) *Executor {
	if sink == nil {
		sink = func(Event) {}
	}
	return &Executor{Registry: registry, Logger: logger, Sink: sink}
}

func (ex *Executor) emit(ev Event) {
	ev.Timestamp = time.Now()
	ex.Sink(ev)
}

// Execute runs w's nodes in topological order, gathering each node's inputs
// from the outputs of its predecessors (in edge-list order), and returns the
// output of the unique end node, or a map keyed by node id if there are
// several.
func (ex *Executor) Execute(ctx context.Context, w *Workflow, initialInput any) (any, error) {
	order, err := TopologicalSort(w)
	if err != nil {
		return nil, valueobjects.Wrap(valueobjects.ErrValidation, err)
	}

	ex.emit(Event{Type: EventWorkflowStart, WorkflowID: w.ID})

	outputs := make(map[string]any, len(order))

	for _, id := range order {
		node, _ := w.NodeByID(id)
		inputs := ex.gatherInputs(w, node, outputs, initialInput)

		output, execErr := ex.runNodeWithRetry(ctx, w, node, inputs, initialInput)
		if execErr != nil {
			kind, _ := valueobjects.KindOf(execErr)
			retryable := false
			if te, ok := execErr.(*valueobjects.TaxonomyError); ok {
				retryable = te.Retryable
			}
			ex.emit(Event{
				Type: EventNodeError, WorkflowID: w.ID, NodeID: node.ID,
				NodeType: string(node.Kind), ErrorType: string(kind),
				Retryable: retryable, Error: execErr.Error(),
			})
			ex.emit(Event{
				Type: EventWorkflowError, WorkflowID: w.ID, NodeID: node.ID,
				NodeType: string(node.Kind), ErrorType: string(kind),
				Retryable: retryable, Error: execErr.Error(),
			})
			return nil, execErr
		}

		outputs[node.ID] = output
		ex.emit(Event{Type: EventNodeComplete, WorkflowID: w.ID, NodeID: node.ID, NodeType: string(node.Kind), Output: output})
	}

	final := finalValue(w, outputs)
	ex.emit(Event{Type: EventWorkflowComplete, WorkflowID: w.ID, Final: final})
	return final, nil
}

// ExecuteSingleNode runs one node of w on demand, used by the ReAct
// orchestrator's execute_node/error_recovery actions (spec.md §4.3) rather
// than the whole-graph Execute used by a standalone run or C7.
func (ex *Executor) ExecuteSingleNode(ctx context.Context, w *Workflow, nodeID string, priorOutputs map[string]any, initialInput any) (any, error) {
	node, ok := w.NodeByID(nodeID)
	if !ok {
		return nil, valueobjects.Newf(valueobjects.ErrInvalidRequest, "node %q not found in workflow %q", nodeID, w.ID)
	}
	inputs := ex.gatherInputs(w, node, priorOutputs, initialInput)
	return ex.runNodeWithRetry(ctx, w, node, inputs, initialInput)
}

func (ex *Executor) gatherInputs(w *Workflow, node Node, outputs map[string]any, initialInput any) map[string]any {
	if node.Kind == valueobjects.NodeStart || node.Kind == valueobjects.NodeInput {
		return map[string]any{"initial_input": initialInput}
	}
	inputs := make(map[string]any)
	for _, pred := range w.Predecessors(node.ID) {
		inputs[pred] = outputs[pred]
	}
	return inputs
}

func (ex *Executor) runNodeWithRetry(ctx context.Context, w *Workflow, node Node, inputs map[string]any, initialInput any) (any, error) {
	timeout := nodeTimeout(node)
	maxRetries := nodeRetryCount(node)

	ex.emit(Event{Type: EventNodeStart, WorkflowID: w.ID, NodeID: node.ID, NodeType: string(node.Kind)})

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * 100 * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, valueobjects.Wrap(valueobjects.ErrCancelled, ctx.Err())
			}
		}

		output, err := ex.invoke(ctx, node, inputs, &RunContext{WorkflowID: w.ID, InitialInput: initialInput, Timeout: timeout})
		if err == nil {
			return output, nil
		}
		lastErr = err

		te, ok := err.(*valueobjects.TaxonomyError)
		if !ok || !te.Retryable || attempt == maxRetries {
			break
		}
		if ex.Logger != nil {
			ex.Logger.Warn("node execution failed, retrying", "workflow_id", w.ID, "node_id", node.ID, "attempt", attempt+1)
		}
	}
	return nil, lastErr
}

func (ex *Executor) invoke(ctx context.Context, node Node, inputs map[string]any, rc *RunContext) (any, error) {
	if node.Kind.Builtin() {
		return builtinExecute(node, inputs)
	}
	if ex.Registry == nil {
		return nil, valueobjects.Newf(valueobjects.ErrNodeExecution, "no executor registry configured for node %q", node.ID)
	}
	exec, ok := ex.Registry.Executor(node.Kind)
	if !ok {
		return nil, valueobjects.Newf(valueobjects.ErrNodeExecution, "no executor registered for kind %q", node.Kind)
	}

	nodeCtx, cancel := context.WithTimeout(ctx, rc.Timeout)
	defer cancel()

	out, err := exec.Execute(nodeCtx, node, inputs, rc)
	if err != nil {
		if nodeCtx.Err() != nil {
			return nil, valueobjects.WrapRetryable(valueobjects.ErrTimeout, fmt.Errorf("node %q timed out after %s", node.ID, rc.Timeout))
		}
		var te *valueobjects.TaxonomyError
		if asTaxonomy(err, &te) {
			return nil, te
		}
		return nil, valueobjects.Wrap(valueobjects.ErrNodeExecution, err)
	}
	return out, nil
}

func asTaxonomy(err error, target **valueobjects.TaxonomyError) bool {
	if te, ok := err.(*valueobjects.TaxonomyError); ok {
		*target = te
		return true
	}
	return false
}

// builtinExecute handles the node kinds that require no registered
// executor: input/start pass their input through, default/end/output pass
// their (merged) inputs through unchanged.
func builtinExecute(node Node, inputs map[string]any) (any, error) {
	if node.Kind == valueobjects.NodeStart || node.Kind == valueobjects.NodeInput {
		return inputs["initial_input"], nil
	}
	if len(inputs) == 1 {
		for _, v := range inputs {
			return v, nil
		}
	}
	return inputs, nil
}

func nodeTimeout(node Node) time.Duration {
	if raw, ok := node.Config["timeout"]; ok {
		switch v := raw.(type) {
		case int:
			return time.Duration(v) * time.Second
		case int64:
			return time.Duration(v) * time.Second
		case float64:
			return time.Duration(v * float64(time.Second))
		}
	}
	return defaultNodeTimeout
}

func nodeRetryCount(node Node) int {
	if raw, ok := node.Config["retry_count"]; ok {
		switch v := raw.(type) {
		case int:
			return v
		case int64:
			return int(v)
		case float64:
			return int(v)
		}
	}
	return 0
}

// finalValue is the output of the unique end node, or a map keyed by node
// id if there are several (spec.md §4.2).
func finalValue(w *Workflow, outputs map[string]any) any {
	ends := w.NodesByKind(valueobjects.NodeEnd)
	if len(ends) == 1 {
		return outputs[ends[0].ID]
	}
	result := make(map[string]any, len(ends))
	for _, e := range ends {
		result[e.ID] = outputs[e.ID]
	}
	return result
}
