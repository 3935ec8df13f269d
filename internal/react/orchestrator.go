package react

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/arcflow/substrate/internal/valueobjects"
)

// EventType is the closed set of orchestrator events (spec.md §4.3).
type EventType string

const (
	EventWorkflowStarted      EventType = "workflow_started"
	EventReasoningStarted     EventType = "reasoning_started"
	EventReasoningCompleted   EventType = "reasoning_completed"
	EventReasoningFailed      EventType = "reasoning_failed"
	EventActionStarted        EventType = "action_started"
	EventActionFailed         EventType = "action_failed"
	EventObservationStarted   EventType = "observation_started"
	EventObservationCompleted EventType = "observation_completed"
	EventIterationCompleted   EventType = "iteration_completed"
	EventLoopCompleted        EventType = "loop_completed"
)

// Event is one entry of the orchestrator's event stream.
type Event struct {
	Type       EventType
	WorkflowID string
	Iteration  int
	Action     valueobjects.ActionKind
	NodeID     string
	ParseAttempt int
	Error      string
	FinalStatus valueobjects.LoopStatus
}

// EventSink receives orchestrator events in generation order.
type EventSink func(Event)

// Orchestrator drives the ReAct loop described in spec.md §4.3.
type Orchestrator struct {
	WorkflowID string
	WorkflowName string
	LLM        LLMClient
	Nodes      NodeRunner
	Logger     *slog.Logger
	Sink       EventSink
}

func NewOrchestrator(workflowID, workflowName string, llm LLMClient, nodes NodeRunner, logger *slog.Logger, sink EventSink) *Orchestrator {
	if sink == nil {
		sink = func(Event) {}
	}
	return &Orchestrator{WorkflowID: workflowID, WorkflowName: workflowName, LLM: llm, Nodes: nodes, Logger: logger, Sink: sink}
}

// Run drives the loop to completion or failure and returns the terminal
// state (spec.md §4.3: "run(w) → terminal loop state").
func (o *Orchestrator) Run(ctx context.Context, availableNodes []string) (*LoopState, error) {
	state := NewLoopState(o.WorkflowID, availableNodes)
	o.emit(Event{Type: EventWorkflowStarted, WorkflowID: o.WorkflowID})

	for state.CanIterate() {
		select {
		case <-ctx.Done():
			state.Status = valueobjects.LoopFailed
			o.emit(Event{Type: EventLoopCompleted, WorkflowID: o.WorkflowID, Iteration: state.IterationCount, Error: "cancelled", FinalStatus: state.Status})
			return state, valueobjects.Wrap(valueobjects.ErrCancelled, ctx.Err())
		default:
		}

		if err := o.iterate(ctx, state); err != nil {
			if state.Status == valueobjects.LoopRunning {
				state.Status = valueobjects.LoopFailed
			}
			o.emit(Event{Type: EventLoopCompleted, WorkflowID: o.WorkflowID, Iteration: state.IterationCount, Error: err.Error(), FinalStatus: state.Status})
			return state, err
		}
		state.IterationCount++
		o.emit(Event{Type: EventIterationCompleted, WorkflowID: o.WorkflowID, Iteration: state.IterationCount})

		if state.Status != valueobjects.LoopRunning {
			o.emit(Event{Type: EventLoopCompleted, WorkflowID: o.WorkflowID, Iteration: state.IterationCount, FinalStatus: state.Status})
			return state, nil
		}
	}

	if state.Status == valueobjects.LoopRunning {
		state.Status = valueobjects.LoopFailed
	}
	o.emit(Event{Type: EventLoopCompleted, WorkflowID: o.WorkflowID, Iteration: state.IterationCount, FinalStatus: state.Status})
	return state, nil
}

func (o *Orchestrator) emit(ev Event) { o.Sink(ev) }

// iterate runs exactly one loop body (spec.md §4.3 "Loop body (one
// iteration)").
func (o *Orchestrator) iterate(ctx context.Context, state *LoopState) error {
	o.emit(Event{Type: EventReasoningStarted, WorkflowID: o.WorkflowID, Iteration: state.IterationCount})

	action, err := o.reasonAndParse(ctx, state)
	if err != nil {
		o.emit(Event{Type: EventReasoningFailed, WorkflowID: o.WorkflowID, Iteration: state.IterationCount, Error: err.Error()})
		return err
	}
	o.emit(Event{Type: EventReasoningCompleted, WorkflowID: o.WorkflowID, Iteration: state.IterationCount, Action: action.Type})

	o.emit(Event{Type: EventActionStarted, WorkflowID: o.WorkflowID, Iteration: state.IterationCount, Action: action.Type, NodeID: action.NodeID})
	if err := o.act(ctx, state, action); err != nil {
		o.emit(Event{Type: EventActionFailed, WorkflowID: o.WorkflowID, Iteration: state.IterationCount, Action: action.Type, Error: err.Error()})
		return err
	}
	return nil
}

// reasonAndParse builds the system prompt, invokes the LM, and runs the
// three-stage parse pipeline with up to MaxParseAttempts attempts.
func (o *Orchestrator) reasonAndParse(ctx context.Context, state *LoopState) (Action, error) {
	var lastErr error
	for attempt := 1; attempt <= MaxParseAttempts; attempt++ {
		messages := append(append([]Message(nil), Message{Role: "system", Content: o.systemPrompt(state)}), state.Messages...)
		if lastErr != nil {
			messages = append(messages, Message{Role: "system", Content: RetryPrompt(state, attempt-1, lastErr)})
		}

		raw, err := o.LLM.Invoke(ctx, messages)
		if err != nil {
			return Action{}, valueobjects.Wrap(valueobjects.ErrInvalidContext, err)
		}

		action, perr := ParseAction(raw, attempt, state)
		if perr == nil {
			return action, nil
		}
		lastErr = perr
		if o.Logger != nil {
			o.Logger.Warn("react parse failed", "workflow_id", o.WorkflowID, "attempt", attempt, "err", perr)
		}
	}
	return Action{}, valueobjects.Wrap(valueobjects.ErrParse, fmt.Errorf("exhausted %d parse attempts: %w", MaxParseAttempts, lastErr))
}

func (o *Orchestrator) systemPrompt(state *LoopState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Workflow %q (%s). ", o.WorkflowName, o.WorkflowID)
	b.WriteString("Valid action types: ")
	b.WriteString(`{"type":"reason","reasoning":"..."} ` +
		`{"type":"execute_node","node_id":"..."} ` +
		`{"type":"wait"} {"type":"finish"} ` +
		`{"type":"error_recovery","node_id":"..."}. `)
	fmt.Fprintf(&b, "Respond with exactly one JSON object. node_id is required for execute_node and error_recovery. "+
		"A node may be executed at most once. current_step must not exceed %d. ", state.MaxSteps)
	fmt.Fprintf(&b, "Available nodes: %s. Executed nodes: %s. Step %d of %d.",
		strings.Join(state.AvailableNodes, ", "), strings.Join(executedKeys(state), ", "), state.CurrentStep, state.MaxSteps)
	return b.String()
}

func executedKeys(state *LoopState) []string {
	keys := make([]string, 0, len(state.ExecutedNodes))
	for k := range state.ExecutedNodes {
		keys = append(keys, k)
	}
	return keys
}

// act dispatches on the action variant, per spec.md §4.3 step 3.
func (o *Orchestrator) act(ctx context.Context, state *LoopState, action Action) error {
	switch action.Type {
	case valueobjects.ActionReason:
		state.appendMessage("assistant", "reasoning: "+action.Reasoning)
		state.CurrentStep++

	case valueobjects.ActionExecuteNode:
		output, err := o.Nodes.ExecuteNode(ctx, o.WorkflowID, action.NodeID)
		o.observe(state, action.NodeID, output, err)
		state.ExecutedNodes[action.NodeID] = NodeResult{Output: output, Err: err}
		state.CurrentStep++

	case valueobjects.ActionErrorRecovery:
		output, err := o.Nodes.ExecuteNode(ctx, o.WorkflowID, action.NodeID)
		o.observeRecovery(state, action.NodeID, output, err)
		state.ExecutedNodes[action.NodeID] = NodeResult{Output: output, Err: err}
		state.CurrentStep++

	case valueobjects.ActionWait:
		state.appendMessage("system", "awaiting external input")
		state.Status = valueobjects.LoopRunning

	case valueobjects.ActionFinish:
		state.Status = valueobjects.LoopCompleted
	}
	return nil
}

func (o *Orchestrator) observe(state *LoopState, nodeID string, output any, err error) {
	o.emit(Event{Type: EventObservationStarted, WorkflowID: o.WorkflowID, Iteration: state.IterationCount, NodeID: nodeID})
	if err != nil {
		kind, _ := valueobjects.KindOf(err)
		state.appendMessage("system", fmt.Sprintf("node %q failed (%s): %s", nodeID, kind, err.Error()))
	} else {
		state.appendMessage("system", fmt.Sprintf("node %q succeeded", nodeID))
	}
	o.emit(Event{Type: EventObservationCompleted, WorkflowID: o.WorkflowID, Iteration: state.IterationCount, NodeID: nodeID})
}

func (o *Orchestrator) observeRecovery(state *LoopState, nodeID string, output any, err error) {
	o.emit(Event{Type: EventObservationStarted, WorkflowID: o.WorkflowID, Iteration: state.IterationCount, NodeID: nodeID})
	prior, had := state.ExecutedNodes[nodeID]
	priorReason := "no prior attempt recorded"
	if had && prior.Err != nil {
		priorReason = prior.Err.Error()
	}
	if err != nil {
		state.appendMessage("system", fmt.Sprintf("node %q recovery failed (previously: %s): %s", nodeID, priorReason, err.Error()))
	} else {
		state.appendMessage("system", fmt.Sprintf("node %q recovered (previously: %s)", nodeID, priorReason))
	}
	o.emit(Event{Type: EventObservationCompleted, WorkflowID: o.WorkflowID, Iteration: state.IterationCount, NodeID: nodeID})
}
