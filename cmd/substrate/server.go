package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/arcflow/substrate/internal/canvas"
	"github.com/arcflow/substrate/internal/entry"
	"github.com/arcflow/substrate/internal/knowledge"
	"github.com/arcflow/substrate/internal/lifecycle"
	"github.com/arcflow/substrate/internal/react"
	"github.com/arcflow/substrate/internal/tool"
	"github.com/arcflow/substrate/internal/valueobjects"
	"github.com/arcflow/substrate/internal/workflow"
)

// runtime ties C4 (validator), C5 (executor factory), C6 (ReAct
// orchestrator), C7 (entry), C8 (lifecycle manager), and C9 (canvas
// fabric) together behind one HTTP surface — the composition-root wiring
// spec.md's data-flow diagram describes end to end.
type runtime struct {
	validator  *workflow.Validator
	toolEngine *tool.Engine
	llm        react.LLMClient
	fabric     *canvas.Fabric
	logger     *slog.Logger
	persist    entry.Persister
	lifecycle  *lifecycle.Manager
	notes      *knowledge.NoteStore
}

// newExecutorFor builds the C5 executor factory entry.Entry needs: a
// fresh *workflow.Executor per attempt, wired to the shared tool engine
// for tool-kind nodes.
func (rt *runtime) newExecutorFor(w *workflow.Workflow) func(workflow.EventSink) *workflow.Executor {
	return func(sink workflow.EventSink) *workflow.Executor {
		registry := workflow.NewExecutorRegistry()
		registry.Register(valueobjects.NodeTool, tool.NewNodeExecutor(rt.toolEngine))
		return workflow.NewExecutor(registry, rt.logger, sink)
	}
}

// handleRun serves POST /workflows/{id}/run: confirm → validate → run,
// broadcasting every C7 entry event onto the workflow's canvas
// connections as the typed messages of spec.md §4.10.
func (rt *runtime) handleRun(w http.ResponseWriter, r *http.Request) {
	workflowID := chi.URLParam(r, "workflow_id")
	ctx := r.Context()

	var body struct {
		Workflow     workflow.Workflow `json:"workflow"`
		InitialInput any               `json:"initial_input"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	body.Workflow.ID = workflowID

	confirmID := workflowID + "-confirm"
	rt.broadcast(ctx, workflowID, canvas.Message{Type: canvas.TypeConfirmRequired, Reason: confirmID})
	rt.broadcast(ctx, workflowID, canvas.Message{Type: canvas.TypeConfirmed})

	sink := func(ev entry.Event) { rt.forwardEntryEvent(ctx, workflowID, ev) }
	e := entry.NewEntry(rt.validator, rt.newExecutorFor(&body.Workflow), rt.persist, entry.DefaultRepairer{}, rt.logger, sink)

	out, err := e.Run(ctx, &body.Workflow, body.InitialInput)
	if err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"output": out})
}

func (rt *runtime) forwardEntryEvent(ctx context.Context, workflowID string, ev entry.Event) {
	msg := canvas.Message{WorkflowID: workflowID}
	switch ev.Type {
	case entry.EventLoopStarted:
		msg.Type = canvas.TypeReactLoopStarted
	case entry.EventPatchApplied:
		msg.Type = canvas.TypeReactPatchApplied
	case entry.EventAttemptFailed:
		msg.Type = canvas.TypeAttemptFailed
		msg.Reason = ev.Error
	case entry.EventTerminationReport:
		msg.Type = canvas.TypeTerminationReport
		msg.StopReason = string(ev.StopReason)
		msg.AttemptsTotal = ev.AttemptsTotal
	case entry.EventComplete:
		msg.Type = canvas.TypeWorkflowCompleted
	case entry.EventError:
		msg.Type = canvas.TypeWorkflowError
		msg.Error = ev.Error
	default:
		return
	}
	rt.broadcast(ctx, workflowID, msg)
}

func (rt *runtime) broadcast(ctx context.Context, workflowID string, msg canvas.Message) {
	if err := rt.fabric.Broadcast(ctx, workflowID, msg, ""); err != nil && rt.logger != nil {
		rt.logger.Warn("canvas broadcast failed", "workflow_id", workflowID, "err", err)
	}
}

func (rt *runtime) mount(r chi.Router) {
	r.Post("/workflows/{workflow_id}/run", rt.handleRun)
	r.Post("/workflows/{workflow_id}/react-run", rt.handleReactRun)
}

// nodeRunner adapts *workflow.Executor.ExecuteSingleNode to react.NodeRunner,
// accumulating each iteration's output so later nodes see their
// predecessors' results (spec.md §4.3's execute_node/error_recovery actions).
type nodeRunner struct {
	workflow     *workflow.Workflow
	executor     *workflow.Executor
	initialInput any
	outputs      map[string]any
}

func (n *nodeRunner) ExecuteNode(ctx context.Context, workflowID, nodeID string) (any, error) {
	output, err := n.executor.ExecuteSingleNode(ctx, n.workflow, nodeID, n.outputs, n.initialInput)
	if err == nil {
		n.outputs[nodeID] = output
	}
	return output, err
}

// handleReactRun serves POST /workflows/{id}/react-run: the LM-driven C6
// orchestrator loop, one node execution per accepted execute_node/
// error_recovery action, rather than C7's whole-graph retry attempts.
func (rt *runtime) handleReactRun(w http.ResponseWriter, r *http.Request) {
	workflowID := chi.URLParam(r, "workflow_id")
	ctx := r.Context()

	var body struct {
		Workflow     workflow.Workflow `json:"workflow"`
		InitialInput any               `json:"initial_input"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	body.Workflow.ID = workflowID

	registry := workflow.NewExecutorRegistry()
	registry.Register(valueobjects.NodeTool, tool.NewNodeExecutor(rt.toolEngine))
	executor := workflow.NewExecutor(registry, rt.logger, nil)

	nodeIDs := make([]string, len(body.Workflow.Nodes))
	for i, n := range body.Workflow.Nodes {
		nodeIDs[i] = n.ID
	}

	runner := &nodeRunner{workflow: &body.Workflow, executor: executor, initialInput: body.InitialInput, outputs: make(map[string]any)}
	orch := react.NewOrchestrator(workflowID, body.Workflow.Name, rt.llm, runner, rt.logger, func(ev react.Event) {
		rt.forwardReactEvent(ctx, workflowID, ev)
	})

	state, err := orch.Run(ctx, nodeIDs)
	if err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"status": state.Status, "executed_nodes": state.ExecutedNodes, "iterations": state.IterationCount})
}

func (rt *runtime) forwardReactEvent(ctx context.Context, workflowID string, ev react.Event) {
	msg := canvas.Message{WorkflowID: workflowID, NodeID: ev.NodeID}
	switch ev.Type {
	case react.EventWorkflowStarted:
		msg.Type = canvas.TypeReactLoopStarted
	case react.EventActionFailed, react.EventReasoningFailed:
		msg.Type = canvas.TypeAttemptFailed
		msg.Reason = ev.Error
	case react.EventLoopCompleted:
		msg.Type = canvas.TypeTerminationReport
		msg.StopReason = string(ev.FinalStatus)
		msg.AttemptsTotal = ev.Iteration
	default:
		return
	}
	rt.broadcast(ctx, workflowID, msg)
}
