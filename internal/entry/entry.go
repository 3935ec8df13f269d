// Package entry implements C7: the save-validate→run entry that mediates
// between persistence and execution, applying up to three bounded
// self-repair attempts.
package entry

import (
	"context"
	"log/slog"

	"github.com/arcflow/substrate/internal/valueobjects"
	"github.com/arcflow/substrate/internal/workflow"
)

const MaxAttempts = 3

// EventType is the closed set of C7 events (spec.md §4.4).
type EventType string

const (
	EventLoopStarted       EventType = "workflow_react_loop_started"
	EventAttemptFailed     EventType = "workflow_attempt_failed"
	EventPatchApplied      EventType = "workflow_react_patch_applied"
	EventTerminationReport EventType = "workflow_termination_report"
	EventComplete          EventType = "workflow_complete"
	EventError             EventType = "workflow_error"
)

// StopReason is the closed set of termination-report reasons.
type StopReason string

const (
	StopConsecutiveFailures StopReason = "consecutive_failures"
	StopNoPatchAvailable    StopReason = "no_patch_available"
	StopValidationFailed    StopReason = "validation_failed"
)

// Event is one entry of the C7 event stream.
type Event struct {
	Type          EventType
	Attempt       int
	StopReason    StopReason
	AttemptsTotal int
	Error         string
}

// EventSink receives C7 events in order.
type EventSink func(Event)

// Persister saves a validated workflow (spec.md §1 "the persistence
// adapter"); the entry only calls it for patches that pass re-validation.
type Persister interface {
	Save(ctx context.Context, w *workflow.Workflow) error
}

// Entry drives the attempt protocol of spec.md §4.4. Executor is a factory
// rather than a shared instance so each attempt gets its own event sink
// without cross-attempt leakage.
type Entry struct {
	Validator    *workflow.Validator
	NewExecutor  func(sink workflow.EventSink) *workflow.Executor
	Persist      Persister
	Repair       RepairProposer
	Logger       *slog.Logger
	Sink         EventSink
}

func NewEntry(v *workflow.Validator, newExecutor func(workflow.EventSink) *workflow.Executor, persist Persister, repair RepairProposer, logger *slog.Logger, sink EventSink) *Entry {
	if sink == nil {
		sink = func(Event) {}
	}
	return &Entry{Validator: v, NewExecutor: newExecutor, Persist: persist, Repair: repair, Logger: logger, Sink: sink}
}

// Run drives up to MaxAttempts execution attempts, patching and
// re-validating between failures (spec.md §4.4).
func (e *Entry) Run(ctx context.Context, w *workflow.Workflow, initialInput any) (any, error) {
	attempt := 1
	for {
		e.emit(Event{Type: EventLoopStarted, Attempt: attempt})

		var lastNodeErr *workflow.Event
		ex := e.NewExecutor(func(ev workflow.Event) {
			if ev.Type == workflow.EventNodeError {
				captured := ev
				lastNodeErr = &captured
			}
		})

		out, err := ex.Execute(ctx, w, initialInput)
		if err == nil {
			e.emit(Event{Type: EventComplete, Attempt: attempt})
			return out, nil
		}

		// Intermediate failures never surface as a terminal workflow_error
		// (spec.md §4.4 invariant); only the loop's final exit path below
		// emits one.
		e.emit(Event{Type: EventAttemptFailed, Attempt: attempt, Error: err.Error()})

		if attempt >= MaxAttempts {
			e.emit(Event{Type: EventTerminationReport, StopReason: StopConsecutiveFailures, AttemptsTotal: attempt})
			e.emit(Event{Type: EventError, Attempt: attempt, Error: err.Error()})
			return nil, valueobjects.Wrap(valueobjects.ErrNodeExecution, err)
		}

		var nodeID string
		var kind valueobjects.ErrorKind
		retryable := false
		if lastNodeErr != nil {
			nodeID = lastNodeErr.NodeID
			kind = valueobjects.ErrorKind(lastNodeErr.ErrorType)
			retryable = lastNodeErr.Retryable
		}

		patch, ok := e.Repair.Propose(w, nodeID, kind, retryable)
		if !ok {
			e.emit(Event{Type: EventTerminationReport, StopReason: StopNoPatchAvailable, AttemptsTotal: attempt})
			e.emit(Event{Type: EventError, Attempt: attempt, Error: err.Error()})
			return nil, valueobjects.Wrap(valueobjects.ErrNodeExecution, err)
		}

		patched := patch.Apply(w)
		if errs := e.Validator.Validate(ctx, patched); len(errs) > 0 {
			e.emit(Event{Type: EventTerminationReport, StopReason: StopValidationFailed, AttemptsTotal: attempt})
			e.emit(Event{Type: EventError, Attempt: attempt, Error: errs[0].Error()})
			return nil, valueobjects.Wrap(valueobjects.ErrValidation, errs[0])
		}

		if e.Persist != nil {
			if err := e.Persist.Save(ctx, patched); err != nil {
				e.emit(Event{Type: EventTerminationReport, StopReason: StopValidationFailed, AttemptsTotal: attempt})
				e.emit(Event{Type: EventError, Attempt: attempt, Error: err.Error()})
				return nil, valueobjects.Wrap(valueobjects.ErrRepositoryUnavailable, err)
			}
		}

		// A patch that does not pass validation is never counted as a new
		// attempt (spec.md §4.4 invariant) — reaching here means it did,
		// so only now does the patched workflow replace w and the
		// attempt counter advance.
		w = patched
		e.emit(Event{Type: EventPatchApplied, Attempt: attempt})
		attempt++
	}
}

func (e *Entry) emit(ev Event) { e.Sink(ev) }
