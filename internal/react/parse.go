package react

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/arcflow/substrate/internal/valueobjects"
)

const MaxParseAttempts = 3

// ParseError carries the stage at which parsing failed, for logging and for
// building the retry prompt.
type ParseError struct {
	Stage   string
	Attempt int
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("stage %s (attempt %d): %s", e.Stage, e.Attempt, e.Err)
}
func (e *ParseError) Unwrap() error { return e.Err }

// ParseAction runs the three-stage pipeline of spec.md §4.3 against one LM
// response. attempt is the 1-indexed attempt counter shared across retries
// of the same iteration.
func ParseAction(raw string, attempt int, state *LoopState) (Action, error) {
	obj, err := stageA(raw)
	if err != nil {
		return Action{}, &ParseError{Stage: "A", Attempt: attempt, Err: err}
	}
	action, err := stageB(obj)
	if err != nil {
		return Action{}, &ParseError{Stage: "B", Attempt: attempt, Err: err}
	}
	if err := stageC(action, state); err != nil {
		return Action{}, &ParseError{Stage: "C", Attempt: attempt, Err: err}
	}
	return action, nil
}

// stageA decodes raw as a JSON object (not an array, not a scalar).
func stageA(raw string) (map[string]any, error) {
	var generic any
	if err := json.Unmarshal([]byte(raw), &generic); err != nil {
		return nil, fmt.Errorf("not valid JSON: %w", err)
	}
	obj, ok := generic.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected a JSON object, got %T", generic)
	}
	return obj, nil
}

// stageB coerces the decoded object into the Action variant, enforcing
// field types, non-negative retry_count, and the node_id-required rule.
func stageB(obj map[string]any) (Action, error) {
	typRaw, ok := obj["type"]
	if !ok {
		return Action{}, fmt.Errorf("missing required field %q", "type")
	}
	typ, ok := typRaw.(string)
	if !ok {
		return Action{}, fmt.Errorf("field %q must be a string", "type")
	}
	kind := valueobjects.ActionKind(typ)
	if !kind.Valid() {
		return Action{}, fmt.Errorf("unknown action type %q", typ)
	}

	a := Action{Type: kind}

	if raw, ok := obj["node_id"]; ok {
		s, ok := raw.(string)
		if !ok {
			return Action{}, fmt.Errorf("field %q must be a string", "node_id")
		}
		a.NodeID = s
	}
	if kind.RequiresNodeID() && strings.TrimSpace(a.NodeID) == "" {
		return Action{}, fmt.Errorf("action %q requires node_id", kind)
	}

	if raw, ok := obj["reasoning"]; ok {
		s, ok := raw.(string)
		if !ok {
			return Action{}, fmt.Errorf("field %q must be a string", "reasoning")
		}
		a.Reasoning = s
	}

	if raw, ok := obj["params"]; ok {
		m, ok := raw.(map[string]any)
		if !ok {
			return Action{}, fmt.Errorf("field %q must be an object", "params")
		}
		a.Params = m
	}

	if raw, ok := obj["retry_count"]; ok {
		n, ok := raw.(float64)
		if !ok || n != float64(int(n)) {
			return Action{}, fmt.Errorf("field %q must be a non-negative integer", "retry_count")
		}
		if n < 0 {
			return Action{}, fmt.Errorf("field %q must be non-negative", "retry_count")
		}
		a.RetryCount = int(n)
	}

	return a, nil
}

// stageC checks business rules against the current loop state: node_id must
// be available, must not already be executed (except error_recovery), and
// current_step must not exceed max_steps.
func stageC(a Action, state *LoopState) error {
	if state.CurrentStep == state.MaxSteps && a.Type != valueobjects.ActionFinish {
		return fmt.Errorf("current_step has reached max_steps; only finish is accepted")
	}
	if a.Type.RequiresNodeID() {
		if !state.IsAvailable(a.NodeID) {
			return fmt.Errorf("node_id %q is not in available_nodes", a.NodeID)
		}
		if a.Type == valueobjects.ActionExecuteNode && state.IsExecuted(a.NodeID) {
			return fmt.Errorf("node_id %q has already been executed", a.NodeID)
		}
	}
	return nil
}

// RetryPrompt builds the message fed back to the LM after a parse failure,
// per spec.md §4.3: "a retry-prompt built from the available-nodes list and
// the attempt counter."
func RetryPrompt(state *LoopState, attempt int, cause error) string {
	return fmt.Sprintf(
		"Your previous response could not be parsed (attempt %d/%d): %s. "+
			"Respond with a single JSON object whose \"type\" field is one of "+
			"reason, execute_node, wait, finish, error_recovery. Available nodes: %s.",
		attempt, MaxParseAttempts, cause.Error(), strings.Join(state.AvailableNodes, ", "),
	)
}
