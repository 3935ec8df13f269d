package react

import "github.com/arcflow/substrate/internal/valueobjects"

const (
	DefaultMaxSteps      = 50
	DefaultMaxIterations = 50
)

// Message is one entry of the loop's accumulated message log, fed back to
// the LM each iteration.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NodeResult is the recorded outcome of one already-executed node.
type NodeResult struct {
	Output any
	Err    error
}

// LoopState is the ReAct loop state of spec.md §3: "Workflow identifier,
// the set of node identifiers present, a mapping from node identifier to
// execution result (only for already-executed nodes), current step counter,
// max step ceiling, iteration counter, ordered message log, loop status."
type LoopState struct {
	WorkflowID     string
	AvailableNodes []string
	ExecutedNodes  map[string]NodeResult
	CurrentStep    int
	MaxSteps       int
	IterationCount int
	MaxIterations  int
	Messages       []Message
	Status         valueobjects.LoopStatus
}

// NewLoopState builds the initial state for a run over the given node ids.
func NewLoopState(workflowID string, availableNodes []string) *LoopState {
	return &LoopState{
		WorkflowID:     workflowID,
		AvailableNodes: append([]string(nil), availableNodes...),
		ExecutedNodes:  make(map[string]NodeResult),
		MaxSteps:       DefaultMaxSteps,
		MaxIterations:  DefaultMaxIterations,
		Status:         valueobjects.LoopRunning,
	}
}

// CanIterate is the loop guard of spec.md §4.3: "status == running ∧
// iteration_count < max_iterations ∧ current_step ≤ max_steps".
func (s *LoopState) CanIterate() bool {
	return s.Status == valueobjects.LoopRunning &&
		s.IterationCount < s.MaxIterations &&
		s.CurrentStep <= s.MaxSteps
}

// IsAvailable reports whether nodeID is a member of AvailableNodes.
func (s *LoopState) IsAvailable(nodeID string) bool {
	for _, id := range s.AvailableNodes {
		if id == nodeID {
			return true
		}
	}
	return false
}

// IsExecuted reports whether nodeID already has a recorded result.
func (s *LoopState) IsExecuted(nodeID string) bool {
	_, ok := s.ExecutedNodes[nodeID]
	return ok
}

func (s *LoopState) appendMessage(role, content string) {
	s.Messages = append(s.Messages, Message{Role: role, Content: content})
}
