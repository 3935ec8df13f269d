package valueobjects

// ActionKind is the closed set of ReAct action variants (spec.md §3, §6).
type ActionKind string

const (
	ActionReason       ActionKind = "reason"
	ActionExecuteNode  ActionKind = "execute_node"
	ActionWait         ActionKind = "wait"
	ActionFinish       ActionKind = "finish"
	ActionErrorRecovery ActionKind = "error_recovery"
)

var allActionKinds = map[ActionKind]bool{
	ActionReason: true, ActionExecuteNode: true, ActionWait: true,
	ActionFinish: true, ActionErrorRecovery: true,
}

// Valid reports whether k is a member of the closed set.
func (k ActionKind) Valid() bool { return allActionKinds[k] }

// RequiresNodeID reports whether variant k must carry a non-empty node_id,
// per spec.md §3: "execute_node and error_recovery require a node_id".
func (k ActionKind) RequiresNodeID() bool {
	return k == ActionExecuteNode || k == ActionErrorRecovery
}

// LoopStatus is the closed set of ReAct loop statuses.
type LoopStatus string

const (
	LoopRunning   LoopStatus = "running"
	LoopCompleted LoopStatus = "completed"
	LoopFailed    LoopStatus = "failed"
)

// NoteKind is the closed set of knowledge note kinds (spec.md §3).
type NoteKind string

const (
	NoteProgress   NoteKind = "progress"
	NoteConclusion NoteKind = "conclusion"
	NoteBlocker    NoteKind = "blocker"
	NoteNextAction NoteKind = "next_action"
	NoteReference  NoteKind = "reference"
)

// NoteStatus is the closed set of knowledge note statuses.
type NoteStatus string

const (
	NoteDraft    NoteStatus = "draft"
	NotePending  NoteStatus = "pending"
	NoteApproved NoteStatus = "approved"
	NoteArchived NoteStatus = "archived"
)

// LifecycleState is the closed set of agent instance states (spec.md §4.9).
type LifecycleState string

const (
	StateCreated      LifecycleState = "created"
	StateInitializing LifecycleState = "initializing"
	StateReady        LifecycleState = "ready"
	StateRunning      LifecycleState = "running"
	StatePaused       LifecycleState = "paused"
	StateStopping     LifecycleState = "stopping"
	StateStopped      LifecycleState = "stopped"
	StateFailed       LifecycleState = "failed"
	StateRestarting   LifecycleState = "restarting"
)

// lifecycleTransitions is the transition table of spec.md §4.9, verbatim.
var lifecycleTransitions = map[LifecycleState]map[LifecycleState]bool{
	StateCreated:      {StateInitializing: true, StateFailed: true},
	StateInitializing: {StateReady: true, StateFailed: true},
	StateReady:        {StateRunning: true, StateFailed: true},
	StateRunning:      {StatePaused: true, StateStopping: true, StateRestarting: true, StateFailed: true},
	StatePaused:       {StateRunning: true, StateStopping: true, StateFailed: true},
	StateStopping:     {StateStopped: true, StateFailed: true},
	StateStopped:      {StateInitializing: true, StateFailed: true},
	StateFailed:       {StateRestarting: true},
	StateRestarting:   {StateInitializing: true, StateFailed: true},
}

// CanTransition reports whether from->to is a valid edge in the lifecycle
// state machine.
func CanTransition(from, to LifecycleState) bool {
	next, ok := lifecycleTransitions[from]
	if !ok {
		return false
	}
	return next[to]
}

// SchedulerPolicy is the closed set of scheduler dispatch policies.
type SchedulerPolicy string

const (
	PolicyPriority      SchedulerPolicy = "priority"
	PolicyFIFO          SchedulerPolicy = "fifo"
	PolicyResourceAware SchedulerPolicy = "resource-aware"
	PolicyWeightedFair  SchedulerPolicy = "weighted-fair"
	PolicyLeastLoaded   SchedulerPolicy = "least-loaded"
	PolicyRoundRobin    SchedulerPolicy = "round-robin"
)
