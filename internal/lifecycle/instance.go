// Package lifecycle implements the agent-instance state machine, the
// quota-aware admission scheduler, the execution logger, and runtime
// context tracking (C8).
package lifecycle

import (
	"time"

	"github.com/arcflow/substrate/internal/valueobjects"
)

// Resources is the allocation spec.md §3 names for an agent instance.
type Resources struct {
	CPUCores  float64
	MemoryMB  int
	GPUMemMB  int
}

// Metrics is the runtime telemetry an instance reports back.
type Metrics struct {
	CPUPercent    float64
	MemoryPercent float64
	RequestCount  int64
	ErrorCount    int64
}

// ActivityEntry is one bounded-ring entry of an instance's activity log.
type ActivityEntry struct {
	Timestamp time.Time
	Detail    string
}

// Instance is the agent instance of spec.md §3.
type Instance struct {
	ID           string
	Type         string
	Config       map[string]any
	State        valueobjects.LifecycleState
	Resources    Resources
	Metrics      Metrics
	RestartCount int
	Activity     *Ring[ActivityEntry]
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

const defaultActivityRingSize = 200

// NewInstance constructs a fresh instance in the created state.
func NewInstance(id, typ string, config map[string]any, resources Resources) *Instance {
	now := time.Now()
	return &Instance{
		ID: id, Type: typ, Config: config, State: valueobjects.StateCreated,
		Resources: resources, Activity: NewRing[ActivityEntry](defaultActivityRingSize),
		CreatedAt: now, UpdatedAt: now,
	}
}

// LifecycleEvent carries agent_id, previous_state, new_state, and an
// optional reason (spec.md §4.9).
type LifecycleEvent struct {
	AgentID       string
	PreviousState valueobjects.LifecycleState
	NewState      valueobjects.LifecycleState
	Reason        string
	Timestamp     time.Time
}

// Transition applies one state-machine edge, rejecting with
// invalid_transition if the edge is not in the table (spec.md §4.9).
// Transitions for different agents proceed in parallel; callers serialize
// per-agent transitions (spec.md §5).
func (i *Instance) Transition(to valueobjects.LifecycleState, reason string) (LifecycleEvent, error) {
	if !valueobjects.CanTransition(i.State, to) {
		return LifecycleEvent{}, valueobjects.Newf(valueobjects.ErrInvalidTransition, "agent %q cannot go from %q to %q", i.ID, i.State, to)
	}
	ev := LifecycleEvent{AgentID: i.ID, PreviousState: i.State, NewState: to, Reason: reason, Timestamp: time.Now()}
	i.State = to
	i.UpdatedAt = ev.Timestamp
	if to == valueobjects.StateRestarting {
		i.RestartCount++
	}
	i.Activity.Push(ActivityEntry{Timestamp: ev.Timestamp, Detail: reason})
	return ev, nil
}
