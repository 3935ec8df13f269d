package lifecycle_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcflow/substrate/internal/lifecycle"
	"github.com/arcflow/substrate/internal/valueobjects"
)

func TestManager_Spawn_QuotaExceeded(t *testing.T) {
	quota := lifecycle.Quota{MaxConcurrentAgents: 1}
	logger := lifecycle.NewExecutionLogger()
	m := lifecycle.NewManager(quota, logger, lifecycle.NewScheduler(lifecycle.NewPolicy(valueobjects.PolicyFIFO), quota))

	_, err := m.Spawn("agent-1", "worker", nil, lifecycle.Resources{})
	require.NoError(t, err)

	_, err = m.Spawn("agent-2", "worker", nil, lifecycle.Resources{})
	require.Error(t, err)
	kind, ok := valueobjects.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, valueobjects.ErrQuotaExceeded, kind)
}

func TestManager_Restart_FromRunningAllowedFromStoppedRejected(t *testing.T) {
	quota := lifecycle.Quota{MaxConcurrentAgents: 10}
	m := lifecycle.NewManager(quota, lifecycle.NewExecutionLogger(), nil)

	inst, err := m.Spawn("agent-1", "worker", nil, lifecycle.Resources{})
	require.NoError(t, err)
	assert.Equal(t, valueobjects.StateRunning, inst.State)

	// running -> restarting is a valid edge, so Restart should succeed here.
	require.NoError(t, m.Restart("agent-1", "manual restart"))
	assert.Equal(t, valueobjects.StateRunning, inst.State)
	assert.Equal(t, 1, inst.RestartCount)

	require.NoError(t, m.Terminate("agent-1", "shutdown"))
	assert.Equal(t, valueobjects.StateStopped, inst.State)

	// stopped has no restarting edge in the transition table.
	err = m.Restart("agent-1", "late restart")
	require.Error(t, err)
	kind, ok := valueobjects.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, valueobjects.ErrInvalidTransition, kind)
}

func TestInstance_Transition_RejectsUnknownEdge(t *testing.T) {
	inst := lifecycle.NewInstance("agent-x", "worker", nil, lifecycle.Resources{})
	_, err := inst.Transition(valueobjects.StateRunning, "skip ahead")
	require.Error(t, err)
	kind, ok := valueobjects.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, valueobjects.ErrInvalidTransition, kind)
}

func TestExecutionLogger_FilterByAgentAndType(t *testing.T) {
	l := lifecycle.NewExecutionLogger()
	l.Log(lifecycle.EntryResourceAllocation, "agent-1", map[string]any{"decision": "admitted"})
	l.Log(lifecycle.EntryStateChange, "agent-1", map[string]any{"new_state": "running"})
	l.Log(lifecycle.EntryStateChange, "agent-2", map[string]any{"new_state": "running"})

	byAgent := l.Filter("agent-1", "")
	assert.Len(t, byAgent, 2)

	byType := l.Filter("", lifecycle.EntryStateChange)
	assert.Len(t, byType, 2)

	both := l.Filter("agent-2", lifecycle.EntryStateChange)
	require.Len(t, both, 1)
	assert.Equal(t, "agent-2", both[0].AgentID)
}

func TestSchedulerPolicy_PriorityOrdersDescending(t *testing.T) {
	s := lifecycle.NewScheduler(lifecycle.NewPolicy(valueobjects.PolicyPriority), lifecycle.Quota{})
	order := s.Dispatch([]lifecycle.Candidate{
		{ID: "low", Priority: 1},
		{ID: "high", Priority: 10},
		{ID: "mid", Priority: 5},
	})
	assert.Equal(t, []string{"high", "mid", "low"}, order)
}

func TestSchedulerPolicy_LeastLoadedOrdersAscending(t *testing.T) {
	s := lifecycle.NewScheduler(lifecycle.NewPolicy(valueobjects.PolicyLeastLoaded), lifecycle.Quota{})
	order := s.Dispatch([]lifecycle.Candidate{
		{ID: "busy", Load: 0.9},
		{ID: "idle", Load: 0.1},
	})
	assert.Equal(t, []string{"idle", "busy"}, order)
}

func TestSchedulerPolicy_RoundRobinRotates(t *testing.T) {
	p := lifecycle.NewPolicy(valueobjects.PolicyRoundRobin)
	candidates := []lifecycle.Candidate{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	first := p.Order(candidates)
	second := p.Order(candidates)
	assert.Equal(t, []string{"a", "b", "c"}, first)
	assert.Equal(t, []string{"b", "c", "a"}, second)
}

func TestRing_DropsOldestPastCapacity(t *testing.T) {
	r := lifecycle.NewRing[int](3)
	r.Push(1)
	r.Push(2)
	r.Push(3)
	r.Push(4)
	assert.Equal(t, []int{2, 3, 4}, r.All())
	assert.Equal(t, 3, r.Len())
}
