package lifecycle

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/arcflow/substrate/internal/valueobjects"
)

// Quota is the global admission ceiling (spec.md §4.9).
type Quota struct {
	MaxConcurrentAgents int
	MaxCPUCores         float64
	MaxMemoryMB         int
	MaxGPUMemMB         int
}

// DecisionBasis is the snapshot an admission rejection returns alongside
// its reason string (spec.md §4.9: "a decision-basis snapshot (load,
// priority, quota)").
type DecisionBasis struct {
	Running   int
	Quota     Quota
	Requested Resources
}

// Manager owns agent instances, serializing transitions per agent id while
// allowing different agents to transition in parallel (spec.md §5).
type Manager struct {
	mu        sync.Mutex
	instances map[string]*Instance
	locks     map[string]*sync.Mutex
	quota     Quota
	Logger    *ExecutionLogger
	Scheduler *Scheduler

	running  prometheus.Gauge
	spawned  prometheus.Counter
	rejected prometheus.Counter
}

// NewManager builds a Manager. registerer may be nil to skip Prometheus
// registration (e.g. in tests).
func NewManager(quota Quota, logger *ExecutionLogger, scheduler *Scheduler, registerer ...prometheus.Registerer) *Manager {
	m := &Manager{
		instances: make(map[string]*Instance),
		locks:     make(map[string]*sync.Mutex),
		quota:     quota,
		Logger:    logger,
		Scheduler: scheduler,
		running:   prometheus.NewGauge(prometheus.GaugeOpts{Name: "substrate_lifecycle_running_instances", Help: "agent instances currently running"}),
		spawned:   prometheus.NewCounter(prometheus.CounterOpts{Name: "substrate_lifecycle_spawned_total", Help: "agent instances admitted"}),
		rejected:  prometheus.NewCounter(prometheus.CounterOpts{Name: "substrate_lifecycle_rejected_total", Help: "agent spawns rejected by admission control"}),
	}
	if len(registerer) > 0 && registerer[0] != nil {
		registerer[0].MustRegister(m.running, m.spawned, m.rejected)
	}
	return m
}

func (m *Manager) lockFor(id string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[id]
	if !ok {
		l = &sync.Mutex{}
		m.locks[id] = l
	}
	return l
}

func (m *Manager) runningCount() int {
	n := 0
	for _, inst := range m.instances {
		if inst.State == valueobjects.StateRunning {
			n++
		}
	}
	return n
}

// Spawn admission-controls and transitions created→initializing→ready→
// running (spec.md §4.9 "spawn").
func (m *Manager) Spawn(id, typ string, config map[string]any, resources Resources) (*Instance, error) {
	l := m.lockFor(id)
	l.Lock()
	defer l.Unlock()

	m.mu.Lock()
	running := m.runningCount()
	m.mu.Unlock()

	if m.quota.MaxConcurrentAgents > 0 && running >= m.quota.MaxConcurrentAgents {
		if m.Logger != nil {
			m.Logger.Log(EntryResourceAllocation, id, map[string]any{"decision": "rejected", "reason": "quota_exceeded"})
		}
		if m.rejected != nil {
			m.rejected.Inc()
		}
		return nil, valueobjects.Newf(valueobjects.ErrQuotaExceeded, "max_concurrent_agents reached (%d)", m.quota.MaxConcurrentAgents)
	}

	inst := NewInstance(id, typ, config, resources)
	m.mu.Lock()
	m.instances[id] = inst
	m.mu.Unlock()

	if m.Logger != nil {
		m.Logger.Log(EntryResourceAllocation, id, map[string]any{"decision": "admitted", "cpu_cores": resources.CPUCores, "memory_mb": resources.MemoryMB})
	}

	for _, to := range []valueobjects.LifecycleState{valueobjects.StateInitializing, valueobjects.StateReady, valueobjects.StateRunning} {
		ev, err := inst.Transition(to, "spawn")
		if err != nil {
			return nil, err
		}
		m.logTransition(ev)
	}
	if m.spawned != nil {
		m.spawned.Inc()
	}
	if m.running != nil {
		m.running.Inc()
	}
	return inst, nil
}

// OrderPending ranks queued spawn requests with the configured scheduler
// policy (spec.md §4.9); callers spawn in the returned order.
func (m *Manager) OrderPending(candidates []Candidate) []string {
	if m.Scheduler == nil {
		return idsOf(candidates)
	}
	return m.Scheduler.Dispatch(candidates)
}

// Terminate transitions an instance toward stopped and releases its slot
// (spec.md §4.9 "terminate").
func (m *Manager) Terminate(id, reason string) error {
	l := m.lockFor(id)
	l.Lock()
	defer l.Unlock()

	m.mu.Lock()
	inst, ok := m.instances[id]
	m.mu.Unlock()
	if !ok {
		return valueobjects.Newf(valueobjects.ErrInvalidRequest, "instance %q not found", id)
	}

	if inst.State != valueobjects.StateStopping {
		ev, err := inst.Transition(valueobjects.StateStopping, reason)
		if err != nil {
			return err
		}
		m.logTransition(ev)
	}
	ev, err := inst.Transition(valueobjects.StateStopped, reason)
	if err != nil {
		return err
	}
	m.logTransition(ev)
	if m.running != nil {
		m.running.Dec()
	}
	return nil
}

// Restart transitions through restarting→initializing→ready→running and
// bumps the restart counter (spec.md §4.9 "restart").
func (m *Manager) Restart(id, reason string) error {
	l := m.lockFor(id)
	l.Lock()
	defer l.Unlock()

	m.mu.Lock()
	inst, ok := m.instances[id]
	m.mu.Unlock()
	if !ok {
		return valueobjects.Newf(valueobjects.ErrInvalidRequest, "instance %q not found", id)
	}

	if inst.State != valueobjects.StateRestarting {
		ev, err := inst.Transition(valueobjects.StateRestarting, reason)
		if err != nil {
			return err
		}
		m.logTransition(ev)
	}
	for _, to := range []valueobjects.LifecycleState{valueobjects.StateInitializing, valueobjects.StateReady, valueobjects.StateRunning} {
		ev, err := inst.Transition(to, reason)
		if err != nil {
			return err
		}
		m.logTransition(ev)
	}
	return nil
}

// Get returns the instance by id.
func (m *Manager) Get(id string) (*Instance, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inst, ok := m.instances[id]
	return inst, ok
}

func (m *Manager) logTransition(ev LifecycleEvent) {
	if m.Logger == nil {
		return
	}
	m.Logger.Log(EntryStateChange, ev.AgentID, map[string]any{
		"previous_state": ev.PreviousState, "new_state": ev.NewState, "reason": ev.Reason,
	})
}
