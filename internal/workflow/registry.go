package workflow

import (
	"sync"

	"github.com/arcflow/substrate/internal/valueobjects"
)

// nodeExecutorRegistry is a concurrency-safe map from node kind to executor,
// grounded on the teacher's generic Registry[T] pattern (pkg/registry), here
// narrowed to the one key type C5 needs.
type nodeExecutorRegistry struct {
	mu    sync.RWMutex
	execs map[valueobjects.NodeKind]NodeExecutor
}

// NewExecutorRegistry returns an empty, ready-to-use ExecutorRegistry.
func NewExecutorRegistry() ExecutorRegistry {
	return &nodeExecutorRegistry{execs: make(map[valueobjects.NodeKind]NodeExecutor)}
}

func (r *nodeExecutorRegistry) Register(kind valueobjects.NodeKind, exec NodeExecutor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.execs[kind] = exec
}

func (r *nodeExecutorRegistry) Executor(kind valueobjects.NodeKind) (NodeExecutor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.execs[kind]
	return e, ok
}
