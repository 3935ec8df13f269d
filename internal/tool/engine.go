package tool

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arcflow/substrate/internal/valueobjects"
)

// HotReloadEvent is one of the three event kinds Engine.Subscribe
// publishes (spec.md §4.5).
type HotReloadEvent struct {
	Kind string // tool_registered | tool_updated | tool_removed
	Name string
}

// Engine implements the C3 contract of spec.md §4.5: load/register/get/
// execute/subscribe, with parameter validation, executor dispatch,
// concurrency control, and audit recording wired together.
type Engine struct {
	Registry    *Registry
	Concurrency *ConcurrencyController
	Executors   map[valueobjects.ToolImplKind]ToolExecutor
	Audit       AuditSink
	Logger      *slog.Logger

	mu          sync.RWMutex
	subscribers []func(HotReloadEvent)
}

func NewEngine(registry *Registry, concurrency *ConcurrencyController, logger *slog.Logger) *Engine {
	return &Engine{
		Registry:    registry,
		Concurrency: concurrency,
		Executors:   make(map[valueobjects.ToolImplKind]ToolExecutor),
		Logger:      logger,
	}
}

// RegisterExecutor installs the ToolExecutor for one implementation kind.
func (e *Engine) RegisterExecutor(kind valueobjects.ToolImplKind, exec ToolExecutor) {
	e.Executors[kind] = exec
}

// SetKnowledgeStore installs the audit sink (spec.md §4.5
// "set_knowledge_store").
func (e *Engine) SetKnowledgeStore(sink AuditSink) { e.Audit = sink }

// Subscribe registers a handler for tool_registered/tool_updated/
// tool_removed hot-reload events.
func (e *Engine) Subscribe(handler func(HotReloadEvent)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.subscribers = append(e.subscribers, handler)
}

func (e *Engine) publish(ev HotReloadEvent) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, h := range e.subscribers {
		h(ev)
	}
}

// Register adds or replaces a tool, publishing tool_registered for a new
// name or tool_updated for a replacement.
func (e *Engine) Register(t Tool) {
	_, existed := e.Registry.Get(t.Name)
	e.Registry.Register(t)
	if existed {
		e.publish(HotReloadEvent{Kind: "tool_updated", Name: t.Name})
	} else {
		e.publish(HotReloadEvent{Kind: "tool_registered", Name: t.Name})
	}
}

// Remove deletes a tool and publishes tool_removed. Idempotent.
func (e *Engine) Remove(name string) {
	e.Registry.Delete(name)
	e.publish(HotReloadEvent{Kind: "tool_removed", Name: name})
}

// Get returns the tool with the given name (spec.md §4.5 "get").
func (e *Engine) Get(name string) (Tool, bool) { return e.Registry.Get(name) }

// Execute implements spec.md §4.5 "execute": parameter-validate, resolve
// executor, enforce concurrency, invoke, measure, record audit.
func (e *Engine) Execute(ctx context.Context, toolName string, params map[string]any, caller CallRecord) Result {
	start := time.Now()
	traceID := uuid.NewString()

	t, ok := e.Registry.Get(toolName)
	if !ok {
		return e.finish(ctx, caller, toolName, traceID, start, Result{Kind: valueobjects.ErrToolNotFound, Error: "tool not found"})
	}
	if t.Deprecated() {
		return e.finish(ctx, caller, toolName, traceID, start, Result{Kind: valueobjects.ErrToolDeprecated, Error: "tool is deprecated"})
	}

	filled, verrs := ValidateParams(t, params)
	if len(verrs) > 0 {
		return e.finish(ctx, caller, toolName, traceID, start, Result{Kind: valueobjects.ErrInvalidRequest, Error: verrs[0].Error()})
	}

	exec, ok := e.Executors[t.ImplKind]
	if !ok {
		return e.finish(ctx, caller, toolName, traceID, start, Result{Kind: valueobjects.ErrToolExecutionFailed, Error: "no executor registered for impl kind " + string(t.ImplKind)})
	}

	var release func()
	if e.Concurrency != nil {
		r, err := e.Concurrency.Acquire(ctx, toolName, t.Concurrency)
		if err != nil {
			return e.finish(ctx, caller, toolName, traceID, start, Result{Kind: valueobjects.ErrQuotaExceeded, Error: err.Error()})
		}
		release = r
	}
	if release != nil {
		defer release()
	}

	out, err := exec.Execute(ctx, t, filled)
	if err != nil {
		kind, _ := valueobjects.KindOf(err)
		if kind == "" {
			kind = valueobjects.ErrToolExecutionFailed
		}
		return e.finish(ctx, caller, toolName, traceID, start, Result{Kind: kind, Error: err.Error()})
	}

	t.UsageCount++
	e.Registry.Register(t)

	return e.finish(ctx, caller, toolName, traceID, start, Result{Success: true, Output: out})
}

func (e *Engine) finish(ctx context.Context, caller CallRecord, toolName, traceID string, start time.Time, res Result) Result {
	if e.Audit != nil {
		rec := caller
		rec.ToolName = toolName
		rec.TraceID = traceID
		rec.Success = res.Success
		rec.Output = res.Output
		rec.Error = res.Error
		rec.ErrorKind = string(res.Kind)
		rec.DurationMS = time.Since(start).Milliseconds()
		e.Audit.Record(ctx, rec)
	}
	return res
}
