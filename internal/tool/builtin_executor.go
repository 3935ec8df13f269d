package tool

import (
	"context"
	"fmt"
)

// BuiltinFunc is one in-process builtin tool implementation.
type BuiltinFunc func(ctx context.Context, params map[string]any) (any, error)

// BuiltinExecutor dispatches built-in tools by name, registered at the
// composition root (e.g. a "now" tool, a "echo" tool) rather than loaded
// from a manifest's entry.handler — the closed set of names a deployment
// ships with.
type BuiltinExecutor struct {
	funcs map[string]BuiltinFunc
}

func NewBuiltinExecutor() *BuiltinExecutor {
	return &BuiltinExecutor{funcs: make(map[string]BuiltinFunc)}
}

func (b *BuiltinExecutor) Register(name string, fn BuiltinFunc) {
	b.funcs[name] = fn
}

func (b *BuiltinExecutor) Execute(ctx context.Context, t Tool, params map[string]any) (any, error) {
	handler, _ := t.ImplConfig["handler"].(string)
	if handler == "" {
		handler = t.Name
	}
	fn, ok := b.funcs[handler]
	if !ok {
		return nil, fmt.Errorf("no builtin registered for handler %q", handler)
	}
	return fn(ctx, params)
}
