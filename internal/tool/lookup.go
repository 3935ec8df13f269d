package tool

import "context"

// WorkflowToolLookup adapts *Registry to workflow.ToolLookup without
// internal/workflow importing internal/tool (kept one-directional per the
// teacher's package-boundary convention: domain packages depend on
// interfaces, not on each other directly).
type WorkflowToolLookup struct {
	Registry *Registry
}

func (l WorkflowToolLookup) Lookup(ctx context.Context, toolID string) (deprecated bool, ok bool, err error) {
	d, found := l.Registry.Lookup(toolID)
	return d, found, nil
}
