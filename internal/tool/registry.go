package tool

import (
	"sync"

	"github.com/arcflow/substrate/internal/valueobjects"
)

// Registry indexes Tools by name (unique key), tag, and category —
// grounded on the teacher's generic Registry[T] (pkg/registry), here
// specialized to three indices rather than one, since the tool engine
// contract names all three (spec.md §4.5).
type Registry struct {
	mu       sync.RWMutex
	byName   map[string]Tool
	byTag    map[string]map[string]bool
	byCat    map[valueobjects.ToolCategory]map[string]bool
}

func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]Tool),
		byTag:  make(map[string]map[string]bool),
		byCat:  make(map[valueobjects.ToolCategory]map[string]bool),
	}
}

// Register adds or replaces a tool in the index (spec.md §4.5 "register").
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unindexLocked(t.Name)
	r.byName[t.Name] = t
	for _, tag := range t.Tags {
		if r.byTag[tag] == nil {
			r.byTag[tag] = make(map[string]bool)
		}
		r.byTag[tag][t.Name] = true
	}
	if r.byCat[t.Category] == nil {
		r.byCat[t.Category] = make(map[string]bool)
	}
	r.byCat[t.Category][t.Name] = true
}

func (r *Registry) unindexLocked(name string) {
	old, ok := r.byName[name]
	if !ok {
		return
	}
	for _, tag := range old.Tags {
		delete(r.byTag[tag], name)
	}
	delete(r.byCat[old.Category], name)
}

// Get returns the tool with the given name, or ok=false
// (spec.md §4.5 "get").
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byName[name]
	return t, ok
}

// Delete removes a tool by name. Idempotent: deleting an absent name is a
// no-op (spec.md §8 "delete(tool_id) is idempotent").
func (r *Registry) Delete(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unindexLocked(name)
	delete(r.byName, name)
}

// ByTag returns every tool name registered under tag.
func (r *Registry) ByTag(tag string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return keysOf(r.byTag[tag])
}

// ByCategory returns every tool name registered under category.
func (r *Registry) ByCategory(cat valueobjects.ToolCategory) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return keysOf(r.byCat[cat])
}

func keysOf(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// Lookup is the validator's narrow view of the registry (whether a tool_id
// exists and whether it's deprecated). WorkflowToolLookup adapts it to
// workflow.ToolLookup, whose Lookup also takes a context and returns an error.
func (r *Registry) Lookup(toolID string) (deprecated bool, ok bool) {
	t, found := r.Get(toolID)
	if !found {
		return false, false
	}
	return t.Deprecated(), true
}
