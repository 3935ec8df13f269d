// Package tooltest is the in-memory tool repository shared by C4's
// validator tests and C7's repair tests (spec.md SPEC_FULL.md §4.14) — an
// exported helper package rather than test-only source, since Go forbids
// cross-package import of _test.go files.
package tooltest

import "context"

// Repo is a map-backed fake satisfying both workflow.ToolLookup
// (Lookup) and entry.ToolLookup (FindReplacement).
type Repo struct {
	Deprecated   map[string]bool
	Missing      map[string]bool
	FailErr      error
	Replacements map[string]string // excludeID -> replacement tool id
}

func New() *Repo {
	return &Repo{
		Deprecated:   make(map[string]bool),
		Missing:      make(map[string]bool),
		Replacements: make(map[string]string),
	}
}

// Lookup implements workflow.ToolLookup.
func (r *Repo) Lookup(ctx context.Context, toolID string) (deprecated bool, ok bool, err error) {
	if r.FailErr != nil {
		return false, false, r.FailErr
	}
	if r.Missing[toolID] {
		return false, false, nil
	}
	return r.Deprecated[toolID], true, nil
}

// FindReplacement implements entry.ToolLookup.
func (r *Repo) FindReplacement(category string, excludeID string) (toolID string, ok bool) {
	replacement, ok := r.Replacements[excludeID]
	return replacement, ok
}
