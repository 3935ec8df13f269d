// Package react implements the ReAct control loop (C6): loop state, the
// three-stage action parser, and the orchestrator that drives C5 through a
// reason/act/observe/decide cycle.
package react

import (
	"github.com/arcflow/substrate/internal/valueobjects"
)

// Action is the tagged variant produced by the LM each iteration
// (spec.md §3, §6).
type Action struct {
	Type       valueobjects.ActionKind `json:"type"`
	NodeID     string                  `json:"node_id,omitempty"`
	Reasoning  string                  `json:"reasoning,omitempty"`
	Params     map[string]any          `json:"params,omitempty"`
	RetryCount int                     `json:"retry_count,omitempty"`
}
