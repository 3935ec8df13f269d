// Package tool implements the tool engine (C3): manifest loading, the
// name/tag/category index, parameter validation, per-tool concurrency
// control, and audit recording.
package tool

import (
	"time"

	"github.com/arcflow/substrate/internal/valueobjects"
)

// Parameter is one declared parameter of a Tool (spec.md §3).
type Parameter struct {
	Name     string                `yaml:"name" json:"name"`
	Type     valueobjects.ParamType `yaml:"type" json:"type"`
	Required bool                  `yaml:"required" json:"required"`
	Default  any                   `yaml:"default,omitempty" json:"default,omitempty"`
	Enum     []any                 `yaml:"enum,omitempty" json:"enum,omitempty"`
}

// Tool is the named, versioned, categorized descriptor of spec.md §3.
type Tool struct {
	ID          string                      `yaml:"id" json:"id"`
	Name        string                      `yaml:"name" json:"name"`
	Version     string                      `yaml:"version" json:"version"`
	Description string                      `yaml:"description" json:"description"`
	Category    valueobjects.ToolCategory   `yaml:"category" json:"category"`
	Tags        []string                    `yaml:"tags,omitempty" json:"tags,omitempty"`
	Parameters  []Parameter                 `yaml:"parameters" json:"parameters"`
	Returns     map[string]any              `yaml:"returns,omitempty" json:"returns,omitempty"`
	ImplKind    valueobjects.ToolImplKind   `yaml:"impl_kind" json:"impl_kind"`
	ImplConfig  map[string]any              `yaml:"impl_config,omitempty" json:"impl_config,omitempty"`
	Author      string                      `yaml:"author,omitempty" json:"author,omitempty"`
	Status      valueobjects.ToolStatus     `yaml:"status" json:"status"`
	Concurrency int                         `yaml:"concurrency,omitempty" json:"concurrency,omitempty"`
	Lenient     bool                        `yaml:"lenient,omitempty" json:"lenient,omitempty"`
	UsageCount  int64                       `yaml:"usage_count" json:"usage_count"`
	CreatedAt   time.Time                   `yaml:"created_at" json:"created_at"`
	UpdatedAt   time.Time                   `yaml:"updated_at" json:"updated_at"`
}

// Deprecated reports whether the tool is in deprecated status.
func (t Tool) Deprecated() bool { return t.Status == valueobjects.ToolDeprecated }

// Publish applies the one allowed forward transition named in spec.md §3:
// "only testing→published is allowed via the publish action."
func (t *Tool) Publish() error {
	if !t.Status.CanPublish() {
		return valueobjects.Newf(valueobjects.ErrInvalidTransition, "tool %q cannot publish from status %q", t.Name, t.Status)
	}
	t.Status = valueobjects.ToolPublished
	return nil
}

// Result is the outcome of one Execute call (spec.md §4.5).
type Result struct {
	Success bool
	Output  any
	Error   string
	Kind    valueobjects.ErrorKind
}
