package workflow

import (
	"gopkg.in/yaml.v3"

	"github.com/arcflow/substrate/internal/valueobjects"
)

// ParseYAML decodes a persisted workflow document (spec.md §6's "persisted
// state layout") into a Workflow.
func ParseYAML(data []byte) (*Workflow, error) {
	var w Workflow
	if err := yaml.Unmarshal(data, &w); err != nil {
		return nil, valueobjects.Wrap(valueobjects.ErrParse, err)
	}
	return &w, nil
}
