// Package workflow implements the graph data model (C4 value objects), the
// save-time validator (C4), and the run-time DAG executor (C5).
package workflow

import (
	"time"

	"github.com/arcflow/substrate/internal/valueobjects"
)

// Position is a 2-D canvas coordinate.
type Position struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

// Node is one vertex of a workflow graph.
type Node struct {
	ID       string                 `yaml:"id" json:"id"`
	Kind     valueobjects.NodeKind  `yaml:"kind" json:"kind"`
	Name     string                 `yaml:"name" json:"name"`
	Config   map[string]any         `yaml:"config" json:"config"`
	Position Position               `yaml:"position" json:"position"`
}

// Edge is one directed arc of a workflow graph.
type Edge struct {
	ID           string `yaml:"id" json:"id"`
	SourceNodeID string `yaml:"source_node_id" json:"source_node_id"`
	TargetNodeID string `yaml:"target_node_id" json:"target_node_id"`
}

// Workflow is the aggregate root: an identified graph of Nodes and Edges.
type Workflow struct {
	ID          string    `yaml:"id" json:"id"`
	Name        string    `yaml:"name" json:"name"`
	Description string    `yaml:"description" json:"description"`
	Nodes       []Node    `yaml:"nodes" json:"nodes"`
	Edges       []Edge    `yaml:"edges" json:"edges"`
	CreatedAt   time.Time `yaml:"created_at" json:"created_at"`
	UpdatedAt   time.Time `yaml:"updated_at" json:"updated_at"`
}

// NodeByID returns the node with the given id, if any.
func (w *Workflow) NodeByID(id string) (Node, bool) {
	for _, n := range w.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// NodesByKind returns every node whose Kind matches one of the given kinds.
func (w *Workflow) NodesByKind(kinds ...valueobjects.NodeKind) []Node {
	set := make(map[valueobjects.NodeKind]bool, len(kinds))
	for _, k := range kinds {
		set[k] = true
	}
	var out []Node
	for _, n := range w.Nodes {
		if set[n.Kind] {
			out = append(out, n)
		}
	}
	return out
}

// Predecessors returns the node ids whose edges target id, in the order
// edges appear in w.Edges — spec.md §4.2 requires inputs gathered "in the
// order predecessors appear in the edge list".
func (w *Workflow) Predecessors(id string) []string {
	var out []string
	for _, e := range w.Edges {
		if e.TargetNodeID == id {
			out = append(out, e.SourceNodeID)
		}
	}
	return out
}

// Successors returns the node ids reachable by one edge from id.
func (w *Workflow) Successors(id string) []string {
	var out []string
	for _, e := range w.Edges {
		if e.SourceNodeID == id {
			out = append(out, e.TargetNodeID)
		}
	}
	return out
}
