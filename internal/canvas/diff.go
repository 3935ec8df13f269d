// Package canvas implements the reliable, per-workflow pub/sub fan-out
// fabric (C9): connection sets, acknowledged delivery with retry,
// inbound deduplication, and diff-based incremental updates.
package canvas

import "github.com/arcflow/substrate/internal/workflow"

// Snapshot is the client-visible view of one workflow's graph.
type Snapshot struct {
	Nodes map[string]workflow.Node
	Edges map[string]workflow.Edge
}

// SnapshotOf builds a Snapshot from a workflow's current node/edge lists.
func SnapshotOf(w *workflow.Workflow) Snapshot {
	s := Snapshot{Nodes: make(map[string]workflow.Node, len(w.Nodes)), Edges: make(map[string]workflow.Edge, len(w.Edges))}
	for _, n := range w.Nodes {
		s.Nodes[n.ID] = n
	}
	for _, e := range w.Edges {
		s.Edges[e.ID] = e
	}
	return s
}

// FieldChange is one per-field difference reported on a modified node
// (spec.md §4.10: "modified_nodes (id + per-field changes: position, data,
// type)").
type FieldChange struct {
	Field string
	Old   any
	New   any
}

// ModifiedNode is one node present in both snapshots with at least one
// changed field.
type ModifiedNode struct {
	ID      string
	Changes []FieldChange
}

// Diff is the reduction of two snapshots to an add/remove/modify set
// (spec.md §4.10).
type Diff struct {
	AddedNodes    []workflow.Node
	RemovedNodes  []string
	ModifiedNodes []ModifiedNode
	AddedEdges    []workflow.Edge
	RemovedEdges  []string
}

// Empty reports whether the diff carries no changes at all.
func (d Diff) Empty() bool {
	return len(d.AddedNodes) == 0 && len(d.RemovedNodes) == 0 && len(d.ModifiedNodes) == 0 &&
		len(d.AddedEdges) == 0 && len(d.RemovedEdges) == 0
}

// Compute reduces the change from old to new to a Diff (spec.md §4.10:
// "Subsequent changes are reduced to a CanvasDiff by comparing the previous
// snapshot to the new one").
func Compute(old, new Snapshot) Diff {
	var d Diff

	for id, n := range new.Nodes {
		prev, existed := old.Nodes[id]
		if !existed {
			d.AddedNodes = append(d.AddedNodes, n)
			continue
		}
		if changes := diffNode(prev, n); len(changes) > 0 {
			d.ModifiedNodes = append(d.ModifiedNodes, ModifiedNode{ID: id, Changes: changes})
		}
	}
	for id := range old.Nodes {
		if _, ok := new.Nodes[id]; !ok {
			d.RemovedNodes = append(d.RemovedNodes, id)
		}
	}

	for id, e := range new.Edges {
		if _, existed := old.Edges[id]; !existed {
			d.AddedEdges = append(d.AddedEdges, e)
		}
	}
	for id := range old.Edges {
		if _, ok := new.Edges[id]; !ok {
			d.RemovedEdges = append(d.RemovedEdges, id)
		}
	}

	return d
}

func diffNode(prev, next workflow.Node) []FieldChange {
	var out []FieldChange
	if prev.Position != next.Position {
		out = append(out, FieldChange{Field: "position", Old: prev.Position, New: next.Position})
	}
	if prev.Kind != next.Kind {
		out = append(out, FieldChange{Field: "type", Old: prev.Kind, New: next.Kind})
	}
	if !configEqual(prev.Config, next.Config) || prev.Name != next.Name {
		out = append(out, FieldChange{Field: "data", Old: prev.Config, New: next.Config})
	}
	return out
}

func configEqual(a, b map[string]any) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}

// ToMessages reduces a Diff to the linear sequence of typed messages
// spec.md §4.10 names, in added/removed/modified/edge order. An empty diff
// produces an empty message list.
func ToMessages(workflowID string, d Diff) []Message {
	var out []Message
	for _, n := range d.AddedNodes {
		pos := n.Position
		out = append(out, Message{Type: TypeNodeCreated, WorkflowID: workflowID, NodeID: n.ID, NodeType: string(n.Kind), Position: &pos, Config: n.Config})
	}
	for _, id := range d.RemovedNodes {
		out = append(out, Message{Type: TypeNodeDeleted, WorkflowID: workflowID, NodeID: id})
	}
	for _, m := range d.ModifiedNodes {
		changes := make(map[string]any, len(m.Changes))
		for _, c := range m.Changes {
			changes[c.Field] = c.New
		}
		out = append(out, Message{Type: TypeNodeUpdated, WorkflowID: workflowID, NodeID: m.ID, Changes: changes})
	}
	for _, e := range d.AddedEdges {
		out = append(out, Message{Type: TypeEdgeCreated, WorkflowID: workflowID, EdgeID: e.ID, SourceID: e.SourceNodeID, TargetID: e.TargetNodeID})
	}
	for _, id := range d.RemovedEdges {
		out = append(out, Message{Type: TypeEdgeDeleted, WorkflowID: workflowID, EdgeID: id})
	}
	return out
}
