package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/arcflow/substrate/internal/valueobjects"
)

// ValidationError is one entry of the structured list spec.md §4.1
// contracts: "validate(w) → {} | non-empty list of {code, message, path, meta}".
type ValidationError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Path    string         `json:"path"`
	Meta    map[string]any `json:"meta,omitempty"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Path)
}

// Error codes, stable identifiers consumed by the interface layer
// (spec.md §4.1).
const (
	CodeDuplicateNodeID        = "duplicate_node_id"
	CodeMissingNode            = "missing_node"
	CodeCycleDetected          = "cycle_detected"
	CodeMissingExecutor        = "missing_executor"
	CodeMissingCode            = "missing_code"
	CodeMissingURL             = "missing_url"
	CodeMissingMethod          = "missing_method"
	CodeMissingToolID          = "missing_tool_id"
	CodeToolNotFound           = "tool_not_found"
	CodeToolDeprecated         = "tool_deprecated"
	CodeToolRepositoryUnavailable = "tool_repository_unavailable"
	CodeEmptyWorkflow          = "empty_workflow"
	CodeMissingStart           = "missing_start"
	CodeMissingEnd             = "missing_end"
	CodeNoStartToEndPath       = "no_start_to_end_path"
	CodeMissingIntermediateNodes = "missing_intermediate_nodes"
	CodeInvalidEdges           = "invalid_edges"
	CodeInvalidConfig          = "invalid_config"
)

// Validator implements the C4 contract: "validate(w) → {} | non-empty list".
type Validator struct {
	Executors ExecutorRegistry
	Tools     ToolLookup
}

func NewValidator(executors ExecutorRegistry, tools ToolLookup) *Validator {
	return &Validator{Executors: executors, Tools: tools}
}

// Validate runs the ordered procedure of spec.md §4.1 and returns every
// error found (never stops at the first one, per SPEC_FULL.md §4.12).
func (v *Validator) Validate(ctx context.Context, w *Workflow) []ValidationError {
	Normalize(w)

	var errs []ValidationError

	if len(w.Nodes) == 0 {
		return []ValidationError{{Code: CodeEmptyWorkflow, Message: "workflow has no nodes", Path: "nodes"}}
	}

	errs = append(errs, checkMainSubgraph(w)...)
	errs = append(errs, checkDuplicateIDs(w)...)
	errs = append(errs, checkEdgeEndpoints(w)...)

	order, cycleErr := TopologicalSort(w)
	if cycleErr != nil {
		errs = append(errs, ValidationError{Code: CodeCycleDetected, Message: cycleErr.Error(), Path: "edges"})
	}
	_ = order

	errs = append(errs, v.checkNodes(ctx, w)...)

	return errs
}

// Normalize applies spec.md §4.1 step 1: "strip whitespace from tool-id
// strings, rename toolId → tool_id, drop the alias key." Idempotent:
// Normalize(Normalize(w)) == Normalize(w), since the second pass finds no
// alias key left and an already-trimmed string trims to itself.
func Normalize(w *Workflow) {
	for i := range w.Nodes {
		n := &w.Nodes[i]
		if n.Kind != valueobjects.NodeTool || n.Config == nil {
			continue
		}
		if alias, ok := n.Config["toolId"]; ok {
			if _, already := n.Config["tool_id"]; !already {
				n.Config["tool_id"] = alias
			}
			delete(n.Config, "toolId")
		}
		if raw, ok := n.Config["tool_id"].(string); ok {
			n.Config["tool_id"] = strings.TrimSpace(raw)
		}
	}
}

func checkDuplicateIDs(w *Workflow) []ValidationError {
	seen := map[string]int{}
	var dup []string
	for _, n := range w.Nodes {
		seen[n.ID]++
		if seen[n.ID] == 2 {
			dup = append(dup, n.ID)
		}
	}
	if len(dup) == 0 {
		return nil
	}
	return []ValidationError{{
		Code:    CodeDuplicateNodeID,
		Message: fmt.Sprintf("duplicate node ids: %s", strings.Join(dup, ", ")),
		Path:    "nodes",
		Meta:    map[string]any{"ids": dup},
	}}
}

func checkEdgeEndpoints(w *Workflow) []ValidationError {
	ids := map[string]bool{}
	for _, n := range w.Nodes {
		ids[n.ID] = true
	}
	var errs []ValidationError
	for i, e := range w.Edges {
		if !ids[e.SourceNodeID] {
			errs = append(errs, ValidationError{Code: CodeMissingNode, Message: fmt.Sprintf("edge source %q does not exist", e.SourceNodeID), Path: fmt.Sprintf("edges[%d].source_node_id", i)})
		}
		if !ids[e.TargetNodeID] {
			errs = append(errs, ValidationError{Code: CodeMissingNode, Message: fmt.Sprintf("edge target %q does not exist", e.TargetNodeID), Path: fmt.Sprintf("edges[%d].target_node_id", i)})
		}
		if e.SourceNodeID == "" || e.TargetNodeID == "" {
			errs = append(errs, ValidationError{Code: CodeInvalidEdges, Message: "edge endpoints must be non-empty", Path: fmt.Sprintf("edges[%d]", i)})
		}
	}
	return errs
}

// checkMainSubgraph enforces: at least one start, at least one end, and the
// main subgraph (forward-reachable from a start AND backward-reachable from
// an end) contains at least one node that is neither start nor end.
func checkMainSubgraph(w *Workflow) []ValidationError {
	var errs []ValidationError

	starts := w.NodesByKind(valueobjects.NodeStart)
	ends := w.NodesByKind(valueobjects.NodeEnd)
	if len(starts) == 0 {
		errs = append(errs, ValidationError{Code: CodeMissingStart, Message: "workflow has no start node", Path: "nodes"})
	}
	if len(ends) == 0 {
		errs = append(errs, ValidationError{Code: CodeMissingEnd, Message: "workflow has no end node", Path: "nodes"})
	}
	if len(starts) == 0 || len(ends) == 0 {
		return errs
	}

	fwd := reachableForward(w, idsOf(starts))
	bwd := reachableBackward(w, idsOf(ends))

	hasPath := false
	hasIntermediate := false
	for _, n := range w.Nodes {
		if fwd[n.ID] && bwd[n.ID] {
			hasPath = true
			if n.Kind != valueobjects.NodeStart && n.Kind != valueobjects.NodeEnd {
				hasIntermediate = true
			}
		}
	}
	if !hasPath {
		errs = append(errs, ValidationError{Code: CodeNoStartToEndPath, Message: "no path from a start node to an end node", Path: "nodes"})
		return errs
	}
	if !hasIntermediate {
		errs = append(errs, ValidationError{Code: CodeMissingIntermediateNodes, Message: "main subgraph has no node besides start/end", Path: "nodes"})
	}
	return errs
}

func idsOf(nodes []Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

func reachableForward(w *Workflow, from []string) map[string]bool {
	visited := map[string]bool{}
	queue := append([]string{}, from...)
	for _, id := range from {
		visited[id] = true
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range w.Successors(cur) {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	return visited
}

func reachableBackward(w *Workflow, from []string) map[string]bool {
	visited := map[string]bool{}
	queue := append([]string{}, from...)
	for _, id := range from {
		visited[id] = true
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, prev := range w.Predecessors(cur) {
			if !visited[prev] {
				visited[prev] = true
				queue = append(queue, prev)
			}
		}
	}
	return visited
}

func (v *Validator) checkNodes(ctx context.Context, w *Workflow) []ValidationError {
	var errs []ValidationError
	for i, n := range w.Nodes {
		path := fmt.Sprintf("nodes[%d]", i)

		if !n.Kind.Builtin() {
			if v.Executors == nil {
				errs = append(errs, ValidationError{Code: CodeMissingExecutor, Message: fmt.Sprintf("no executor registry configured for kind %q", n.Kind), Path: path})
			} else if _, ok := v.Executors.Executor(n.Kind); !ok {
				errs = append(errs, ValidationError{Code: CodeMissingExecutor, Message: fmt.Sprintf("no executor registered for kind %q", n.Kind), Path: path})
			}
		}

		switch n.Kind {
		case valueobjects.NodeScriptLangA, valueobjects.NodeScriptLangB:
			code, _ := n.Config["code"].(string)
			if strings.TrimSpace(code) == "" {
				errs = append(errs, ValidationError{Code: CodeMissingCode, Message: "scripted node requires a non-empty code string", Path: path + ".config.code"})
			}
		case valueobjects.NodeHTTP:
			url, _ := n.Config["url"].(string)
			method, _ := n.Config["method"].(string)
			if strings.TrimSpace(url) == "" {
				errs = append(errs, ValidationError{Code: CodeMissingURL, Message: "http node requires a non-empty url", Path: path + ".config.url"})
			}
			if strings.TrimSpace(method) == "" {
				errs = append(errs, ValidationError{Code: CodeMissingMethod, Message: "http node requires a non-empty method", Path: path + ".config.method"})
			}
		case valueobjects.NodeTool:
			errs = append(errs, v.checkToolNode(ctx, n, path)...)
		}
	}
	return errs
}

func (v *Validator) checkToolNode(ctx context.Context, n Node, path string) []ValidationError {
	toolID, _ := n.Config["tool_id"].(string)
	toolID = strings.TrimSpace(toolID)
	if toolID == "" {
		return []ValidationError{{Code: CodeMissingToolID, Message: "tool node requires config.tool_id", Path: path + ".config.tool_id"}}
	}
	if v.Tools == nil {
		return []ValidationError{{Code: CodeToolRepositoryUnavailable, Message: "tool repository not configured", Path: path + ".config.tool_id"}}
	}
	deprecated, ok, err := v.Tools.Lookup(ctx, toolID)
	if err != nil {
		return []ValidationError{{Code: CodeToolRepositoryUnavailable, Message: err.Error(), Path: path + ".config.tool_id"}}
	}
	if !ok {
		return []ValidationError{{Code: CodeToolNotFound, Message: fmt.Sprintf("tool %q not found", toolID), Path: path + ".config.tool_id"}}
	}
	if deprecated {
		return []ValidationError{{Code: CodeToolDeprecated, Message: fmt.Sprintf("tool %q is deprecated", toolID), Path: path + ".config.tool_id"}}
	}
	return nil
}
