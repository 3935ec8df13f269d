// Package valueobjects defines the closed-set enumerations shared across the
// workflow, tool, ReAct, and lifecycle packages.
package valueobjects

// NodeKind is the closed set of workflow node kinds.
type NodeKind string

const (
	NodeInput         NodeKind = "input"
	NodeStart         NodeKind = "start"
	NodeDefault       NodeKind = "default"
	NodeTransform     NodeKind = "transform"
	NodeHTTP          NodeKind = "http"
	NodeScriptLangA   NodeKind = "script-in-language-A"
	NodeScriptLangB   NodeKind = "script-in-language-B"
	NodeTool          NodeKind = "tool"
	NodeImage         NodeKind = "image"
	NodeEnd           NodeKind = "end"
	NodeOutput        NodeKind = "output"
)

// AllNodeKinds lists every member of the closed set, in the order spec.md §3
// names them.
var AllNodeKinds = []NodeKind{
	NodeInput, NodeStart, NodeDefault, NodeTransform, NodeHTTP,
	NodeScriptLangA, NodeScriptLangB, NodeTool, NodeImage, NodeEnd, NodeOutput,
}

// Valid reports whether k is a member of the closed set.
func (k NodeKind) Valid() bool {
	for _, v := range AllNodeKinds {
		if v == k {
			return true
		}
	}
	return false
}

// builtinKinds are node kinds that never require a registered executor
// lookup beyond the ones wired in by the runtime itself.
var builtinKinds = map[NodeKind]bool{
	NodeInput:   true,
	NodeStart:   true,
	NodeDefault: true,
	NodeEnd:     true,
	NodeOutput:  true,
}

// Builtin reports whether k is satisfied without a registered executor.
func (k NodeKind) Builtin() bool {
	return builtinKinds[k]
}
