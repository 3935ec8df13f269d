package valueobjects

// ToolCategory is the closed set of manifest categories (spec.md §6).
type ToolCategory string

const (
	CategoryData        ToolCategory = "data"
	CategoryCommunication ToolCategory = "communication"
	CategoryCompute      ToolCategory = "compute"
	CategoryIntegration  ToolCategory = "integration"
	CategoryUtility      ToolCategory = "utility"
)

var allToolCategories = map[ToolCategory]bool{
	CategoryData: true, CategoryCommunication: true, CategoryCompute: true,
	CategoryIntegration: true, CategoryUtility: true,
}

// Valid reports whether c is a member of the closed set.
func (c ToolCategory) Valid() bool { return allToolCategories[c] }

// ToolImplKind is the closed set of tool implementation kinds (spec.md §6).
type ToolImplKind string

const (
	ImplBuiltin ToolImplKind = "builtin"
	ImplHTTP    ToolImplKind = "http"
	ImplScriptA ToolImplKind = "script-A"
	ImplScriptB ToolImplKind = "script-B"
)

var allToolImplKinds = map[ToolImplKind]bool{
	ImplBuiltin: true, ImplHTTP: true, ImplScriptA: true, ImplScriptB: true,
}

// Valid reports whether k is a member of the closed set.
func (k ToolImplKind) Valid() bool { return allToolImplKinds[k] }

// ParamType is the closed set of tool parameter types.
type ParamType string

const (
	ParamString  ParamType = "string"
	ParamNumber  ParamType = "number"
	ParamBoolean ParamType = "boolean"
	ParamObject  ParamType = "object"
	ParamArray   ParamType = "array"
)

var allParamTypes = map[ParamType]bool{
	ParamString: true, ParamNumber: true, ParamBoolean: true,
	ParamObject: true, ParamArray: true,
}

// Valid reports whether t is a member of the closed set.
func (t ParamType) Valid() bool { return allParamTypes[t] }

// ToolStatus is the closed set of tool lifecycle statuses. Only
// testing->published is reachable via the publish action; all forward
// transitions are otherwise sequential.
type ToolStatus string

const (
	ToolDraft      ToolStatus = "draft"
	ToolTesting    ToolStatus = "testing"
	ToolPublished  ToolStatus = "published"
	ToolDeprecated ToolStatus = "deprecated"
)

// CanPublish reports whether s may transition to published via the publish
// action (spec.md §3: "only testing→published is allowed via the publish
// action").
func (s ToolStatus) CanPublish() bool { return s == ToolTesting }
