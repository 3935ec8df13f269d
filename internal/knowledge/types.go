// Package knowledge implements the append-only tool-call audit log and the
// knowledge-note lifecycle state machine (C2).
package knowledge

import (
	"time"

	"github.com/arcflow/substrate/internal/valueobjects"
)

// CallRecord is the persisted form of a tool-call record (spec.md §3).
type CallRecord struct {
	ID             string
	ToolName       string
	CallerType     string
	CallerID       string
	ConversationID string
	WorkflowID     string
	RunID          string
	Params         map[string]any
	Success        bool
	Output         any
	Error          string
	ErrorKind      string
	DurationMS     int64
	TraceID        string
	CreatedAt      time.Time
}

// CallFilter narrows Store.GetCalls (spec.md §4.8).
type CallFilter struct {
	Session  string
	Tool     string
	Caller   string
	Since    time.Time
	Until    time.Time
	Limit    int
}

// Summary is the aggregate spec.md §4.8's "summarize" returns: counts and
// latency percentiles.
type Summary struct {
	Total       int
	Succeeded   int
	Failed      int
	P50Millis   int64
	P95Millis   int64
	P99Millis   int64
}

// Note is the knowledge note of spec.md §3.
type Note struct {
	ID             string
	Kind           valueobjects.NoteKind
	Status         valueobjects.NoteStatus
	Owner          string
	Content        string
	Tags           []string
	Version        int
	ApprovalActor  string
	ApprovedAt     time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
