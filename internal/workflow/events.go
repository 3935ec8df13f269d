package workflow

import "time"

// EventType is the closed set of run-stream event types spec.md §4.2 names.
type EventType string

const (
	EventWorkflowStart    EventType = "workflow_start"
	EventNodeStart        EventType = "node_start"
	EventNodeComplete     EventType = "node_complete"
	EventNodeError        EventType = "node_error"
	EventWorkflowComplete EventType = "workflow_complete"
	EventWorkflowError    EventType = "workflow_error"
)

// Event is one entry of the linear run-event stream (spec.md §6 "Run event
// stream"): every event carries workflow_id and, where meaningful, the
// other fields below.
type Event struct {
	Type       EventType `json:"type"`
	WorkflowID string    `json:"workflow_id"`
	Timestamp  time.Time `json:"timestamp"`
	NodeID     string    `json:"node_id,omitempty"`
	NodeType   string    `json:"node_type,omitempty"`
	ErrorType  string    `json:"error_type,omitempty"`
	Retryable  bool      `json:"retryable,omitempty"`
	Error      string    `json:"error,omitempty"`
	Output     any       `json:"output,omitempty"`
	Final      any       `json:"final,omitempty"`
}

// EventSink receives events as the executor produces them. Implementations
// must not block the caller for long — the canvas fabric's own Broadcast is
// the typical sink, wired at the composition root.
type EventSink func(Event)
