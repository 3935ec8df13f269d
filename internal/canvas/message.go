package canvas

import (
	"time"

	"github.com/arcflow/substrate/internal/workflow"
)

// MessageType is the closed set of server-to-client wire message types
// (spec.md §4.10).
type MessageType string

const (
	TypeInitialState          MessageType = "initial_state"
	TypeCanvasSnapshot        MessageType = "canvas_snapshot"
	TypeNodeCreated           MessageType = "node_created"
	TypeNodeUpdated           MessageType = "node_updated"
	TypeNodeDeleted           MessageType = "node_deleted"
	TypeNodeMoved             MessageType = "node_moved"
	TypeEdgeCreated           MessageType = "edge_created"
	TypeEdgeDeleted           MessageType = "edge_deleted"
	TypeExecutionStatus       MessageType = "execution_status"
	TypeWorkflowStarted       MessageType = "workflow_started"
	TypeWorkflowCompleted     MessageType = "workflow_completed"
	TypeWorkflowError         MessageType = "workflow_error"
	TypeReactLoopStarted      MessageType = "workflow_react_loop_started"
	TypeReactPatchApplied     MessageType = "workflow_react_patch_applied"
	TypeAttemptFailed         MessageType = "workflow_attempt_failed"
	TypeTerminationReport     MessageType = "workflow_termination_report"
	TypeConfirmRequired       MessageType = "workflow_confirm_required"
	TypeConfirmed             MessageType = "workflow_confirmed"
	TypeAck                   MessageType = "ack"
)

// reliableTypes is the set of message types that require an ack before the
// fabric considers delivery complete (every outgoing state-change message,
// per spec.md §4.10 — acks and the initial snapshot dump are themselves
// not reliable messages).
var reliableTypes = map[MessageType]bool{
	TypeNodeCreated:       true,
	TypeNodeUpdated:       true,
	TypeNodeDeleted:       true,
	TypeNodeMoved:         true,
	TypeEdgeCreated:       true,
	TypeEdgeDeleted:       true,
	TypeExecutionStatus:   true,
	TypeWorkflowStarted:   true,
	TypeWorkflowCompleted: true,
	TypeWorkflowError:     true,
	TypeReactLoopStarted:  true,
	TypeReactPatchApplied: true,
	TypeAttemptFailed:     true,
	TypeTerminationReport: true,
	TypeConfirmRequired:   true,
	TypeConfirmed:         true,
}

// IsReliable reports whether messages of this type require ack/retry.
func (t MessageType) IsReliable() bool { return reliableTypes[t] }

// Message is the server-to-client wire message of spec.md §4.10/§6.
type Message struct {
	Type       MessageType         `json:"type"`
	WorkflowID string              `json:"workflow_id"`
	Timestamp  time.Time           `json:"timestamp"`
	MessageID  string              `json:"message_id,omitempty"`

	NodeID   string               `json:"node_id,omitempty"`
	NodeType string               `json:"node_type,omitempty"`
	Position *workflow.Position   `json:"position,omitempty"`
	Config   map[string]any       `json:"config,omitempty"`
	Changes  map[string]any       `json:"changes,omitempty"`

	EdgeID   string `json:"edge_id,omitempty"`
	SourceID string `json:"source_id,omitempty"`
	TargetID string `json:"target_id,omitempty"`

	Status  string `json:"status,omitempty"`
	Outputs any    `json:"outputs,omitempty"`
	Error   string `json:"error,omitempty"`

	Reason        string `json:"reason,omitempty"`
	AttemptsTotal int    `json:"attempts_total,omitempty"`
	StopReason    string `json:"stop_reason,omitempty"`

	Snapshot *Snapshot `json:"snapshot,omitempty"`
}

// ClientAction is the closed set of client-to-server wire actions
// (spec.md §6).
type ClientAction string

const (
	ActionCreateNode     ClientAction = "create_node"
	ActionUpdateNode     ClientAction = "update_node"
	ActionDeleteNode     ClientAction = "delete_node"
	ActionMoveNode       ClientAction = "move_node"
	ActionCreateEdge     ClientAction = "create_edge"
	ActionDeleteEdge     ClientAction = "delete_edge"
	ActionStartExecution ClientAction = "start_execution"
)

// ClientMessage is the client-to-server wire message of spec.md §6.
type ClientMessage struct {
	Action    ClientAction   `json:"action,omitempty"`
	Type      MessageType    `json:"type,omitempty"` // "ack" for acknowledgments
	MessageID string         `json:"message_id,omitempty"`
	NodeID    string         `json:"node_id,omitempty"`
	Node      *workflow.Node `json:"node,omitempty"`
	Edge      *workflow.Edge `json:"edge,omitempty"`
	Position  *workflow.Position `json:"position,omitempty"`
}
