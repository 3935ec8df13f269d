package lifecycle

import (
	"fmt"
	"time"
)

// EntryType is the closed set of execution-log entry kinds (spec.md §4.9:
// "Bounded ring of entries typed as {resource_allocation, state_change,
// lifecycle_operation}").
type EntryType string

const (
	EntryResourceAllocation  EntryType = "resource_allocation"
	EntryStateChange         EntryType = "state_change"
	EntryLifecycleOperation  EntryType = "lifecycle_operation"
)

// LogEntry is one execution-log record.
type LogEntry struct {
	Timestamp time.Time
	Type      EntryType
	AgentID   string
	Detail    map[string]any
}

const defaultExecutionLogSize = 1000

// ExecutionLogger is the bounded-ring execution log of spec.md §4.9,
// filterable by agent id or entry type.
type ExecutionLogger struct {
	ring *Ring[LogEntry]
}

func NewExecutionLogger() *ExecutionLogger {
	return &ExecutionLogger{ring: NewRing[LogEntry](defaultExecutionLogSize)}
}

func NewExecutionLoggerWithCapacity(capacity int) *ExecutionLogger {
	return &ExecutionLogger{ring: NewRing[LogEntry](capacity)}
}

func (l *ExecutionLogger) Log(typ EntryType, agentID string, detail map[string]any) {
	l.ring.Push(LogEntry{Timestamp: time.Now(), Type: typ, AgentID: agentID, Detail: detail})
}

// All returns every retained entry, oldest first.
func (l *ExecutionLogger) All() []LogEntry {
	return l.ring.All()
}

// Filter returns entries matching agentID and/or typ; an empty agentID or
// empty typ skips that criterion.
func (l *ExecutionLogger) Filter(agentID string, typ EntryType) []LogEntry {
	var out []LogEntry
	for _, e := range l.ring.All() {
		if agentID != "" && e.AgentID != agentID {
			continue
		}
		if typ != "" && e.Type != typ {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Export renders the log as newline-delimited "timestamp type agent_id
// key=value ..." lines, in the teacher's audit-log text-export style.
func (l *ExecutionLogger) Export() string {
	var b []byte
	for _, e := range l.ring.All() {
		b = append(b, e.exportLine()...)
		b = append(b, '\n')
	}
	return string(b)
}

func (e LogEntry) exportLine() string {
	line := e.Timestamp.UTC().Format(time.RFC3339Nano) + " " + string(e.Type) + " " + e.AgentID
	for k, v := range e.Detail {
		line += " " + k + "=" + formatDetail(v)
	}
	return line
}

func formatDetail(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case error:
		return t.Error()
	default:
		return toString(t)
	}
}

func toString(v any) string {
	type stringer interface{ String() string }
	if s, ok := v.(stringer); ok {
		return s.String()
	}
	return fmt.Sprint(v)
}
