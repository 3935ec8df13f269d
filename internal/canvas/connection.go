package canvas

import (
	"sync"
)

// Sender is the transport-level half-duplex send contract a connection
// wraps (spec.md §4.10: "an accept/close half-duplex contract (from the
// transport), and a send(msg) that returns a completion or error").
type Sender interface {
	Send(msg Message) error
	Close() error
}

// Connection is one subscribed canvas client.
type Connection struct {
	ClientID   string
	WorkflowID string
	sender     Sender
}

// Send forwards msg to the underlying transport.
func (c *Connection) Send(msg Message) error { return c.sender.Send(msg) }

// connectionSet is the per-workflow registry of live connections, protected
// by a single logical lock per spec.md §5 ("the canvas fabric's connection
// set ... protected by a single logical lock").
type connectionSet struct {
	mu    sync.RWMutex
	byWF  map[string]map[string]*Connection // workflowID -> clientID -> conn
}

func newConnectionSet() *connectionSet {
	return &connectionSet{byWF: make(map[string]map[string]*Connection)}
}

func (s *connectionSet) add(conn *Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.byWF[conn.WorkflowID]
	if !ok {
		m = make(map[string]*Connection)
		s.byWF[conn.WorkflowID] = m
	}
	m[conn.ClientID] = conn
}

func (s *connectionSet) remove(workflowID, clientID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.byWF[workflowID]; ok {
		delete(m, clientID)
		if len(m) == 0 {
			delete(s.byWF, workflowID)
		}
	}
}

// snapshot returns the live connections for workflowID at this instant.
func (s *connectionSet) snapshot(workflowID string) []*Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m := s.byWF[workflowID]
	out := make([]*Connection, 0, len(m))
	for _, c := range m {
		out = append(out, c)
	}
	return out
}
