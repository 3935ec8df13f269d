package canvas

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcflow/substrate/internal/workflow"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []Message
	fail bool
}

func (s *recordingSender) Send(msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return assertErr{"send failed"}
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *recordingSender) Close() error { return nil }

func (s *recordingSender) all() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.sent))
	copy(out, s.sent)
	return out
}

type assertErr struct{ msg string }

func (e assertErr) Error() string { return e.msg }

func newTestConn(workflowID, clientID string) (*Connection, *recordingSender) {
	sender := &recordingSender{}
	return &Connection{ClientID: clientID, WorkflowID: workflowID, sender: sender}, sender
}

func emptyWorkflow(id string) *workflow.Workflow {
	return &workflow.Workflow{ID: id}
}

func TestFabric_BroadcastFansOutToAllConnections(t *testing.T) {
	f := NewFabric(nil)
	c1, s1 := newTestConn("wf1", "client-1")
	c2, s2 := newTestConn("wf1", "client-2")
	require.NoError(t, f.Subscribe(c1, emptyWorkflow("wf1"), false))
	require.NoError(t, f.Subscribe(c2, emptyWorkflow("wf1"), false))

	err := f.Broadcast(context.Background(), "wf1", Message{Type: TypeNodeCreated, NodeID: "n1"}, "")
	require.NoError(t, err)

	assert.Len(t, s1.all(), 1)
	assert.Len(t, s2.all(), 1)
}

func TestFabric_BroadcastExcludesClient(t *testing.T) {
	f := NewFabric(nil)
	c1, s1 := newTestConn("wf1", "client-1")
	c2, s2 := newTestConn("wf1", "client-2")
	require.NoError(t, f.Subscribe(c1, emptyWorkflow("wf1"), false))
	require.NoError(t, f.Subscribe(c2, emptyWorkflow("wf1"), false))

	err := f.Broadcast(context.Background(), "wf1", Message{Type: TypeNodeCreated, NodeID: "n1"}, "client-1")
	require.NoError(t, err)
	assert.Empty(t, s1.all())
	assert.Len(t, s2.all(), 1)
}

func TestFabric_SendFailureRemovesConnection(t *testing.T) {
	f := NewFabric(nil)
	c1, s1 := newTestConn("wf1", "client-1")
	require.NoError(t, f.Subscribe(c1, emptyWorkflow("wf1"), false))
	s1.fail = true

	require.NoError(t, f.Broadcast(context.Background(), "wf1", Message{Type: TypeNodeCreated}, ""))

	c2, s2 := newTestConn("wf1", "client-2")
	require.NoError(t, f.Subscribe(c2, emptyWorkflow("wf1"), false))
	require.NoError(t, f.Broadcast(context.Background(), "wf1", Message{Type: TypeNodeCreated}, ""))
	assert.Len(t, s2.all(), 1)
}

func TestFabric_AckRemovesPendingAndIsIdempotent(t *testing.T) {
	f := NewFabric(nil, WithAckTimeout(time.Hour))
	c1, _ := newTestConn("wf1", "client-1")
	require.NoError(t, f.Subscribe(c1, emptyWorkflow("wf1"), false))

	err := f.Broadcast(context.Background(), "wf1", Message{Type: TypeNodeCreated, MessageID: "m1"}, "")
	require.NoError(t, err)
	assert.Equal(t, 1, f.PendingCount())

	assert.True(t, f.Ack("m1"))
	assert.Equal(t, 0, f.PendingCount())
	assert.False(t, f.Ack("m1"))
}

func TestFabric_SweepRetriesThenDropsAfterMaxRetries(t *testing.T) {
	var mu sync.Mutex
	var failed []Message
	onFailure := func(workflowID, clientID string, msg Message) {
		mu.Lock()
		defer mu.Unlock()
		failed = append(failed, msg)
	}
	f := NewFabric(onFailure, WithAckTimeout(time.Millisecond), WithMaxRetries(2))
	c1, s1 := newTestConn("wf1", "client-1")
	require.NoError(t, f.Subscribe(c1, emptyWorkflow("wf1"), false))

	require.NoError(t, f.Broadcast(context.Background(), "wf1", Message{Type: TypeNodeCreated, MessageID: "m1"}, ""))

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		f.sweepOnce(time.Now().Add(time.Second))
		mu.Lock()
		n := len(failed)
		mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(2 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, failed, 1)
	assert.Equal(t, "m1", failed[0].MessageID)
	assert.GreaterOrEqual(t, len(s1.all()), 2, "expect at least one retry resend plus the original send")
}

func TestFabric_InboundDedupIgnoresRepeats(t *testing.T) {
	f := NewFabric(nil)
	assert.False(t, f.HandleInbound("m1"))
	assert.True(t, f.HandleInbound("m1"))
	assert.False(t, f.HandleInbound("m2"))
}

func TestInboundDedup_OverflowTrimsOldestTenPercent(t *testing.T) {
	f := NewFabric(nil, WithDedupCapacity(10))
	for i := 0; i < 10; i++ {
		assert.False(t, f.HandleInbound(idFor(i)))
	}
	assert.False(t, f.HandleInbound(idFor(10)))
	assert.False(t, f.HandleInbound(idFor(0)), "oldest id should have been trimmed and is now accepted again")
}

func idFor(i int) string {
	return string(rune('a' + i))
}
