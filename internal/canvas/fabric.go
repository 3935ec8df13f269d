package canvas

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/arcflow/substrate/internal/workflow"
)

// Fabric is the canvas synchronization fabric (C9): a pure subscriber of
// typed events (spec.md §REDESIGN FLAGS: "the fabric a pure subscriber of
// typed events; the event bus has no knowledge of the fabric").
type Fabric struct {
	conns     *connectionSet
	dedup     *inboundDedup
	reliable  *reliableDelivery
	sweepEvery time.Duration

	mu        sync.Mutex
	snapshots map[string]Snapshot // workflowID -> last-broadcast snapshot
}

// Option configures a Fabric at construction time.
type Option func(*Fabric)

// WithAckTimeout overrides the per-message ack timeout before re-send.
func WithAckTimeout(d time.Duration) Option {
	return func(f *Fabric) { f.reliable.ackTimeout = d }
}

// WithMaxRetries overrides max_retries before a reliable message is
// dropped and the failure handler invoked.
func WithMaxRetries(n int) Option {
	return func(f *Fabric) { f.reliable.maxRetries = n }
}

// WithDedupCapacity overrides the inbound dedup ring size.
func WithDedupCapacity(n int) Option {
	return func(f *Fabric) { f.dedup = newInboundDedup(n) }
}

// WithSweepInterval overrides how often the retry sweep runs.
func WithSweepInterval(d time.Duration) Option {
	return func(f *Fabric) { f.sweepEvery = d }
}

// NewFabric builds a Fabric. onFailure is invoked once per reliable message
// that exhausts max_retries without an ack.
func NewFabric(onFailure FailureHandler, opts ...Option) *Fabric {
	f := &Fabric{
		conns:      newConnectionSet(),
		dedup:      newInboundDedup(defaultDedupCapacity),
		snapshots:  make(map[string]Snapshot),
		sweepEvery: time.Second,
	}
	f.reliable = newReliableDelivery(defaultAckTimeout, defaultMaxRetries, onFailure)
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Subscribe registers conn for workflowID and, if sendInitialState, pushes
// a full initial_state message carrying the current snapshot (spec.md
// §4.10). The workflow's current graph is w.
func (f *Fabric) Subscribe(conn *Connection, w *workflow.Workflow, sendInitialState bool) error {
	f.conns.add(conn)

	snap := SnapshotOf(w)
	f.mu.Lock()
	f.snapshots[conn.WorkflowID] = snap
	f.mu.Unlock()

	if !sendInitialState {
		return nil
	}
	snapCopy := snap
	msg := Message{Type: TypeInitialState, WorkflowID: conn.WorkflowID, Timestamp: time.Now(), Snapshot: &snapCopy}
	return conn.Send(msg)
}

// Unsubscribe removes a connection from the workflow's connection set
// (spec.md §3: "Canvas connections are owned by the sync fabric and
// released on disconnect").
func (f *Fabric) Unsubscribe(workflowID, clientID string) {
	f.conns.remove(workflowID, clientID)
}

// Broadcast fans msg out to every connection subscribed to workflowID,
// excluding excludeClientID if non-empty. Any send failure marks that
// connection disconnected and removes it (spec.md §4.10). Reliable
// messages get a generated message_id (if unset) and are tracked per
// destination connection for ack/retry.
func (f *Fabric) Broadcast(ctx context.Context, workflowID string, msg Message, excludeClientID string) error {
	if msg.MessageID == "" && msg.Type.IsReliable() {
		msg.MessageID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	msg.WorkflowID = workflowID

	conns := f.conns.snapshot(workflowID)
	g, _ := errgroup.WithContext(ctx)
	for _, c := range conns {
		c := c
		if c.ClientID == excludeClientID {
			continue
		}
		g.Go(func() error {
			if err := c.Send(msg); err != nil {
				f.conns.remove(workflowID, c.ClientID)
				return nil // connection loss is not a broadcast error (best-effort fan-out)
			}
			f.reliable.track(workflowID, c.ClientID, msg)
			return nil
		})
	}
	return g.Wait()
}

// SyncSnapshot recomputes workflowID's CanvasDiff against the last
// broadcast snapshot, broadcasts the resulting messages, and stores the
// new snapshot as the baseline for the next call (spec.md §4.10).
func (f *Fabric) SyncSnapshot(ctx context.Context, w *workflow.Workflow) error {
	next := SnapshotOf(w)

	f.mu.Lock()
	prev, ok := f.snapshots[w.ID]
	if !ok {
		prev = Snapshot{Nodes: map[string]workflow.Node{}, Edges: map[string]workflow.Edge{}}
	}
	f.snapshots[w.ID] = next
	f.mu.Unlock()

	d := Compute(prev, next)
	if d.Empty() {
		return nil
	}
	for _, msg := range ToMessages(w.ID, d) {
		if err := f.Broadcast(ctx, w.ID, msg, ""); err != nil {
			return err
		}
	}
	return nil
}

// Ack records an acknowledgment for messageID (spec.md §4.10: "Clients
// acknowledge by sending {type: ack, message_id}. On ack, the entry is
// removed").
func (f *Fabric) Ack(messageID string) bool {
	return f.reliable.Ack(messageID)
}

// HandleInbound applies the inbound-dedup check for a client message
// carrying messageID; returns true if it is a duplicate that should be
// ignored (spec.md §4.10).
func (f *Fabric) HandleInbound(messageID string) (duplicate bool) {
	if messageID == "" {
		return false
	}
	return f.dedup.SeenOrRecord(messageID)
}

// RunSweep runs the retry sweep loop until ctx is cancelled: entries past
// their ack deadline are re-sent, entries past max_retries are dropped and
// reported to the failure handler (spec.md §4.10).
func (f *Fabric) RunSweep(ctx context.Context) {
	ticker := time.NewTicker(f.sweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			f.sweepOnce(now)
		}
	}
}

func (f *Fabric) sweepOnce(now time.Time) {
	for _, res := range f.reliable.Sweep(now) {
		if res.drop {
			if f.reliable.onFailure != nil {
				f.reliable.onFailure(res.entry.workflowID, res.entry.clientID, res.entry.msg)
			}
			continue
		}
		conns := f.conns.snapshot(res.entry.workflowID)
		for _, c := range conns {
			if c.ClientID != res.entry.clientID {
				continue
			}
			if err := c.Send(res.entry.msg); err != nil {
				f.conns.remove(res.entry.workflowID, c.ClientID)
				f.reliable.Ack(res.entry.msg.MessageID) // connection gone, stop retrying
			}
		}
	}
}

// PendingCount returns the number of unacknowledged reliable messages,
// for observability.
func (f *Fabric) PendingCount() int { return f.reliable.Len() }
