package canvas

import (
	"sync"
	"time"
)

// pendingEntry is one unacknowledged reliable message (spec.md §4.10).
type pendingEntry struct {
	msg        Message
	clientID   string
	workflowID string
	sentAt     time.Time
	retryCount int
}

// FailureHandler is invoked when a reliable message exhausts max_retries
// without being acknowledged.
type FailureHandler func(workflowID, clientID string, msg Message)

// reliableDelivery tracks unacknowledged outgoing messages and re-sends
// them on a periodic sweep (spec.md §4.10).
type reliableDelivery struct {
	mu         sync.Mutex
	pending    map[string]*pendingEntry // message_id -> entry
	ackTimeout time.Duration
	maxRetries int
	onFailure  FailureHandler
}

const (
	defaultAckTimeout = 5 * time.Second
	defaultMaxRetries = 3
)

func newReliableDelivery(ackTimeout time.Duration, maxRetries int, onFailure FailureHandler) *reliableDelivery {
	if ackTimeout <= 0 {
		ackTimeout = defaultAckTimeout
	}
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	return &reliableDelivery{pending: make(map[string]*pendingEntry), ackTimeout: ackTimeout, maxRetries: maxRetries, onFailure: onFailure}
}

func (r *reliableDelivery) track(workflowID, clientID string, msg Message) {
	if !msg.Type.IsReliable() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending[msg.MessageID] = &pendingEntry{msg: msg, clientID: clientID, workflowID: workflowID, sentAt: time.Now()}
}

// Ack removes messageID from the pending set; returns true if it was
// pending.
func (r *reliableDelivery) Ack(messageID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pending[messageID]; !ok {
		return false
	}
	delete(r.pending, messageID)
	return true
}

// sweepResult is one entry due for re-send, or for failure-handler
// invocation, discovered by Sweep.
type sweepResult struct {
	entry    pendingEntry
	drop     bool
}

// Sweep examines pending entries: those older than
// ack_timeout · (retry_count+1) are due for re-send (retry_count is bumped
// in place); those that have reached max_retries are dropped and reported
// for failure-handler invocation (spec.md §4.10).
func (r *reliableDelivery) Sweep(now time.Time) []sweepResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []sweepResult
	for id, e := range r.pending {
		deadline := e.sentAt.Add(r.ackTimeout * time.Duration(e.retryCount+1))
		if now.Before(deadline) {
			continue
		}
		if e.retryCount >= r.maxRetries {
			out = append(out, sweepResult{entry: *e, drop: true})
			delete(r.pending, id)
			continue
		}
		e.retryCount++
		e.sentAt = now
		out = append(out, sweepResult{entry: *e, drop: false})
	}
	return out
}

func (r *reliableDelivery) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}
