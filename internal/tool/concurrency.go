package tool

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/arcflow/substrate/internal/valueobjects"
)

// ConcurrencyController enforces a per-tool-name concurrency ceiling with
// FIFO queueing (a buffered channel as slot semaphore, the same pattern
// hector's pkg/ratelimit uses for per-session quotas) plus a process-wide
// ceiling, and exposes Prometheus gauges/counters per spec.md §4.7.
type ConcurrencyController struct {
	mu          sync.Mutex
	perTool     map[string]chan struct{}
	defaultCeil int
	processCeil chan struct{}

	inFlight  *prometheus.GaugeVec
	queued    *prometheus.GaugeVec
	admitted  *prometheus.CounterVec
	rejected  *prometheus.CounterVec
}

// NewConcurrencyController builds a controller with the given per-tool
// default ceiling and process-wide ceiling (0 means unlimited).
func NewConcurrencyController(defaultCeiling, processCeiling int, registerer prometheus.Registerer) *ConcurrencyController {
	c := &ConcurrencyController{
		perTool:     make(map[string]chan struct{}),
		defaultCeil: defaultCeiling,
		inFlight:    prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: "substrate_tool_inflight", Help: "in-flight tool calls"}, []string{"tool"}),
		queued:      prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: "substrate_tool_queue_length", Help: "queued tool calls"}, []string{"tool"}),
		admitted:    prometheus.NewCounterVec(prometheus.CounterOpts{Name: "substrate_tool_admitted_total", Help: "admitted tool calls"}, []string{"tool"}),
		rejected:    prometheus.NewCounterVec(prometheus.CounterOpts{Name: "substrate_tool_rejected_total", Help: "rejected tool calls"}, []string{"tool"}),
	}
	if processCeiling > 0 {
		c.processCeil = make(chan struct{}, processCeiling)
	}
	if registerer != nil {
		registerer.MustRegister(c.inFlight, c.queued, c.admitted, c.rejected)
	}
	return c
}

func (c *ConcurrencyController) slotFor(toolName string, ceiling int) chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch, ok := c.perTool[toolName]
	if !ok {
		if ceiling <= 0 {
			ceiling = c.defaultCeil
		}
		if ceiling <= 0 {
			ceiling = 1
		}
		ch = make(chan struct{}, ceiling)
		c.perTool[toolName] = ch
	}
	return ch
}

// Acquire blocks (FIFO via channel send order) until a slot is free for
// toolName, or ctx is done. ceiling overrides the controller default when
// > 0 (a tool's own config.concurrency, per spec.md §4.7).
func (c *ConcurrencyController) Acquire(ctx context.Context, toolName string, ceiling int) (release func(), err error) {
	slot := c.slotFor(toolName, ceiling)
	c.queued.WithLabelValues(toolName).Inc()
	defer c.queued.WithLabelValues(toolName).Dec()

	select {
	case slot <- struct{}{}:
	case <-ctx.Done():
		c.rejected.WithLabelValues(toolName).Inc()
		return nil, valueobjects.Wrap(valueobjects.ErrQuotaExceeded, ctx.Err())
	}

	if c.processCeil != nil {
		select {
		case c.processCeil <- struct{}{}:
		case <-ctx.Done():
			<-slot
			c.rejected.WithLabelValues(toolName).Inc()
			return nil, valueobjects.Wrap(valueobjects.ErrQuotaExceeded, ctx.Err())
		}
	}

	c.admitted.WithLabelValues(toolName).Inc()
	c.inFlight.WithLabelValues(toolName).Inc()
	return func() {
		c.inFlight.WithLabelValues(toolName).Dec()
		<-slot
		if c.processCeil != nil {
			<-c.processCeil
		}
	}, nil
}
