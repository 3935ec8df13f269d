package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRegistry builds the process-wide Prometheus registry, injected into the
// tool engine's ConcurrencyController and the lifecycle Manager so every
// component's metrics land on one /metrics endpoint rather than the
// package-global default registry (spec.md's "process-wide mutable
// singletons" REDESIGN FLAG: construct once at the composition root and
// inject through interfaces).
func NewRegistry() *prometheus.Registry {
	r := prometheus.NewRegistry()
	r.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	return r
}

// Handler returns the HTTP handler that serves reg in the Prometheus text
// exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
