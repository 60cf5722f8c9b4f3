package observability

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce sync.Once

	OrdersCreated        = prometheus.NewCounter(prometheus.CounterOpts{Name: "workorders_created_total", Help: "Work orders created"})
	TransitionsApplied   = prometheus.NewCounter(prometheus.CounterOpts{Name: "workorder_transitions_applied_total", Help: "Status transitions applied"})
	TransitionsRejected  = prometheus.NewCounter(prometheus.CounterOpts{Name: "workorder_transitions_rejected_total", Help: "Status transitions rejected by the validator"})
	CollaboratorFailures = prometheus.NewCounter(prometheus.CounterOpts{Name: "workorder_collaborator_failures_total", Help: "Best-effort collaborator calls that failed"})
)

// MetricsHandler exposes the /metrics HTTP handler with a singleton registry.
func MetricsHandler() http.Handler {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			OrdersCreated,
			TransitionsApplied,
			TransitionsRejected,
			CollaboratorFailures,
		)
	})
	return promhttp.Handler()
}
