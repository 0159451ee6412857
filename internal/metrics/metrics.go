package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome status label values for requests_total.
const (
	StatusSuccess        = "success"
	StatusTransportError = "transport_error"
	StatusBadStatus      = "bad_status"
	StatusTimeout        = "timeout"
	StatusBreakerOpen    = "breaker_open"
)

// Health check status label values.
const (
	HealthStatusUp   = "up"
	HealthStatusDown = "down"
)

// instruments owns the Prometheus collectors on a dedicated registry so
// tests never collide on the global default.
type instruments struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	healthChecks    *prometheus.CounterVec
	circuitState    *prometheus.GaugeVec
}

func newInstruments() *instruments {
	ins := &instruments{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ai_router_requests_total",
			Help: "Routed requests by provider, task type and outcome status.",
		}, []string{"provider", "task_type", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ai_router_request_duration_seconds",
			Help:    "Latency of provider calls by provider and task type.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider", "task_type"}),
		healthChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ai_router_health_checks_total",
			Help: "Health probe results by provider.",
		}, []string{"provider", "status"}),
		circuitState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ai_router_circuit_state",
			Help: "Circuit state per provider: 0 closed, 1 open, 2 half-open.",
		}, []string{"provider"}),
	}

	ins.registry.MustRegister(
		ins.requestsTotal,
		ins.requestDuration,
		ins.healthChecks,
		ins.circuitState,
	)
	return ins
}
