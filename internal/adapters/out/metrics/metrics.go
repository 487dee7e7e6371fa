// Package metrics exports dispatch counters through the Prometheus client.
package metrics

import (
	"log/slog"

	"fulfillment/internal/core/application/dispatch"
	"fulfillment/internal/core/domain/model/job"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "fulfillment"

var _ dispatch.Metrics = (*Metrics)(nil)

// Metrics implements dispatch.Metrics. Every method is fire-and-forget.
// Collectors that fail to register are logged and keep counting privately.
type Metrics struct {
	claims      *prometheus.CounterVec
	transitions *prometheus.CounterVec
	jobsCreated *prometheus.CounterVec
	feeTotal    *prometheus.HistogramVec
	feeDistance *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
//
// Example:
//
//	reg := prometheus.NewRegistry()
//	m := metrics.NewMetrics(reg, logger)
//	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
func NewMetrics(reg prometheus.Registerer, logger *slog.Logger) *Metrics {
	if logger == nil {
		logger = slog.Default()
	}

	m := &Metrics{
		claims: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "claims_total",
			Help:      "Claim attempts by job kind and outcome.",
		}, []string{"kind", "outcome"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_transitions_total",
			Help:      "Applied job state transitions.",
		}, []string{"kind", "from", "to"}),
		jobsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_created_total",
			Help:      "Jobs created by kind.",
		}, []string{"kind"}),
		feeTotal: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "delivery_fee",
			Help:      "Frozen delivery fee at job creation.",
			Buckets:   []float64{2, 5, 7.5, 10, 15, 20, 30, 50},
		}, []string{"kind"}),
		feeDistance: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "delivery_distance_km",
			Help:      "Great-circle pickup to drop-off distance at job creation.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 50},
		}, []string{"kind"}),
	}

	for name, c := range map[string]prometheus.Collector{
		"claims_total":          m.claims,
		"job_transitions_total": m.transitions,
		"jobs_created_total":    m.jobsCreated,
		"delivery_fee":          m.feeTotal,
		"delivery_distance_km":  m.feeDistance,
	} {
		if err := reg.Register(c); err != nil {
			logger.Warn("failed to register collector", "collector", name, "error", err)
		}
	}
	return m
}

func (m *Metrics) ClaimResolved(kind job.Kind, outcome dispatch.ClaimOutcome) {
	m.claims.WithLabelValues(kind.String(), string(outcome)).Inc()
}

func (m *Metrics) StatusChanged(ev job.StatusChanged) {
	m.transitions.WithLabelValues(ev.Kind.String(), ev.From.String(), ev.To.String()).Inc()
}

func (m *Metrics) FeeComputed(kind job.Kind, fee job.Fee) {
	m.jobsCreated.WithLabelValues(kind.String()).Inc()
	m.feeTotal.WithLabelValues(kind.String()).Observe(fee.Total())
	m.feeDistance.WithLabelValues(kind.String()).Observe(fee.DistanceKm())
}
