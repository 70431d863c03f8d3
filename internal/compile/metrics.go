package compile

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus metrics of a Pipeline.
type Metrics struct {
	Compilations *prometheus.CounterVec
	PassDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all metrics with the provided registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	compilations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "objsql_compilations_total",
		Help: "Total compilations by dialect and outcome",
	}, []string{"dialect", "outcome"})

	passDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "objsql_pass_duration_seconds",
		Help:    "Duration of each compilation pass",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8),
	}, []string{"pass"})

	reg.MustRegister(compilations, passDuration)

	return &Metrics{
		Compilations: compilations,
		PassDuration: passDuration,
	}
}
