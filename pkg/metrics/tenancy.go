package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ResolutionTotal counts tenant resolution outcomes by strategy.
	// Strategy is "none" for unresolved requests.
	ResolutionTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "retail_sdk",
		Subsystem: "tenancy",
		Name:      "resolution_total",
		Help:      "Tenant resolution attempts by strategy and outcome.",
	}, []string{"strategy", "outcome"})

	SchemaOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "retail_sdk",
		Subsystem: "tenancy",
		Name:      "schema_operations_total",
		Help:      "Schema lifecycle operations by kind and outcome.",
	}, []string{"operation", "outcome"})

	SchemaOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "retail_sdk",
		Subsystem: "tenancy",
		Name:      "schema_operation_duration_seconds",
		Help:      "Duration of schema lifecycle operations.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
	}, []string{"operation"})

	CrossTenantRejections = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "retail_sdk",
		Subsystem: "tenancy",
		Name:      "cross_tenant_rejections_total",
		Help:      "Writes rejected for crossing a tenant boundary.",
	})
)

func ObserveResolution(strategy, outcome string) {
	ResolutionTotal.WithLabelValues(strategy, outcome).Inc()
}

func ObserveSchemaOperation(operation, outcome string, seconds float64) {
	SchemaOperationsTotal.WithLabelValues(operation, outcome).Inc()
	SchemaOperationDuration.WithLabelValues(operation).Observe(seconds)
}
