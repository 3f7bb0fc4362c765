package authz

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	decisions = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "permission_decisions_total",
		Help: "Permission decisions by outcome and deciding rule kind.",
	}, []string{"allowed", "matched"})

	anomalies = promauto.NewCounter(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "permission_decision_anomalies_total",
		Help: "Anomalies found in permission data while deciding.",
	})

	failures = promauto.NewCounter(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "permission_decision_failures_total",
		Help: "Decisions denied because permission data could not be loaded.",
	})

	evalDuration = promauto.NewHistogram(prometheus.HistogramOpts{ //nolint:gochecknoglobals
		Name:    "permission_evaluate_duration_seconds",
		Help:    "Time spent loading snapshots and resolving one request.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
	})
)
