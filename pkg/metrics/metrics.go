package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FolderOps counts folder store mutations by operation and outcome (ok|rejected|not_found).
	FolderOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folderdeck_folder_ops_total",
			Help: "Total number of folder store mutations",
		},
		[]string{"op", "result"},
	)

	// PersistenceWrites counts storage writes per document and outcome (ok|error|stale).
	PersistenceWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folderdeck_persistence_writes_total",
			Help: "Total number of storage document writes",
		},
		[]string{"document", "result"},
	)

	// RealtimeClients tracks connected change-relay subscribers.
	RealtimeClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "folderdeck_realtime_clients",
			Help: "Number of connected realtime subscribers",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "folderdeck_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
