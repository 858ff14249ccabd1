// Package metrics exposes the daemon's Prometheus gauges and counters,
// registered through promauto so every collector self-registers on
// first use. The HTTP server mounts these at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vecdb_requests_total",
			Help: "Total number of API requests by operation and status",
		},
		[]string{"operation", "status"},
	)

	RequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vecdb_request_duration_seconds",
			Help:    "API request latency by operation",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	WalAppendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vecdb_wal_appends_total",
			Help: "Total WAL record appends by collection and status",
		},
		[]string{"collection", "status"},
	)

	WalBytesWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vecdb_wal_bytes_written_total",
			Help: "Total bytes written to collection WALs",
		},
	)

	RecoveryDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vecdb_recovery_duration_seconds",
			Help:    "Time spent replaying a collection's WAL on open",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		},
		[]string{"collection"},
	)

	VectorStoreUsedSlots = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vecdb_vector_store_used_slots",
			Help: "Occupied slots in a collection's vector store",
		},
		[]string{"collection"},
	)

	VectorStoreCapacitySlots = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vecdb_vector_store_capacity_slots",
			Help: "Allocated slot capacity in a collection's vector store",
		},
		[]string{"collection"},
	)

	HnswNodeCount = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vecdb_hnsw_node_count",
			Help: "Live (non-tombstoned) nodes in a collection's HNSW graph",
		},
		[]string{"collection"},
	)

	HnswTombstoneCount = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vecdb_hnsw_tombstone_count",
			Help: "Tombstoned nodes pending repair in a collection's HNSW graph",
		},
		[]string{"collection"},
	)

	HnswSearchNodesVisited = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vecdb_hnsw_search_nodes_visited",
			Help:    "Number of live candidates returned by the HNSW graph search per query, before attribute filtering",
			Buckets: []float64{10, 25, 50, 100, 200, 500, 1000, 2500, 5000},
		},
		[]string{"collection"},
	)

	CompactionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vecdb_compactions_total",
			Help: "Total collection compaction runs by status",
		},
		[]string{"collection", "status"},
	)

	CompactionDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vecdb_compaction_duration_seconds",
			Help:    "Duration of collection compaction runs",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
		[]string{"collection"},
	)

	RegistryOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vecdb_registry_operations_total",
			Help: "Total catalog registry store operations by kind and status",
		},
		[]string{"op", "status"},
	)

	CollectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vecdb_collections_open",
			Help: "Number of collections currently open in this process",
		},
	)
)
