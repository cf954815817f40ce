package query

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// generateDuration measures full graph rebuilds.
	// Labels: status (success, error)
	generateDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "voxnav",
		Subsystem: "navigation",
		Name:      "generate_duration_seconds",
		Help:      "Navigation graph generation latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"status"})

	// queryDuration measures projection and path queries.
	// Labels: query (project, path_exists, find_path)
	queryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "voxnav",
		Subsystem: "navigation",
		Name:      "query_duration_seconds",
		Help:      "Navigation query latency in seconds",
		Buckets:   []float64{0.00001, 0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	}, []string{"query"})

	// queriesTotal counts queries by outcome.
	// Labels: query, result (found, not_found, no_graph)
	queriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "voxnav",
		Subsystem: "navigation",
		Name:      "queries_total",
		Help:      "Total navigation queries by outcome",
	}, []string{"query", "result"})

	// voxelChanges counts change notifications that marked the graph stale.
	voxelChanges = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "voxnav",
		Subsystem: "navigation",
		Name:      "voxel_changes_total",
		Help:      "Total voxel change notifications",
	})

	// graphNodes tracks the node count of the current graph.
	// Labels: level
	graphNodes = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "voxnav",
		Subsystem: "navigation",
		Name:      "graph_nodes",
		Help:      "Nodes per level of the current navigation graph",
	}, []string{"level"})
)
