package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"callmap/internal/graph"
)

var (
	FilesParsed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "callmap_files_parsed_total",
		Help: "Total number of source files parsed and walked.",
	})

	FilesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "callmap_files_skipped_total",
		Help: "Total number of source files skipped because they failed to read or parse.",
	})

	Builds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "callmap_builds_total",
		Help: "Total number of completed graph builds.",
	})

	NodesBuilt = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "callmap_nodes_built_total",
		Help: "Total number of graph nodes produced, labelled by kind.",
	}, []string{"kind"})

	EdgesBuilt = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "callmap_edges_built_total",
		Help: "Total number of graph edges produced, labelled by kind.",
	}, []string{"kind"})

	BuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "callmap_build_duration_ms",
		Help:    "Wall time of a full graph build in milliseconds.",
		Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
	})

	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "callmap_cache_hits_total",
		Help: "Total number of server requests answered from the build cache.",
	})
)

// Observe records the totals of a finished build.
func Observe(s graph.Summary, d time.Duration) {
	Builds.Inc()
	for kind, n := range s.NodesByKind {
		NodesBuilt.WithLabelValues(string(kind)).Add(float64(n))
	}
	for kind, n := range s.EdgesByKind {
		EdgesBuilt.WithLabelValues(string(kind)).Add(float64(n))
	}
	BuildDuration.Observe(float64(d.Milliseconds()))
}
