package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Package-level Prometheus metrics for build/rank operations, auto-
// registered via promauto, mirroring the teacher's
// agent/providers/observability.go pattern.
var (
	// BuildDuration measures wall-clock build time in seconds.
	BuildDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "repomap_build_duration_seconds",
		Help:    "Duration of a full or incremental build.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"}) // kind: "full" | "incremental"

	// FilesParsed counts files that went through the tree-sitter pool.
	FilesParsed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "repomap_files_parsed_total",
		Help: "Total files parsed (cache miss) across all builds.",
	})

	// FilesReused counts files served from a cached FileRecord.
	FilesReused = promauto.NewCounter(prometheus.CounterOpts{
		Name: "repomap_files_reused_total",
		Help: "Total files served from cache (hash unchanged) across all builds.",
	})

	// RankScore is a histogram of emitted RankedFile scores.
	RankScore = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "repomap_rank_score",
		Help:    "Distribution of computed file scores across rank calls.",
		Buckets: prometheus.LinearBuckets(0, 0.1, 11),
	})
)
