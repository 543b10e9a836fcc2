package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var processCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "aegis_engine_processed",
	Help: "Number of content submissions processed, by resulting status",
}, []string{"status"})

var processErrorCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "aegis_engine_errors",
	Help: "Number of submissions whose classification failed and fell back to human review",
})

var cacheHitCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "aegis_engine_cache_hits",
	Help: "Number of submissions served from the classification cache",
})

var processDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "aegis_engine_duration_seconds",
	Help:    "End to end processing time per submission",
	Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
})
