package queue

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "aegis_queue_depth",
	Help: "Number of items currently awaiting review",
})

var enqueueCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "aegis_queue_enqueued",
	Help: "Number of items enqueued, by priority",
}, []string{"priority"})

var removeCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "aegis_queue_removed",
	Help: "Number of items removed, by priority",
}, []string{"priority"})

var actionCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "aegis_queue_actions",
	Help: "Number of moderator actions applied, by action",
}, []string{"action"})

var alertCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "aegis_queue_alerts",
	Help: "Number of high/critical priority alerts dispatched",
})

var waitDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "aegis_queue_wait_sec",
	Help:    "Time items spent in the queue before removal",
	Buckets: prometheus.ExponentialBuckets(60, 2, 12),
})
