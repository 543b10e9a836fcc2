package classify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var remoteRequestCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "aegis_classify_remote_requests",
	Help: "Number of remote scoring requests, by HTTP status code",
}, []string{"status"})

var remoteRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name: "aegis_classify_remote_duration_sec",
	Help: "Duration of remote scoring requests",
})
