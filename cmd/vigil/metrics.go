package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("vigil")

var contentReceived = promauto.NewCounter(prometheus.CounterOpts{
	Name: "vigil_content_received",
	Help: "Number of content submissions received over the API",
})

var reportsReceived = promauto.NewCounter(prometheus.CounterOpts{
	Name: "vigil_reports_received",
	Help: "Number of user reports accepted over the API",
})
