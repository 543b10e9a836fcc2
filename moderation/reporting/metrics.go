package reporting

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var reportCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "aegis_reports_submitted",
	Help: "Number of reports accepted, by reason",
}, []string{"reason"})

var reportFailedCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "aegis_reports_refused",
	Help: "Number of report submissions refused by validation or limits",
})

var resolutionCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "aegis_reports_resolved",
	Help: "Number of reports reviewed, by resolution",
}, []string{"resolution"})

var autoActionCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "aegis_report_auto_actions",
	Help: "Automatic protective actions triggered by report volume",
}, []string{"action"})
