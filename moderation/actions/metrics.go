package actions

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var penaltyCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "aegis_penalties_applied",
	Help: "Number of penalties applied, by kind",
}, []string{"kind"})

var appealCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "aegis_appeals_resolved",
	Help: "Number of appeals resolved, by outcome",
}, []string{"outcome"})
