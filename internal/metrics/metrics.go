package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operational signals. RoutingExhausted in particular is the alert surface
// for escalations left pending because no member had capacity.
var (
	EscalationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "escalations_created_total",
		Help: "Escalations created, by type.",
	}, []string{"type"})

	BreachesDetected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sla_breaches_detected_total",
		Help: "Obligations the scanner found past their due date.",
	})

	RoutingExhausted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "routing_no_capacity_total",
		Help: "Routing attempts that found no available member.",
	})

	StaleConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stale_version_conflicts_total",
		Help: "Transitions rejected because a concurrent writer won.",
	})

	TransitionsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "escalation_transitions_total",
		Help: "Committed lifecycle transitions, by action.",
	}, []string{"action"})
)
