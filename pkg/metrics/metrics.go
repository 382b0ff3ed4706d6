package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	EventsProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ruleengine_events_processed_total",
			Help: "Total number of product events processed (count)",
		},
		[]string{"event", "status"},
	)

	RulesMatchedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ruleengine_rules_matched_total",
			Help: "Total number of rule evaluations by outcome (count)",
		},
		[]string{"outcome"},
	)

	ActionsExecutedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ruleengine_actions_executed_total",
			Help: "Total number of actions dispatched by outcome (count)",
		},
		[]string{"action", "outcome"},
	)

	TimersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ruleengine_timers_total",
			Help: "Timer lifecycle transitions (count)",
		},
		[]string{"transition"},
	)

	EventProcessingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ruleengine_event_processing_duration_ms",
			Help:    "End-to-end processing duration per product event in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		},
		[]string{"event"},
	)

	ExternalCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ruleengine_external_call_duration_ms",
			Help:    "Duration of external collaborator calls in milliseconds",
			Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		},
		[]string{"service", "operation", "status"},
	)

	ActiveRules = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ruleengine_active_rules",
			Help: "Number of loaded automation rules (count)",
		},
	)
)

func RegisterEngineMetrics() {
	prometheus.MustRegister(
		EventsProcessedTotal,
		RulesMatchedTotal,
		ActionsExecutedTotal,
		TimersTotal,
		EventProcessingDuration,
		ExternalCallDuration,
		ActiveRules,
	)
}

func ObserveEventProcessing(event string, d time.Duration) {
	EventProcessingDuration.WithLabelValues(event).Observe(float64(d.Milliseconds()))
}

func ObserveExternalCall(service, operation string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	ExternalCallDuration.WithLabelValues(service, operation, status).Observe(float64(d.Milliseconds()))
}

func SetActiveRules(n int) {
	ActiveRules.Set(float64(n))
}
