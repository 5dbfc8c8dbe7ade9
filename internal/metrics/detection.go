package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	detectionDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_detection_decisions_total",
			Help: "Plate detection decisions by outcome and reason",
		},
		[]string{"decision", "reason"},
	)

	gateTriggers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_gate_triggers_total",
			Help: "Gate relay attempts by result",
		},
		[]string{"result"},
	)
)

// RecordDecision counts one evaluator verdict.
func RecordDecision(decision, reason string) {
	detectionDecisions.WithLabelValues(decision, reason).Inc()
}

// RecordGateTrigger counts one relay attempt. result is "opened" or the
// relay failure classification.
func RecordGateTrigger(result string) {
	gateTriggers.WithLabelValues(result).Inc()
}
