package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// DefaultNamespace prefixes every collector when no namespace is configured.
const DefaultNamespace = "slidebuilder"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	sequenceDuration *prom.HistogramVec
	sequenceOutcome  *prom.CounterVec
	ruleViolations   *prom.CounterVec
	registrations    *prom.CounterVec
	batchItems       *prom.CounterVec
}

var _ Recorder = (*PrometheusRecorder)(nil)

// NewPrometheusRecorder constructs the collectors and registers them on reg.
// A nil reg gets a private registry.
func NewPrometheusRecorder(reg *prom.Registry, namespace string) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}
	pr := &PrometheusRecorder{
		sequenceDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "sequence_duration_seconds",
			Help:      "Duration of director construction sequences",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		}, []string{"sequence"}),
		sequenceOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "sequence_outcomes_total",
			Help:      "Director sequence invocations by outcome",
		}, []string{"sequence", "outcome"}),
		ruleViolations: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "rule_violations_total",
			Help:      "Tenant validation rule violations attached to slides",
		}, []string{"tenant", "rule", "severity"}),
		registrations: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "capability_registrations_total",
			Help:      "Capability registration attempts by outcome",
		}, []string{"outcome"}),
		batchItems: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "batch_items_total",
			Help:      "Batch construction items by outcome",
		}, []string{"outcome"}),
	}
	reg.MustRegister(pr.sequenceDuration, pr.sequenceOutcome, pr.ruleViolations, pr.registrations, pr.batchItems)
	return pr
}

func (p *PrometheusRecorder) ObserveSequenceDuration(sequence string, d time.Duration) {
	if p == nil || p.sequenceDuration == nil {
		return
	}
	p.sequenceDuration.WithLabelValues(sequence).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncSequenceOutcome(sequence string, outcome ResultLabel) {
	if p == nil || p.sequenceOutcome == nil {
		return
	}
	p.sequenceOutcome.WithLabelValues(sequence, string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncRuleViolation(tenant, rule, severity string) {
	if p == nil || p.ruleViolations == nil {
		return
	}
	p.ruleViolations.WithLabelValues(tenant, rule, severity).Inc()
}

func (p *PrometheusRecorder) IncRegistration(outcome ResultLabel) {
	if p == nil || p.registrations == nil {
		return
	}
	p.registrations.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncBatchItem(outcome ResultLabel) {
	if p == nil || p.batchItems == nil {
		return
	}
	p.batchItems.WithLabelValues(string(outcome)).Inc()
}
