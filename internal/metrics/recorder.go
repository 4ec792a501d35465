package metrics

import "time"

// ResultLabel enumerates outcome categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultInvalid  ResultLabel = "invalid"
	ResultFailed   ResultLabel = "failed"
	ResultRejected ResultLabel = "rejected"
)

// Recorder defines observability hooks for slide construction. Implementations
// may forward to Prometheus or any other backend.
type Recorder interface {
	// ObserveSequenceDuration records how long one director sequence took.
	ObserveSequenceDuration(sequence string, d time.Duration)
	// IncSequenceOutcome counts sequence invocations by outcome.
	IncSequenceOutcome(sequence string, outcome ResultLabel)
	// IncRuleViolation counts tenant rule violations attached to a slide.
	IncRuleViolation(tenant, rule, severity string)
	// IncRegistration counts capability registration attempts by outcome.
	IncRegistration(outcome ResultLabel)
	// IncBatchItem counts batch items by outcome.
	IncBatchItem(outcome ResultLabel)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveSequenceDuration(string, time.Duration) {}
func (NoopRecorder) IncSequenceOutcome(string, ResultLabel)        {}
func (NoopRecorder) IncRuleViolation(string, string, string)       {}
func (NoopRecorder) IncRegistration(ResultLabel)                   {}
func (NoopRecorder) IncBatchItem(ResultLabel)                      {}

// OrNoop returns r, or NoopRecorder when r is nil.
func OrNoop(r Recorder) Recorder {
	if r == nil {
		return NoopRecorder{}
	}
	return r
}
