package autosave

import "time"

// MetricsCollector provides hooks for collecting save operation metrics
type MetricsCollector interface {
	// RecordSaveDuration records how long a save attempt took, tagged by
	// the trigger that started it (debounce, periodic, retry, manual,
	// resolution)
	RecordSaveDuration(trigger string, duration time.Duration)

	// RecordSaveOutcome records the outcome of a save attempt
	RecordSaveOutcome(outcome Outcome)

	// RecordRetryScheduled records that an automatic retry was scheduled
	RecordRetryScheduled(retryCount int)

	// RecordConflict records a detected conflict and whether it was
	// resolved automatically
	RecordConflict(autoResolved bool)
}

// NoOpMetricsCollector is a default implementation that does nothing
type NoOpMetricsCollector struct{}

func (n *NoOpMetricsCollector) RecordSaveDuration(trigger string, duration time.Duration) {}
func (n *NoOpMetricsCollector) RecordSaveOutcome(outcome Outcome)                         {}
func (n *NoOpMetricsCollector) RecordRetryScheduled(retryCount int)                       {}
func (n *NoOpMetricsCollector) RecordConflict(autoResolved bool)                          {}
