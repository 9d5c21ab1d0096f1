package processor

import "time"

// MetricsRecorder is the slice of the metrics collector the aggregator uses.
type MetricsRecorder interface {
	RecordCompleted(latency time.Duration)
	RecordPublished()
	RecordPublishFailure()
	Increment(name string)
}

// NoOpMetrics is a null-object MetricsRecorder.
type NoOpMetrics struct{}

var _ MetricsRecorder = (*NoOpMetrics)(nil)

// RecordCompleted does nothing.
func (n *NoOpMetrics) RecordCompleted(_ time.Duration) {}

// RecordPublished does nothing.
func (n *NoOpMetrics) RecordPublished() {}

// RecordPublishFailure does nothing.
func (n *NoOpMetrics) RecordPublishFailure() {}

// Increment does nothing.
func (n *NoOpMetrics) Increment(_ string) {}
