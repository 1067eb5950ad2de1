package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncMetricsQuery is a no-op.
func (n *NoopRecorder) IncMetricsQuery(tier string) {}

// ObserveQueryDuration is a no-op.
func (n *NoopRecorder) ObserveQueryDuration(duration time.Duration) {}

// IncEventRecorded is a no-op.
func (n *NoopRecorder) IncEventRecorded() {}

// AddEventsDeleted is a no-op.
func (n *NoopRecorder) AddEventsDeleted(count int64) {}

// IncExportGenerated is a no-op.
func (n *NoopRecorder) IncExportGenerated() {}

// IncPostWrite is a no-op.
func (n *NoopRecorder) IncPostWrite(tier string) {}

// IncPostRead is a no-op.
func (n *NoopRecorder) IncPostRead(tier string) {}
