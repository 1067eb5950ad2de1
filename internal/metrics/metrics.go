// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Tier labels for store operations.
const (
	TierPrimary  = "primary"
	TierFallback = "fallback"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Analytics query pipeline
	IncMetricsQuery(tier string) // tier: "primary" or "fallback"
	ObserveQueryDuration(duration time.Duration)
	IncEventRecorded()
	AddEventsDeleted(count int64)
	IncExportGenerated()

	// Content dual-write path
	IncPostWrite(tier string)
	IncPostRead(tier string)
}
