// Package analytics turns raw click events into time-bucketed metrics
// and orchestrates the dashboard query/clear/export operations.
package analytics

import "errors"

// Analytics errors.
var (
	// ErrInvalidRange indicates a custom range with from after to, or
	// malformed dates. This is a caller contract violation.
	ErrInvalidRange = errors.New("invalid date range")

	// ErrClearInFlight indicates a clear operation was rejected because
	// another one is still running. Clears are at-most-once per action.
	ErrClearInFlight = errors.New("clear already in flight")
)
