// Package model defines domain entities for the application.
package model

import "time"

// EventTypeClick is the tracked event type for affiliate link clicks.
const EventTypeClick = "affiliate_click"

// UnknownSource is the bucket for events recorded without a source tag.
const UnknownSource = "unknown"

// ClickEvent represents a single observed affiliate-link click.
// Events are immutable once recorded; the only supported mutation is
// bulk deletion by time range.
type ClickEvent struct {
	ID        string `json:"id"`         // ULID (time-sortable)
	EventType string `json:"event_type"` // e.g. EventTypeClick

	// Attribution
	Source      string `json:"source,omitempty"`       // referrer category, "" -> "unknown"
	ProductID   string `json:"product_id,omitempty"`   // optional; excluded from rankings if empty
	ProductName string `json:"product_name,omitempty"` // optional display name

	// Timestamps
	OccurredAt time.Time `json:"occurred_at"` // event timestamp, source of all bucketing
	CreatedAt  time.Time `json:"created_at"`  // DB insertion time
}

// SourceOrUnknown returns the source tag, coercing empty to "unknown".
func (e *ClickEvent) SourceOrUnknown() string {
	if e.Source == "" {
		return UnknownSource
	}
	return e.Source
}
