package model

import "time"

// Post is a blog post managed through the resilient dual-write store.
// Posts tolerate weaker consistency than click events: when the primary
// store is unreachable they live in the local cache until migrated.
type Post struct {
	ID        string    `json:"id"` // UUID
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Tags      []string  `json:"tags,omitempty"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
