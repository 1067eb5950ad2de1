package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/afflytics/afflytics/internal/model"
)

// SnapshotTTL bounds how long a stale event snapshot is served during
// an outage before it expires.
const SnapshotTTL = 7 * 24 * time.Hour

// SaveEvents stores the full result of the last successful event query
// as one JSON-encoded array per event type.
func (c *Cache) SaveEvents(ctx context.Context, eventType string, events []model.ClickEvent) error {
	payload, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("encode event snapshot: %w", err)
	}

	key := Key("events", eventType)
	if err := c.client.Set(ctx, key, payload, SnapshotTTL).Err(); err != nil {
		return fmt.Errorf("store event snapshot: %w", err)
	}
	return nil
}

// LoadEvents returns the cached event snapshot for a type. A missing
// snapshot yields an empty slice, not an error: the caller cannot do
// better than "no locally known events".
func (c *Cache) LoadEvents(ctx context.Context, eventType string) ([]model.ClickEvent, error) {
	key := Key("events", eventType)

	payload, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []model.ClickEvent{}, nil
		}
		return nil, fmt.Errorf("load event snapshot: %w", err)
	}

	var events []model.ClickEvent
	if err := json.Unmarshal(payload, &events); err != nil {
		return nil, fmt.Errorf("decode event snapshot: %w", err)
	}
	return events, nil
}
