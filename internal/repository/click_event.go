package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/afflytics/afflytics/internal/model"
)

// ClickEventRepository provides database access for click events. The
// table is append-only: events are never updated, only inserted and
// bulk-deleted by time range.
type ClickEventRepository struct {
	repo *Repository
}

// NewClickEventRepository creates a new ClickEventRepository.
func NewClickEventRepository(repo *Repository) *ClickEventRepository {
	return &ClickEventRepository{repo: repo}
}

// Insert records a single click event with idempotency via ON CONFLICT
// DO NOTHING on the ULID primary key.
func (r *ClickEventRepository) Insert(ctx context.Context, event *model.ClickEvent) error {
	query := `
		INSERT INTO click_events (
			id, event_type, source, product_id, product_name, occurred_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (id) DO NOTHING
	`

	_, err := r.repo.pool.Exec(ctx, query,
		event.ID,
		event.EventType,
		nullableString(event.Source),
		nullableString(event.ProductID),
		nullableString(event.ProductName),
		event.OccurredAt,
	)
	if err != nil {
		return unavailable("insert click event", err)
	}
	return nil
}

// BulkInsert inserts multiple click events in a single batch.
func (r *ClickEventRepository) BulkInsert(ctx context.Context, events []*model.ClickEvent) error {
	if len(events) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO click_events (
			id, event_type, source, product_id, product_name, occurred_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (id) DO NOTHING
	`
	for _, event := range events {
		batch.Queue(query,
			event.ID,
			event.EventType,
			nullableString(event.Source),
			nullableString(event.ProductID),
			nullableString(event.ProductName),
			event.OccurredAt,
		)
	}

	results := r.repo.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(events); i++ {
		if _, err := results.Exec(); err != nil {
			return unavailable("batch insert click events", err)
		}
	}
	return nil
}

// QueryRange returns all events of the given type whose occurrence time
// falls in [start, end] inclusive. Row order is unspecified; the
// aggregator must not assume any.
func (r *ClickEventRepository) QueryRange(ctx context.Context, eventType string, start, end time.Time) ([]model.ClickEvent, error) {
	query := `
		SELECT id, event_type, COALESCE(source, ''), COALESCE(product_id, ''),
		       COALESCE(product_name, ''), occurred_at, created_at
		FROM click_events
		WHERE event_type = $1 AND occurred_at >= $2 AND occurred_at <= $3
	`

	rows, err := r.repo.pool.Query(ctx, query, eventType, start, end)
	if err != nil {
		return nil, unavailable("query click events", err)
	}
	defer rows.Close()

	events := make([]model.ClickEvent, 0)
	for rows.Next() {
		var ev model.ClickEvent
		if err := rows.Scan(&ev.ID, &ev.EventType, &ev.Source, &ev.ProductID,
			&ev.ProductName, &ev.OccurredAt, &ev.CreatedAt); err != nil {
			return nil, unavailable("scan click event", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate click events", err)
	}

	return events, nil
}

// DeleteRange removes events of the given type. Nil bounds widen the
// delete: both nil removes every event of that type. The delete is a
// single statement, so a failure leaves the store untouched. Matching
// nothing is not an error.
func (r *ClickEventRepository) DeleteRange(ctx context.Context, eventType string, start, end *time.Time) (int64, error) {
	query := `DELETE FROM click_events WHERE event_type = $1`
	args := []any{eventType}

	if start != nil {
		args = append(args, *start)
		query += ` AND occurred_at >= $2`
	}
	if end != nil {
		args = append(args, *end)
		if start != nil {
			query += ` AND occurred_at <= $3`
		} else {
			query += ` AND occurred_at <= $2`
		}
	}

	tag, err := r.repo.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, unavailable("delete click events", err)
	}
	return tag.RowsAffected(), nil
}

// nullableString returns nil for empty strings.
func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
