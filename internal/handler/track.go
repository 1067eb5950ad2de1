package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/afflytics/afflytics/internal/metrics"
	"github.com/afflytics/afflytics/internal/model"
)

// EventRecorder appends click events to the event store.
type EventRecorder interface {
	Insert(ctx context.Context, event *model.ClickEvent) error
}

// TrackHandler records click events posted by affiliate link pages.
type TrackHandler struct {
	events   EventRecorder
	recorder metrics.Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewTrackHandler creates a new TrackHandler.
func NewTrackHandler(events EventRecorder, recorder metrics.Recorder, logger *slog.Logger) *TrackHandler {
	return &TrackHandler{
		events:   events,
		recorder: recorder,
		logger:   logger.With("component", "handler.track"),
		now:      time.Now,
	}
}

// trackRequest is the body for POST /t/click.
type trackRequest struct {
	Source      string     `json:"source,omitempty"`
	ProductID   string     `json:"product_id,omitempty"`
	ProductName string     `json:"product_name,omitempty"`
	OccurredAt  *time.Time `json:"occurred_at,omitempty"` // defaults to now
}

// Track handles POST /t/click. Events are immutable once recorded, so
// the response carries only the minted id.
func (h *TrackHandler) Track(w http.ResponseWriter, r *http.Request) {
	var req trackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "malformed request body")
		return
	}

	occurredAt := h.now().UTC()
	if req.OccurredAt != nil {
		occurredAt = req.OccurredAt.UTC()
	}

	event := &model.ClickEvent{
		ID:          ulid.Make().String(),
		EventType:   model.EventTypeClick,
		Source:      req.Source,
		ProductID:   req.ProductID,
		ProductName: req.ProductName,
		OccurredAt:  occurredAt,
	}

	if err := h.events.Insert(r.Context(), event); err != nil {
		h.logger.Error("record click failed", "error", err)
		writeDomainError(w, err)
		return
	}

	h.recorder.IncEventRecorded()
	writeJSON(w, http.StatusAccepted, map[string]string{"id": event.ID})
}
