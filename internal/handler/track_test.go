package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/afflytics/afflytics/internal/metrics"
	"github.com/afflytics/afflytics/internal/model"
	"github.com/afflytics/afflytics/internal/repository"
)

// captureRecorder stores inserted events.
type captureRecorder struct {
	events    []model.ClickEvent
	insertErr error
}

func (c *captureRecorder) Insert(ctx context.Context, event *model.ClickEvent) error {
	if c.insertErr != nil {
		return c.insertErr
	}
	c.events = append(c.events, *event)
	return nil
}

func TestTrackHandler_Track(t *testing.T) {
	store := &captureRecorder{}
	h := NewTrackHandler(store, metrics.NewNoop(), testLogger())
	h.now = testNow

	body := strings.NewReader(`{"source":"newsletter","product_id":"p-1","product_name":"Widget"}`)
	req := httptest.NewRequest(http.MethodPost, "/t/click", body)
	rec := httptest.NewRecorder()

	h.Track(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["id"] == "" {
		t.Error("response should carry the minted event id")
	}

	if len(store.events) != 1 {
		t.Fatalf("expected 1 stored event, got %d", len(store.events))
	}
	ev := store.events[0]
	if ev.ID != resp["id"] {
		t.Errorf("stored id %s does not match response id %s", ev.ID, resp["id"])
	}
	if ev.EventType != model.EventTypeClick {
		t.Errorf("unexpected event type: %s", ev.EventType)
	}
	if ev.Source != "newsletter" || ev.ProductID != "p-1" || ev.ProductName != "Widget" {
		t.Errorf("unexpected event fields: %+v", ev)
	}
	if !ev.OccurredAt.Equal(testNow()) {
		t.Errorf("expected occurred_at to default to now, got %v", ev.OccurredAt)
	}
}

func TestTrackHandler_Track_ExplicitTimestamp(t *testing.T) {
	store := &captureRecorder{}
	h := NewTrackHandler(store, metrics.NewNoop(), testLogger())
	h.now = testNow

	body := strings.NewReader(`{"source":"blog","occurred_at":"2024-01-10T08:00:00Z"}`)
	req := httptest.NewRequest(http.MethodPost, "/t/click", body)
	rec := httptest.NewRecorder()

	h.Track(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d", rec.Code)
	}
	want := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	if !store.events[0].OccurredAt.Equal(want) {
		t.Errorf("expected occurred_at %v, got %v", want, store.events[0].OccurredAt)
	}
}

func TestTrackHandler_Track_MalformedBody(t *testing.T) {
	h := NewTrackHandler(&captureRecorder{}, metrics.NewNoop(), testLogger())

	req := httptest.NewRequest(http.MethodPost, "/t/click", strings.NewReader(`{source`))
	rec := httptest.NewRecorder()

	h.Track(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}

func TestTrackHandler_Track_StoreDown(t *testing.T) {
	store := &captureRecorder{insertErr: repository.ErrBackendUnavailable}
	h := NewTrackHandler(store, metrics.NewNoop(), testLogger())

	req := httptest.NewRequest(http.MethodPost, "/t/click", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	h.Track(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", rec.Code)
	}
}
