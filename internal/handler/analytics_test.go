package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/afflytics/afflytics/internal/analytics"
	"github.com/afflytics/afflytics/internal/metrics"
	"github.com/afflytics/afflytics/internal/model"
	"github.com/afflytics/afflytics/internal/repository"
)

// stubEventSource serves a fixed event set and counts deletions.
type stubEventSource struct {
	events   []model.ClickEvent
	queryErr error
	deleted  int64
}

func (s *stubEventSource) QueryRange(ctx context.Context, eventType string, start, end time.Time) ([]model.ClickEvent, error) {
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	out := make([]model.ClickEvent, 0, len(s.events))
	for _, ev := range s.events {
		if ev.OccurredAt.Before(start) || ev.OccurredAt.After(end) {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

func (s *stubEventSource) DeleteRange(ctx context.Context, eventType string, start, end *time.Time) (int64, error) {
	if s.queryErr != nil {
		return 0, s.queryErr
	}
	kept := s.events[:0]
	for _, ev := range s.events {
		if start != nil && (ev.OccurredAt.Before(*start) || ev.OccurredAt.After(*end)) {
			kept = append(kept, ev)
			continue
		}
		s.deleted++
	}
	s.events = kept
	return s.deleted, nil
}

// stubSnapshot is an in-memory snapshot cache.
type stubSnapshot struct {
	events  []model.ClickEvent
	loadErr error
}

func (s *stubSnapshot) SaveEvents(ctx context.Context, eventType string, events []model.ClickEvent) error {
	s.events = events
	return nil
}

func (s *stubSnapshot) LoadEvents(ctx context.Context, eventType string) ([]model.ClickEvent, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.events, nil
}

func testNow() time.Time {
	return time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func clickAt(day int, source string) model.ClickEvent {
	return model.ClickEvent{
		ID:         "evt-" + string(rune('a'+day)),
		EventType:  model.EventTypeClick,
		Source:     source,
		OccurredAt: time.Date(2024, 1, day, 12, 0, 0, 0, time.UTC),
	}
}

func newAnalyticsHandler(store *stubEventSource, snap *stubSnapshot) *AnalyticsHandler {
	dash := analytics.NewDashboard(store, snap, analytics.NewAggregator(analytics.DefaultEstimates()), metrics.NewNoop(), testLogger())
	dash.SetClock(testNow)
	return NewAnalyticsHandler(dash, testLogger())
}

func TestAnalyticsHandler_GetMetrics(t *testing.T) {
	store := &stubEventSource{events: []model.ClickEvent{
		clickAt(14, "newsletter"),
		clickAt(15, "newsletter"),
		clickAt(15, ""),
	}}
	h := newAnalyticsHandler(store, &stubSnapshot{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics?period=7d", nil)
	rec := httptest.NewRecorder()

	h.GetMetrics(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var report model.MetricsReport
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(report.Daily) != 7 {
		t.Errorf("expected 7 daily buckets, got %d", len(report.Daily))
	}
	if report.Totals.Clicks != 3 {
		t.Errorf("expected 3 total clicks, got %d", report.Totals.Clicks)
	}
	if report.Period.From != "2024-01-09" || report.Period.To != "2024-01-15" {
		t.Errorf("unexpected period: %+v", report.Period)
	}
	if len(report.Sources) != 2 || report.Sources[0].Name != "newsletter" {
		t.Errorf("unexpected sources: %+v", report.Sources)
	}
	if report.Fallback {
		t.Error("primary-served report must not be flagged as fallback")
	}
}

func TestAnalyticsHandler_GetMetrics_Rollup(t *testing.T) {
	store := &stubEventSource{events: []model.ClickEvent{clickAt(15, "x")}}
	h := newAnalyticsHandler(store, &stubSnapshot{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics?period=7d&rollup=monthly", nil)
	rec := httptest.NewRecorder()

	h.GetMetrics(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var report model.MetricsReport
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(report.Daily) != 1 || report.Daily[0].Date != "Jan 2024" {
		t.Errorf("expected single Jan 2024 bucket, got %+v", report.Daily)
	}
}

func TestAnalyticsHandler_GetMetrics_InvalidRange(t *testing.T) {
	h := newAnalyticsHandler(&stubEventSource{}, &stubSnapshot{})

	tests := []struct {
		name  string
		query string
	}{
		{"unknown preset", "?period=14d"},
		{"malformed from", "?from=not-a-date&to=2024-01-15"},
		{"from after to", "?from=2024-01-15&to=2024-01-10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics"+tt.query, nil)
			rec := httptest.NewRecorder()

			h.GetMetrics(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", rec.Code)
			}
			var resp ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Code != "INVALID_RANGE" {
				t.Errorf("expected code INVALID_RANGE, got %s", resp.Code)
			}
		})
	}
}

func TestAnalyticsHandler_GetMetrics_FallbackFlagged(t *testing.T) {
	snap := &stubSnapshot{events: []model.ClickEvent{clickAt(15, "cached")}}
	store := &stubEventSource{queryErr: repository.ErrBackendUnavailable}
	h := newAnalyticsHandler(store, snap)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics?period=7d", nil)
	rec := httptest.NewRecorder()

	h.GetMetrics(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 from snapshot, got %d", rec.Code)
	}
	var report model.MetricsReport
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !report.Fallback {
		t.Error("snapshot-served report must set fallback")
	}
	if report.Totals.Clicks != 1 {
		t.Errorf("expected 1 click from snapshot, got %d", report.Totals.Clicks)
	}
}

func TestAnalyticsHandler_GetMetrics_BothTiersDown(t *testing.T) {
	store := &stubEventSource{queryErr: repository.ErrBackendUnavailable}
	snap := &stubSnapshot{loadErr: repository.ErrBackendUnavailable}
	h := newAnalyticsHandler(store, snap)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics?period=7d", nil)
	rec := httptest.NewRecorder()

	h.GetMetrics(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", rec.Code)
	}
	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Code != "BACKEND_UNAVAILABLE" {
		t.Errorf("expected code BACKEND_UNAVAILABLE, got %s", resp.Code)
	}
}

func TestAnalyticsHandler_ClearEvents(t *testing.T) {
	store := &stubEventSource{events: []model.ClickEvent{
		clickAt(14, "a"),
		clickAt(15, "a"),
	}}
	h := newAnalyticsHandler(store, &stubSnapshot{})

	body := strings.NewReader(`{"scope":"current","period":"7d"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analytics/clear", body)
	rec := httptest.NewRecorder()

	h.ClearEvents(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp clearResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.DeletedCount != 2 {
		t.Errorf("expected 2 deleted, got %d", resp.DeletedCount)
	}
}

func TestAnalyticsHandler_ClearEvents_BadRequests(t *testing.T) {
	h := newAnalyticsHandler(&stubEventSource{}, &stubSnapshot{})

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{scope`},
		{"missing scope", `{}`},
		{"unknown scope", `{"scope":"everything"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/analytics/clear", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			h.ClearEvents(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", rec.Code)
			}
		})
	}
}

func TestAnalyticsHandler_ClearEvents_AllIgnoresPeriod(t *testing.T) {
	store := &stubEventSource{events: []model.ClickEvent{
		clickAt(1, "a"), // outside any 7d window
		clickAt(15, "a"),
	}}
	h := newAnalyticsHandler(store, &stubSnapshot{})

	body := strings.NewReader(`{"scope":"all"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analytics/clear", body)
	rec := httptest.NewRecorder()

	h.ClearEvents(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var resp clearResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.DeletedCount != 2 {
		t.Errorf("expected scope all to delete everything, got %d", resp.DeletedCount)
	}
}

func TestAnalyticsHandler_ExportReport(t *testing.T) {
	store := &stubEventSource{events: []model.ClickEvent{clickAt(15, "newsletter")}}
	h := newAnalyticsHandler(store, &stubSnapshot{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/export?period=30d", nil)
	rec := httptest.NewRecorder()

	h.ExportReport(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv; charset=utf-8" {
		t.Errorf("unexpected Content-Type: %s", ct)
	}
	disposition := rec.Header().Get("Content-Disposition")
	if !strings.Contains(disposition, "affiliate-data-30d-2024-01-15T10-30-00.csv") {
		t.Errorf("unexpected Content-Disposition: %s", disposition)
	}
	if !strings.HasPrefix(rec.Body.String(), "Affiliate Analytics Report") {
		t.Errorf("unexpected body prefix: %.60s", rec.Body.String())
	}
}
