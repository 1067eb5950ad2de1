package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/afflytics/afflytics/internal/analytics"
	"github.com/afflytics/afflytics/internal/model"
)

// AnalyticsHandler exposes the dashboard facade over HTTP.
type AnalyticsHandler struct {
	dashboard *analytics.Dashboard
	logger    *slog.Logger
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(dashboard *analytics.Dashboard, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		dashboard: dashboard,
		logger:    logger.With("component", "handler.analytics"),
	}
}

// GetMetrics handles GET /api/v1/analytics.
// Query params: period=7d|30d|90d|all, or from=YYYY-MM-DD&to=YYYY-MM-DD;
// optional rollup=weekly|monthly re-buckets the daily series.
func (h *AnalyticsHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	sel, err := parseSelection(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	report, err := h.dashboard.Refresh(r.Context(), sel)
	if err != nil {
		h.logger.Error("metrics query failed", "period", sel.Tag(), "error", err)
		writeDomainError(w, err)
		return
	}

	switch r.URL.Query().Get("rollup") {
	case "weekly":
		report.Daily = analytics.Rollup(report.Daily, analytics.GranularityWeekly)
	case "monthly":
		report.Daily = analytics.Rollup(report.Daily, analytics.GranularityMonthly)
	}

	writeJSON(w, http.StatusOK, report)
}

// clearRequest is the body for POST /api/v1/analytics/clear.
type clearRequest struct {
	Scope  string `json:"scope"` // "current" or "all"
	Period string `json:"period,omitempty"`
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
}

// clearResponse reports how many events a clear removed.
type clearResponse struct {
	DeletedCount int64 `json:"deleted_count"`
}

// ClearEvents handles POST /api/v1/analytics/clear.
func (h *AnalyticsHandler) ClearEvents(w http.ResponseWriter, r *http.Request) {
	var req clearRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "malformed request body")
		return
	}
	if req.Scope != analytics.ClearScopeCurrent && req.Scope != analytics.ClearScopeAll {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "scope must be \"current\" or \"all\"")
		return
	}

	sel, err := selectionFrom(req.Period, req.From, req.To)
	if err != nil && req.Scope == analytics.ClearScopeCurrent {
		writeDomainError(w, err)
		return
	}

	deleted, err := h.dashboard.ClearEvents(r.Context(), req.Scope, sel)
	if err != nil {
		h.logger.Error("clear failed", "scope", req.Scope, "error", err)
		writeDomainError(w, err)
		return
	}

	h.logger.Info("events cleared via API", "scope", req.Scope, "deleted", deleted)
	writeJSON(w, http.StatusOK, clearResponse{DeletedCount: deleted})
}

// ExportReport handles GET /api/v1/analytics/export.
// The CSV is built fully in memory before the first byte is written, so
// a failure never yields a partial file.
func (h *AnalyticsHandler) ExportReport(w http.ResponseWriter, r *http.Request) {
	sel, err := parseSelection(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	report, err := h.dashboard.ExportReport(r.Context(), sel)
	if err != nil {
		h.logger.Error("export failed", "period", sel.Tag(), "error", err)
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(report.Content))
}

// parseSelection builds a period selection from query parameters.
func parseSelection(r *http.Request) (model.PeriodSelection, error) {
	q := r.URL.Query()
	return selectionFrom(q.Get("period"), q.Get("from"), q.Get("to"))
}

// selectionFrom prefers an explicit from/to pair over a preset; exactly
// one representation ends up active.
func selectionFrom(period, from, to string) (model.PeriodSelection, error) {
	if from != "" || to != "" {
		fromDate, err := time.Parse("2006-01-02", from)
		if err != nil {
			return model.PeriodSelection{}, fmt.Errorf("%w: malformed from date %q", analytics.ErrInvalidRange, from)
		}
		toDate, err := time.Parse("2006-01-02", to)
		if err != nil {
			return model.PeriodSelection{}, fmt.Errorf("%w: malformed to date %q", analytics.ErrInvalidRange, to)
		}
		return model.CustomSelection(fromDate.UTC(), toDate.UTC()), nil
	}
	if period == "" {
		period = model.Period30d
	}
	return model.PresetSelection(period), nil
}
