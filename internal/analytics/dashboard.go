package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/afflytics/afflytics/internal/export"
	"github.com/afflytics/afflytics/internal/metrics"
	"github.com/afflytics/afflytics/internal/model"
)

// Clear scopes.
const (
	ClearScopeCurrent = "current"
	ClearScopeAll     = "all"
)

// State is the dashboard lifecycle state.
type State int

// Dashboard states. A period change moves Ready or Error back to
// Loading; there is no cancelled state, superseded fetches run to
// completion and are discarded by the sequence guard.
const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateError
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	}
	return "unknown"
}

// EventSource is the remote event store consumed by the dashboard.
// Query ordering is unspecified; the aggregator does not assume order.
type EventSource interface {
	QueryRange(ctx context.Context, eventType string, start, end time.Time) ([]model.ClickEvent, error)
	DeleteRange(ctx context.Context, eventType string, start, end *time.Time) (int64, error)
}

// SnapshotCache persists the last successful query result locally so
// the dashboard can keep serving through a backend outage.
type SnapshotCache interface {
	SaveEvents(ctx context.Context, eventType string, events []model.ClickEvent) error
	LoadEvents(ctx context.Context, eventType string) ([]model.ClickEvent, error)
}

// Dashboard is the single entry point consumed by UI code. It
// orchestrates range resolution, event querying (with local fallback),
// aggregation, clearing and export.
type Dashboard struct {
	store    EventSource
	snapshot SnapshotCache
	agg      *Aggregator
	recorder metrics.Recorder
	logger   *slog.Logger
	now      func() time.Time

	// Refresh state. seq tags each fetch; a completion whose sequence
	// number is below the last applied one is stale and discarded, so
	// the last invoked refresh wins rather than the last completed.
	seq     atomic.Uint64
	mu      sync.Mutex
	applied uint64
	state   State
	current *model.MetricsReport
	lastErr error

	clearInFlight atomic.Bool
}

// NewDashboard creates a Dashboard facade.
func NewDashboard(store EventSource, snapshot SnapshotCache, agg *Aggregator, recorder metrics.Recorder, logger *slog.Logger) *Dashboard {
	return &Dashboard{
		store:    store,
		snapshot: snapshot,
		agg:      agg,
		recorder: recorder,
		logger:   logger.With("component", "analytics.dashboard"),
		now:      time.Now,
		state:    StateIdle,
	}
}

// SetClock overrides the time source. Intended for tests.
func (d *Dashboard) SetClock(now func() time.Time) {
	d.now = now
}

// GetMetrics resolves the selection, fetches the events and returns the
// aggregated report. On a remote failure it falls back to the local
// event snapshot, filtered by the same range rules; only when both
// tiers fail is the error surfaced, so an outage is never mistaken for
// an empty range.
func (d *Dashboard) GetMetrics(ctx context.Context, sel model.PeriodSelection) (*model.MetricsReport, error) {
	started := d.now()

	start, end, err := Resolve(sel, d.now())
	if err != nil {
		return nil, err
	}

	fallback := false
	events, err := d.store.QueryRange(ctx, model.EventTypeClick, start, end)
	if err != nil {
		d.logger.Warn("event query failed, trying local snapshot", "error", err)
		cached, cacheErr := d.snapshot.LoadEvents(ctx, model.EventTypeClick)
		if cacheErr != nil {
			d.logger.Error("snapshot load failed", "error", cacheErr)
			return nil, fmt.Errorf("query events: %w", err)
		}
		events = filterByRange(cached, start, end)
		fallback = true
	} else if saveErr := d.snapshot.SaveEvents(ctx, model.EventTypeClick, events); saveErr != nil {
		// Best effort; the snapshot is a last-resort source, not a system of record.
		d.logger.Warn("snapshot save failed", "error", saveErr)
	}

	report := &model.MetricsReport{
		Daily:    d.agg.DailySeries(events, start, end),
		Sources:  d.agg.SourceBreakdown(events),
		Products: d.agg.ProductRanking(events),
		Fallback: fallback,
	}
	report.Totals = Sum(report.Daily)
	report.Period.From = start.Format(dateLayout)
	report.Period.To = end.Format(dateLayout)

	tier := metrics.TierPrimary
	if fallback {
		tier = metrics.TierFallback
	}
	d.recorder.IncMetricsQuery(tier)
	d.recorder.ObserveQueryDuration(d.now().Sub(started))

	return report, nil
}

// Refresh runs GetMetrics and applies the result to the dashboard
// state. Concurrent refreshes race freely; the sequence guard ensures
// the most recently invoked one determines the final state.
func (d *Dashboard) Refresh(ctx context.Context, sel model.PeriodSelection) (*model.MetricsReport, error) {
	seq := d.seq.Add(1)

	d.mu.Lock()
	d.state = StateLoading
	d.mu.Unlock()

	report, err := d.GetMetrics(ctx, sel)

	d.mu.Lock()
	defer d.mu.Unlock()
	if seq < d.applied {
		// A newer refresh already completed; discard this result.
		d.logger.Debug("discarding stale refresh", "seq", seq, "applied", d.applied)
		return report, err
	}
	d.applied = seq
	if err != nil {
		d.state = StateError
		d.lastErr = err
	} else {
		d.state = StateReady
		d.current = report
		d.lastErr = nil
	}
	return report, err
}

// Snapshot returns the current state, the last applied report and the
// last error, for callers that render dashboard state.
func (d *Dashboard) Snapshot() (State, *model.MetricsReport, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state, d.current, d.lastErr
}

// ClearEvents deletes recorded events. Scope "current" removes only
// events inside the resolved range of sel; scope "all" ignores sel and
// removes every tracked event. A delete that matches nothing is an
// idempotent no-op. Only one clear may run at a time.
func (d *Dashboard) ClearEvents(ctx context.Context, scope string, sel model.PeriodSelection) (int64, error) {
	if !d.clearInFlight.CompareAndSwap(false, true) {
		return 0, ErrClearInFlight
	}
	defer d.clearInFlight.Store(false)

	var start, end *time.Time
	if scope != ClearScopeAll {
		from, to, err := Resolve(sel, d.now())
		if err != nil {
			return 0, err
		}
		start, end = &from, &to
	}

	deleted, err := d.store.DeleteRange(ctx, model.EventTypeClick, start, end)
	if err != nil {
		return 0, fmt.Errorf("delete events: %w", err)
	}

	// The local snapshot is now stale; drop the deleted window from it
	// rather than leaving cleared events resurrectable during an outage.
	if cached, cacheErr := d.snapshot.LoadEvents(ctx, model.EventTypeClick); cacheErr == nil && len(cached) > 0 {
		kept := cached[:0]
		for _, ev := range cached {
			if start != nil && (ev.OccurredAt.Before(*start) || ev.OccurredAt.After(*end)) {
				kept = append(kept, ev)
			}
		}
		if saveErr := d.snapshot.SaveEvents(ctx, model.EventTypeClick, kept); saveErr != nil {
			d.logger.Warn("snapshot prune failed", "error", saveErr)
		}
	}

	d.recorder.AddEventsDeleted(deleted)
	d.logger.Info("events cleared", "scope", scope, "deleted", deleted)
	return deleted, nil
}

// Report is a fully built export document.
type Report struct {
	Filename string
	Content  string
}

// ExportReport builds the downloadable CSV report for a selection. The
// content is assembled entirely in memory before being returned.
func (d *Dashboard) ExportReport(ctx context.Context, sel model.PeriodSelection) (*Report, error) {
	metricsReport, err := d.GetMetrics(ctx, sel)
	if err != nil {
		return nil, err
	}

	now := d.now()
	report := &Report{
		Filename: export.ReportFilename(sel.Tag(), now),
		Content:  export.BuildReport(now, metricsReport.Daily, metricsReport.Sources, metricsReport.Products),
	}
	d.recorder.IncExportGenerated()
	return report, nil
}

// filterByRange keeps events whose occurrence time falls in [start, end].
func filterByRange(events []model.ClickEvent, start, end time.Time) []model.ClickEvent {
	out := make([]model.ClickEvent, 0, len(events))
	for _, ev := range events {
		at := ev.OccurredAt.UTC()
		if at.Before(start) || at.After(end) {
			continue
		}
		out = append(out, ev)
	}
	return out
}
