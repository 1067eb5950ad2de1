package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/afflytics/afflytics/internal/model"
)

const dateLayout = "2006-01-02"

// Estimates holds the fixed multipliers used to derive conversions and
// revenue from raw click counts, in the absence of real conversion
// tracking. Injected so tests can substitute deterministic values.
type Estimates struct {
	ConversionRate  float64 // conversions per click
	RevenuePerClick float64 // estimated commission per click
}

// DefaultEstimates returns the production estimation constants.
func DefaultEstimates() Estimates {
	return Estimates{ConversionRate: 0.029, RevenuePerClick: 1.25}
}

// Aggregator transforms raw click events into derived metric series.
// All methods are pure in-memory transforms over already-fetched data.
type Aggregator struct {
	est Estimates
}

// NewAggregator creates an Aggregator with the given estimation rates.
func NewAggregator(est Estimates) *Aggregator {
	return &Aggregator{est: est}
}

// DailySeries buckets events by UTC calendar day over [start, end]
// inclusive. The result has exactly one entry per day in range, sorted
// ascending, zero-filled for days without events. Events outside the
// range are ignored; the store is expected to pre-filter but the
// aggregator does not trust that. Derived values accumulate unrounded
// and are rounded at output only.
func (a *Aggregator) DailySeries(events []model.ClickEvent, start, end time.Time) []model.DailyMetric {
	start = start.UTC()
	end = end.UTC()

	clicksByDay := make(map[string]int64)
	var days []string
	for d := startOfDay(start); !d.After(end); d = d.AddDate(0, 0, 1) {
		key := d.Format(dateLayout)
		clicksByDay[key] = 0
		days = append(days, key)
	}

	for i := range events {
		at := events[i].OccurredAt.UTC()
		if at.Before(start) || at.After(end) {
			continue
		}
		key := at.Format(dateLayout)
		if _, ok := clicksByDay[key]; ok {
			clicksByDay[key]++
		}
	}

	series := make([]model.DailyMetric, 0, len(days))
	for _, key := range days {
		clicks := clicksByDay[key]
		series = append(series, model.DailyMetric{
			Date:        key,
			Clicks:      clicks,
			Conversions: round1(float64(clicks) * a.est.ConversionRate),
			Revenue:     round2(float64(clicks) * a.est.RevenuePerClick),
		})
	}
	return series
}

// SourceBreakdown group-counts events by source tag. Missing sources
// are coerced to "unknown". Output is sorted descending by count with
// first-seen order breaking ties.
func (a *Aggregator) SourceBreakdown(events []model.ClickEvent) []model.SourceBreakdown {
	counts := make(map[string]int64)
	var order []string
	for i := range events {
		name := events[i].SourceOrUnknown()
		if _, seen := counts[name]; !seen {
			order = append(order, name)
		}
		counts[name]++
	}

	out := make([]model.SourceBreakdown, 0, len(order))
	for _, name := range order {
		out = append(out, model.SourceBreakdown{Name: name, Value: counts[name]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	return out
}

// ProductRanking groups events by product id, accumulating the same
// per-click estimates as the daily series. Events without a product id
// are excluded. Sorted descending by clicks; ties keep first-seen order.
func (a *Aggregator) ProductRanking(events []model.ClickEvent) []model.ProductRanking {
	type acc struct {
		name   string
		clicks int64
	}
	byID := make(map[string]*acc)
	var order []string
	for i := range events {
		ev := &events[i]
		if ev.ProductID == "" {
			continue
		}
		entry, ok := byID[ev.ProductID]
		if !ok {
			entry = &acc{name: ev.ProductName}
			byID[ev.ProductID] = entry
			order = append(order, ev.ProductID)
		}
		if entry.name == "" {
			entry.name = ev.ProductName
		}
		entry.clicks++
	}

	out := make([]model.ProductRanking, 0, len(order))
	for _, id := range order {
		entry := byID[id]
		out = append(out, model.ProductRanking{
			ID:          id,
			Name:        entry.name,
			Clicks:      entry.clicks,
			Conversions: round1(float64(entry.clicks) * a.est.ConversionRate),
			Revenue:     round2(float64(entry.clicks) * a.est.RevenuePerClick),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Clicks > out[j].Clicks })
	return out
}

// Sum computes totals over a daily series. The conversion rate is a
// percentage and is zero when there are no clicks.
func Sum(daily []model.DailyMetric) model.Totals {
	var t model.Totals
	for i := range daily {
		t.Clicks += daily[i].Clicks
		t.Conversions += daily[i].Conversions
		t.Revenue += daily[i].Revenue
	}
	t.Conversions = round1(t.Conversions)
	t.Revenue = round2(t.Revenue)
	if t.Clicks > 0 {
		t.ConversionRate = round2(t.Conversions / float64(t.Clicks) * 100)
	}
	return t
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
