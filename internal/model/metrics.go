package model

// DailyMetric is one bucket in an aggregated metrics series.
// A series always contains one entry per day in the requested range,
// sorted ascending by date, with no gaps and no duplicate dates.
// For rolled-up series the Date field carries a period label instead
// of a calendar date (e.g. "Week 3, 2024" or "Jan 2024").
type DailyMetric struct {
	Date        string  `json:"date"` // "2006-01-02" or period label
	Clicks      int64   `json:"clicks"`
	Conversions float64 `json:"conversions"` // rounded to 1 decimal
	Revenue     float64 `json:"revenue"`     // rounded to 2 decimals
}

// SourceBreakdown is the click count for one distinct source tag.
// Name is never empty; sourceless events fall back to "unknown".
type SourceBreakdown struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

// ProductRanking is the aggregated metrics for one product, ordered
// descending by clicks with ties broken by first-seen order.
type ProductRanking struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Clicks      int64   `json:"clicks"`
	Conversions float64 `json:"conversions"`
	Revenue     float64 `json:"revenue"`
}

// Totals summarizes a DailyMetric series.
type Totals struct {
	Clicks         int64   `json:"clicks"`
	Conversions    float64 `json:"conversions"`
	Revenue        float64 `json:"revenue"`
	ConversionRate float64 `json:"conversion_rate"` // percent; 0 when Clicks == 0
}

// MetricsReport is the full analytics query result returned to callers.
type MetricsReport struct {
	Daily    []DailyMetric     `json:"daily"`
	Sources  []SourceBreakdown `json:"sources"`
	Products []ProductRanking  `json:"products"`
	Totals   Totals            `json:"totals"`
	Period   struct {
		From string `json:"from"` // ISO date
		To   string `json:"to"`   // ISO date
	} `json:"period"`
	Fallback bool `json:"fallback,omitempty"` // true when served from the local snapshot
}
