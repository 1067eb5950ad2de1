package analytics

import (
	"fmt"
	"time"

	"github.com/afflytics/afflytics/internal/model"
)

// Granularity selects the rollup period for a daily series.
type Granularity string

// Supported rollup granularities.
const (
	GranularityWeekly  Granularity = "weekly"
	GranularityMonthly Granularity = "monthly"
)

// Rollup re-buckets an ascending daily series into weekly or monthly
// periods, summing clicks, conversions and revenue across the days of
// each period. The weekly key is week-of-month derived from
// ceil((dayOfMonth + firstWeekdayOffsetOfMonth) / 7), not an ISO week.
// Historical reports depend on this scheme, so it is kept as is.
// Entries whose date does not parse are passed over silently; labels
// appear in first-seen (chronological) order.
func Rollup(daily []model.DailyMetric, granularity Granularity) []model.DailyMetric {
	sums := make(map[string]*model.DailyMetric)
	var order []string

	for i := range daily {
		day, err := time.Parse(dateLayout, daily[i].Date)
		if err != nil {
			continue
		}

		var label string
		switch granularity {
		case GranularityMonthly:
			label = day.Format("Jan 2006")
		default:
			label = fmt.Sprintf("Week %d, %d", weekOfMonth(day), day.Year())
		}

		bucket, ok := sums[label]
		if !ok {
			bucket = &model.DailyMetric{Date: label}
			sums[label] = bucket
			order = append(order, label)
		}
		bucket.Clicks += daily[i].Clicks
		bucket.Conversions += daily[i].Conversions
		bucket.Revenue += daily[i].Revenue
	}

	out := make([]model.DailyMetric, 0, len(order))
	for _, label := range order {
		bucket := sums[label]
		bucket.Conversions = round1(bucket.Conversions)
		bucket.Revenue = round2(bucket.Revenue)
		out = append(out, *bucket)
	}
	return out
}

// weekOfMonth computes the 1-based week number of the day's month,
// offset by the weekday of the first of the month (Sunday = 0).
func weekOfMonth(day time.Time) int {
	firstOfMonth := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
	offset := int(firstOfMonth.Weekday())
	return (day.Day() + offset + 6) / 7
}
