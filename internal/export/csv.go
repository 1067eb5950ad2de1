// Package export serializes aggregated metric series into a flat
// CSV-like tabular text format for download.
package export

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/afflytics/afflytics/internal/model"
)

// ToCSV renders a header row followed by data rows. Values containing
// a comma or double-quote are wrapped in double quotes with internal
// quotes doubled. Empty input (no headers) yields an empty string.
func ToCSV(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}

	var b strings.Builder
	writeRow(&b, headers)
	for _, row := range rows {
		writeRow(&b, row)
	}
	return b.String()
}

func writeRow(b *strings.Builder, values []string) {
	for i, v := range values {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(escape(v))
	}
	b.WriteByte('\n')
}

func escape(v string) string {
	if !strings.ContainsAny(v, `,"`) {
		return v
	}
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}

// BuildReport concatenates three labeled CSV sections into one report
// document, prefixed with a generation timestamp. The whole report is
// assembled in memory so a failure never produces a partial file.
func BuildReport(generatedAt time.Time, daily []model.DailyMetric, sources []model.SourceBreakdown, products []model.ProductRanking) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Affiliate Analytics Report - generated %s\n\n", generatedAt.UTC().Format(time.RFC3339))

	b.WriteString("## Daily Metrics\n")
	b.WriteString(dailyCSV(daily))
	b.WriteString("\n## Traffic Sources\n")
	b.WriteString(sourcesCSV(sources))
	b.WriteString("\n## Top Products\n")
	b.WriteString(productsCSV(products))

	return b.String()
}

// ReportFilename embeds the resolved period tag and a filesystem-safe
// ISO timestamp, e.g. "affiliate-data-30d-2024-01-15T10-30-00.csv".
func ReportFilename(periodTag string, at time.Time) string {
	return fmt.Sprintf("affiliate-data-%s-%s.csv", periodTag, at.UTC().Format("2006-01-02T15-04-05"))
}

func dailyCSV(daily []model.DailyMetric) string {
	if len(daily) == 0 {
		return ""
	}
	rows := make([][]string, 0, len(daily))
	for _, d := range daily {
		rows = append(rows, []string{
			d.Date,
			strconv.FormatInt(d.Clicks, 10),
			strconv.FormatFloat(d.Conversions, 'f', -1, 64),
			strconv.FormatFloat(d.Revenue, 'f', -1, 64),
		})
	}
	return ToCSV([]string{"date", "clicks", "conversions", "revenue"}, rows)
}

func sourcesCSV(sources []model.SourceBreakdown) string {
	if len(sources) == 0 {
		return ""
	}
	rows := make([][]string, 0, len(sources))
	for _, s := range sources {
		rows = append(rows, []string{s.Name, strconv.FormatInt(s.Value, 10)})
	}
	return ToCSV([]string{"source", "clicks"}, rows)
}

func productsCSV(products []model.ProductRanking) string {
	if len(products) == 0 {
		return ""
	}
	rows := make([][]string, 0, len(products))
	for _, p := range products {
		rows = append(rows, []string{
			p.ID,
			p.Name,
			strconv.FormatInt(p.Clicks, 10),
			strconv.FormatFloat(p.Conversions, 'f', -1, 64),
			strconv.FormatFloat(p.Revenue, 'f', -1, 64),
		})
	}
	return ToCSV([]string{"id", "name", "clicks", "conversions", "revenue"}, rows)
}
