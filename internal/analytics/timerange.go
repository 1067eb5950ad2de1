package analytics

import (
	"fmt"
	"time"

	"github.com/afflytics/afflytics/internal/model"
)

// presetDays maps preset identifiers to their window length in days.
// "all" is capped at 90 days: the store has no known data-start bound,
// so all-time is served as the widest preset window.
var presetDays = map[string]int{
	model.Period7d:  7,
	model.Period30d: 30,
	model.Period90d: 90,
	model.PeriodAll: 90,
}

// Resolve converts a period selection into a concrete [start, end]
// instant pair. Presets span the last N calendar days: start is N-1
// days before now at UTC midnight, end is now at end-of-day. Custom
// ranges keep the supplied start and normalize end to end-of-day.
// Pure and deterministic given now.
func Resolve(sel model.PeriodSelection, now time.Time) (time.Time, time.Time, error) {
	now = now.UTC()

	if sel.IsCustom() {
		from := sel.From.UTC()
		to := sel.To.UTC()
		if from.After(endOfDay(to)) {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: from %s after to %s",
				ErrInvalidRange, from.Format("2006-01-02"), to.Format("2006-01-02"))
		}
		return from, endOfDay(to), nil
	}

	preset := sel.Preset
	if preset == "" {
		preset = model.Period30d
	}
	days, ok := presetDays[preset]
	if !ok {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: unknown preset %q", ErrInvalidRange, preset)
	}

	start := startOfDay(now.AddDate(0, 0, -(days - 1)))
	return start, endOfDay(now), nil
}

// startOfDay truncates t to UTC midnight.
func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// endOfDay returns the last representable millisecond of t's UTC day.
func endOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999_000_000, time.UTC)
}
