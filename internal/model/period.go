package model

import "time"

// Preset period identifiers.
const (
	Period7d  = "7d"
	Period30d = "30d"
	Period90d = "90d"
	PeriodAll = "all"
)

// PeriodSelection is either a named preset window or an explicit
// from/to date pair. Exactly one representation is active at a time:
// setting a preset clears any custom range and vice versa.
type PeriodSelection struct {
	Preset string     // "7d", "30d", "90d", "all"; "" when custom
	From   *time.Time // custom range start
	To     *time.Time // custom range end
}

// PresetSelection returns a selection for a named preset window.
func PresetSelection(preset string) PeriodSelection {
	return PeriodSelection{Preset: preset}
}

// CustomSelection returns a selection for an explicit date pair.
func CustomSelection(from, to time.Time) PeriodSelection {
	return PeriodSelection{From: &from, To: &to}
}

// IsCustom reports whether an explicit date range is active.
func (s PeriodSelection) IsCustom() bool {
	return s.From != nil && s.To != nil
}

// Tag returns a short identifier for filenames and logging.
func (s PeriodSelection) Tag() string {
	if s.IsCustom() {
		return "custom"
	}
	if s.Preset == "" {
		return Period30d
	}
	return s.Preset
}
