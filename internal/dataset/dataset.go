// Package dataset holds the immutable cleaned dataset for a session and
// the filter value passed into every aggregator.
package dataset

import (
	"sort"
	"time"

	"github.com/vigia-platform/vigia/internal/ingest"
)

// Dataset is the cleaned, session-scoped data. It is never mutated after
// construction; filtering returns a new value sharing the backing records.
type Dataset struct {
	Failures   []ingest.FailureEvent
	Indicators []ingest.IndicatorRecord
	LoadedAt   time.Time
}

// New builds a dataset from cleaned records.
func New(failures []ingest.FailureEvent, indicators []ingest.IndicatorRecord) *Dataset {
	return &Dataset{
		Failures:   failures,
		Indicators: indicators,
		LoadedAt:   time.Now(),
	}
}

// Filter is one user filter selection. Zero times mean unbounded; empty
// slices mean "all".
type Filter struct {
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Fleets     []string  `json:"fleets"`
	Equipment  []string  `json:"equipment"`
	Systems    []string  `json:"systems"`
	Assemblies []string  `json:"assemblies"`
	Items      []string  `json:"items"`
}

func selected(values []string, v string) bool {
	if len(values) == 0 {
		return true
	}
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

func (f Filter) matchesFailure(ev ingest.FailureEvent) bool {
	if !f.Start.IsZero() && ev.Start.Before(f.Start) {
		return false
	}
	if !f.End.IsZero() && ev.Start.After(f.End) {
		return false
	}
	return selected(f.Fleets, ev.Fleet) &&
		selected(f.Equipment, ev.Equipment) &&
		selected(f.Systems, ev.System) &&
		selected(f.Assemblies, ev.Assembly) &&
		selected(f.Items, ev.Item)
}

func (f Filter) matchesIndicator(rec ingest.IndicatorRecord) bool {
	if !f.Start.IsZero() && !rec.PeriodEnd.IsZero() && rec.PeriodEnd.Before(f.Start) {
		return false
	}
	if !f.End.IsZero() && !rec.PeriodEnd.IsZero() && rec.PeriodEnd.After(f.End) {
		return false
	}
	return selected(f.Fleets, rec.Fleet) && selected(f.Equipment, rec.Equipment)
}

// Apply returns the filtered view of the dataset. The result is a new
// Dataset value; the underlying records are shared and stay read-only.
func (d *Dataset) Apply(f Filter) *Dataset {
	out := &Dataset{LoadedAt: d.LoadedAt}
	for _, ev := range d.Failures {
		if f.matchesFailure(ev) {
			out.Failures = append(out.Failures, ev)
		}
	}
	for _, rec := range d.Indicators {
		if f.matchesIndicator(rec) {
			out.Indicators = append(out.Indicators, rec)
		}
	}
	return out
}

// LatestIndicators collapses indicator snapshots to the chronologically
// last record per (equipment, fleet): indicators model point-in-time
// state, not additive quantities. Output order is deterministic.
func (d *Dataset) LatestIndicators() []ingest.IndicatorRecord {
	type key struct{ equipment, fleet string }
	latest := make(map[key]ingest.IndicatorRecord)
	for _, rec := range d.Indicators {
		k := key{rec.Equipment, rec.Fleet}
		prev, ok := latest[k]
		if !ok || rec.PeriodEnd.After(prev.PeriodEnd) {
			latest[k] = rec
		}
	}

	out := make([]ingest.IndicatorRecord, 0, len(latest))
	for _, rec := range latest {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Equipment != out[j].Equipment {
			return out[i].Equipment < out[j].Equipment
		}
		return out[i].Fleet < out[j].Fleet
	})
	return out
}

// WindowHours is the observation window implied by the filter, falling
// back to the span of the failure data when the range is open-ended.
func (f Filter) WindowHours(d *Dataset) float64 {
	start, end := f.Start, f.End
	if start.IsZero() || end.IsZero() {
		dataStart, dataEnd := d.Span()
		if start.IsZero() {
			start = dataStart
		}
		if end.IsZero() {
			end = dataEnd
		}
	}
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return 0
	}
	return end.Sub(start).Hours()
}

// ReferenceTime is the anchor for "time since last failure": the filter
// end when bounded, otherwise the current time.
func (f Filter) ReferenceTime() time.Time {
	if !f.End.IsZero() {
		return f.End
	}
	return time.Now()
}

// Span returns the earliest start and latest end across all failures.
func (d *Dataset) Span() (start, end time.Time) {
	for _, ev := range d.Failures {
		if start.IsZero() || ev.Start.Before(start) {
			start = ev.Start
		}
		if end.IsZero() || ev.End.After(end) {
			end = ev.End
		}
	}
	return start, end
}

// Fleets returns the distinct fleet ids in the failure data, sorted.
func (d *Dataset) Fleets() []string { return d.distinct(func(ev ingest.FailureEvent) string { return ev.Fleet }) }

// EquipmentIDs returns the distinct equipment ids, sorted.
func (d *Dataset) EquipmentIDs() []string {
	return d.distinct(func(ev ingest.FailureEvent) string { return ev.Equipment })
}

func (d *Dataset) distinct(key func(ingest.FailureEvent) string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, ev := range d.Failures {
		k := key(ev)
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
