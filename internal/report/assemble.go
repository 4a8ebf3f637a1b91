// Package report assembles the executive maintenance report and renders
// it to PDF.
package report

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vigia-platform/vigia/internal/analyzer"
	"github.com/vigia-platform/vigia/internal/dataset"
	"github.com/vigia-platform/vigia/internal/knowledge"
	"github.com/vigia-platform/vigia/pkg/logger"
)

// Options carries the thresholds the report sections need.
type Options struct {
	WindowHours        float64
	Ref                time.Time
	RiskThreshold      float64
	ImpactMediumHours  float64
	ImpactHighHours    float64
	TargetAvailability float64
}

// TopEquipmentRow is one line of the critical-equipment ranking: the
// equipment's totals plus the hierarchy entries it fails on most often.
type TopEquipmentRow struct {
	Equipment     string  `json:"equipment"`
	Fleet         string  `json:"fleet"`
	DowntimeHours float64 `json:"downtime_hours"`
	Occurrences   int     `json:"occurrences"`
	MTTRHours     float64 `json:"mttr_hours"`
	TopSystem     string  `json:"top_system"`
	TopAssembly   string  `json:"top_assembly"`
	TopItem       string  `json:"top_item"`
}

// TimelineEvent is one of the longest stoppages with its impact band.
type TimelineEvent struct {
	Equipment     string    `json:"equipment"`
	Item          string    `json:"item"`
	Cause         string    `json:"cause"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	DurationHours float64   `json:"duration_hours"`
	Impact        string    `json:"impact"`
}

// Data is the assembled report: every section precomputed and bounded so
// the renderer only formats. SectionErrors records sections that could
// not be built; the rest of the report still stands.
type Data struct {
	GeneratedAt   time.Time                   `json:"generated_at"`
	WindowHours   float64                     `json:"window_hours"`
	Events        int                         `json:"events"`
	TopEquipment  []TopEquipmentRow          `json:"top_equipment"`
	Systems       []analyzer.HierarchyKPI    `json:"systems"`
	Assemblies    []analyzer.HierarchyKPI    `json:"assemblies"`
	Items         []analyzer.HierarchyKPI    `json:"items"`
	Timeline      []TimelineEvent            `json:"timeline"`
	Causes        []analyzer.CauseSummary    `json:"causes"`
	Availability  []analyzer.AvailabilityRow `json:"availability"`
	Indicators    map[string]float64         `json:"indicators"`
	SectionErrors map[string]string          `json:"section_errors,omitempty"`
}

// ImpactFor bands a stoppage duration: up to the medium bound is low
// impact, up to the high bound medium, beyond it high.
func ImpactFor(durationHours, mediumHours, highHours float64) string {
	switch {
	case durationHours <= mediumHours:
		return "low"
	case durationHours <= highHours:
		return "medium"
	default:
		return "high"
	}
}

// Assemble computes every report section concurrently over the filtered
// dataset. A failing section lands in SectionErrors instead of aborting
// the report.
func Assemble(ctx context.Context, ds *dataset.Dataset, matcher *knowledge.Matcher, opts Options) *Data {
	start := time.Now()
	data := &Data{
		GeneratedAt:   opts.Ref,
		WindowHours:   opts.WindowHours,
		Events:        len(ds.Failures),
		SectionErrors: make(map[string]string),
	}
	if len(ds.Failures) == 0 {
		data.SectionErrors["failures"] = "no failure events in the selected range"
		data.Indicators = analyzer.SummarizeIndicators(ds.LatestIndicators())
		return data
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	section := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				mu.Lock()
				data.SectionErrors[name] = err.Error()
				mu.Unlock()
				return
			}
			if err := fn(); err != nil {
				logger.Warn("Report section skipped",
					zap.String("section", name),
					zap.Error(err),
				)
				mu.Lock()
				data.SectionErrors[name] = err.Error()
				mu.Unlock()
			}
		}()
	}

	section("equipment", func() error {
		data.TopEquipment = topEquipment(ds, 10)
		return nil
	})
	section("hierarchy", func() error {
		data.Systems = topN(analyzer.HierarchyKPIs(ds.Failures, analyzer.LevelSystem), 10)
		data.Assemblies = topN(analyzer.HierarchyKPIs(ds.Failures, analyzer.LevelAssembly), 10)
		data.Items = topN(analyzer.HierarchyKPIs(ds.Failures, analyzer.LevelItem), 10)
		return nil
	})
	section("timeline", func() error {
		data.Timeline = longestStoppages(ds, opts, 20)
		return nil
	})
	section("causes", func() error {
		data.Causes = analyzer.TopCauses(ds.Failures, 5, matcher)
		return nil
	})
	section("availability", func() error {
		data.Availability = analyzer.Availability(
			ds.Failures, ds.LatestIndicators(), opts.WindowHours, opts.TargetAvailability)
		return nil
	})
	section("indicators", func() error {
		data.Indicators = analyzer.SummarizeIndicators(ds.LatestIndicators())
		return nil
	})

	// Every section goroutine must finish before data is handed to the
	// caller, or the renderer would read fields still being written.
	wg.Wait()
	if err := ctx.Err(); err != nil {
		data.SectionErrors["report"] = err.Error()
	}

	logger.Info("Report assembled",
		zap.Int("events", data.Events),
		zap.Int("sections_failed", len(data.SectionErrors)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return data
}

// topEquipment ranks equipment by total downtime and annotates each with
// its most frequent system, assembly and item.
func topEquipment(ds *dataset.Dataset, n int) []TopEquipmentRow {
	type accum struct {
		fleet      string
		downtime   float64
		count      int
		systems    map[string]int
		assemblies map[string]int
		items      map[string]int
	}
	byEquip := make(map[string]*accum)
	var order []string
	for _, ev := range ds.Failures {
		a, ok := byEquip[ev.Equipment]
		if !ok {
			a = &accum{
				fleet:      ev.Fleet,
				systems:    make(map[string]int),
				assemblies: make(map[string]int),
				items:      make(map[string]int),
			}
			byEquip[ev.Equipment] = a
			order = append(order, ev.Equipment)
		}
		a.downtime += ev.DurationHours
		a.count++
		a.systems[ev.System]++
		a.assemblies[ev.Assembly]++
		a.items[ev.Item]++
	}

	mostFrequent := func(counts map[string]int) string {
		var best string
		var bestCount int
		keys := make([]string, 0, len(counts))
		for k := range counts {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if counts[k] > bestCount {
				best, bestCount = k, counts[k]
			}
		}
		return best
	}

	rows := make([]TopEquipmentRow, 0, len(order))
	for _, equip := range order {
		a := byEquip[equip]
		rows = append(rows, TopEquipmentRow{
			Equipment:     equip,
			Fleet:         a.fleet,
			DowntimeHours: a.downtime,
			Occurrences:   a.count,
			MTTRHours:     a.downtime / float64(a.count),
			TopSystem:     mostFrequent(a.systems),
			TopAssembly:   mostFrequent(a.assemblies),
			TopItem:       mostFrequent(a.items),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].DowntimeHours > rows[j].DowntimeHours
	})
	if len(rows) > n {
		rows = rows[:n]
	}
	return rows
}

func topN(rows []analyzer.HierarchyKPI, n int) []analyzer.HierarchyKPI {
	if len(rows) > n {
		rows = rows[:n]
	}
	return rows
}

// longestStoppages ranks events by duration and bands their impact.
func longestStoppages(ds *dataset.Dataset, opts Options, n int) []TimelineEvent {
	events := make([]TimelineEvent, 0, len(ds.Failures))
	for _, ev := range ds.Failures {
		events = append(events, TimelineEvent{
			Equipment:     ev.Equipment,
			Item:          ev.Item,
			Cause:         ev.Cause,
			Start:         ev.Start,
			End:           ev.End,
			DurationHours: ev.DurationHours,
			Impact:        ImpactFor(ev.DurationHours, opts.ImpactMediumHours, opts.ImpactHighHours),
		})
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].DurationHours > events[j].DurationHours
	})
	if len(events) > n {
		events = events[:n]
	}
	return events
}
