package analyzer

import (
	"sort"

	"github.com/vigia-platform/vigia/internal/ingest"
)

func levelKey(level Level, ev ingest.FailureEvent) string {
	switch level {
	case LevelSystem:
		return ev.System
	case LevelAssembly:
		return ev.Assembly
	default:
		return ev.Item
	}
}

type hierarchyAccum struct {
	total     float64
	count     int
	equipment map[string]struct{}
}

// HierarchyKPIs aggregates failure events at the chosen hierarchy level.
// One row per group value: mean and total repair hours, occurrence count
// and the number of distinct equipment touched. Rows are sorted by total
// hours descending; ties keep first-seen order.
func HierarchyKPIs(events []ingest.FailureEvent, level Level) []HierarchyKPI {
	accum := make(map[string]*hierarchyAccum)
	var order []string
	for _, ev := range events {
		key := levelKey(level, ev)
		a, ok := accum[key]
		if !ok {
			a = &hierarchyAccum{equipment: make(map[string]struct{})}
			accum[key] = a
			order = append(order, key)
		}
		a.total += ev.DurationHours
		a.count++
		a.equipment[ev.Equipment] = struct{}{}
	}

	rows := make([]HierarchyKPI, 0, len(order))
	for _, key := range order {
		a := accum[key]
		rows = append(rows, HierarchyKPI{
			Group:          key,
			MTTRHours:      a.total / float64(a.count),
			TotalHours:     a.total,
			Occurrences:    a.count,
			EquipmentCount: len(a.equipment),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].TotalHours > rows[j].TotalHours
	})
	return rows
}

// Pareto builds the Pareto table for a hierarchy level: groups sorted by
// total repair hours descending with the running cumulative percentage of
// the grand total. When the grand total is positive the last row closes at
// exactly 100.
func Pareto(events []ingest.FailureEvent, level Level) []ParetoRow {
	kpis := HierarchyKPIs(events, level)
	var grand float64
	for _, k := range kpis {
		grand += k.TotalHours
	}

	rows := make([]ParetoRow, 0, len(kpis))
	var running float64
	for _, k := range kpis {
		running += k.TotalHours
		pct := 0.0
		if grand > 0 {
			pct = running / grand * 100
		}
		rows = append(rows, ParetoRow{
			Group:         k.Group,
			TotalHours:    k.TotalHours,
			CumulativePct: pct,
		})
	}
	if grand > 0 && len(rows) > 0 {
		rows[len(rows)-1].CumulativePct = 100
	}
	return rows
}
