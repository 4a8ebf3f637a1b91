package analyzer

import (
	"sort"

	"github.com/vigia-platform/vigia/internal/ingest"
	"github.com/vigia-platform/vigia/internal/knowledge"
)

// TopCauses ranks failure causes by occurrence count and attaches the
// knowledge-base recommendation plus the equipment each cause hits most.
// n caps the number of causes returned; n <= 0 returns all.
func TopCauses(events []ingest.FailureEvent, n int, matcher *knowledge.Matcher) []CauseSummary {
	type accum struct {
		count   int
		byEquip map[string]int
		order   []string
	}
	byCause := make(map[string]*accum)
	var order []string
	for _, ev := range events {
		a, ok := byCause[ev.Cause]
		if !ok {
			a = &accum{byEquip: make(map[string]int)}
			byCause[ev.Cause] = a
			order = append(order, ev.Cause)
		}
		a.count++
		if _, seen := a.byEquip[ev.Equipment]; !seen {
			a.order = append(a.order, ev.Equipment)
		}
		a.byEquip[ev.Equipment]++
	}

	rows := make([]CauseSummary, 0, len(order))
	for _, cause := range order {
		a := byCause[cause]
		equip := make([]EquipmentCount, 0, len(a.order))
		for _, e := range a.order {
			equip = append(equip, EquipmentCount{Equipment: e, Count: a.byEquip[e]})
		}
		sort.SliceStable(equip, func(i, j int) bool {
			return equip[i].Count > equip[j].Count
		})
		if len(equip) > 3 {
			equip = equip[:3]
		}
		rows = append(rows, CauseSummary{
			Cause:          cause,
			Occurrences:    a.count,
			Recommendation: matcher.Recommend(cause),
			TopEquipment:   equip,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Occurrences > rows[j].Occurrences
	})
	if n > 0 && len(rows) > n {
		rows = rows[:n]
	}
	return rows
}

// MCSTable builds the equipment/cause detail table with downtime totals
// and resolved recommendations, sorted by downtime descending. limit caps
// the row count; limit <= 0 returns all pairs.
func MCSTable(events []ingest.FailureEvent, matcher *knowledge.Matcher, limit int) []MCSRow {
	type key struct {
		equip string
		cause string
	}
	type accum struct {
		downtime float64
		count    int
	}
	byPair := make(map[key]*accum)
	var order []key
	for _, ev := range events {
		k := key{equip: ev.Equipment, cause: ev.Cause}
		a, ok := byPair[k]
		if !ok {
			a = &accum{}
			byPair[k] = a
			order = append(order, k)
		}
		a.downtime += ev.DurationHours
		a.count++
	}

	rows := make([]MCSRow, 0, len(order))
	for _, k := range order {
		a := byPair[k]
		rows = append(rows, MCSRow{
			Equipment:      k.equip,
			Cause:          k.cause,
			DowntimeHours:  a.downtime,
			Occurrences:    a.count,
			Recommendation: matcher.Recommend(k.cause),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].DowntimeHours > rows[j].DowntimeHours
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}
