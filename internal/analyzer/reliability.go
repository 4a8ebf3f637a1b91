package analyzer

import (
	"math"
	"sort"
	"time"

	"github.com/vigia-platform/vigia/internal/ingest"
)

// MTBFEstimate is the operating-hours heuristic: uptime inside the
// observation window divided by the number of failures. With zero
// occurrences the item is assumed to have survived the whole window.
func MTBFEstimate(windowHours, downtimeHours float64, occurrences int) float64 {
	if occurrences <= 0 {
		return windowHours
	}
	mtbf := (windowHours - downtimeHours) / float64(occurrences)
	if math.IsInf(mtbf, 0) || math.IsNaN(mtbf) {
		return windowHours
	}
	return mtbf
}

// RiskFor labels the chance of an imminent failure. An item is high risk
// once the time since its last failure has consumed the threshold fraction
// of its MTBF.
func RiskFor(occurrences int, hoursSinceLast, mtbfHours, threshold float64) RiskLevel {
	if occurrences <= 0 {
		return RiskNoHistory
	}
	if hoursSinceLast >= threshold*mtbfHours {
		return RiskHigh
	}
	return RiskLow
}

// ItemReliability computes the per-item reliability table: occurrence
// counts, MTTR, the MTBF heuristic and the risk label relative to ref.
// Rows are sorted by MTBF ascending so the most fragile items lead.
func ItemReliability(events []ingest.FailureEvent, windowHours float64, ref time.Time, threshold float64) []ReliabilityProfile {
	type accum struct {
		count    int
		downtime float64
		last     time.Time
	}
	byItem := make(map[string]*accum)
	var order []string
	for _, ev := range events {
		a, ok := byItem[ev.Item]
		if !ok {
			a = &accum{}
			byItem[ev.Item] = a
			order = append(order, ev.Item)
		}
		a.count++
		a.downtime += ev.DurationHours
		if ev.End.After(a.last) {
			a.last = ev.End
		}
	}

	rows := make([]ReliabilityProfile, 0, len(order))
	for _, item := range order {
		a := byItem[item]
		mtbf := MTBFEstimate(windowHours, a.downtime, a.count)
		since := ref.Sub(a.last).Hours()
		rows = append(rows, ReliabilityProfile{
			Item:                  item,
			Occurrences:           a.count,
			TotalDowntimeHours:    a.downtime,
			MTTRHours:             a.downtime / float64(a.count),
			MTBFHours:             mtbf,
			LastFailure:           a.last,
			HoursSinceLastFailure: since,
			Risk:                  RiskFor(a.count, since, mtbf, threshold),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].MTBFHours < rows[j].MTBFHours
	})
	return rows
}

// EquipmentMTBF rolls item MTBF up to equipment: for each equipment, the
// mean MTBF over the distinct items that failed on it. Equipment with no
// failures are absent.
func EquipmentMTBF(events []ingest.FailureEvent, windowHours float64) map[string]float64 {
	items := ItemReliability(events, windowHours, time.Time{}, 0)
	itemMTBF := make(map[string]float64, len(items))
	for _, it := range items {
		itemMTBF[it.Item] = it.MTBFHours
	}

	seen := make(map[string]map[string]struct{})
	for _, ev := range events {
		set, ok := seen[ev.Equipment]
		if !ok {
			set = make(map[string]struct{})
			seen[ev.Equipment] = set
		}
		set[ev.Item] = struct{}{}
	}

	out := make(map[string]float64, len(seen))
	for equip, set := range seen {
		var sum float64
		for item := range set {
			sum += itemMTBF[item]
		}
		out[equip] = sum / float64(len(set))
	}
	return out
}
