package analyzer

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/vigia-platform/vigia/internal/ingest"
)

// minMaxScore normalizes v into [0,1] against the observed range. A
// degenerate range scores zero for everyone.
func minMaxScore(v, lo, hi float64) float64 {
	if hi <= lo {
		return 0
	}
	return (v - lo) / (hi - lo)
}

// BadActors ranks equipment by a composite criticality score: min-max
// normalized downtime, occurrences and MTTR plus inverted MTBF, summed
// without weights. Equipment with no usable MTBF contribute zero on that
// axis. Rows come back sorted by composite descending.
func BadActors(events []ingest.FailureEvent, windowHours float64) []CriticalityScore {
	type accum struct {
		downtime float64
		count    int
	}
	byEquip := make(map[string]*accum)
	var order []string
	for _, ev := range events {
		a, ok := byEquip[ev.Equipment]
		if !ok {
			a = &accum{}
			byEquip[ev.Equipment] = a
			order = append(order, ev.Equipment)
		}
		a.downtime += ev.DurationHours
		a.count++
	}
	if len(order) == 0 {
		return nil
	}

	mtbf := EquipmentMTBF(events, windowHours)

	rows := make([]CriticalityScore, 0, len(order))
	for _, equip := range order {
		a := byEquip[equip]
		m, ok := mtbf[equip]
		if !ok {
			m = math.NaN()
		}
		rows = append(rows, CriticalityScore{
			Equipment:     equip,
			DowntimeHours: a.downtime,
			Occurrences:   a.count,
			MTTRHours:     a.downtime / float64(a.count),
			MTBFHours:     m,
		})
	}

	downs := make([]float64, len(rows))
	occs := make([]float64, len(rows))
	mttrs := make([]float64, len(rows))
	var mtbfs []float64
	for i, r := range rows {
		downs[i] = r.DowntimeHours
		occs[i] = float64(r.Occurrences)
		mttrs[i] = r.MTTRHours
		if !math.IsNaN(r.MTBFHours) {
			mtbfs = append(mtbfs, r.MTBFHours)
		}
	}
	dLo, dHi := floats.Min(downs), floats.Max(downs)
	oLo, oHi := floats.Min(occs), floats.Max(occs)
	tLo, tHi := floats.Min(mttrs), floats.Max(mttrs)
	var mLo, mHi float64
	if len(mtbfs) > 0 {
		mLo, mHi = floats.Min(mtbfs), floats.Max(mtbfs)
	}

	for i := range rows {
		r := &rows[i]
		r.ScoreDowntime = minMaxScore(r.DowntimeHours, dLo, dHi)
		r.ScoreOccurrences = minMaxScore(float64(r.Occurrences), oLo, oHi)
		r.ScoreMTTR = minMaxScore(r.MTTRHours, tLo, tHi)
		if !math.IsNaN(r.MTBFHours) && mHi > mLo {
			// Low MTBF means frequent failures, so the axis is inverted.
			r.ScoreMTBF = 1 - minMaxScore(r.MTBFHours, mLo, mHi)
		}
		r.Composite = r.ScoreDowntime + r.ScoreOccurrences + r.ScoreMTTR + r.ScoreMTBF
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Composite > rows[j].Composite
	})
	return rows
}
