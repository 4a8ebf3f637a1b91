package analyzer

import (
	"sort"
	"time"

	"github.com/vigia-platform/vigia/internal/ingest"
)

// EquipmentComparison aggregates failures per equipment for fleet-wide
// side-by-side charts. MTBF is the item-level mean rolled up by
// EquipmentMTBF. Sorted by downtime descending.
func EquipmentComparison(events []ingest.FailureEvent, windowHours float64) []EquipmentKPI {
	type accum struct {
		fleet    string
		downtime float64
		count    int
	}
	byEquip := make(map[string]*accum)
	var order []string
	for _, ev := range events {
		a, ok := byEquip[ev.Equipment]
		if !ok {
			a = &accum{fleet: ev.Fleet}
			byEquip[ev.Equipment] = a
			order = append(order, ev.Equipment)
		}
		a.downtime += ev.DurationHours
		a.count++
	}
	mtbf := EquipmentMTBF(events, windowHours)

	rows := make([]EquipmentKPI, 0, len(order))
	for _, equip := range order {
		a := byEquip[equip]
		rows = append(rows, EquipmentKPI{
			Equipment:     equip,
			Fleet:         a.fleet,
			DowntimeHours: a.downtime,
			Occurrences:   a.count,
			MTTRHours:     a.downtime / float64(a.count),
			MTBFHours:     mtbf[equip],
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].DowntimeHours > rows[j].DowntimeHours
	})
	return rows
}

// FleetComparison rolls the equipment comparison up one level: totals per
// fleet, MTBF as the mean over the fleet's equipment.
func FleetComparison(events []ingest.FailureEvent, windowHours float64) []FleetKPI {
	equip := EquipmentComparison(events, windowHours)

	type accum struct {
		downtime float64
		count    int
		mtbfSum  float64
		units    int
	}
	byFleet := make(map[string]*accum)
	var order []string
	for _, e := range equip {
		a, ok := byFleet[e.Fleet]
		if !ok {
			a = &accum{}
			byFleet[e.Fleet] = a
			order = append(order, e.Fleet)
		}
		a.downtime += e.DowntimeHours
		a.count += e.Occurrences
		a.mtbfSum += e.MTBFHours
		a.units++
	}

	rows := make([]FleetKPI, 0, len(order))
	for _, fleet := range order {
		a := byFleet[fleet]
		rows = append(rows, FleetKPI{
			Fleet:         fleet,
			DowntimeHours: a.downtime,
			Occurrences:   a.count,
			MTTRHours:     a.downtime / float64(a.count),
			MTBFHours:     a.mtbfSum / float64(a.units),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].DowntimeHours > rows[j].DowntimeHours
	})
	return rows
}

// DailyDowntime sums repair hours per calendar day and equipment, ordered
// chronologically then by equipment id.
func DailyDowntime(events []ingest.FailureEvent) []TemporalPoint {
	type key struct {
		day   string
		equip string
	}
	accum := make(map[key]*TemporalPoint)
	var order []key
	for _, ev := range events {
		day := ev.Start.Truncate(24 * time.Hour)
		k := key{day: day.Format("2006-01-02"), equip: ev.Equipment}
		p, ok := accum[k]
		if !ok {
			p = &TemporalPoint{Date: day, Equipment: ev.Equipment}
			accum[k] = p
			order = append(order, k)
		}
		p.DowntimeHours += ev.DurationHours
	}

	rows := make([]TemporalPoint, 0, len(order))
	for _, k := range order {
		rows = append(rows, *accum[k])
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].Date.Equal(rows[j].Date) {
			return rows[i].Date.Before(rows[j].Date)
		}
		return rows[i].Equipment < rows[j].Equipment
	})
	return rows
}

// Canonical axis labels for the failure-pattern heatmaps.
var (
	weekdayNames = []string{
		"Segunda-feira", "Terça-feira", "Quarta-feira", "Quinta-feira",
		"Sexta-feira", "Sábado", "Domingo",
	}
	monthNames = []string{
		"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
		"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
	}
	hourNames = []string{
		"00", "01", "02", "03", "04", "05", "06", "07", "08", "09", "10",
		"11", "12", "13", "14", "15", "16", "17", "18", "19", "20", "21",
		"22", "23",
	}
)

// weekdayIndex maps time.Weekday to the Monday-first label order.
func weekdayIndex(ev ingest.FailureEvent) int {
	return (int(ev.Start.Weekday()) + 6) % 7
}

func buildHeatmap(events []ingest.FailureEvent, xs, ys []string, cellOf func(ingest.FailureEvent) (x, y int)) []HeatmapCell {
	cells := make([]HeatmapCell, len(xs)*len(ys))
	for yi, y := range ys {
		for xi, x := range xs {
			cells[yi*len(xs)+xi] = HeatmapCell{X: x, Y: y}
		}
	}
	for _, ev := range events {
		xi, yi := cellOf(ev)
		c := &cells[yi*len(xs)+xi]
		c.DowntimeHours += ev.DurationHours
		c.Failures++
	}
	return cells
}

// HeatmapWeekdayMonth crosses weekday against month, summing downtime and
// counting failures per cell. Every cell of the grid is emitted, including
// empty ones, so callers can render a dense matrix.
func HeatmapWeekdayMonth(events []ingest.FailureEvent) []HeatmapCell {
	return buildHeatmap(events, monthNames, weekdayNames,
		func(ev ingest.FailureEvent) (int, int) {
			return int(ev.Start.Month()) - 1, weekdayIndex(ev)
		})
}

// HeatmapHourWeekday crosses start hour against weekday.
func HeatmapHourWeekday(events []ingest.FailureEvent) []HeatmapCell {
	return buildHeatmap(events, hourNames, weekdayNames,
		func(ev ingest.FailureEvent) (int, int) {
			return ev.Start.Hour(), weekdayIndex(ev)
		})
}

// Availability reports achieved physical availability per equipment. The
// indicator sheet value wins when present; otherwise the estimate derived
// from logged downtime over the window stands in. Gap is measured against
// the target using whichever value applies.
func Availability(events []ingest.FailureEvent, latest []ingest.IndicatorRecord, windowHours, targetDF float64) []AvailabilityRow {
	downtime := make(map[string]float64)
	var order []string
	for _, ev := range events {
		if _, ok := downtime[ev.Equipment]; !ok {
			order = append(order, ev.Equipment)
		}
		downtime[ev.Equipment] += ev.DurationHours
	}

	indicator := make(map[string]float64)
	for _, rec := range latest {
		if df, ok := rec.Metric(ingest.IndAvailability); ok {
			indicator[rec.Equipment] = df
			if _, seen := downtime[rec.Equipment]; !seen {
				downtime[rec.Equipment] = 0
				order = append(order, rec.Equipment)
			}
		}
	}

	rows := make([]AvailabilityRow, 0, len(order))
	for _, equip := range order {
		row := AvailabilityRow{Equipment: equip, TargetDF: targetDF}
		if windowHours > 0 {
			est := (1 - downtime[equip]/windowHours) * 100
			if est < 0 {
				est = 0
			}
			row.EstimatedDF = est
		}
		achieved := row.EstimatedDF
		if df, ok := indicator[equip]; ok {
			row.IndicatorDF = df
			row.HasIndicator = true
			achieved = df
		}
		row.GapDF = targetDF - achieved
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		ai, aj := rows[i].EstimatedDF, rows[j].EstimatedDF
		if rows[i].HasIndicator {
			ai = rows[i].IndicatorDF
		}
		if rows[j].HasIndicator {
			aj = rows[j].IndicatorDF
		}
		return ai < aj
	})
	return rows
}

// HeadlineIndicators are the indicator columns summarized on the overview.
var HeadlineIndicators = []string{
	ingest.IndAvailability, ingest.IndUtilization, ingest.IndMTBF,
	ingest.IndMTTR, ingest.IndOEE, ingest.IndProductivity,
}

// SummarizeIndicators averages the headline indicators over the latest
// record of every equipment/fleet pair. Indicators absent from every
// record are left out of the map.
func SummarizeIndicators(latest []ingest.IndicatorRecord) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, rec := range latest {
		for _, name := range HeadlineIndicators {
			if v, ok := rec.Metric(name); ok {
				sums[name] += v
				counts[name]++
			}
		}
	}
	out := make(map[string]float64, len(sums))
	for name, sum := range sums {
		out[name] = sum / float64(counts[name])
	}
	return out
}
