package analyzer

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/vigia-platform/vigia/internal/ingest"
)

func TestEquipmentComparison(t *testing.T) {
	events := []ingest.FailureEvent{
		evt("CAM-01", "Motor", "Bloco", "Pistão", "desgaste", 1, 10),
		evt("CAM-01", "Motor", "Bloco", "Pistão", "desgaste", 3, 6),
		evt("CAM-02", "Hidráulico", "Bomba", "Selo", "vazamento", 2, 4),
	}
	rows := EquipmentComparison(events, 720)
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].Equipment != "CAM-01" || rows[0].DowntimeHours != 16 {
		t.Fatalf("first row = %+v, want CAM-01 with 16h", rows[0])
	}
	if rows[0].MTTRHours != 8 || rows[0].Occurrences != 2 {
		t.Errorf("CAM-01 MTTR/occurrences = %v/%d, want 8/2", rows[0].MTTRHours, rows[0].Occurrences)
	}
}

func TestFleetComparison(t *testing.T) {
	a := evt("CAM-01", "Motor", "Bloco", "Pistão", "desgaste", 1, 10)
	b := evt("CAM-02", "Motor", "Bloco", "Anel", "desgaste", 2, 6)
	c := evt("ESC-01", "Motor", "Bloco", "Pistão", "desgaste", 3, 2)
	c.Fleet = "Frota B"

	rows := FleetComparison([]ingest.FailureEvent{a, b, c}, 720)
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].Fleet != "Frota A" || rows[0].DowntimeHours != 16 || rows[0].Occurrences != 2 {
		t.Fatalf("first fleet row = %+v", rows[0])
	}
}

func TestDailyDowntime(t *testing.T) {
	mar1a := evt("CAM-01", "Motor", "Bloco", "Pistão", "desgaste", 1, 2)
	mar1b := evt("CAM-01", "Motor", "Bloco", "Anel", "desgaste", 1, 3)
	mar2 := evt("CAM-01", "Motor", "Bloco", "Pistão", "desgaste", 2, 4)

	points := DailyDowntime([]ingest.FailureEvent{mar2, mar1a, mar1b})
	want := []TemporalPoint{
		{Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Equipment: "CAM-01", DowntimeHours: 5},
		{Date: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), Equipment: "CAM-01", DowntimeHours: 4},
	}
	if diff := cmp.Diff(want, points); diff != "" {
		t.Fatalf("daily downtime mismatch (-want +got):\n%s", diff)
	}
}

func TestHeatmapWeekdayMonth(t *testing.T) {
	// 2024-03-01 is a Friday.
	events := []ingest.FailureEvent{
		evt("CAM-01", "Motor", "Bloco", "Pistão", "desgaste", 1, 5),
	}
	cells := HeatmapWeekdayMonth(events)
	if len(cells) != 7*12 {
		t.Fatalf("got %d cells, want the full 7x12 grid", len(cells))
	}
	var hit *HeatmapCell
	for i := range cells {
		if cells[i].Failures > 0 {
			if hit != nil {
				t.Fatalf("more than one populated cell")
			}
			hit = &cells[i]
		}
	}
	if hit == nil || hit.X != "Março" || hit.Y != "Sexta-feira" || hit.DowntimeHours != 5 {
		t.Fatalf("populated cell = %+v, want Sexta-feira x Março with 5h", hit)
	}
}

func TestHeatmapHourWeekday(t *testing.T) {
	events := []ingest.FailureEvent{
		evt("CAM-01", "Motor", "Bloco", "Pistão", "desgaste", 1, 5), // 08:00 Friday
	}
	cells := HeatmapHourWeekday(events)
	if len(cells) != 7*24 {
		t.Fatalf("got %d cells, want the full 7x24 grid", len(cells))
	}
	for _, c := range cells {
		if c.Failures > 0 {
			if c.X != "08" || c.Y != "Sexta-feira" {
				t.Fatalf("populated cell = %+v, want hour 08 on Sexta-feira", c)
			}
			return
		}
	}
	t.Fatal("no populated cell found")
}

func TestAvailability(t *testing.T) {
	events := []ingest.FailureEvent{
		evt("CAM-01", "Motor", "Bloco", "Pistão", "desgaste", 1, 72), // 10% of 720h
	}
	latest := []ingest.IndicatorRecord{
		{Equipment: "CAM-01", Fleet: "Frota A",
			Metrics: map[string]float64{ingest.IndAvailability: 88}},
	}

	rows := Availability(events, latest, 720, 90)
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	r := rows[0]
	if r.EstimatedDF != 90 {
		t.Errorf("estimated DF = %v, want 90", r.EstimatedDF)
	}
	if !r.HasIndicator || r.IndicatorDF != 88 {
		t.Errorf("indicator DF = %v (%v), want 88", r.IndicatorDF, r.HasIndicator)
	}
	// Gap uses the indicator value when present.
	if r.GapDF != 2 {
		t.Errorf("gap = %v, want 2", r.GapDF)
	}
}

func TestAvailabilityEstimateClampedAtZero(t *testing.T) {
	events := []ingest.FailureEvent{
		evt("CAM-01", "Motor", "Bloco", "Pistão", "desgaste", 1, 200),
	}
	rows := Availability(events, nil, 100, 90)
	if rows[0].EstimatedDF != 0 {
		t.Fatalf("estimate = %v, want clamp at 0", rows[0].EstimatedDF)
	}
}

func TestSummarizeIndicators(t *testing.T) {
	latest := []ingest.IndicatorRecord{
		{Equipment: "CAM-01", Metrics: map[string]float64{
			ingest.IndAvailability: 90, ingest.IndMTBF: 100}},
		{Equipment: "CAM-02", Metrics: map[string]float64{
			ingest.IndAvailability: 80}},
	}
	got := SummarizeIndicators(latest)
	if got[ingest.IndAvailability] != 85 {
		t.Errorf("availability mean = %v, want 85", got[ingest.IndAvailability])
	}
	// MTBF averaged only over records that carry it.
	if got[ingest.IndMTBF] != 100 {
		t.Errorf("mtbf mean = %v, want 100", got[ingest.IndMTBF])
	}
	if _, ok := got[ingest.IndOEE]; ok {
		t.Errorf("OEE absent everywhere should not appear in the summary")
	}
}
