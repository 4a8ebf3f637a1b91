package analyzer

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/vigia-platform/vigia/internal/ingest"
)

func evt(equip, system, assembly, item, cause string, day int, hours float64) ingest.FailureEvent {
	start := time.Date(2024, 3, day, 8, 0, 0, 0, time.UTC)
	return ingest.FailureEvent{
		Equipment:     equip,
		Fleet:         "Frota A",
		System:        system,
		Assembly:      assembly,
		Item:          item,
		Start:         start,
		End:           start.Add(time.Duration(hours * float64(time.Hour))),
		DurationHours: hours,
		Cause:         cause,
	}
}

func TestHierarchyKPIs(t *testing.T) {
	events := []ingest.FailureEvent{
		evt("CAM-01", "Motor", "Bloco", "Pistão", "desgaste", 1, 4),
		evt("CAM-02", "Motor", "Bloco", "Pistão", "desgaste", 2, 6),
		evt("CAM-01", "Hidráulico", "Bomba", "Selo", "vazamento", 3, 2),
	}

	got := HierarchyKPIs(events, LevelSystem)
	want := []HierarchyKPI{
		{Group: "Motor", MTTRHours: 5, TotalHours: 10, Occurrences: 2, EquipmentCount: 2},
		{Group: "Hidráulico", MTTRHours: 2, TotalHours: 2, Occurrences: 1, EquipmentCount: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("system KPIs mismatch (-want +got):\n%s", diff)
	}
}

func TestHierarchyKPIsIdempotent(t *testing.T) {
	events := []ingest.FailureEvent{
		evt("CAM-01", "Motor", "Bloco", "Pistão", "desgaste", 1, 4),
		evt("CAM-02", "Elétrico", "Painel", "Relé", "curto", 2, 4),
	}
	first := HierarchyKPIs(events, LevelItem)
	second := HierarchyKPIs(events, LevelItem)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("same input produced different output (-first +second):\n%s", diff)
	}
}

func TestParetoCumulative(t *testing.T) {
	events := []ingest.FailureEvent{
		evt("CAM-01", "Motor", "Bloco", "Pistão", "desgaste", 1, 50),
		evt("CAM-01", "Motor", "Bloco", "Anel", "desgaste", 2, 30),
		evt("CAM-01", "Motor", "Bloco", "Junta", "vazamento", 3, 20),
	}

	rows := Pareto(events, LevelItem)
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if rows[0].Group != "Pistão" || rows[0].CumulativePct != 50 {
		t.Errorf("first row = %+v, want Pistão at 50%%", rows[0])
	}

	prev := 0.0
	for _, row := range rows {
		if row.CumulativePct < prev {
			t.Errorf("cumulative pct decreased at %q: %v < %v", row.Group, row.CumulativePct, prev)
		}
		prev = row.CumulativePct
	}
	if rows[len(rows)-1].CumulativePct != 100 {
		t.Errorf("last cumulative pct = %v, want exactly 100", rows[len(rows)-1].CumulativePct)
	}
}

func TestParetoZeroTotal(t *testing.T) {
	events := []ingest.FailureEvent{
		evt("CAM-01", "Motor", "Bloco", "Pistão", "desgaste", 1, 0),
	}
	rows := Pareto(events, LevelItem)
	if len(rows) != 1 || rows[0].CumulativePct != 0 {
		t.Fatalf("zero-hour total should yield 0%%, got %+v", rows)
	}
}

func TestParseLevel(t *testing.T) {
	for _, valid := range []string{"system", "assembly", "item"} {
		if _, err := ParseLevel(valid); err != nil {
			t.Errorf("ParseLevel(%q) unexpected error: %v", valid, err)
		}
	}
	if _, err := ParseLevel("fleet"); err == nil {
		t.Error("ParseLevel(\"fleet\") should fail")
	}
}
