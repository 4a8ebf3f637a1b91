package dataset

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/vigia-platform/vigia/internal/ingest"
)

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
}

func event(equip, fleet, system, item string, start time.Time, hours float64) ingest.FailureEvent {
	return ingest.FailureEvent{
		Equipment:     equip,
		Fleet:         fleet,
		System:        system,
		Assembly:      system + "-conj",
		Item:          item,
		Start:         start,
		End:           start.Add(time.Duration(hours * float64(time.Hour))),
		DurationHours: hours,
		Cause:         "causa",
	}
}

func testDataset() *Dataset {
	return New([]ingest.FailureEvent{
		event("CAM-01", "A", "Motor", "Pistão", day(1), 4),
		event("CAM-02", "A", "Hidráulico", "Selo", day(5), 8),
		event("ESC-01", "B", "Motor", "Pistão", day(10), 2),
	}, nil)
}

func TestApplyFilterByFleet(t *testing.T) {
	ds := testDataset().Apply(Filter{Fleets: []string{"A"}})
	if len(ds.Failures) != 2 {
		t.Fatalf("got %d failures, want 2", len(ds.Failures))
	}
	for _, ev := range ds.Failures {
		if ev.Fleet != "A" {
			t.Errorf("unexpected fleet %q", ev.Fleet)
		}
	}
}

func TestApplyFilterByRange(t *testing.T) {
	ds := testDataset().Apply(Filter{Start: day(2), End: day(7)})
	if len(ds.Failures) != 1 || ds.Failures[0].Equipment != "CAM-02" {
		t.Fatalf("got %+v, want only CAM-02", ds.Failures)
	}
}

func TestApplyEmptyFilterKeepsAll(t *testing.T) {
	ds := testDataset().Apply(Filter{})
	if len(ds.Failures) != 3 {
		t.Fatalf("got %d failures, want 3", len(ds.Failures))
	}
}

func TestLatestIndicators(t *testing.T) {
	indicators := []ingest.IndicatorRecord{
		{Equipment: "CAM-01", Fleet: "A", PeriodEnd: day(10),
			Metrics: map[string]float64{ingest.IndAvailability: 80}},
		{Equipment: "CAM-01", Fleet: "A", PeriodEnd: day(20),
			Metrics: map[string]float64{ingest.IndAvailability: 90}},
		{Equipment: "CAM-02", Fleet: "A", PeriodEnd: day(15),
			Metrics: map[string]float64{ingest.IndAvailability: 85}},
	}
	ds := New(nil, indicators)

	latest := ds.LatestIndicators()
	if len(latest) != 2 {
		t.Fatalf("got %d records, want 2", len(latest))
	}
	if v, _ := latest[0].Metric(ingest.IndAvailability); latest[0].Equipment != "CAM-01" || v != 90 {
		t.Errorf("CAM-01 latest availability = %v, want 90 (last known value)", v)
	}
}

func TestWindowHours(t *testing.T) {
	ds := testDataset()

	bounded := Filter{Start: day(1), End: day(11)}
	if got := bounded.WindowHours(ds); got != 240 {
		t.Errorf("bounded window = %v, want 240", got)
	}

	// Open filter falls back to the data span: day 1 00:00 to day 10 02:00.
	open := Filter{}
	want := ds.Failures[2].End.Sub(ds.Failures[0].Start).Hours()
	if got := open.WindowHours(ds); got != want {
		t.Errorf("open window = %v, want %v", got, want)
	}
}

func TestDistinctAccessors(t *testing.T) {
	ds := testDataset()
	if diff := cmp.Diff([]string{"A", "B"}, ds.Fleets()); diff != "" {
		t.Errorf("fleets mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"CAM-01", "CAM-02", "ESC-01"}, ds.EquipmentIDs()); diff != "" {
		t.Errorf("equipment mismatch (-want +got):\n%s", diff)
	}
}
