package report

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/vigia-platform/vigia/internal/dataset"
	"github.com/vigia-platform/vigia/internal/ingest"
	"github.com/vigia-platform/vigia/internal/knowledge"
)

func evt(equip, item, cause string, day int, hours float64) ingest.FailureEvent {
	start := time.Date(2024, 3, day, 8, 0, 0, 0, time.UTC)
	return ingest.FailureEvent{
		Equipment:     equip,
		Fleet:         "Frota A",
		System:        "Motor",
		Assembly:      "Bloco",
		Item:          item,
		Start:         start,
		End:           start.Add(time.Duration(hours * float64(time.Hour))),
		DurationHours: hours,
		Cause:         cause,
	}
}

func testOptions() Options {
	return Options{
		WindowHours:        720,
		Ref:                time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		RiskThreshold:      0.8,
		ImpactMediumHours:  8,
		ImpactHighHours:    24,
		TargetAvailability: 90,
	}
}

func TestImpactFor(t *testing.T) {
	tests := []struct {
		hours float64
		want  string
	}{
		{2, "low"},
		{8, "low"},
		{8.5, "medium"},
		{24, "medium"},
		{25, "high"},
		{200, "high"},
	}
	for _, tt := range tests {
		if got := ImpactFor(tt.hours, 8, 24); got != tt.want {
			t.Errorf("ImpactFor(%v) = %q, want %q", tt.hours, got, tt.want)
		}
	}
}

func TestAssemble(t *testing.T) {
	ds := dataset.New([]ingest.FailureEvent{
		evt("CAM-01", "Pistão", "desgaste", 1, 30),
		evt("CAM-01", "Pistão", "desgaste", 5, 10),
		evt("CAM-02", "Selo", "vazamento", 2, 4),
	}, []ingest.IndicatorRecord{
		{Equipment: "CAM-01", Fleet: "Frota A",
			Metrics: map[string]float64{ingest.IndAvailability: 85}},
	})

	data := Assemble(context.Background(), ds, knowledge.NewMatcher(nil), testOptions())

	if data.Events != 3 {
		t.Fatalf("events = %d, want 3", data.Events)
	}
	if len(data.SectionErrors) != 0 {
		t.Fatalf("unexpected section errors: %v", data.SectionErrors)
	}
	if len(data.TopEquipment) != 2 || data.TopEquipment[0].Equipment != "CAM-01" {
		t.Fatalf("top equipment = %+v, want CAM-01 first", data.TopEquipment)
	}
	if data.TopEquipment[0].TopItem != "Pistão" {
		t.Errorf("top item = %q, want Pistão", data.TopEquipment[0].TopItem)
	}
	if len(data.Timeline) != 3 || data.Timeline[0].DurationHours != 30 {
		t.Fatalf("timeline = %+v, want longest stoppage first", data.Timeline)
	}
	if data.Timeline[0].Impact != "high" || data.Timeline[2].Impact != "low" {
		t.Errorf("impact bands wrong: %+v", data.Timeline)
	}
	if len(data.Causes) != 2 || data.Causes[0].Cause != "desgaste" {
		t.Fatalf("causes = %+v", data.Causes)
	}
	if len(data.Availability) != 2 {
		t.Fatalf("availability rows = %d, want 2", len(data.Availability))
	}
	if data.Indicators[ingest.IndAvailability] != 85 {
		t.Errorf("indicator summary = %v", data.Indicators)
	}
}

func TestAssembleEmptyDataset(t *testing.T) {
	data := Assemble(context.Background(), dataset.New(nil, nil), knowledge.NewMatcher(nil), testOptions())
	if data.Events != 0 {
		t.Fatalf("events = %d, want 0", data.Events)
	}
	if _, ok := data.SectionErrors["failures"]; !ok {
		t.Fatalf("empty dataset should record a failures section error, got %v", data.SectionErrors)
	}
}

func TestAssembleCancelledContext(t *testing.T) {
	ds := dataset.New([]ingest.FailureEvent{
		evt("CAM-01", "Pistão", "desgaste", 1, 30),
		evt("CAM-02", "Selo", "vazamento", 2, 4),
	}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	data := Assemble(ctx, ds, knowledge.NewMatcher(nil), testOptions())
	if _, ok := data.SectionErrors["report"]; !ok {
		t.Fatalf("cancelled assembly should record a report error, got %v", data.SectionErrors)
	}

	// The returned data is settled, so rendering it must be safe even
	// after cancellation.
	if _, err := RenderPDF(data); err != nil {
		t.Fatalf("RenderPDF after cancellation: %v", err)
	}
}

func TestRenderPDF(t *testing.T) {
	ds := dataset.New([]ingest.FailureEvent{
		evt("CAM-01", "Pistão", "desgaste", 1, 30),
		evt("CAM-02", "Selo", "vazamento", 2, 4),
	}, nil)
	data := Assemble(context.Background(), ds, knowledge.NewMatcher(nil), testOptions())

	out, err := RenderPDF(data)
	if err != nil {
		t.Fatalf("RenderPDF: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatalf("output does not look like a PDF (first bytes %q)", out[:min(8, len(out))])
	}
}
