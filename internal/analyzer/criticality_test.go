package analyzer

import (
	"math"
	"testing"

	"github.com/vigia-platform/vigia/internal/ingest"
)

func TestBadActorsOrdering(t *testing.T) {
	// CAM-01 is strictly worse on every axis: more downtime, more
	// occurrences, higher MTTR, lower MTBF.
	events := []ingest.FailureEvent{
		evt("CAM-01", "Motor", "Bloco", "Pistão", "desgaste", 1, 30),
		evt("CAM-01", "Motor", "Bloco", "Pistão", "desgaste", 5, 30),
		evt("CAM-01", "Motor", "Bloco", "Pistão", "desgaste", 9, 30),
		evt("CAM-02", "Hidráulico", "Bomba", "Selo", "vazamento", 2, 5),
	}

	rows := BadActors(events, 720)
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].Equipment != "CAM-01" {
		t.Fatalf("worst actor = %q, want CAM-01", rows[0].Equipment)
	}
	if rows[0].Composite != 4 {
		t.Errorf("dominating equipment composite = %v, want 4", rows[0].Composite)
	}
	if rows[1].Composite != 0 {
		t.Errorf("dominated equipment composite = %v, want 0", rows[1].Composite)
	}
}

func TestBadActorsDegenerateRange(t *testing.T) {
	// Identical equipment: every min-max range collapses, all scores 0.
	events := []ingest.FailureEvent{
		evt("CAM-01", "Motor", "Bloco", "Pistão", "desgaste", 1, 10),
		evt("CAM-02", "Motor", "Bloco", "Anel", "desgaste", 2, 10),
	}
	rows := BadActors(events, 720)
	for _, r := range rows {
		if r.Composite != 0 {
			t.Errorf("%s composite = %v, want 0 on degenerate ranges", r.Equipment, r.Composite)
		}
	}
}

func TestBadActorsAggregates(t *testing.T) {
	events := []ingest.FailureEvent{
		evt("CAM-01", "Motor", "Bloco", "Pistão", "desgaste", 1, 12),
		evt("CAM-01", "Motor", "Bloco", "Pistão", "desgaste", 3, 8),
	}
	rows := BadActors(events, 720)
	r := rows[0]
	if r.DowntimeHours != 20 || r.Occurrences != 2 || r.MTTRHours != 10 {
		t.Fatalf("aggregates wrong: %+v", r)
	}
	if math.IsNaN(r.MTBFHours) {
		t.Fatalf("MTBF missing for equipment with failure history")
	}
	if want := (720.0 - 20.0) / 2.0; r.MTBFHours != want {
		t.Errorf("MTBF = %v, want %v", r.MTBFHours, want)
	}
}

func TestMinMaxScore(t *testing.T) {
	if got := minMaxScore(5, 0, 10); got != 0.5 {
		t.Errorf("minMaxScore(5, 0, 10) = %v, want 0.5", got)
	}
	if got := minMaxScore(7, 7, 7); got != 0 {
		t.Errorf("degenerate range should score 0, got %v", got)
	}
}
