package analyzer

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vigia-platform/vigia/internal/ingest"
)

func durationsToEvents(durations []float64) []ingest.FailureEvent {
	events := make([]ingest.FailureEvent, len(durations))
	for i, d := range durations {
		events[i] = evt("CAM-01", "Motor", "Bloco", "Pistão", "desgaste", 1+i%27, d)
	}
	return events
}

func TestDetectAnomaliesMinimumEvents(t *testing.T) {
	events := durationsToEvents([]float64{1, 2, 3})
	_, err := DetectAnomalies(events, 0.1, 42)
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("got %v, want ErrInsufficientData", err)
	}
}

func TestDetectAnomaliesFlagsOutlier(t *testing.T) {
	durations := []float64{
		1.2, 0.8, 1.5, 1.1, 0.9, 1.3, 1.0, 1.4, 0.7, 1.2,
		1.1, 0.9, 1.3, 1.0, 1.6, 0.8, 1.2, 1.1, 0.9, 150,
	}
	marks, err := DetectAnomalies(durationsToEvents(durations), 0.1, 42)
	if err != nil {
		t.Fatalf("DetectAnomalies: %v", err)
	}
	if len(marks) != 20 {
		t.Fatalf("got %d marks, want one per event", len(marks))
	}

	var flagged int
	outlierFlagged := false
	for _, m := range marks {
		if m.Anomalous {
			flagged++
			if m.DurationHours == 150 {
				outlierFlagged = true
			}
		}
	}
	if flagged != 2 {
		t.Errorf("flagged %d events, want round(0.1*20) = 2", flagged)
	}
	if !outlierFlagged {
		t.Errorf("the extreme 150h stoppage was not flagged")
	}
}

func TestDetectAnomaliesDeterministic(t *testing.T) {
	durations := []float64{2, 3, 2.5, 4, 3.5, 2.2, 80, 3.1, 2.8, 3.3, 2.9, 3.7}
	events := durationsToEvents(durations)

	first, err := DetectAnomalies(events, 0.1, 42)
	if err != nil {
		t.Fatalf("DetectAnomalies: %v", err)
	}
	second, err := DetectAnomalies(events, 0.1, 42)
	if err != nil {
		t.Fatalf("DetectAnomalies: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("same seed produced different output (-first +second):\n%s", diff)
	}
}

func TestDetectAnomaliesScoreRange(t *testing.T) {
	durations := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	marks, err := DetectAnomalies(durationsToEvents(durations), 0.1, 7)
	if err != nil {
		t.Fatalf("DetectAnomalies: %v", err)
	}
	for _, m := range marks {
		if m.Score <= 0 || m.Score >= 1 {
			t.Errorf("score %v out of (0, 1) for duration %v", m.Score, m.DurationHours)
		}
	}
}
