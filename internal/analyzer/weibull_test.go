package analyzer

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

// weibullSample draws deterministic Weibull(shape, scale) variates by
// inverse transform.
func weibullSample(n int, shape, scale float64, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		u := rng.Float64()
		out[i] = scale * math.Pow(-math.Log(1-u), 1/shape)
	}
	return out
}

func TestFitWeibullRecoversParameters(t *testing.T) {
	samples := weibullSample(200, 2.0, 100.0, 7)

	fit, err := FitWeibull(samples, 200, 1.2)
	if err != nil {
		t.Fatalf("FitWeibull: %v", err)
	}
	if fit.Shape < 1.5 || fit.Shape > 2.5 {
		t.Errorf("shape = %v, want within [1.5, 2.5]", fit.Shape)
	}
	if fit.Scale < 80 || fit.Scale > 120 {
		t.Errorf("scale = %v, want within [80, 120]", fit.Scale)
	}
	if fit.Samples != 200 {
		t.Errorf("samples = %d, want 200", fit.Samples)
	}
}

func TestFitWeibullCurve(t *testing.T) {
	samples := weibullSample(100, 1.8, 50.0, 3)

	fit, err := FitWeibull(samples, 200, 1.2)
	if err != nil {
		t.Fatalf("FitWeibull: %v", err)
	}
	if len(fit.Curve) != 200 {
		t.Fatalf("curve points = %d, want 200", len(fit.Curve))
	}
	if fit.Curve[0].X != 0 || fit.Curve[0].R != 1 {
		t.Errorf("curve should start at (0, 1), got (%v, %v)", fit.Curve[0].X, fit.Curve[0].R)
	}

	var max float64
	for _, x := range samples {
		if x > max {
			max = x
		}
	}
	last := fit.Curve[len(fit.Curve)-1]
	if got, want := last.X, 1.2*max; math.Abs(got-want) > 1e-9 {
		t.Errorf("curve span ends at %v, want %v", got, want)
	}

	prev := 1.0
	for _, p := range fit.Curve {
		if p.R > prev+1e-12 {
			t.Fatalf("reliability curve increased at t=%v", p.X)
		}
		prev = p.R
	}
}

func TestFitWeibullInsufficientData(t *testing.T) {
	for _, samples := range [][]float64{nil, {10}, {0, 0, 0}, {-1, 5}} {
		_, err := FitWeibull(samples, 200, 1.2)
		if !errors.Is(err, ErrInsufficientData) {
			t.Errorf("FitWeibull(%v) error = %v, want ErrInsufficientData", samples, err)
		}
	}
}

func TestInterpretShape(t *testing.T) {
	tests := []struct {
		shape float64
		want  string
	}{
		{0.5, interpEarlyLife},
		{0.95, interpEarlyLife}, // below 1 wins over the random band
		{1.0, interpRandom},
		{1.1, interpRandom},
		{1.5, interpWearOut},
		{3.0, interpWearOut},
	}
	for _, tt := range tests {
		if got := interpretShape(tt.shape); got != tt.want {
			t.Errorf("interpretShape(%v) = %q, want %q", tt.shape, got, tt.want)
		}
	}
}
