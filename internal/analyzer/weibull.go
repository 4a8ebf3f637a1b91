package analyzer

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Interpretation texts keyed to the fitted shape parameter.
const (
	interpEarlyLife = "Falhas precoces (mortalidade infantil): taxa de falha decrescente, revisar qualidade de montagem e comissionamento."
	interpRandom    = "Falhas aleatórias: taxa de falha constante, típica de causas externas ao desgaste."
	interpWearOut   = "Desgaste: taxa de falha crescente, priorizar manutenção preventiva e substituição programada."
)

// FitWeibull fits a two-parameter Weibull model to inter-failure times by
// maximum likelihood and samples the survival curve R(t). Samples must
// contain at least two strictly positive values.
func FitWeibull(samples []float64, curvePoints int, curveSpan float64) (*WeibullFit, error) {
	var pos []float64
	var max float64
	for _, x := range samples {
		if x > max {
			max = x
		}
		if x > 0 && !math.IsInf(x, 0) && !math.IsNaN(x) {
			pos = append(pos, x)
		}
	}
	if len(pos) < 2 {
		return nil, fmt.Errorf("weibull fit needs at least 2 positive inter-failure times, got %d: %w",
			len(pos), ErrInsufficientData)
	}

	shape, scale, err := weibullMLE(pos)
	if err != nil {
		return nil, err
	}

	if curvePoints < 2 {
		curvePoints = 200
	}
	hi := curveSpan * max
	if hi <= 0 {
		hi = 100
	}
	dist := distuv.Weibull{K: shape, Lambda: scale}
	curve := make([]CurvePoint, curvePoints)
	for i := range curve {
		t := hi * float64(i) / float64(curvePoints-1)
		curve[i] = CurvePoint{X: t, R: dist.Survival(t)}
	}

	return &WeibullFit{
		Shape:          shape,
		Scale:          scale,
		Samples:        len(pos),
		Curve:          curve,
		Interpretation: interpretShape(shape),
		ScaleNote: fmt.Sprintf(
			"Vida característica η = %.1f h: 63,2%% das falhas ocorrem até esse tempo.", scale),
	}, nil
}

// interpretShape maps the shape parameter to its failure-mode reading.
// The early-life branch wins over the random band on overlap.
func interpretShape(shape float64) string {
	switch {
	case shape < 1:
		return interpEarlyLife
	case shape >= 0.9 && shape <= 1.1:
		return interpRandom
	default:
		return interpWearOut
	}
}

// weibullMLE solves the profile-likelihood equation for the shape by
// Newton iteration; the scale then has a closed form. All inputs must be
// strictly positive.
func weibullMLE(x []float64) (shape, scale float64, err error) {
	n := float64(len(x))
	logs := make([]float64, len(x))
	var meanLog float64
	for i, v := range x {
		logs[i] = math.Log(v)
		meanLog += logs[i]
	}
	meanLog /= n

	k := 1.0
	for iter := 0; iter < 100; iter++ {
		var s0, s1, s2 float64
		for i, v := range x {
			p := math.Pow(v, k)
			s0 += p
			s1 += p * logs[i]
			s2 += p * logs[i] * logs[i]
		}
		g := s1/s0 - 1/k - meanLog
		dg := (s2*s0-s1*s1)/(s0*s0) + 1/(k*k)
		step := g / dg
		k -= step
		if k <= 0 {
			k = 1e-6
		}
		if math.Abs(step) < 1e-10 {
			break
		}
	}
	if math.IsNaN(k) || math.IsInf(k, 0) || k <= 0 {
		return 0, 0, fmt.Errorf("weibull shape estimation diverged: %w", ErrInsufficientData)
	}

	var sk float64
	for _, v := range x {
		sk += math.Pow(v, k)
	}
	lambda := math.Pow(sk/n, 1/k)
	return k, lambda, nil
}
