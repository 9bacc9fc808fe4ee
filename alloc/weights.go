package alloc

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// Shape names a distribution family used to derive relative bucket weights.
type Shape string

const (
	Uniform Shape = "uniform"
	Pareto  Shape = "pareto"
	Zipf    Shape = "zipf"
)

const (
	// DefaultParetoAlpha is the Pareto shape used when Params.Alpha is zero.
	DefaultParetoAlpha = 1.5
	// DefaultZipfAlpha is the Zipf exponent used when Params.Alpha is zero.
	DefaultZipfAlpha = 1.2

	// MinParetoAlpha is the smallest accepted Pareto shape. Below it most
	// draws overflow float64 and the weights lose their skew.
	MinParetoAlpha = 0.1

	// paretoWeightFloor keeps near-zero Pareto draws from producing empty buckets.
	paretoWeightFloor = 0.1
)

// Params parameterizes a Shape. A zero Alpha selects the shape's default.
type Params struct {
	Alpha float64
}

// WeightVector holds K non-negative weights summing to 1.0.
type WeightVector []float64

// ParseShape validates a shape name coming from configuration.
func ParseShape(name string) (Shape, error) {
	switch s := Shape(name); s {
	case Uniform, Pareto, Zipf:
		return s, nil
	default:
		return "", fmt.Errorf("%w %q; valid: uniform, pareto, zipf", ErrUnknownStrategy, name)
	}
}

// alpha resolves the effective exponent for shape s.
func (p Params) alpha(s Shape) float64 {
	if p.Alpha != 0 {
		return p.Alpha
	}
	if s == Zipf {
		return DefaultZipfAlpha
	}
	return DefaultParetoAlpha
}

// Weights returns the normalized weight vector of length k for shape.
// rng is only consulted by Pareto and may be nil for other shapes.
// k <= 0 yields an empty vector.
func Weights(shape Shape, k int, params Params, rng *rand.Rand) (WeightVector, error) {
	if _, err := ParseShape(string(shape)); err != nil {
		return nil, err
	}
	if k <= 0 {
		return WeightVector{}, nil
	}

	w := make(WeightVector, k)
	switch shape {
	case Uniform:
		for i := range w {
			w[i] = 1.0 / float64(k)
		}
		return w, nil

	case Pareto:
		alpha := params.alpha(Pareto)
		for i := range w {
			w[i] = math.Max(lomax(rng, alpha), paretoWeightFloor)
		}

	case Zipf:
		alpha := params.alpha(Zipf)
		for i := range w {
			w[i] = math.Pow(float64(i+1), -alpha)
		}
	}
	w.normalize()
	return w, nil
}

// lomax draws from a Pareto II distribution with unit scale:
// X = exp(E/alpha) - 1 where E ~ Exp(1). Support starts at 0.
func lomax(rng *rand.Rand, alpha float64) float64 {
	val := math.Expm1(rng.ExpFloat64() / alpha)
	// Guard against +Inf from extreme draws with small alpha
	if math.IsInf(val, 0) || math.IsNaN(val) {
		return math.MaxFloat64
	}
	return val
}

// normalize scales w to sum to 1. A sum that overflows is first rescaled
// by the largest weight so overflowed draws keep their dominance.
// A zero or non-finite sum falls back to uniform weights.
func (w WeightVector) normalize() {
	sum := floats.Sum(w)
	if math.IsInf(sum, 1) {
		floats.Scale(1/floats.Max(w), w)
		sum = floats.Sum(w)
	}
	if sum == 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		for i := range w {
			w[i] = 1.0 / float64(len(w))
		}
		return
	}
	floats.Scale(1/sum, w)
}
