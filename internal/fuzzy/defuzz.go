package fuzzy

import (
	"fmt"
	"math"
	"sort"
)

// DefaultSamples discretizes [0, 100] at step 1.
const DefaultSamples = 101

// Defuzzifier reduces output degrees to a crisp value. A zero total weight
// yields 0.
type Defuzzifier interface {
	Name() string
	Defuzzify(out Degrees) float64
}

// Aggregate samples the output domain of v at n evenly spaced points, clips
// each term at its degree and returns the pointwise maximum.
func Aggregate(out Degrees, v *Variable, n int) ([]float64, []float64) {
	if n < 2 {
		n = 2
	}
	ys := make([]float64, n)
	curve := make([]float64, n)
	step := (v.Max - v.Min) / float64(n-1)

	names := make([]string, 0, len(out))
	for name := range out {
		if _, ok := v.terms[name]; ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for i := range ys {
		y := v.Min + float64(i)*step
		ys[i] = y
		for _, name := range names {
			mu := math.Min(v.terms[name].Evaluate(y), out[name])
			if mu > curve[i] {
				curve[i] = mu
			}
		}
	}
	return ys, curve
}

// Centroid is the continuous center-of-gravity strategy over the aggregated
// output curve.
type Centroid struct {
	Output  *Variable
	Samples int
}

func NewCentroid(output *Variable, samples int) *Centroid {
	if samples <= 0 {
		samples = DefaultSamples
	}
	return &Centroid{Output: output, Samples: samples}
}

func (c *Centroid) Name() string { return "centroid" }

func (c *Centroid) Defuzzify(out Degrees) float64 {
	ys, curve := Aggregate(out, c.Output, c.Samples)
	num, den := 0.0, 0.0
	for i := range ys {
		num += ys[i] * curve[i]
		den += curve[i]
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// WeightedCentroid is the discrete strategy: a weighted mean of one
// representative crisp value per output term, skipping aggregation.
type WeightedCentroid struct {
	Representatives map[string]float64
}

func NewWeightedCentroid(reps map[string]float64) *WeightedCentroid {
	r := make(map[string]float64, len(reps))
	for k, v := range reps {
		r[k] = v
	}
	return &WeightedCentroid{Representatives: r}
}

func (w *WeightedCentroid) Name() string { return "weighted" }

func (w *WeightedCentroid) Defuzzify(out Degrees) float64 {
	num, den := 0.0, 0.0
	for name, d := range out {
		r, ok := w.Representatives[name]
		if !ok {
			continue
		}
		num += r * d
		den += d
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// Validate checks that every consequent has a representative value.
func (w *WeightedCentroid) Validate(consequents []string) error {
	for _, c := range consequents {
		if _, ok := w.Representatives[c]; !ok {
			return fmt.Errorf("%w: no representative value for %q", ErrUnknownTerm, c)
		}
	}
	return nil
}

// StrategyOptions carries what each strategy needs; unused fields are ignored.
type StrategyOptions struct {
	Output          *Variable
	Samples         int
	Representatives map[string]float64
}

var strategies = map[string]func(StrategyOptions) Defuzzifier{
	"centroid": func(o StrategyOptions) Defuzzifier { return NewCentroid(o.Output, o.Samples) },
	"weighted": func(o StrategyOptions) Defuzzifier { return NewWeightedCentroid(o.Representatives) },
}

// NewDefuzzifier builds a strategy by name.
func NewDefuzzifier(name string, opts StrategyOptions) (Defuzzifier, error) {
	fn, ok := strategies[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s (available: %v)", ErrUnknownStrategy, name, Strategies())
	}
	return fn(opts), nil
}

// Strategies lists registered strategy names.
func Strategies() []string {
	names := make([]string, 0, len(strategies))
	for name := range strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
