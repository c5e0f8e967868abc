package fuzzy

import (
	"fmt"
	"math"
)

// Triangle is a triangular membership function with feet at A and C and
// its peak at B.
type Triangle struct {
	A float64 `yaml:"a" json:"a"`
	B float64 `yaml:"b" json:"b"`
	C float64 `yaml:"c" json:"c"`
}

// Evaluate returns the degree of x in [0, 1]. A collapsed slope (A == B or
// B == C) contributes 0 instead of a vertical edge.
func (t Triangle) Evaluate(x float64) float64 {
	left := 0.0
	if t.A != t.B {
		left = (x - t.A) / (t.B - t.A)
	}
	right := 0.0
	if t.B != t.C {
		right = (t.C - x) / (t.C - t.B)
	}
	return math.Max(math.Min(left, right), 0)
}

// Degenerate reports whether either slope is collapsed.
func (t Triangle) Degenerate() bool {
	return t.A == t.B || t.B == t.C
}

func (t Triangle) Validate() error {
	for _, v := range [...]float64{t.A, t.B, t.C} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %v", ErrInvalidTriangle, t)
		}
	}
	if t.A > t.B || t.B > t.C {
		return fmt.Errorf("%w: %v", ErrInvalidTriangle, t)
	}
	return nil
}

func (t Triangle) String() string {
	return fmt.Sprintf("(%g, %g, %g)", t.A, t.B, t.C)
}
