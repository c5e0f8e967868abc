package fuzzy

import (
	"fmt"
	"sort"
)

// Degrees maps term names to membership degrees.
type Degrees map[string]float64

// Variable is a linguistic variable: a named scalar domain partitioned into
// overlapping terms.
type Variable struct {
	Name  string
	Min   float64
	Max   float64
	terms map[string]Triangle
}

func NewVariable(name string, min, max float64) *Variable {
	return &Variable{
		Name:  name,
		Min:   min,
		Max:   max,
		terms: make(map[string]Triangle),
	}
}

// AddTerm registers a term. Names must be unique within the variable.
func (v *Variable) AddTerm(name string, t Triangle) error {
	if _, ok := v.terms[name]; ok {
		return fmt.Errorf("%w: %s.%s", ErrDuplicateTerm, v.Name, name)
	}
	if err := t.Validate(); err != nil {
		return fmt.Errorf("%s.%s: %w", v.Name, name, err)
	}
	v.terms[name] = t
	return nil
}

// Term looks up a term by name.
func (v *Variable) Term(name string) (Triangle, bool) {
	t, ok := v.terms[name]
	return t, ok
}

// Terms returns term names in sorted order.
func (v *Variable) Terms() []string {
	names := make([]string, 0, len(v.terms))
	for name := range v.terms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (v *Variable) Len() int { return len(v.terms) }

func (v *Variable) Validate() error {
	if v.Max <= v.Min {
		return fmt.Errorf("%w: %s [%g, %g]", ErrInvalidDomain, v.Name, v.Min, v.Max)
	}
	if len(v.terms) == 0 {
		return fmt.Errorf("%w: %s", ErrEmptyVariable, v.Name)
	}
	return nil
}

// Clamp limits x to the variable's domain.
func (v *Variable) Clamp(x float64) float64 {
	if x < v.Min {
		return v.Min
	}
	if x > v.Max {
		return v.Max
	}
	return x
}

// Fuzzify evaluates every term of v at value.
func Fuzzify(value float64, v *Variable) Degrees {
	out := make(Degrees, len(v.terms))
	for name, t := range v.terms {
		out[name] = t.Evaluate(value)
	}
	return out
}
