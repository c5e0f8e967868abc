package fuzzy

import (
	"errors"
	"fmt"
)

// Tracer receives pipeline events. args are slog-style key/value pairs.
type Tracer func(stage string, args ...any)

// Engine runs fuzzify, infer, aggregate and defuzzify for one input value.
// It is immutable after construction.
type Engine struct {
	input       *Variable
	output      *Variable
	rules       *RuleBase
	defuzzifier Defuzzifier
	tracer      Tracer
}

// NewEngine validates the variables and rules and returns an engine.
func NewEngine(input, output *Variable, rules *RuleBase, d Defuzzifier) (*Engine, error) {
	if input == nil || output == nil || rules == nil || d == nil {
		return nil, errors.New("fuzzy: engine needs input, output, rules and defuzzifier")
	}
	var errs []error
	if err := input.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := output.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := rules.Validate(input, output); err != nil {
		errs = append(errs, err)
	}
	if w, ok := d.(*WeightedCentroid); ok {
		if err := w.Validate(rules.Consequents()); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("fuzzy engine: %w", err)
	}
	return &Engine{
		input:       input,
		output:      output,
		rules:       rules,
		defuzzifier: d,
	}, nil
}

// WithTracer returns a copy of e that reports each stage to t.
func (e *Engine) WithTracer(t Tracer) *Engine {
	c := *e
	c.tracer = t
	return &c
}

func (e *Engine) Defuzzifier() Defuzzifier {
	return e.defuzzifier
}

// Evaluate maps a crisp input to a crisp output in the output domain.
func (e *Engine) Evaluate(x float64) float64 {
	in := Fuzzify(x, e.input)
	e.trace("fuzzify", "input", x, "degrees", in)

	out := Infer(in, e.rules)
	e.trace("infer", "degrees", out)

	y := e.output.Clamp(e.defuzzifier.Defuzzify(out))
	e.trace("defuzzify", "strategy", e.defuzzifier.Name(), "output", y)
	return y
}

func (e *Engine) trace(stage string, args ...any) {
	if e.tracer != nil {
		e.tracer(stage, args...)
	}
}
