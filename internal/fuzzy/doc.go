// Package fuzzy provides a Mamdani fuzzy inference engine over a single
// input variable.
//
// The pipeline has four stages:
//
//   - [Fuzzify]: evaluate every term of a [Variable] at a crisp input
//   - [Infer]: max composition of a [RuleBase] over the input degrees
//   - [Aggregate]: clip each output term at its degree, take the pointwise max
//   - [Defuzzifier]: reduce output degrees to a crisp value
//
// Two defuzzification strategies are provided, [Centroid] (continuous, over
// the aggregated curve) and [WeightedCentroid] (discrete, over representative
// values per output term). [Engine] wires the stages together.
//
// # Example
//
//	level := fuzzy.NewVariable("level", 0, 100)
//	level.AddTerm("low", fuzzy.Triangle{A: 30, B: 40, C: 60})
//	power := fuzzy.NewVariable("power", 0, 100)
//	power.AddTerm("low", fuzzy.Triangle{A: -50, B: 0, C: 50})
//	rules := fuzzy.NewRuleBase(fuzzy.Rule{If: "low", Then: []string{"low"}})
//	eng, _ := fuzzy.NewEngine(level, power, rules, fuzzy.NewCentroid(power, 101))
//	crisp := eng.Evaluate(45)
//
// # Degenerate triangles
//
// A triangle with A == B or B == C has its collapsed slope replaced by a
// constant 0, so it evaluates to 0 everywhere, including at its peak.
package fuzzy
