// Package tank models the natural and retention tanks, plus an optional
// overflow tank, as a discrete-time system stepped once per control tick.
package tank

import (
	"errors"
	"fmt"
	"math"
)

// Direction selects which way the pump moves water.
type Direction string

const (
	// Drain pumps from the natural tank into the retention tank.
	Drain Direction = "drain"
	// Fill pumps from the retention tank back into the natural tank.
	Fill Direction = "fill"
)

// MaxRainIntensity is the highest discrete rain level.
const MaxRainIntensity = 4

// RainTable maps a rain intensity (index) to a level increment per tick.
type RainTable [MaxRainIntensity + 1]float64

// DefaultRainTable is the increment table used by the rain-enabled scripts.
var DefaultRainTable = RainTable{0, 0.2, 0.5, 1.0, 1.5}

type Params struct {
	Capacity     float64
	SafeLevel    float64
	LeakRate     float64
	NaturalFloor float64
	Direction    Direction
	Rain         RainTable
	// OverflowCapacity enables the secondary tank when positive.
	OverflowCapacity float64
}

// State is the observable tank levels. It is a plain value; Step returns a
// new one.
type State struct {
	Natural   float64 `json:"natural" yaml:"natural"`
	Retention float64 `json:"retention" yaml:"retention"`
	Overflow  float64 `json:"overflow" yaml:"overflow"`
}

// Flow reports what happened during one step.
type Flow struct {
	Rain      float64 // level added to the natural tank by rain
	Requested float64 // pump power / 10
	Moved     float64 // level actually transferred by the pump
	Leak      float64
	Diverted  float64 // excess moved into the overflow tank
	Lost      float64 // excess discarded by clamping
}

type Model struct {
	params Params
}

func New(p Params) (*Model, error) {
	if p.Direction == "" {
		p.Direction = Drain
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Model{params: p}, nil
}

func (p Params) Validate() error {
	var errs []error
	check := func(name string, v float64, ok bool) {
		if math.IsNaN(v) || math.IsInf(v, 0) || !ok {
			errs = append(errs, fmt.Errorf("%w: %s=%g", ErrInvalidParams, name, v))
		}
	}
	check("capacity", p.Capacity, p.Capacity > 0)
	check("safe_level", p.SafeLevel, p.SafeLevel >= 0 && p.SafeLevel <= p.Capacity)
	check("leak_rate", p.LeakRate, p.LeakRate >= 0)
	check("natural_floor", p.NaturalFloor, p.NaturalFloor >= 0 && p.NaturalFloor <= p.Capacity)
	check("overflow_capacity", p.OverflowCapacity, p.OverflowCapacity >= 0)
	for i, inc := range p.Rain {
		check(fmt.Sprintf("rain[%d]", i), inc, inc >= 0)
	}
	switch p.Direction {
	case Drain, Fill:
	default:
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownDirection, p.Direction))
	}
	return errors.Join(errs...)
}

func (m *Model) Params() Params {
	return m.params
}

// HasOverflow reports whether the secondary tank is enabled.
func (m *Model) HasOverflow() bool {
	return m.params.OverflowCapacity > 0
}

// Clamp brings every level of s into range.
func (m *Model) Clamp(s State) State {
	s.Natural = clamp(s.Natural, 0, m.params.Capacity)
	s.Retention = clamp(s.Retention, 0, m.params.Capacity)
	s.Overflow = clamp(s.Overflow, 0, m.params.OverflowCapacity)
	return s
}

// Step advances s by one tick with the given pump power (0-100) and rain
// intensity (0-4). Out-of-range arguments are clamped. Rain is applied
// before the pump.
func (m *Model) Step(s State, power float64, rain int) (State, Flow) {
	p := m.params
	s = m.Clamp(s)
	var f Flow

	f.Rain = p.Rain[ClampIntensity(rain)]
	s.Natural = m.pour(&s, &f, s.Natural+f.Rain)

	f.Requested = clamp(power, 0, 100) / 10
	switch p.Direction {
	case Fill:
		f.Moved = clamp(f.Requested, 0, s.Retention)
		s.Retention = clamp(s.Retention-f.Moved, 0, p.Capacity)
		s.Natural = m.pour(&s, &f, s.Natural+f.Moved)
	default:
		f.Moved = clamp(f.Requested, 0, s.Natural-p.SafeLevel)
		if over := s.Retention + f.Moved - p.Capacity; over > 0 {
			f.Lost += over
		}
		s.Retention = clamp(s.Retention+f.Moved, 0, p.Capacity)
		s.Natural -= f.Moved
	}

	f.Leak = p.LeakRate
	s.Natural -= f.Leak
	s.Natural = math.Max(s.Natural, p.NaturalFloor)
	s.Natural = clamp(s.Natural, 0, p.Capacity)
	return s, f
}

// pour returns level capped at capacity, diverting the excess into the
// overflow tank when one is configured.
func (m *Model) pour(s *State, f *Flow, level float64) float64 {
	excess := level - m.params.Capacity
	if excess <= 0 {
		return level
	}
	accepted := 0.0
	if m.HasOverflow() {
		accepted = math.Min(excess, math.Max(m.params.OverflowCapacity-s.Overflow, 0))
		s.Overflow += accepted
	}
	f.Diverted += accepted
	f.Lost += excess - accepted
	return m.params.Capacity
}

// clamp returns v limited to [lo, hi]; when hi < lo the result is lo.
func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

// ClampIntensity limits a rain intensity to 0..MaxRainIntensity.
func ClampIntensity(i int) int {
	if i < 0 {
		return 0
	}
	if i > MaxRainIntensity {
		return MaxRainIntensity
	}
	return i
}
