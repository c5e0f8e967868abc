package control

import (
	"errors"
	"fmt"
	"sync"

	"github.com/san-kum/fuzzytank/internal/fuzzy"
	"github.com/san-kum/fuzzytank/internal/tank"
)

// PumpOptions configures the pump gate.
type PumpOptions struct {
	Policy        Policy
	ActivateAbove float64
	DeactivateAt  float64
	// InitiallyActive defaults to true when nil.
	InitiallyActive *bool
}

type Options struct {
	Engine  *fuzzy.Engine
	Tank    tank.Params
	Pump    PumpOptions
	Initial tank.State
	Tracer  fuzzy.Tracer
}

// Snapshot is the observable state after a tick.
type Snapshot struct {
	Tick           uint64  `json:"tick"`
	Rain           int     `json:"rain"`
	PumpPower      float64 `json:"pump_power"`
	NaturalLevel   float64 `json:"natural_level"`
	RetentionLevel float64 `json:"retention_level"`
	OverflowLevel  float64 `json:"overflow_level"`
	PumpActive     bool    `json:"pump_active"`
}

// Controller owns the tank and pump state and advances it one tick at a
// time.
type Controller struct {
	mu      sync.Mutex
	engine  *fuzzy.Engine
	tank    *tank.Model
	pump    *Hysteresis
	tracer  fuzzy.Tracer
	initial tank.State
	state   tank.State
	power   float64
	rain    int
	tick    uint64
}

// New validates opts and builds a controller. The configuration cannot be
// changed afterwards.
func New(opts Options) (*Controller, error) {
	var errs []error
	if opts.Engine == nil {
		errs = append(errs, ErrMissingEngine)
	}

	model, err := tank.New(opts.Tank)
	if err != nil {
		errs = append(errs, err)
	}

	pump := newPump(opts.Pump)
	if err := pump.Validate(); err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("configure controller: %w", err)
	}

	eng := opts.Engine
	if opts.Tracer != nil {
		eng = eng.WithTracer(opts.Tracer)
	}

	initial := model.Clamp(opts.Initial)
	return &Controller{
		engine:  eng,
		tank:    model,
		pump:    pump,
		tracer:  opts.Tracer,
		initial: initial,
		state:   initial,
	}, nil
}

func newPump(o PumpOptions) *Hysteresis {
	active := true
	if o.InitiallyActive != nil {
		active = *o.InitiallyActive
	}
	switch o.Policy {
	case PolicyAlways:
		return NewAlwaysOn()
	case "", PolicyHysteresis:
		return NewHysteresis(o.ActivateAbove, o.DeactivateAt, active)
	default:
		h := NewHysteresis(o.ActivateAbove, o.DeactivateAt, active)
		h.Policy = o.Policy
		return h
	}
}

// Tick advances the loop by one step. rain is the discrete intensity 0-4
// for this tick; 0 means no rain.
func (c *Controller) Tick(rain int) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	rain = tank.ClampIntensity(rain)
	level := c.state.Natural
	active := c.pump.Update(level)
	power := 0.0
	if active {
		power = c.engine.Evaluate(level)
	}
	power = c.pump.Gate(power)
	c.trace("pump", "level", level, "active", active, "power", power)

	next, flow := c.tank.Step(c.state, power, rain)
	c.trace("tank",
		"natural", next.Natural,
		"retention", next.Retention,
		"overflow", next.Overflow,
		"moved", flow.Moved,
		"rain", flow.Rain,
		"diverted", flow.Diverted,
		"lost", flow.Lost,
	)

	c.state = next
	c.power = power
	c.rain = rain
	c.tick++
	return c.snapshot()
}

// CurrentState returns the latest snapshot without advancing.
func (c *Controller) CurrentState() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// Reset restores the initial levels and pump state.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = c.initial
	c.pump.Reset()
	c.power = 0
	c.rain = 0
	c.tick = 0
}

func (c *Controller) Engine() *fuzzy.Engine {
	return c.engine
}

func (c *Controller) TankParams() tank.Params {
	return c.tank.Params()
}

// Thresholds returns the pump gate policy and levels.
func (c *Controller) Thresholds() (Policy, float64, float64) {
	return c.pump.Policy, c.pump.ActivateAbove, c.pump.DeactivateAt
}

func (c *Controller) snapshot() Snapshot {
	return Snapshot{
		Tick:           c.tick,
		Rain:           c.rain,
		PumpPower:      c.power,
		NaturalLevel:   c.state.Natural,
		RetentionLevel: c.state.Retention,
		OverflowLevel:  c.state.Overflow,
		PumpActive:     c.pump.Active(),
	}
}

func (c *Controller) trace(stage string, args ...any) {
	if c.tracer != nil {
		c.tracer(stage, args...)
	}
}
