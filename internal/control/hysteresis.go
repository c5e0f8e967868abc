package control

import (
	"fmt"
	"math"
)

// Policy selects how the pump gate reacts to the natural tank level.
type Policy string

const (
	// PolicyHysteresis switches on above ActivateAbove and off at or below DeactivateAt.
	PolicyHysteresis Policy = "hysteresis"
	// PolicyAlways keeps the pump active regardless of level.
	PolicyAlways Policy = "always"
)

// Hysteresis is the two-threshold pump gate.
type Hysteresis struct {
	Policy        Policy
	ActivateAbove float64
	DeactivateAt  float64
	initial       bool
	active        bool
}

func NewHysteresis(activateAbove, deactivateAt float64, initiallyActive bool) *Hysteresis {
	return &Hysteresis{
		Policy:        PolicyHysteresis,
		ActivateAbove: activateAbove,
		DeactivateAt:  deactivateAt,
		initial:       initiallyActive,
		active:        initiallyActive,
	}
}

func NewAlwaysOn() *Hysteresis {
	return &Hysteresis{Policy: PolicyAlways, initial: true, active: true}
}

func (h *Hysteresis) Validate() error {
	switch h.Policy {
	case PolicyAlways:
		return nil
	case PolicyHysteresis:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownPolicy, h.Policy)
	}
	if math.IsNaN(h.ActivateAbove) || math.IsNaN(h.DeactivateAt) || h.ActivateAbove < h.DeactivateAt {
		return fmt.Errorf("%w: activate above %g, deactivate at %g", ErrInvalidThresholds, h.ActivateAbove, h.DeactivateAt)
	}
	return nil
}

// Update feeds the current level and returns whether the pump is active.
func (h *Hysteresis) Update(level float64) bool {
	if h.Policy == PolicyAlways {
		h.active = true
		return true
	}
	if h.active && level <= h.DeactivateAt {
		h.active = false
	} else if !h.active && level > h.ActivateAbove {
		h.active = true
	}
	return h.active
}

func (h *Hysteresis) Active() bool {
	return h.active
}

// Gate forces power to 0 while the pump is inactive.
func (h *Hysteresis) Gate(power float64) float64 {
	if !h.active {
		return 0
	}
	return power
}

// Reset restores the initial state.
func (h *Hysteresis) Reset() {
	h.active = h.initial
}
