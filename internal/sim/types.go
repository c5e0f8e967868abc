package sim

import (
	"errors"

	"github.com/san-kum/fuzzytank/internal/control"
)

var ErrInvalidConfig = errors.New("sim: invalid config")

// Stepper is the control loop driven by the simulator. *control.Controller
// implements it.
type Stepper interface {
	Tick(rain int) control.Snapshot
	CurrentState() control.Snapshot
	Reset()
}

type Metric interface {
	Name() string
	Observe(s control.Snapshot)
	Value() float64
	Reset()
}

// Baseliner is implemented by metrics that need the state before the first
// tick, such as differences over a run.
type Baseliner interface {
	Baseline(s control.Snapshot)
}

type Observer interface {
	OnStep(s control.Snapshot)
}

// Config describes one batch run. Rain is cycled over the steps; an empty
// schedule means no rain.
type Config struct {
	Steps int
	Rain  []int
	// Reset restores the stepper's initial state before the first tick.
	Reset bool
}

func (c Config) RainAt(step int) int {
	if len(c.Rain) == 0 {
		return 0
	}
	return c.Rain[step%len(c.Rain)]
}

// Result holds the snapshot before the first tick followed by one snapshot
// per tick.
type Result struct {
	States     []control.Snapshot
	Metrics    map[string]float64
	StepsTaken int
}

func (r *Result) Final() control.Snapshot {
	if len(r.States) == 0 {
		return control.Snapshot{}
	}
	return r.States[len(r.States)-1]
}
