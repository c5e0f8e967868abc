package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/fuzzytank/internal/config"
	"github.com/san-kum/fuzzytank/internal/control"
	"github.com/san-kum/fuzzytank/internal/fuzzy"
	"github.com/san-kum/fuzzytank/internal/metrics"
	"github.com/san-kum/fuzzytank/internal/sim"
	"github.com/san-kum/fuzzytank/internal/storage"
)

// Experiment is one configured batch run: controller, simulator and the
// metrics attached to it.
type Experiment struct {
	cfg        *config.Config
	controller *control.Controller
	simulator  *sim.Simulator
}

func New(cfg *config.Config) *Experiment {
	return &Experiment{cfg: cfg}
}

// Setup builds the controller. tracer may be nil; observers receive every
// snapshot of the run.
func (e *Experiment) Setup(tracer fuzzy.Tracer, observers ...sim.Observer) error {
	opts, err := e.cfg.Options()
	if err != nil {
		return err
	}
	opts.Tracer = tracer

	ctrl, err := control.New(opts)
	if err != nil {
		return fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}

	e.controller = ctrl
	e.simulator = sim.New(ctrl)
	for _, m := range DefaultMetrics(e.cfg) {
		e.simulator.AddMetric(m)
	}
	for _, o := range observers {
		e.simulator.AddObserver(o)
	}
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.simulator.Run(ctx, sim.Config{
		Steps: e.cfg.Sim.Steps,
		Rain:  e.cfg.Sim.Rain,
	})
}

func (e *Experiment) Controller() *control.Controller {
	return e.controller
}

func (e *Experiment) Simulator() *sim.Simulator {
	return e.simulator
}

// Info describes the run for storage. After Setup the values come from the
// built controller, so defaults are resolved.
func (e *Experiment) Info() storage.RunInfo {
	info := storage.RunInfo{
		Preset:    e.cfg.Name,
		Strategy:  e.cfg.Defuzzifier.Strategy,
		Policy:    e.cfg.Pump.Policy,
		Direction: e.cfg.Tank.Direction,
		Rain:      e.cfg.Sim.Rain,
	}
	if e.controller == nil {
		return info
	}

	policy, activate, deactivate := e.controller.Thresholds()
	info.Strategy = e.controller.Engine().Defuzzifier().Name()
	info.Policy = string(policy)
	info.Direction = string(e.controller.TankParams().Direction)
	if policy == control.PolicyHysteresis {
		info.ActivateAbove = activate
		info.DeactivateAt = deactivate
	}
	return info
}

// DefaultMetrics is the metric set attached to every run.
func DefaultMetrics(cfg *config.Config) []sim.Metric {
	return []sim.Metric{
		metrics.NewControlEffort(),
		metrics.NewStability(cfg.Levels.Alarm),
		metrics.NewPeakLevel(),
		metrics.NewPumpCycles(),
		metrics.NewTransferred(),
	}
}

// Compare runs cfg once per defuzzification strategy, concurrently. Results
// of the strategies that completed are returned even when another fails.
func Compare(ctx context.Context, cfg *config.Config, strategies []string) (map[string]*sim.Result, error) {
	jobs := make([]sim.Job, 0, len(strategies))
	for _, s := range strategies {
		variant := *cfg
		variant.Defuzzifier.Strategy = s

		exp := New(&variant)
		if err := exp.Setup(nil); err != nil {
			return nil, fmt.Errorf("%s: %w", s, err)
		}
		jobs = append(jobs, sim.Job{Name: s, Sim: exp.Simulator()})
	}
	return sim.NewEnsemble(jobs...).Run(ctx, sim.Config{
		Steps: cfg.Sim.Steps,
		Rain:  cfg.Sim.Rain,
	})
}
