package sim

import (
	"context"
	"fmt"

	"github.com/san-kum/fuzzytank/internal/control"
	"github.com/san-kum/fuzzytank/internal/tank"
)

type Simulator struct {
	stepper   Stepper
	metrics   []Metric
	observers []Observer
}

func New(stepper Stepper) *Simulator {
	return &Simulator{
		stepper:   stepper,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
}

func (s *Simulator) AddMetric(m Metric) {
	s.metrics = append(s.metrics, m)
}

func (s *Simulator) AddObserver(o Observer) {
	s.observers = append(s.observers, o)
}

// Run ticks the stepper cfg.Steps times. On cancellation the partial result
// is returned together with ctx.Err().
func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	result := &Result{
		States:  make([]control.Snapshot, 0, cfg.Steps+1),
		Metrics: make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}
	if cfg.Reset {
		s.stepper.Reset()
	}

	initial := s.stepper.CurrentState()
	result.States = append(result.States, initial)
	for _, m := range s.metrics {
		if b, ok := m.(Baseliner); ok {
			b.Baseline(initial)
		}
	}

	for i := 0; i < cfg.Steps; i++ {
		select {
		case <-ctx.Done():
			s.collect(result)
			return result, ctx.Err()
		default:
		}

		snap := s.stepper.Tick(cfg.RainAt(i))

		for _, m := range s.metrics {
			m.Observe(snap)
		}
		for _, obs := range s.observers {
			obs.OnStep(snap)
		}

		result.States = append(result.States, snap)
		result.StepsTaken++
	}

	s.collect(result)
	return result, nil
}

func (s *Simulator) collect(result *Result) {
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

func validateConfig(cfg Config) error {
	if cfg.Steps <= 0 {
		return fmt.Errorf("%w: steps must be positive, got %d", ErrInvalidConfig, cfg.Steps)
	}
	for i, r := range cfg.Rain {
		if r < 0 || r > tank.MaxRainIntensity {
			return fmt.Errorf("%w: rain[%d]=%d outside 0..%d", ErrInvalidConfig, i, r, tank.MaxRainIntensity)
		}
	}
	return nil
}
