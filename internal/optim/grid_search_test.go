package optim

import (
	"context"
	"errors"
	"testing"

	"github.com/san-kum/fuzzytank/internal/config"
	"github.com/san-kum/fuzzytank/internal/experiment"
)

func builder(preset string) func(map[string]float64) (*experiment.Experiment, error) {
	return func(params map[string]float64) (*experiment.Experiment, error) {
		cfg := config.GetPreset(preset)
		cfg.Sim.Steps = 30
		for name, v := range params {
			if err := cfg.SetParam(name, v); err != nil {
				return nil, err
			}
		}
		exp := experiment.New(cfg)
		if err := exp.Setup(nil); err != nil {
			return nil, err
		}
		return exp, nil
	}
}

func TestGridSearch(t *testing.T) {
	g := NewGridSearch(
		[]string{"pump.activate_above", "pump.deactivate_at"},
		[][]float64{{30, 50, 70}, {40}},
	)

	params, best, err := g.Search(context.Background(), builder("retention-centroid"), "transferred")
	if err != nil {
		t.Fatal(err)
	}
	// activate_above=30 is below deactivate_at and never builds.
	if params["pump.activate_above"] == 30 {
		t.Errorf("invalid combination selected: %v", params)
	}

	exp, err := builder("retention-centroid")(params)
	if err != nil {
		t.Fatal(err)
	}
	result, err := exp.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if result.Metrics["transferred"] != best {
		t.Errorf("best %f does not reproduce: %f", best, result.Metrics["transferred"])
	}
}

func TestGridSearchMaximize(t *testing.T) {
	values := []float64{0.1, 0.5, 0.3}
	g := NewGridSearch([]string{"tank.leak_rate"}, [][]float64{values})
	g.Maximize = true

	// with the pump off, a higher leak rate lowers the peak level.
	build := func(params map[string]float64) (*experiment.Experiment, error) {
		cfg := config.GetPreset("retention-centroid")
		cfg.Sim.Steps = 10
		off := false
		cfg.Pump.InitiallyActive = &off
		cfg.Pump.ActivateAbove = 100
		cfg.Initial.Natural = 90
		cfg.Tank.LeakRate = params["tank.leak_rate"]
		exp := experiment.New(cfg)
		return exp, exp.Setup(nil)
	}

	params, _, err := g.Search(context.Background(), build, "stability")
	if err != nil {
		t.Fatal(err)
	}
	if params == nil {
		t.Fatal("expected parameters")
	}

	g.Maximize = false
	params, best, err := g.Search(context.Background(), build, "peak_level")
	if err != nil {
		t.Fatal(err)
	}
	if params["tank.leak_rate"] != 0.5 {
		t.Errorf("expected leak 0.5 to minimize peak, got %v (peak %f)", params, best)
	}
}

func TestGridSearchNoResult(t *testing.T) {
	g := NewGridSearch([]string{"pump.speed"}, [][]float64{{1, 2}})
	_, _, err := g.Search(context.Background(), builder("retention"), "control_effort")
	if !errors.Is(err, ErrNoResult) {
		t.Errorf("expected ErrNoResult, got %v", err)
	}
}

func TestGridSearchCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := NewGridSearch([]string{"tank.leak_rate"}, [][]float64{{0.1}})
	if _, _, err := g.Search(ctx, builder("retention"), "control_effort"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
