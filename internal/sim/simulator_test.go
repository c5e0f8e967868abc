package sim

import (
	"context"
	"errors"
	"testing"

	"github.com/san-kum/fuzzytank/internal/config"
	"github.com/san-kum/fuzzytank/internal/control"
)

type testStepper struct {
	level float64
	ticks uint64
	rains []int
}

func (t *testStepper) Tick(rain int) control.Snapshot {
	t.ticks++
	t.level += float64(rain)
	t.rains = append(t.rains, rain)
	return t.CurrentState()
}

func (t *testStepper) CurrentState() control.Snapshot {
	return control.Snapshot{Tick: t.ticks, NaturalLevel: t.level}
}

func (t *testStepper) Reset() {
	t.level = 0
	t.ticks = 0
}

type testMetric struct {
	count int
	sum   float64
}

func (t *testMetric) Name() string { return "test" }
func (t *testMetric) Observe(s control.Snapshot) {
	t.count++
	t.sum += s.NaturalLevel
}
func (t *testMetric) Value() float64 {
	if t.count == 0 {
		return 0
	}
	return t.sum / float64(t.count)
}
func (t *testMetric) Reset() {
	t.count = 0
	t.sum = 0
}

type countingObserver struct{ steps int }

func (c *countingObserver) OnStep(control.Snapshot) { c.steps++ }

func TestSimulatorRun(t *testing.T) {
	stepper := &testStepper{}
	sim := New(stepper)

	result, err := sim.Run(context.Background(), Config{Steps: 10, Rain: []int{1, 2}})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(result.States) != 11 {
		t.Errorf("expected 11 states, got %d", len(result.States))
	}
	if result.StepsTaken != 10 {
		t.Errorf("expected 10 steps, got %d", result.StepsTaken)
	}
	if got := result.Final().NaturalLevel; got != 15 {
		t.Errorf("expected final level 15, got %g", got)
	}
	if stepper.rains[2] != 1 || stepper.rains[3] != 2 {
		t.Errorf("rain schedule not cycled: %v", stepper.rains)
	}
}

func TestSimulatorReset(t *testing.T) {
	stepper := &testStepper{level: 7, ticks: 3}
	sim := New(stepper)

	result, err := sim.Run(context.Background(), Config{Steps: 1, Reset: true})
	if err != nil {
		t.Fatal(err)
	}
	if result.States[0].Tick != 0 || result.States[0].NaturalLevel != 0 {
		t.Errorf("expected reset initial snapshot, got %+v", result.States[0])
	}
}

func TestSimulatorInvalidConfig(t *testing.T) {
	sim := New(&testStepper{})

	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero steps", Config{Steps: 0}},
		{"negative steps", Config{Steps: -5}},
		{"rain too heavy", Config{Steps: 5, Rain: []int{0, 5}}},
		{"negative rain", Config{Steps: 5, Rain: []int{-1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sim.Run(context.Background(), tt.cfg)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestSimulatorMetrics(t *testing.T) {
	sim := New(&testStepper{})

	metric := &testMetric{}
	obs := &countingObserver{}
	sim.AddMetric(metric)
	sim.AddObserver(obs)

	result, err := sim.Run(context.Background(), Config{Steps: 10, Rain: []int{1}})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if _, ok := result.Metrics["test"]; !ok {
		t.Error("metric not found in result")
	}
	if metric.count != 10 {
		t.Errorf("expected 10 observations, got %d", metric.count)
	}
	if obs.steps != 10 {
		t.Errorf("expected 10 observer calls, got %d", obs.steps)
	}
	if result.Metrics["test"] != 5.5 {
		t.Errorf("expected mean level 5.5, got %g", result.Metrics["test"])
	}
}

func TestSimulatorCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sim := New(&testStepper{})
	result, err := sim.Run(ctx, Config{Steps: 100})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if result == nil || result.StepsTaken != 0 {
		t.Errorf("expected empty partial result, got %+v", result)
	}
}

func TestSimulatorWithController(t *testing.T) {
	ctrl, err := config.GetPreset("storm").Build()
	if err != nil {
		t.Fatal(err)
	}

	result, err := New(ctrl).Run(context.Background(), Config{Steps: 50, Rain: []int{4}})
	if err != nil {
		t.Fatal(err)
	}
	for i, s := range result.States[1:] {
		if s.Tick != uint64(i+1) {
			t.Fatalf("state %d has tick %d", i, s.Tick)
		}
		if s.NaturalLevel < 0 || s.NaturalLevel > 100 || s.RetentionLevel < 0 || s.RetentionLevel > 100 {
			t.Fatalf("levels out of range at tick %d: %+v", s.Tick, s)
		}
		if s.Rain != 4 {
			t.Fatalf("expected rain 4, got %d", s.Rain)
		}
	}
}

func TestEnsemble(t *testing.T) {
	a, b := &testStepper{}, &testStepper{level: 100}
	ens := NewEnsemble(Job{Name: "a", Sim: New(a)}, Job{Name: "b", Sim: New(b)})

	results, err := ens.Run(context.Background(), Config{Steps: 4, Rain: []int{1}})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if got := results["a"].Final().NaturalLevel; got != 4 {
		t.Errorf("a: expected 4, got %g", got)
	}
	if got := results["b"].Final().NaturalLevel; got != 104 {
		t.Errorf("b: expected 104, got %g", got)
	}
}

func TestEnsembleError(t *testing.T) {
	ens := NewEnsemble(Job{Name: "bad", Sim: New(&testStepper{})})
	if _, err := ens.Run(context.Background(), Config{}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

type cancellingStepper struct {
	testStepper
	wait   <-chan struct{}
	cancel context.CancelFunc
}

func (c *cancellingStepper) Tick(rain int) control.Snapshot {
	<-c.wait
	c.cancel()
	return c.testStepper.Tick(rain)
}

type closeAfter struct {
	n    int
	done chan struct{}
}

func (c *closeAfter) OnStep(control.Snapshot) {
	c.n--
	if c.n == 0 {
		close(c.done)
	}
}

func TestEnsemblePartialResults(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// "halt" cancels the shared context only after "good" observed its last tick.
	finished := &closeAfter{n: 3, done: make(chan struct{})}
	good := New(&testStepper{})
	good.AddObserver(finished)
	halt := New(&cancellingStepper{wait: finished.done, cancel: cancel})

	results, err := NewEnsemble(Job{Name: "good", Sim: good}, Job{Name: "halt", Sim: halt}).
		Run(ctx, Config{Steps: 3, Rain: []int{1}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if _, ok := results["halt"]; ok {
		t.Error("expected the failed job to be left out")
	}
	res, ok := results["good"]
	if !ok {
		t.Fatal("expected the completed job in the results")
	}
	if res.StepsTaken != 3 || res.Final().NaturalLevel != 3 {
		t.Errorf("expected 3 steps ending at 3, got %d at %g", res.StepsTaken, res.Final().NaturalLevel)
	}
}

func TestSimulatorBaseline(t *testing.T) {
	stepper := &testStepper{level: 10}
	sim := New(stepper)
	m := &baselineMetric{}
	sim.AddMetric(m)

	result, err := sim.Run(context.Background(), Config{Steps: 1, Rain: []int{2}})
	if err != nil {
		t.Fatal(err)
	}
	if m.baselines != 1 || m.first != 10 {
		t.Errorf("expected one baseline at 10, got %d at %g", m.baselines, m.first)
	}
	if result.Metrics["delta"] != 2 {
		t.Errorf("expected delta 2, got %g", result.Metrics["delta"])
	}
}

type baselineMetric struct {
	baselines   int
	first, last float64
}

func (b *baselineMetric) Name() string { return "delta" }
func (b *baselineMetric) Baseline(s control.Snapshot) {
	b.baselines++
	b.first = s.NaturalLevel
}
func (b *baselineMetric) Observe(s control.Snapshot) {
	b.last = s.NaturalLevel
}
func (b *baselineMetric) Value() float64 {
	return b.last - b.first
}
func (b *baselineMetric) Reset() {
	*b = baselineMetric{}
}
