package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/fuzzytank/internal/control"
	"github.com/san-kum/fuzzytank/internal/fuzzy"
	"github.com/san-kum/fuzzytank/internal/tank"
)

const (
	DefaultCapacity = 100.0
	DefaultNatural  = 30.0
	DefaultSafe     = 40.0
	DefaultWarning  = 60.0
	DefaultAlarm    = 75.0
	DefaultLeakRate = 0.2
	DefaultSteps    = 100
	DefaultStrategy = "centroid"
	DefaultInterval = "1s"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description,omitempty"`
	Levels      LevelsConfig   `yaml:"levels"`
	Input       VariableConfig `yaml:"input"`
	Output      VariableConfig `yaml:"output"`
	Rules       []fuzzy.Rule   `yaml:"rules,omitempty"`
	Defuzzifier DefuzzConfig   `yaml:"defuzzifier"`
	Pump        PumpConfig     `yaml:"pump"`
	Tank        TankConfig     `yaml:"tank"`
	Initial     tank.State     `yaml:"initial"`
	Sim         SimConfig      `yaml:"sim"`
}

// LevelsConfig holds the reference levels of the natural tank. When the
// input variable has no terms, low/medium/high are derived from them.
type LevelsConfig struct {
	Capacity float64 `yaml:"capacity"`
	Natural  float64 `yaml:"natural"`
	Safe     float64 `yaml:"safe"`
	Warning  float64 `yaml:"warning"`
	Alarm    float64 `yaml:"alarm"`
}

// VariableConfig describes a linguistic variable. Terms map a name to the
// triangle corners [a, b, c].
type VariableConfig struct {
	Name  string               `yaml:"name"`
	Min   float64              `yaml:"min"`
	Max   float64              `yaml:"max"`
	Terms map[string][]float64 `yaml:"terms,omitempty"`
}

type DefuzzConfig struct {
	Strategy        string             `yaml:"strategy"`
	Samples         int                `yaml:"samples"`
	Representatives map[string]float64 `yaml:"representatives,omitempty"`
}

type PumpConfig struct {
	Policy          string  `yaml:"policy"`
	ActivateAbove   float64 `yaml:"activate_above"`
	DeactivateAt    float64 `yaml:"deactivate_at"`
	InitiallyActive *bool   `yaml:"initially_active,omitempty"`
}

type TankConfig struct {
	LeakRate         float64   `yaml:"leak_rate"`
	NaturalFloor     float64   `yaml:"natural_floor"`
	Direction        string    `yaml:"direction"`
	Rain             []float64 `yaml:"rain,omitempty"`
	OverflowCapacity float64   `yaml:"overflow_capacity,omitempty"`
}

// SimConfig drives batch runs and the live view. Rain is a schedule of
// intensities cycled over the run.
type SimConfig struct {
	Steps    int    `yaml:"steps"`
	Rain     []int  `yaml:"rain,omitempty"`
	Interval string `yaml:"interval"`
}

func DefaultConfig() *Config {
	return &Config{
		Name: "custom",
		Levels: LevelsConfig{
			Capacity: DefaultCapacity,
			Natural:  DefaultNatural,
			Safe:     DefaultSafe,
			Warning:  DefaultWarning,
			Alarm:    DefaultAlarm,
		},
		Input:  VariableConfig{Name: "level", Min: 0, Max: DefaultCapacity},
		Output: VariableConfig{Name: "power", Min: 0, Max: 100},
		Defuzzifier: DefuzzConfig{
			Strategy: DefaultStrategy,
			Samples:  fuzzy.DefaultSamples,
		},
		Pump: PumpConfig{
			Policy:        string(control.PolicyHysteresis),
			ActivateAbove: DefaultWarning,
			DeactivateAt:  DefaultSafe,
		},
		Tank: TankConfig{
			LeakRate:     DefaultLeakRate,
			NaturalFloor: DefaultNatural,
			Direction:    string(tank.Drain),
			Rain:         append([]float64(nil), tank.DefaultRainTable[:]...),
		},
		Initial: tank.State{Natural: DefaultCapacity},
		Sim: SimConfig{
			Steps:    DefaultSteps,
			Interval: DefaultInterval,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate reports every problem found, each wrapping ErrInvalidConfig.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...)))
	}

	l := c.Levels
	if !finite(l.Capacity) || l.Capacity <= 0 {
		bad("levels.capacity must be positive, got %g", l.Capacity)
	}
	for name, v := range map[string]float64{"natural": l.Natural, "safe": l.Safe, "warning": l.Warning, "alarm": l.Alarm} {
		if !finite(v) || v < 0 || v > l.Capacity {
			bad("levels.%s=%g outside [0, capacity]", name, v)
		}
	}
	if len(c.Input.Terms) == 0 && !(l.Natural <= l.Safe && l.Safe <= l.Warning && l.Warning <= l.Alarm && l.Alarm <= l.Capacity) {
		bad("levels must be ordered natural <= safe <= warning <= alarm <= capacity to derive input terms")
	}

	for _, v := range []VariableConfig{c.Input, c.Output} {
		for name, corners := range v.Terms {
			if len(corners) != 3 {
				bad("%s.terms.%s needs 3 corners, got %d", v.Name, name, len(corners))
			}
		}
	}

	if n := len(c.Tank.Rain); n != 0 && n != tank.MaxRainIntensity+1 {
		bad("tank.rain needs one increment per intensity 0..%d, got %d entries", tank.MaxRainIntensity, n)
	}
	if c.Sim.Steps < 0 {
		bad("sim.steps must not be negative, got %d", c.Sim.Steps)
	}
	for i, r := range c.Sim.Rain {
		if r < 0 || r > tank.MaxRainIntensity {
			bad("sim.rain[%d]=%d outside 0..%d", i, r, tank.MaxRainIntensity)
		}
	}
	if _, err := c.TickInterval(); err != nil {
		bad("sim.interval: %v", err)
	}
	return errors.Join(errs...)
}

// TickInterval parses Sim.Interval, defaulting to one second.
func (c *Config) TickInterval() (time.Duration, error) {
	if c.Sim.Interval == "" {
		return time.Second, nil
	}
	d, err := time.ParseDuration(c.Sim.Interval)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", d)
	}
	return d, nil
}

// Options validates the configuration and translates it into controller
// options.
func (c *Config) Options() (control.Options, error) {
	if err := c.Validate(); err != nil {
		return control.Options{}, err
	}

	input, err := c.inputVariable()
	if err != nil {
		return control.Options{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	output, err := c.outputVariable()
	if err != nil {
		return control.Options{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	rules := c.Rules
	if len(rules) == 0 {
		rules = defaultRules()
	}
	reps := c.Defuzzifier.Representatives
	if len(reps) == 0 {
		reps = defaultRepresentatives()
	}

	d, err := fuzzy.NewDefuzzifier(c.Defuzzifier.Strategy, fuzzy.StrategyOptions{
		Output:          output,
		Samples:         c.Defuzzifier.Samples,
		Representatives: reps,
	})
	if err != nil {
		return control.Options{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	eng, err := fuzzy.NewEngine(input, output, fuzzy.NewRuleBase(rules...), d)
	if err != nil {
		return control.Options{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	var rain tank.RainTable
	copy(rain[:], c.Tank.Rain)

	return control.Options{
		Engine: eng,
		Tank: tank.Params{
			Capacity:         c.Levels.Capacity,
			SafeLevel:        c.Levels.Safe,
			LeakRate:         c.Tank.LeakRate,
			NaturalFloor:     c.Tank.NaturalFloor,
			Direction:        tank.Direction(c.Tank.Direction),
			Rain:             rain,
			OverflowCapacity: c.Tank.OverflowCapacity,
		},
		Pump: control.PumpOptions{
			Policy:          control.Policy(c.Pump.Policy),
			ActivateAbove:   c.Pump.ActivateAbove,
			DeactivateAt:    c.Pump.DeactivateAt,
			InitiallyActive: c.Pump.InitiallyActive,
		},
		Initial: c.Initial,
	}, nil
}

// Build is Options followed by control.New.
func (c *Config) Build() (*control.Controller, error) {
	opts, err := c.Options()
	if err != nil {
		return nil, err
	}
	ctrl, err := control.New(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return ctrl, nil
}

// RainAt returns the scheduled rain intensity for a tick.
func (c *Config) RainAt(tick int) int {
	if len(c.Sim.Rain) == 0 {
		return 0
	}
	return c.Sim.Rain[tick%len(c.Sim.Rain)]
}

func (c *Config) inputVariable() (*fuzzy.Variable, error) {
	terms := c.Input.Terms
	if len(terms) == 0 {
		terms = LevelTerms(c.Levels)
	}
	return buildVariable(c.Input, terms)
}

func (c *Config) outputVariable() (*fuzzy.Variable, error) {
	terms := c.Output.Terms
	if len(terms) == 0 {
		terms = defaultOutputTerms()
	}
	return buildVariable(c.Output, terms)
}

func buildVariable(vc VariableConfig, terms map[string][]float64) (*fuzzy.Variable, error) {
	v := fuzzy.NewVariable(vc.Name, vc.Min, vc.Max)
	var errs []error
	for name, corners := range terms {
		t := fuzzy.Triangle{A: corners[0], B: corners[1], C: corners[2]}
		if err := v.AddTerm(name, t); err != nil {
			errs = append(errs, err)
		}
	}
	return v, errors.Join(errs...)
}

// LevelTerms derives low/medium/high over the tank level from the reference
// levels: low peaks at safe, medium at warning, high at alarm.
func LevelTerms(l LevelsConfig) map[string][]float64 {
	return map[string][]float64{
		"low":    {l.Natural, l.Safe, l.Warning},
		"medium": {l.Safe, l.Warning, l.Alarm},
		"high":   {l.Warning, l.Alarm, l.Capacity},
	}
}

func defaultOutputTerms() map[string][]float64 {
	return map[string][]float64{
		"low":    {-50, 0, 50},
		"medium": {25, 50, 75},
		"high":   {50, 100, 150},
	}
}

func defaultRules() []fuzzy.Rule {
	return []fuzzy.Rule{
		{If: "low", Then: []string{"low"}},
		{If: "medium", Then: []string{"medium"}},
		{If: "high", Then: []string{"high"}},
	}
}

func defaultRepresentatives() map[string]float64 {
	return map[string]float64{"low": 0, "medium": 50, "high": 100}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Tunables lists the parameter names accepted by SetParam.
var Tunables = []string{
	"pump.activate_above",
	"pump.deactivate_at",
	"tank.leak_rate",
	"tank.natural_floor",
	"tank.overflow_capacity",
	"levels.safe",
}

// SetParam sets a numeric field by its dotted YAML path.
func (c *Config) SetParam(name string, value float64) error {
	switch name {
	case "pump.activate_above":
		c.Pump.ActivateAbove = value
	case "pump.deactivate_at":
		c.Pump.DeactivateAt = value
	case "tank.leak_rate":
		c.Tank.LeakRate = value
	case "tank.natural_floor":
		c.Tank.NaturalFloor = value
	case "tank.overflow_capacity":
		c.Tank.OverflowCapacity = value
	case "levels.safe":
		c.Levels.Safe = value
	default:
		return fmt.Errorf("%w: unknown parameter %q (tunable: %v)", ErrInvalidConfig, name, Tunables)
	}
	return nil
}
