package config

import (
	"sort"

	"github.com/san-kum/fuzzytank/internal/control"
	"github.com/san-kum/fuzzytank/internal/fuzzy"
	"github.com/san-kum/fuzzytank/internal/tank"
)

// Presets builds a fresh Config per call so callers may override fields.
var Presets = map[string]func() *Config{
	"retention": func() *Config {
		cfg := DefaultConfig()
		cfg.Name = "retention"
		cfg.Description = "drain into retention, weighted defuzzification, pump off at the safe level"
		cfg.Defuzzifier.Strategy = "weighted"
		cfg.Pump.ActivateAbove = DefaultSafe
		return cfg
	},
	"retention-centroid": func() *Config {
		cfg := DefaultConfig()
		cfg.Name = "retention-centroid"
		cfg.Description = "drain into retention, centroid defuzzification, hysteresis between safe and warning"
		return cfg
	},
	"storm": func() *Config {
		cfg := DefaultConfig()
		cfg.Name = "storm"
		cfg.Description = "rain cycles through every intensity, excess spills into an overflow tank"
		cfg.Tank.OverflowCapacity = 20
		cfg.Initial = tank.State{Natural: 70}
		cfg.Sim.Steps = 200
		cfg.Sim.Rain = []int{0, 1, 2, 3, 4, 4, 4, 3, 2, 1}
		return cfg
	},
	"refill": func() *Config {
		cfg := DefaultConfig()
		cfg.Name = "refill"
		cfg.Description = "pump refills the natural tank from retention, inverse rules, always on"
		cfg.Levels.Natural = 0
		cfg.Input.Terms = map[string][]float64{
			"low":    {0, 0, 50},
			"medium": {25, 50, 75},
			"high":   {50, 100, 100},
		}
		cfg.Output.Terms = map[string][]float64{
			"off":  {-50, 0, 50},
			"half": {25, 50, 75},
			"full": {50, 100, 150},
		}
		cfg.Rules = []fuzzy.Rule{
			{If: "high", Then: []string{"off"}},
			{If: "medium", Then: []string{"half"}},
			{If: "low", Then: []string{"full"}},
		}
		cfg.Defuzzifier.Strategy = "weighted"
		cfg.Defuzzifier.Representatives = map[string]float64{"off": 0, "half": 50, "full": 100}
		cfg.Pump.Policy = string(control.PolicyAlways)
		cfg.Tank.Direction = string(tank.Fill)
		cfg.Tank.LeakRate = 0
		cfg.Tank.NaturalFloor = 0
		cfg.Initial = tank.State{Natural: 50, Retention: 100}
		return cfg
	},
}

// GetPreset returns a new copy of the named preset, or nil.
func GetPreset(name string) *Config {
	build, ok := Presets[name]
	if !ok {
		return nil
	}
	return build()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
