package control

import (
	"github.com/san-kum/fuzzytank/internal/fuzzy"
	"github.com/san-kum/fuzzytank/internal/tank"
)

// RetentionOptions builds the retention-pond setup (capacity 100, natural
// 30, safe 40, warning 60, alarm 75, leak 0.2) with the named strategy.
func RetentionOptions(strategy string) Options {
	level := fuzzy.NewVariable("level", 0, 100)
	mustAdd(level, "low", fuzzy.Triangle{A: 30, B: 40, C: 60})
	mustAdd(level, "medium", fuzzy.Triangle{A: 40, B: 60, C: 75})
	mustAdd(level, "high", fuzzy.Triangle{A: 60, B: 75, C: 100})

	power := fuzzy.NewVariable("power", 0, 100)
	mustAdd(power, "low", fuzzy.Triangle{A: -50, B: 0, C: 50})
	mustAdd(power, "medium", fuzzy.Triangle{A: 25, B: 50, C: 75})
	mustAdd(power, "high", fuzzy.Triangle{A: 50, B: 100, C: 150})

	rules := fuzzy.NewRuleBase(
		fuzzy.Rule{If: "low", Then: []string{"low"}},
		fuzzy.Rule{If: "medium", Then: []string{"medium"}},
		fuzzy.Rule{If: "high", Then: []string{"high"}},
	)

	d, err := fuzzy.NewDefuzzifier(strategy, fuzzy.StrategyOptions{
		Output:          power,
		Samples:         fuzzy.DefaultSamples,
		Representatives: map[string]float64{"low": 0, "medium": 50, "high": 100},
	})
	if err != nil {
		panic(err)
	}
	eng, err := fuzzy.NewEngine(level, power, rules, d)
	if err != nil {
		panic(err)
	}

	return Options{
		Engine: eng,
		Tank: tank.Params{
			Capacity:     100,
			SafeLevel:    40,
			LeakRate:     0.2,
			NaturalFloor: 30,
			Direction:    tank.Drain,
			Rain:         tank.DefaultRainTable,
		},
		Pump: PumpOptions{
			Policy:        PolicyHysteresis,
			ActivateAbove: 60,
			DeactivateAt:  40,
		},
		Initial: tank.State{Natural: 100},
	}
}

func mustAdd(v *fuzzy.Variable, name string, t fuzzy.Triangle) {
	if err := v.AddTerm(name, t); err != nil {
		panic(err)
	}
}
