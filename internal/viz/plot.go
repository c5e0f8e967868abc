package viz

import (
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/fuzzytank/internal/control"
)

// Series extracts the natural level, retention level and pump power of a
// trace.
func Series(states []control.Snapshot) (natural, retention, power []float64) {
	natural = make([]float64, len(states))
	retention = make([]float64, len(states))
	power = make([]float64, len(states))
	for i, s := range states {
		natural[i] = s.NaturalLevel
		retention[i] = s.RetentionLevel
		power[i] = s.PumpPower
	}
	return natural, retention, power
}

// Plot charts a run: natural level in blue, retention in green and pump
// power in red, all on the 0-100 scale.
func Plot(states []control.Snapshot, width, height int, caption string) string {
	if len(states) < 2 {
		return ""
	}
	natural, retention, power := Series(states)
	return asciigraph.PlotMany(
		[][]float64{natural, retention, power},
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.LowerBound(0),
		asciigraph.UpperBound(100),
		asciigraph.SeriesColors(asciigraph.Blue, asciigraph.Green, asciigraph.Red),
		asciigraph.Caption(caption),
	)
}
