package viz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const gaugeWidth = 8

// TankGauge draws a tank as a vertical bar with optional level marks.
type TankGauge struct {
	Label    string
	Capacity float64
	Marks    map[string]float64
	Color    lipgloss.Color
}

// Render draws the gauge for level using rows lines for the body.
func (g TankGauge) Render(level float64, rows int) string {
	if rows < 1 {
		rows = 1
	}
	band := g.Capacity / float64(rows)
	fill := lipgloss.NewStyle().Foreground(g.Color)

	var b strings.Builder
	for r := 0; r < rows; r++ {
		lo := g.Capacity - float64(r+1)*band
		hi := lo + band

		cell := strings.Repeat(" ", gaugeWidth)
		if band > 0 && level >= lo+band/2 {
			cell = fill.Render(strings.Repeat("█", gaugeWidth))
		}
		b.WriteString("│" + cell + "│")
		if mark := g.markIn(lo, hi, r == 0); mark != "" {
			b.WriteString(" ◀ " + mark)
		}
		b.WriteString("\n")
	}
	b.WriteString("╰" + strings.Repeat("─", gaugeWidth) + "╯\n")
	fmt.Fprintf(&b, "%-*s\n", gaugeWidth+2, g.Label)
	fmt.Fprintf(&b, "%*.1f", gaugeWidth+2, level)
	return b.String()
}

func (g TankGauge) markIn(lo, hi float64, top bool) string {
	names := make([]string, 0, len(g.Marks))
	for name, v := range g.Marks {
		if (v >= lo && v < hi) || (top && v >= hi) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}
