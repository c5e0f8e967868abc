package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/fuzzytank/internal/control"
	"github.com/san-kum/fuzzytank/internal/sim"
	"github.com/san-kum/fuzzytank/internal/tank"
)

const (
	historyCapacity = 600
	gaugeRows       = 12
	chartWidth      = 30
)

// Options describes what the dashboard shows. Levels are only used for
// drawing; the loop owns the real configuration.
type Options struct {
	Name             string
	Interval         time.Duration
	Capacity         float64
	Safe             float64
	Alarm            float64
	OverflowCapacity float64
	Rain             int
	Observers        []sim.Observer
}

type TickMsg time.Time

// Model drives a control loop from Bubble Tea ticks.
type Model struct {
	loop      sim.Stepper
	opts      Options
	snap      control.Snapshot
	rain      int
	running   bool
	showHelp  bool
	natural   []float64
	retention []float64
	power     []float64
}

func NewModel(loop sim.Stepper, opts Options) Model {
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.Capacity <= 0 {
		opts.Capacity = 100
	}
	return Model{
		loop:      loop,
		opts:      opts,
		snap:      loop.CurrentState(),
		rain:      tank.ClampIntensity(opts.Rain),
		running:   true,
		natural:   make([]float64, 0, historyCapacity),
		retention: make([]float64, 0, historyCapacity),
		power:     make([]float64, 0, historyCapacity),
	}
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.opts.Interval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch key := msg.String(); key {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "n":
			if !m.running {
				m.step()
			}
		case "r":
			m.reset()
		case "0", "1", "2", "3", "4":
			m.rain = int(key[0] - '0')
		case "t":
			SetTheme(nextTheme())
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			m.step()
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) step() {
	m.snap = m.loop.Tick(m.rain)
	for _, obs := range m.opts.Observers {
		obs.OnStep(m.snap)
	}
	m.natural = appendCapped(m.natural, m.snap.NaturalLevel)
	m.retention = appendCapped(m.retention, m.snap.RetentionLevel)
	m.power = appendCapped(m.power, m.snap.PumpPower)
}

func (m *Model) reset() {
	m.loop.Reset()
	m.snap = m.loop.CurrentState()
	m.natural = m.natural[:0]
	m.retention = m.retention[:0]
	m.power = m.power[:0]
}

func appendCapped(s []float64, v float64) []float64 {
	s = append(s, v)
	if len(s) > historyCapacity {
		s = s[1:]
	}
	return s
}

func (m Model) Snapshot() control.Snapshot {
	return m.snap
}

func (m Model) Rain() int {
	return m.rain
}

func (m Model) Running() bool {
	return m.running
}

func (m Model) View() string {
	gauges := []string{
		TankGauge{
			Label:    "natural",
			Capacity: m.opts.Capacity,
			Marks:    map[string]float64{"safe": m.opts.Safe, "alarm": m.opts.Alarm},
			Color:    CurrentTheme.Natural,
		}.Render(m.snap.NaturalLevel, gaugeRows),
		TankGauge{
			Label:    "retention",
			Capacity: m.opts.Capacity,
			Color:    CurrentTheme.Retention,
		}.Render(m.snap.RetentionLevel, gaugeRows),
	}
	if m.opts.OverflowCapacity > 0 {
		gauges = append(gauges, TankGauge{
			Label:    "overflow",
			Capacity: m.opts.OverflowCapacity,
			Color:    CurrentTheme.Overflow,
		}.Render(m.snap.OverflowLevel, gaugeRows))
	}
	for i := range gauges[:len(gauges)-1] {
		gauges[i] = lipgloss.NewStyle().MarginRight(3).Render(gauges[i])
	}
	tanks := panelStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top, gauges...))

	var s strings.Builder
	s.WriteString(titleStyle().Render(strings.ToUpper(m.opts.Name)) + "\n")
	s.WriteString(m.status() + "\n\n")

	if len(m.natural) > 1 {
		chart := asciigraph.PlotMany(
			[][]float64{m.natural, m.power},
			asciigraph.Height(5),
			asciigraph.Width(chartWidth),
			asciigraph.LowerBound(0),
			asciigraph.UpperBound(100),
			asciigraph.SeriesColors(asciigraph.Blue, asciigraph.Red),
			asciigraph.Caption("level / power"),
		)
		s.WriteString(graphStyle.Render(chart) + "\n")
	}

	s.WriteString(labelStyle.Render("Tick") + valueStyle.Render(fmt.Sprintf("%d", m.snap.Tick)) + "\n")
	s.WriteString(labelStyle.Render("Rain") + valueStyle.Render(fmt.Sprintf("%d  %s", m.rain, strings.Repeat("☂", m.rain))) + "\n")
	s.WriteString(labelStyle.Render("Pump") + m.pumpState() + "\n")
	s.WriteString(labelStyle.Render("Power") + ProgressBar(m.snap.PumpPower/100, 16) + valueStyle.Render(fmt.Sprintf(" %.1f", m.snap.PumpPower)) + "\n")
	s.WriteString(labelStyle.Render("Retention") + Sparkline(m.retention, 0, m.opts.Capacity, 24) + "\n")
	s.WriteString(helpStyle.Render(Separator(30) + "\nSP:Pause N:Step R:Reset\n0-4:Rain T:Theme ?:Help Q:Quit"))

	view := lipgloss.JoinHorizontal(lipgloss.Top, tanks, statsStyle.Render(s.String()))
	if m.showHelp {
		return helpOverlay + "\n\n" + view
	}
	return view
}

func (m Model) status() string {
	if m.running {
		return statusStyle(CurrentTheme.Success).Render("RUNNING")
	}
	return statusStyle(CurrentTheme.Warning).Render("PAUSED")
}

func (m Model) pumpState() string {
	if m.snap.PumpActive {
		return statusStyle(CurrentTheme.Success).Render("ACTIVE")
	}
	return statusStyle(CurrentTheme.Muted).Render("INACTIVE")
}

const helpOverlay = `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume             ║
║  N        - Single tick while paused ║
║  R        - Reset levels             ║
║  0-4      - Rain intensity           ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝`

// Run starts the dashboard on the terminal and blocks until it quits.
func Run(loop sim.Stepper, opts Options) error {
	_, err := tea.NewProgram(NewModel(loop, opts), tea.WithAltScreen()).Run()
	return err
}
