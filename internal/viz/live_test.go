package viz

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/fuzzytank/internal/control"
	"github.com/san-kum/fuzzytank/internal/sim"
)

type fakeLoop struct {
	ticks  uint64
	level  float64
	rains  []int
	resets int
}

func (f *fakeLoop) Tick(rain int) control.Snapshot {
	f.ticks++
	f.level += float64(rain)
	f.rains = append(f.rains, rain)
	return f.CurrentState()
}

func (f *fakeLoop) CurrentState() control.Snapshot {
	return control.Snapshot{Tick: f.ticks, NaturalLevel: f.level, PumpActive: true, PumpPower: 40}
}

func (f *fakeLoop) Reset() {
	f.resets++
	f.ticks = 0
	f.level = 50
}

type countingObserver struct{ n int }

func (c *countingObserver) OnStep(control.Snapshot) { c.n++ }

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestModelTicksWithRain(t *testing.T) {
	loop := &fakeLoop{level: 50}
	obs := &countingObserver{}
	m := NewModel(loop, Options{Name: "retention", Interval: time.Millisecond, Observers: []sim.Observer{obs}})

	m = update(t, m, key("3"))
	if m.Rain() != 3 {
		t.Fatalf("expected rain 3, got %d", m.Rain())
	}
	m = update(t, m, TickMsg(time.Now()))
	m = update(t, m, TickMsg(time.Now()))

	if loop.ticks != 2 {
		t.Errorf("expected 2 ticks, got %d", loop.ticks)
	}
	if loop.rains[0] != 3 || loop.rains[1] != 3 {
		t.Errorf("expected rain 3 on every tick, got %v", loop.rains)
	}
	if m.Snapshot().NaturalLevel != 56 {
		t.Errorf("expected level 56, got %g", m.Snapshot().NaturalLevel)
	}
	if obs.n != 2 {
		t.Errorf("expected 2 observer calls, got %d", obs.n)
	}
}

func TestModelPauseAndStep(t *testing.T) {
	loop := &fakeLoop{}
	m := NewModel(loop, Options{})

	m = update(t, m, key(" "))
	if m.Running() {
		t.Fatal("expected paused model")
	}
	m = update(t, m, TickMsg(time.Now()))
	if loop.ticks != 0 {
		t.Errorf("paused model should not tick, got %d", loop.ticks)
	}

	m = update(t, m, key("n"))
	if loop.ticks != 1 {
		t.Errorf("expected single step, got %d ticks", loop.ticks)
	}

	m = update(t, m, key(" "))
	if !m.Running() {
		t.Error("expected running model")
	}
	update(t, m, key("n"))
	if loop.ticks != 1 {
		t.Error("single step should be ignored while running")
	}
}

func TestModelReset(t *testing.T) {
	loop := &fakeLoop{}
	m := NewModel(loop, Options{})
	m = update(t, m, key("4"))
	m = update(t, m, TickMsg(time.Now()))

	m = update(t, m, key("r"))
	if loop.resets != 1 {
		t.Fatalf("expected 1 reset, got %d", loop.resets)
	}
	if m.Snapshot().Tick != 0 || m.Snapshot().NaturalLevel != 50 {
		t.Errorf("expected reset snapshot, got %+v", m.Snapshot())
	}
	if len(m.natural) != 0 {
		t.Errorf("expected empty history, got %d", len(m.natural))
	}
}

func TestModelQuit(t *testing.T) {
	m := NewModel(&fakeLoop{}, Options{})
	_, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestModelView(t *testing.T) {
	loop := &fakeLoop{level: 70}
	m := NewModel(loop, Options{Name: "storm", Safe: 40, Alarm: 75, OverflowCapacity: 20})
	m = update(t, m, TickMsg(time.Now()))
	m = update(t, m, TickMsg(time.Now()))

	out := m.View()
	for _, want := range []string{"STORM", "natural", "retention", "overflow", "ACTIVE", "RUNNING"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}

	m = update(t, m, key("?"))
	if !strings.Contains(m.View(), "KEYBOARD SHORTCUTS") {
		t.Error("help overlay not shown")
	}
}

func TestThemeCycle(t *testing.T) {
	defer SetTheme(ThemeRiver.Name)

	m := NewModel(&fakeLoop{}, Options{})
	update(t, m, key("t"))
	if CurrentTheme.Name != ThemeRetroGreen.Name {
		t.Errorf("expected retro theme, got %s", CurrentTheme.Name)
	}
	if GetTheme("missing").Name != ThemeRiver.Name {
		t.Error("unknown theme should fall back to river")
	}
}
