package metrics

import (
	"math"

	"github.com/san-kum/fuzzytank/internal/control"
)

type PeakLevel struct {
	name string
	peak float64
	seen bool
}

func NewPeakLevel() *PeakLevel {
	return &PeakLevel{name: "peak_level"}
}

func (p *PeakLevel) Name() string { return p.name }

func (p *PeakLevel) Observe(s control.Snapshot) {
	if !p.seen {
		p.peak = s.NaturalLevel
		p.seen = true
		return
	}
	p.peak = math.Max(p.peak, s.NaturalLevel)
}

func (p *PeakLevel) Value() float64 { return p.peak }

func (p *PeakLevel) Reset() {
	p.peak = 0
	p.seen = false
}

// PumpCycles counts inactive to active transitions of the pump gate.
type PumpCycles struct {
	name   string
	cycles int
	last   bool
	seen   bool
}

func NewPumpCycles() *PumpCycles {
	return &PumpCycles{name: "pump_cycles"}
}

func (p *PumpCycles) Name() string { return p.name }

func (p *PumpCycles) Observe(s control.Snapshot) {
	if p.seen && !p.last && s.PumpActive {
		p.cycles++
	}
	p.last = s.PumpActive
	p.seen = true
}

func (p *PumpCycles) Value() float64 { return float64(p.cycles) }

func (p *PumpCycles) Reset() {
	p.cycles = 0
	p.last = false
	p.seen = false
}

// Transferred is the retention level gained over a run, measured from the
// baseline snapshot (or the first observed tick without one) to the last
// tick. It is negative when the pump refills the natural tank.
type Transferred struct {
	name        string
	first, last float64
	seen        bool
}

func NewTransferred() *Transferred {
	return &Transferred{name: "transferred"}
}

func (t *Transferred) Name() string { return t.name }

func (t *Transferred) Baseline(s control.Snapshot) {
	t.first = s.RetentionLevel
	t.last = s.RetentionLevel
	t.seen = true
}

func (t *Transferred) Observe(s control.Snapshot) {
	if !t.seen {
		t.first = s.RetentionLevel
		t.seen = true
	}
	t.last = s.RetentionLevel
}

func (t *Transferred) Value() float64 { return t.last - t.first }

func (t *Transferred) Reset() {
	t.first, t.last = 0, 0
	t.seen = false
}
