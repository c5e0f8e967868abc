package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/san-kum/fuzzytank/internal/control"
)

func TestRecorderOnStep(t *testing.T) {
	r := NewRecorder("storm")

	steps := []control.Snapshot{
		{PumpActive: false, NaturalLevel: 55},
		{PumpActive: true, PumpPower: 40, NaturalLevel: 62, RetentionLevel: 4},
		{PumpActive: true, PumpPower: 30, NaturalLevel: 58, RetentionLevel: 7, OverflowLevel: 1},
	}
	for _, s := range steps {
		r.OnStep(s)
	}

	if got := testutil.ToFloat64(r.ticks); got != 3 {
		t.Errorf("expected 3 ticks, got %f", got)
	}
	if got := testutil.ToFloat64(r.activations); got != 1 {
		t.Errorf("expected 1 activation, got %f", got)
	}
	if got := testutil.ToFloat64(r.pumpPower); got != 30 {
		t.Errorf("expected pump power 30, got %f", got)
	}
	if got := testutil.ToFloat64(r.levels.WithLabelValues("retention")); got != 7 {
		t.Errorf("expected retention 7, got %f", got)
	}
	if got := testutil.ToFloat64(r.levels.WithLabelValues("overflow")); got != 1 {
		t.Errorf("expected overflow 1, got %f", got)
	}
}

func TestRecorderActivations(t *testing.T) {
	tests := []struct {
		name     string
		active   []bool
		expected float64
	}{
		{"active from the start", []bool{true, true}, 0},
		{"restart after stop", []bool{true, false, true}, 1},
		{"off then on", []bool{false, true, false, true}, 2},
		{"never active", []bool{false, false}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRecorder("retention")
			for _, a := range tt.active {
				r.OnStep(control.Snapshot{PumpActive: a})
			}
			if got := testutil.ToFloat64(r.activations); got != tt.expected {
				t.Errorf("expected %f activations, got %f", tt.expected, got)
			}
		})
	}
}

func TestRecorderRunMetrics(t *testing.T) {
	r := NewRecorder("retention")
	r.SetRunMetrics(map[string]float64{"stability": 0.75})

	expected := `
# HELP fuzzytank_run_metric Summary metrics of the last completed run.
# TYPE fuzzytank_run_metric gauge
fuzzytank_run_metric{metric="stability",preset="retention"} 0.75
`
	if err := testutil.CollectAndCompare(r.runMetrics, strings.NewReader(expected)); err != nil {
		t.Error(err)
	}
}

func TestRecorderWriteTextfile(t *testing.T) {
	r := NewRecorder("retention")
	r.OnStep(control.Snapshot{PumpActive: true, PumpPower: 50, NaturalLevel: 70})

	path := filepath.Join(t.TempDir(), "fuzzytank.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		`fuzzytank_ticks_total{preset="retention"} 1`,
		`fuzzytank_level{preset="retention",tank="natural"} 70`,
		`fuzzytank_pump_active{preset="retention"} 1`,
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("textfile missing %q", want)
		}
	}
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	r.OnStep(control.Snapshot{})
	r.SetRunMetrics(map[string]float64{"x": 1})
	if err := r.WriteTextfile("unused"); err != nil {
		t.Errorf("nil recorder should not fail: %v", err)
	}
}
