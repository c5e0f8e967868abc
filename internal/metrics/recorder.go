package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/san-kum/fuzzytank/internal/control"
)

// Recorder mirrors the loop state into Prometheus collectors on a private
// registry. A nil *Recorder ignores every call.
type Recorder struct {
	registry    *prometheus.Registry
	ticks       prometheus.Counter
	activations prometheus.Counter
	pumpPower   prometheus.Gauge
	pumpActive  prometheus.Gauge
	levels      *prometheus.GaugeVec
	powerHist   prometheus.Histogram
	runMetrics  *prometheus.GaugeVec
	lastActive  bool
	seen        bool
}

func NewRecorder(preset string) *Recorder {
	labels := prometheus.Labels{"preset": preset}
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "fuzzytank_ticks_total",
			Help:        "Total control ticks executed.",
			ConstLabels: labels,
		}),
		activations: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "fuzzytank_pump_activations_total",
			Help:        "Total inactive to active transitions of the pump.",
			ConstLabels: labels,
		}),
		pumpPower: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "fuzzytank_pump_power",
			Help:        "Pump power applied on the last tick (0-100).",
			ConstLabels: labels,
		}),
		pumpActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "fuzzytank_pump_active",
			Help:        "Pump gate state on the last tick (1 active, 0 inactive).",
			ConstLabels: labels,
		}),
		levels: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "fuzzytank_level",
			Help:        "Tank level after the last tick.",
			ConstLabels: labels,
		}, []string{"tank"}),
		powerHist: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "fuzzytank_pump_power_distribution",
			Help:        "Histogram of applied pump power.",
			Buckets:     prometheus.LinearBuckets(0, 10, 11),
			ConstLabels: labels,
		}),
		runMetrics: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "fuzzytank_run_metric",
			Help:        "Summary metrics of the last completed run.",
			ConstLabels: labels,
		}, []string{"metric"}),
	}

	r.registry.MustRegister(
		r.ticks,
		r.activations,
		r.pumpPower,
		r.pumpActive,
		r.levels,
		r.powerHist,
		r.runMetrics,
	)

	return r
}

// OnStep records one snapshot.
func (r *Recorder) OnStep(s control.Snapshot) {
	if r == nil {
		return
	}
	r.ticks.Inc()
	// the first snapshot is not a transition.
	if r.seen && s.PumpActive && !r.lastActive {
		r.activations.Inc()
	}
	r.lastActive = s.PumpActive
	r.seen = true

	r.pumpPower.Set(s.PumpPower)
	r.pumpActive.Set(boolGauge(s.PumpActive))
	r.powerHist.Observe(s.PumpPower)
	r.levels.WithLabelValues("natural").Set(s.NaturalLevel)
	r.levels.WithLabelValues("retention").Set(s.RetentionLevel)
	r.levels.WithLabelValues("overflow").Set(s.OverflowLevel)
}

func (r *Recorder) SetRunMetrics(values map[string]float64) {
	if r == nil {
		return
	}
	for name, v := range values {
		r.runMetrics.WithLabelValues(name).Set(v)
	}
}

// WriteTextfile writes the registry in the text exposition format, for the
// node_exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
