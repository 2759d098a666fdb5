package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sawpanic/tickgate/internal/ingest"
	"github.com/sawpanic/tickgate/internal/rules"
	"github.com/sawpanic/tickgate/internal/tick"
)

// Recorder exports engine results as Prometheus metrics. It implements
// ingest.Observer.
type Recorder struct {
	Ticks            *prometheus.CounterVec
	Violations       *prometheus.CounterVec
	SequenceGaps     prometheus.Counter
	DeadLetterSize   prometheus.Gauge
	ValidateDuration *prometheus.HistogramVec
}

// NewRecorder creates the tickgate metric set and registers it on reg
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		Ticks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tickgate_ticks_total",
				Help: "Total number of processed records by quality tier",
			},
			[]string{"quality"},
		),

		Violations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tickgate_violations_total",
				Help: "Total number of rule violations by rule and severity",
			},
			[]string{"rule", "severity"},
		),

		SequenceGaps: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tickgate_sequence_gaps_total",
				Help: "Total number of sequence gaps observed (advisory)",
			},
		),

		DeadLetterSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tickgate_dead_letter_size",
				Help: "Current number of records in the dead-letter queue",
			},
		),

		ValidateDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tickgate_validate_duration_seconds",
				Help:    "Duration of one validate call in seconds",
				Buckets: []float64{0.000001, 0.000005, 0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
			},
			[]string{"quality"},
		),
	}

	collectors := []prometheus.Collector{
		r.Ticks, r.Violations, r.SequenceGaps, r.DeadLetterSize, r.ValidateDuration,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	// Pre-create tier series so dashboards see zeros
	for _, q := range tick.Qualities {
		r.Ticks.WithLabelValues(string(q))
	}

	return r, nil
}

// ObserveResult records one engine result
func (r *Recorder) ObserveResult(res ingest.Result, deadLetters int, elapsed time.Duration) {
	quality := string(res.Quality)

	r.Ticks.WithLabelValues(quality).Inc()
	for _, v := range res.Violations {
		r.Violations.WithLabelValues(v.Rule, string(v.Severity)).Inc()
	}
	for _, a := range res.Advisories {
		if a.Signal == rules.SignalSequenceGap {
			r.SequenceGaps.Inc()
		}
	}
	r.DeadLetterSize.Set(float64(deadLetters))
	r.ValidateDuration.WithLabelValues(quality).Observe(elapsed.Seconds())
}
