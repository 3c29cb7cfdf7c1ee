package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "cntext"

// Metrics holds the pipeline collectors. A nil *Metrics records nothing.
type Metrics struct {
	transitions   *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	ingestedBytes prometheus.Counter
	resizes       *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submission_transitions_total",
			Help:      "Submission state writes by resulting state.",
		}, []string{"state"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_handle_duration_seconds",
			Help:      "Time spent handling one stage work item.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"stage", "outcome"}),
		ingestedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingested_bytes_total",
			Help:      "Image bytes accepted by completed uploads.",
		}),
		resizes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "instance_group_resizes_total",
			Help:      "Instance group resize attempts by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(m.transitions, m.stageDuration, m.ingestedBytes, m.resizes)

	return m
}

// RegisterGauge exports value as a gauge read at scrape time.
func RegisterGauge(reg prometheus.Registerer, name, help string, value func() int64) {
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, func() float64 {
		return float64(value())
	}))
}

func (m *Metrics) Transition(state string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(state).Inc()
}

func (m *Metrics) StageHandled(stage string, started time.Time, err error) {
	if m == nil {
		return
	}

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.stageDuration.WithLabelValues(stage, outcome).Observe(time.Since(started).Seconds())
}

func (m *Metrics) Ingested(n int64) {
	if m == nil {
		return
	}
	m.ingestedBytes.Add(float64(n))
}

func (m *Metrics) Resized(err error) {
	if m == nil {
		return
	}

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.resizes.WithLabelValues(outcome).Inc()
}
