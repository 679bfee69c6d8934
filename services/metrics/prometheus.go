package metricsvc

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Heetpatel09/TimeWise-sub001/core/allocation"
)

const namespace = "timewise"

// PrometheusMetrics records allocation activity as Prometheus metrics.
type PrometheusMetrics struct {
	runs            prometheus.Counter
	runDuration     prometheus.Histogram
	subjects        prometheus.Gauge
	unassigned      prometheus.Gauge
	saves           prometheus.Counter
	updatedTeachers prometheus.Counter
}

var _ allocation.Metrics = (*PrometheusMetrics)(nil)

// NewPrometheus creates the collectors and registers them on reg.
func NewPrometheus(reg prometheus.Registerer) *PrometheusMetrics {
	m := &PrometheusMetrics{
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "allocation",
			Name:      "runs_total",
			Help:      "Number of generated allocations.",
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "allocation",
			Name:      "run_duration_seconds",
			Help:      "Time spent loading the roster and allocating.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
		subjects: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "allocation",
			Name:      "subjects",
			Help:      "Number of subjects in the last generated allocation.",
		}),
		unassigned: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "allocation",
			Name:      "unassigned_subjects",
			Help:      "Number of subjects without any eligible teacher in the last generated allocation.",
		}),
		saves: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "allocation",
			Name:      "saves_total",
			Help:      "Number of saved allocations.",
		}),
		updatedTeachers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "allocation",
			Name:      "updated_teachers_total",
			Help:      "Number of teacher qualification sets grown by saved allocations.",
		}),
	}
	reg.MustRegister(m.runs, m.runDuration, m.subjects, m.unassigned, m.saves, m.updatedTeachers)
	return m
}

func (m *PrometheusMetrics) ObserveRun(subjects, unassigned int, d time.Duration) {
	m.runs.Inc()
	m.runDuration.Observe(d.Seconds())
	m.subjects.Set(float64(subjects))
	m.unassigned.Set(float64(unassigned))
}

func (m *PrometheusMetrics) IncSaved(updatedTeachers int) {
	m.saves.Inc()
	m.updatedTeachers.Add(float64(updatedTeachers))
}
