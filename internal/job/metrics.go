package job

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks job lifecycle counts for the /metrics endpoint.
type Metrics struct {
	submitted  prometheus.Counter
	completed  prometheus.Counter
	failed     prometheus.Counter
	processing prometheus.Gauge
	duration   prometheus.Histogram
	reclaimed  prometheus.Counter
}

// NewMetrics registers the job metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		submitted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "mediaforge",
			Subsystem: "jobs",
			Name:      "submitted_total",
			Help:      "Number of visualization jobs accepted.",
		}),
		completed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "mediaforge",
			Subsystem: "jobs",
			Name:      "completed_total",
			Help:      "Number of jobs that finished successfully.",
		}),
		failed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "mediaforge",
			Subsystem: "jobs",
			Name:      "failed_total",
			Help:      "Number of jobs that ended in failure.",
		}),
		processing: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "mediaforge",
			Subsystem: "jobs",
			Name:      "processing",
			Help:      "Number of jobs currently running the pipeline.",
		}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "mediaforge",
			Subsystem: "jobs",
			Name:      "duration_seconds",
			Help:      "Wall-clock time from pipeline start to terminal state.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		reclaimed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "mediaforge",
			Subsystem: "jobs",
			Name:      "reclaimed_total",
			Help:      "Number of expired jobs removed by the sweeper.",
		}),
	}
}

// JobSubmitted records a newly accepted job.
func (m *Metrics) JobSubmitted() {
	if m == nil {
		return
	}
	m.submitted.Inc()
}

// PipelineStarted marks a job as actively processing.
func (m *Metrics) PipelineStarted() {
	if m == nil {
		return
	}
	m.processing.Inc()
}

// PipelineFinished records the terminal outcome and elapsed seconds.
func (m *Metrics) PipelineFinished(succeeded bool, seconds float64) {
	if m == nil {
		return
	}
	m.processing.Dec()
	m.duration.Observe(seconds)
	if succeeded {
		m.completed.Inc()
	} else {
		m.failed.Inc()
	}
}

// JobReclaimed records a sweeper removal.
func (m *Metrics) JobReclaimed() {
	if m == nil {
		return
	}
	m.reclaimed.Inc()
}
