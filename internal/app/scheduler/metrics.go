package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes queue and worker state to Prometheus.
type Metrics struct {
	QueueDepth  prometheus.Gauge
	Running     prometheus.Gauge
	Submissions *prometheus.CounterVec
	Jobs        *prometheus.CounterVec
	JobDuration prometheus.Histogram
	QueueWait   prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg. A nil reg leaves
// them unregistered, which is what tests want.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "whisper",
			Name:      "queue_depth",
			Help:      "Jobs waiting for the worker.",
		}),
		Running: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "whisper",
			Name:      "jobs_running",
			Help:      "Jobs currently executing (0 or 1).",
		}),
		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "whisper",
			Name:      "submissions_total",
			Help:      "Submissions by gateway outcome.",
		}, []string{"outcome"}),
		Jobs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "whisper",
			Name:      "jobs_total",
			Help:      "Executed jobs by result.",
		}, []string{"result"}),
		JobDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "whisper",
			Name:      "job_duration_seconds",
			Help:      "Time spent executing a job.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
		}),
		QueueWait: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "whisper",
			Name:      "queue_wait_seconds",
			Help:      "Time a job spent queued before execution.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 14),
		}),
	}
}

const (
	outcomeAccepted  = "accepted"
	outcomeRejected  = "rejected"
	outcomeTimeout   = "timeout"
	outcomeCancelled = "cancelled"

	resultSucceeded = "succeeded"
	resultFailed    = "failed"
	resultAbandoned = "abandoned"
)
