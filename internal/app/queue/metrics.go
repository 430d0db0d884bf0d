package queue

import (
	"github.com/prometheus/client_golang/prometheus"

	"audio-whisper/internal/app/metrics"
)

var (
	jobsEnqueued = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: metrics.Namespace,
		Subsystem: "queue",
		Name:      "jobs_enqueued_total",
		Help:      "Jobs accepted into the queue, including retries and recovery.",
	})

	jobsProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metrics.Namespace,
		Subsystem: "queue",
		Name:      "jobs_processed_total",
		Help:      "Jobs the worker finished, by terminal status.",
	}, []string{"status"})

	transcribeDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metrics.Namespace,
		Subsystem: "queue",
		Name:      "transcribe_duration_seconds",
		Help:      "Wall time of provider transcription calls.",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
	}, []string{"provider"})

	dispatchDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metrics.Namespace,
		Subsystem: "queue",
		Name:      "dispatch_depth",
		Help:      "Job ids currently waiting in the in-memory dispatch queue.",
	})
)

func init() {
	metrics.MustRegister(jobsEnqueued, jobsProcessed, transcribeDuration, dispatchDepth)
}
