// internal/common/metrics/metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	NLPQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nlp_queries_total",
			Help: "Natural-language queries processed, by entry point and outcome",
		},
		[]string{"path", "outcome"},
	)

	NLPQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nlp_query_duration_seconds",
			Help:    "Time from query receipt to response",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"path"},
	)
)

// QueryRecorder feeds pipeline outcomes into the NLP query metrics.
type QueryRecorder struct{}

func NewQueryRecorder() *QueryRecorder {
	return &QueryRecorder{}
}

func (QueryRecorder) RecordQuery(path, outcome string, d time.Duration) {
	NLPQueriesTotal.WithLabelValues(path, outcome).Inc()
	NLPQueryDuration.WithLabelValues(path).Observe(d.Seconds())
}

// RecordJobOutcome counts a finished job. An empty errorCode counts as
// completed.
func RecordJobOutcome(taskType, errorCode string) {
	if errorCode == "" {
		WorkerJobsCompleted.WithLabelValues(taskType).Inc()
		return
	}
	WorkerJobsFailed.WithLabelValues(taskType, errorCode).Inc()
}
