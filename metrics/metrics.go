package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// SubmissionsTotal counts completed submission attempts by outcome.
	SubmissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "urbaneye",
		Subsystem: "submitter",
		Name:      "submissions_total",
		Help:      "Total number of report submission attempts, labeled by result.",
	}, []string{"result"})

	// AnalysisTotal counts vision model analysis calls by outcome.
	AnalysisTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "urbaneye",
		Subsystem: "submitter",
		Name:      "analysis_total",
		Help:      "Total number of vision model analysis calls, labeled by result.",
	}, []string{"result"})

	// AnalysisDurationSeconds is end-to-end time per analysis call.
	AnalysisDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "urbaneye",
		Subsystem: "submitter",
		Name:      "analysis_duration_seconds",
		Help:      "End-to-end time of one vision model analysis call.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 60},
	})

	// UploadBytes observes the size of uploaded image payloads after
	// compression.
	UploadBytes = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "urbaneye",
		Subsystem: "submitter",
		Name:      "upload_bytes",
		Help:      "Size of uploaded image payloads after compression.",
		Buckets:   prometheus.ExponentialBuckets(16*1024, 2, 10),
	})

	// CompensationsTotal counts best-effort image deletes issued after a
	// failed database insert.
	CompensationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "urbaneye",
		Subsystem: "submitter",
		Name:      "compensations_total",
		Help:      "Total number of compensating image deletes after a failed insert, labeled by result.",
	}, []string{"result"})
)

// Register registers submitter metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			SubmissionsTotal,
			AnalysisTotal,
			AnalysisDurationSeconds,
			UploadBytes,
			CompensationsTotal,
		)
	})
}
