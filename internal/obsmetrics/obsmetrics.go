// Package obsmetrics registers the prometheus collectors shared across
// the scheduling core: solver runs, checkpoint advances, and event
// delivery.
package obsmetrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "resicore"

// SizeBuckets returns default bucket boundaries for small integer-count
// histograms (violation counts, replica counts, churn distance).
func SizeBuckets() []float64 {
	return []float64{1, 2, 4, 5, 10, 15, 20, 25, 30, 40, 50, 60, 70, 80, 90, 100, 125, 150, 175, 200}
}

// DurationBuckets returns default bucket boundaries, in seconds, for
// operation-latency histograms.
func DurationBuckets() []float64 {
	return []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300}
}

var (
	SolverDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "solver",
		Name:      "run_duration_seconds",
		Help:      "Duration of a solver dispatch, by backend.",
		Buckets:   DurationBuckets(),
	}, []string{"backend"})

	SolverChurn = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "solver",
		Name:      "churn_distance",
		Help:      "Hamming distance between a solver result and the prior authoritative schedule.",
		Buckets:   SizeBuckets(),
	}, []string{"backend"})

	ConstraintViolations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "constraints",
		Name:      "violations_total",
		Help:      "Count of violations surfaced by the constraint engine, by constraint name and tier.",
	}, []string{"constraint", "tier"})

	CheckpointAdvanceDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "stroboscopic",
		Name:      "checkpoint_advance_duration_seconds",
		Help:      "Duration of advance_checkpoint, from lock acquisition to commit.",
		Buckets:   DurationBuckets(),
	}, []string{"boundary"})

	CheckpointLockContention = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "stroboscopic",
		Name:      "lock_contention_total",
		Help:      "Count of advance_checkpoint/rollback_to calls that failed to acquire the distributed lock.",
	}, []string{"boundary"})

	EventBusOverflow = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "eventbus",
		Name:      "subscriber_queue_overflow_total",
		Help:      "Count of events dropped because a subscriber's bounded queue was full.",
	}, []string{"event_kind"})
)

// MustRegister registers every collector in this package against reg. Call
// once at process startup; reg is typically prometheus.DefaultRegisterer.
func MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		SolverDuration,
		SolverChurn,
		ConstraintViolations,
		CheckpointAdvanceDuration,
		CheckpointLockContention,
		EventBusOverflow,
	)
}
