// Package metrics provides Prometheus metrics for the analysis pipeline:
// dataset loading, model training, evaluation, ensemble voting, and the
// artifact cache. The pipeline is a batch job, so these are mostly consumed
// through the optional metrics listener during long runs and in tests.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the pipeline.
type Metrics struct {
	RowsLoaded       prometheus.Counter   // Training rows surviving cleaning
	RowsSkipped      prometheus.Counter   // Rows dropped during cleaning
	ModelsTrained    prometheus.Counter   // Models trained from scratch
	CacheHits        prometheus.Counter   // Model artifacts loaded from cache
	TrainingDuration prometheus.Histogram // Per-model training wall time in seconds
	EvalAccuracy     prometheus.Histogram // Per-model held-out accuracy
	VotesTotal       prometheus.Counter   // Ensemble votes cast
	VoteFailures     prometheus.Counter   // Votes rejected as invalid input
	DownloadBytes    prometheus.Counter   // Bytes fetched for dataset files
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics on a custom registry (useful for testing).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		RowsLoaded: factory.NewCounter(prometheus.CounterOpts{
			Name: "dataset_rows_loaded_total",
			Help: "Training rows surviving cleaning",
		}),
		RowsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "dataset_rows_skipped_total",
			Help: "Rows dropped during cleaning",
		}),
		ModelsTrained: factory.NewCounter(prometheus.CounterOpts{
			Name: "models_trained_total",
			Help: "Models trained from scratch (cache misses)",
		}),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "model_cache_hits_total",
			Help: "Model artifacts loaded from the cache",
		}),
		TrainingDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "model_training_duration_seconds",
			Help:    "Per-model training wall time in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 14),
		}),
		EvalAccuracy: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "model_eval_accuracy",
			Help:    "Per-model accuracy on the validation partition",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
		VotesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "ensemble_votes_total",
			Help: "Ensemble votes cast",
		}),
		VoteFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "ensemble_vote_failures_total",
			Help: "Ensemble votes rejected as invalid input",
		}),
		DownloadBytes: factory.NewCounter(prometheus.CounterOpts{
			Name: "dataset_download_bytes_total",
			Help: "Bytes fetched for dataset files",
		}),
	}
}

// RowsLoadedAdd records rows surviving cleaning.
func (m *Metrics) RowsLoadedAdd(n int) { m.RowsLoaded.Add(float64(n)) }

// RowsSkippedAdd records rows dropped during cleaning.
func (m *Metrics) RowsSkippedAdd(n int) { m.RowsSkipped.Add(float64(n)) }

// ModelTrained records a from-scratch training with its wall time.
func (m *Metrics) ModelTrained(seconds float64) {
	m.ModelsTrained.Inc()
	m.TrainingDuration.Observe(seconds)
}

// CacheHitInc records a model artifact cache hit.
func (m *Metrics) CacheHitInc() { m.CacheHits.Inc() }

// AccuracyObserve records a model's held-out accuracy.
func (m *Metrics) AccuracyObserve(acc float64) { m.EvalAccuracy.Observe(acc) }

// VoteInc records one ensemble vote.
func (m *Metrics) VoteInc() { m.VotesTotal.Inc() }

// VoteFailureInc records a rejected vote.
func (m *Metrics) VoteFailureInc() { m.VoteFailures.Inc() }

// DownloadBytesAdd records bytes fetched for a dataset file.
func (m *Metrics) DownloadBytesAdd(n int64) { m.DownloadBytes.Add(float64(n)) }
