package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the progress module. Cache traffic is
// labeled by view so progress and queue hit rates can be read separately.
type Metrics struct {
	CacheHits       *prometheus.CounterVec
	CacheMisses     *prometheus.CounterVec
	CacheErrors     prometheus.Counter
	ComputeDuration prometheus.Histogram
}

// New creates a Metrics instance with all progress metrics registered.
func New() *Metrics {
	return &Metrics{
		CacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rotalog_progress_cache_hits_total",
			Help: "Progress cache hits by view",
		}, []string{"view"}),
		CacheMisses: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rotalog_progress_cache_misses_total",
			Help: "Progress cache misses by view",
		}, []string{"view"}),
		CacheErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rotalog_progress_cache_errors_total",
			Help: "Cache operations that failed and were served from source",
		}),
		ComputeDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "rotalog_progress_compute_duration_seconds",
			Help:    "Duration of uncached progress view computation",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementCacheHit records a cache hit for the given view.
func (m *Metrics) IncrementCacheHit(view string) {
	if m != nil {
		m.CacheHits.WithLabelValues(view).Inc()
	}
}

// IncrementCacheMiss records a cache miss for the given view.
func (m *Metrics) IncrementCacheMiss(view string) {
	if m != nil {
		m.CacheMisses.WithLabelValues(view).Inc()
	}
}

// IncrementCacheError records a failed cache operation.
func (m *Metrics) IncrementCacheError() {
	if m != nil {
		m.CacheErrors.Inc()
	}
}

// ObserveCompute records the duration of one uncached view computation. Call
// with time.Now() at the start of the computation.
func (m *Metrics) ObserveCompute(start time.Time) {
	if m != nil {
		m.ComputeDuration.Observe(time.Since(start).Seconds())
	}
}
