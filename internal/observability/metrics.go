package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tbourn/go-profile-badges/internal/badges"
)

var (
	// cacheLookups counts cache reads by result ("hit" or "miss"). A stale
	// entry counts as a miss.
	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "badge_cache_lookups_total",
			Help: "Badge cache lookups by result.",
		},
		[]string{"result"},
	)

	// cacheFetches counts upstream fetches by outcome ("ok" or "error").
	cacheFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "badge_cache_fetches_total",
			Help: "Badge API fetches by outcome.",
		},
		[]string{"outcome"},
	)

	// cacheFetchDur records upstream fetch latency.
	cacheFetchDur = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "badge_cache_fetch_duration_seconds",
			Help:    "Duration of badge API fetches in seconds.",
			Buckets: []float64{.025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	// cacheEvictions counts entries dropped after a failed fetch or an
	// explicit invalidation.
	cacheEvictions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "badge_cache_evictions_total",
			Help: "Badge cache entries evicted.",
		},
	)
)

func init() {
	prometheus.MustRegister(cacheLookups, cacheFetches, cacheFetchDur, cacheEvictions)
}

// CacheObserver reports badge cache events to Prometheus.
type CacheObserver struct{}

var _ badges.Observer = CacheObserver{}

// Lookup implements badges.Observer.
func (CacheObserver) Lookup(hit bool) {
	if hit {
		cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	cacheLookups.WithLabelValues("miss").Inc()
}

// Fetched implements badges.Observer.
func (CacheObserver) Fetched(err error, d time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	cacheFetches.WithLabelValues(outcome).Inc()
	cacheFetchDur.Observe(d.Seconds())
}

// Evicted implements badges.Observer.
func (CacheObserver) Evicted() { cacheEvictions.Inc() }
