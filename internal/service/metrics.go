package service

import "github.com/prometheus/client_golang/prometheus"

// Service-level Prometheus collectors. Request-level metrics live in the
// handler package; these cover the cache and the rating worker.
var (
	cacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rxverify_cache_hits_total",
		Help: "Total Redis cache hits.",
	})

	cacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rxverify_cache_misses_total",
		Help: "Total Redis cache misses.",
	})

	ratingRecalcDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "rxverify_rating_recalculation_duration_seconds",
		Help:    "Duration of drug rating recalculations.",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(cacheHits, cacheMisses, ratingRecalcDuration)
}
