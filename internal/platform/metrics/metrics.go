// Package metrics exposes the service's Prometheus instruments. Labels are
// fixed-cardinality only; identities and cache keys never become labels.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RateLimitAllowedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cafescout_ratelimit_allowed_total",
		Help: "Requests admitted by the rate limiter",
	})
	RateLimitBlockedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cafescout_ratelimit_blocked_total",
		Help: "Requests blocked by the rate limiter, by tripped dimension",
	}, []string{"dimension"})

	CacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cafescout_cache_hits_total",
		Help: "Ephemeral response cache hits, by cache",
	}, []string{"cache"})
	CacheMissesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cafescout_cache_misses_total",
		Help: "Ephemeral response cache misses, by cache",
	}, []string{"cache"})

	MigrationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cafescout_migrations_total",
		Help: "Completed anonymous-to-authenticated migrations",
	})
)

func init() {
	prometheus.MustRegister(
		RateLimitAllowedTotal,
		RateLimitBlockedTotal,
		CacheHitsTotal,
		CacheMissesTotal,
		MigrationsTotal,
	)
}

// Handler serves the default registry on /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
