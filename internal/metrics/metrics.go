// Package metrics registers the server's Prometheus counters and
// histogram, following the same prometheus.NewCounterVec/NewHistogramVec
// shape as the teacher's api/grpc/middleware/middleware.go, adapted from
// RPC labels (method, code) to the resolver's own outcome taxonomy.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// QueriesTotal counts inbound queries by transport (udp/tcp).
	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nexusdns_queries_total",
			Help: "Total DNS queries received, by transport.",
		},
		[]string{"transport"},
	)

	// ResolutionsTotal counts handled queries by outcome: resolved or
	// notimp (OPCODE gate).
	ResolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nexusdns_resolutions_total",
			Help: "Total resolutions, by outcome.",
		},
		[]string{"outcome"},
	)

	// ResolveDuration observes wall-clock time spent processing one query
	// (length and OPCODE gating, parsing, and Resolver.Resolve), by
	// transport.
	ResolveDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nexusdns_resolve_duration_seconds",
			Help:    "Time spent resolving a single query.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"transport"},
	)

	// CacheSize reports the answer cache's current entry count.
	CacheSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "nexusdns_cache_entries",
			Help: "Current number of entries in the answer cache.",
		},
	)
)

func init() {
	prometheus.MustRegister(QueriesTotal, ResolutionsTotal, ResolveDuration, CacheSize)
}

// Handler returns the /metrics HTTP handler for the Prometheus exposition
// format, served by the Supervisor alongside the DNS listeners.
func Handler() http.Handler {
	return promhttp.Handler()
}
