// Package supervisor starts the transport listeners and the cache
// sweeper and runs until its context is canceled (cmd/nexusdns cancels
// it on SIGINT/SIGTERM), following the teacher's cmd/dnsscienced/main.go
// periodic stats-ticker shape, adapted to the answer cache's own
// entry/hit/miss/eviction counters instead of the teacher's
// recursive-resolver/RRL stats (spec §4.H).
package supervisor

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/nexusdns/nexusdns/internal/answercache"
	"github.com/nexusdns/nexusdns/internal/config"
	"github.com/nexusdns/nexusdns/internal/metrics"
	"github.com/nexusdns/nexusdns/internal/transport"
)

// StatsInterval is the cadence of the periodic stats log line.
const StatsInterval = 30 * time.Second

// Supervisor owns the transport server and the cache sweeper for the
// server's lifetime. The cache and config it is handed stay alive for as
// long as any of its tasks run (spec §4.H's only contract).
type Supervisor struct {
	Config    *config.Config
	Cache     *answercache.Cache
	Transport *transport.Server

	// MetricsAddr, if non-empty, serves Prometheus's /metrics handler
	// for the ambient observability stack described in SPEC_FULL.md.
	MetricsAddr string
}

// New wires a Supervisor around an already-constructed transport server
// and cache.
func New(cfg *config.Config, cache *answercache.Cache, t *transport.Server, metricsAddr string) *Supervisor {
	return &Supervisor{Config: cfg, Cache: cache, Transport: t, MetricsAddr: metricsAddr}
}

// Run starts the transport listeners, the cache sweeper, the stats
// ticker, and (if configured) the metrics HTTP server, then blocks until
// ctx is canceled. It returns once both transport loops and the stats
// ticker have stopped; the sweeper and the metrics server are told to
// stop but are not waited for.
func (s *Supervisor) Run(ctx context.Context) error {
	log.Printf("supervisor: starting on %s (authoritative=%v, forwarders=%v)",
		s.Config.BindAddr, s.Config.Authoritative, s.Config.Forwarders)

	sweepStop := make(chan struct{})
	go func() {
		s.Cache.RunSweeper(sweepStop)
	}()

	if s.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		metricsSrv := &http.Server{Addr: s.MetricsAddr, Handler: mux}
		go func() {
			log.Printf("supervisor: metrics listening on %s", s.MetricsAddr)
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("supervisor: metrics server error: %v", err)
			}
		}()
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			metricsSrv.Shutdown(shutdownCtx)
		}()
	}

	statsDone := make(chan struct{})
	go func() {
		s.runStatsTicker(ctx)
		close(statsDone)
	}()

	err := s.Transport.Serve(ctx)

	close(sweepStop)
	<-statsDone

	log.Printf("supervisor: shutdown complete")
	return err
}

// runStatsTicker logs the cache's hit/miss/eviction counters every
// StatsInterval until ctx is canceled, adapted from the teacher's
// printStats loop in cmd/dnsscienced/main.go.
func (s *Supervisor) runStatsTicker(ctx context.Context) {
	ticker := time.NewTicker(StatsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			stats := s.Cache.GetStats()
			metrics.CacheSize.Set(float64(stats.Size))
			log.Printf("supervisor: cache entries=%d hits=%d misses=%d evictions=%d",
				stats.Size, stats.Hits, stats.Misses, stats.Evictions)
		case <-ctx.Done():
			return
		}
	}
}
