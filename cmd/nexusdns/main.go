// Command nexusdns is the entrypoint: it loads configuration, opens the
// record store, and wires the resolver into the transport and
// supervisor, following the banner/flag/signal shape of the teacher's
// cmd/dnsscienced/main.go.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/nexusdns/nexusdns/internal/answercache"
	"github.com/nexusdns/nexusdns/internal/config"
	"github.com/nexusdns/nexusdns/internal/forwarder"
	"github.com/nexusdns/nexusdns/internal/resolver"
	"github.com/nexusdns/nexusdns/internal/store"
	"github.com/nexusdns/nexusdns/internal/supervisor"
	"github.com/nexusdns/nexusdns/internal/transport"
)

var (
	configFile  = flag.String("config", "", "path to an optional YAML configuration override file")
	metricsAddr = flag.String("metrics", ":9153", "Prometheus /metrics listen address; empty disables it")
)

func main() {
	flag.Parse()

	fmt.Println("======================================================")
	fmt.Println(" nexusdns - authoritative + forwarding DNS server")
	fmt.Println("======================================================")

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	fmt.Printf("bind=%s db=%s authoritative=%v ipv6=%v forwarders=%v\n",
		cfg.BindAddr, cfg.DBPath, cfg.Authoritative, cfg.EnableIPv6, cfg.Forwarders)

	st, err := store.Open(cfg.DBPath, cfg.DefaultDomain, cfg.DefaultIP)
	if err != nil {
		log.Fatalf("store: %v", err)
	}

	cache := answercache.New()
	fwd := forwarder.New(cfg.Forwarders)

	res := &resolver.Resolver{
		Cache:     cache,
		Store:     st,
		Config:    cfg,
		Forwarder: fwd,
	}

	tsrv := transport.New(cfg, res)
	sup := supervisor.New(cfg, cache, tsrv, *metricsAddr)

	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("main: received %s, shutting down", sig)
		cancel()
	}()

	if err := sup.Run(ctx); err != nil {
		log.Printf("main: supervisor exited with error: %v", err)
	}
}
