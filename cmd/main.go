package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/angeloszaimis/circuitguard/config"
	"github.com/angeloszaimis/circuitguard/internal/handler"
	"github.com/angeloszaimis/circuitguard/internal/httpserver"
	"github.com/angeloszaimis/circuitguard/internal/metrics"
	"github.com/angeloszaimis/circuitguard/internal/probe"
	"github.com/angeloszaimis/circuitguard/pkg/circuitbreaker"
	"github.com/angeloszaimis/circuitguard/pkg/logger"
)

const defaultProbeInterval = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("err", err))
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, true, cfg.Server.Environment)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	registry, collector := setupRegistry(cfg, log)

	started := startProbes(ctx, cfg, registry, log)
	log.Info("Breakers initialized",
		slog.Int("breakers", len(registry.All())),
		slog.Int("probes", started))

	opsHandler := handler.NewOpsHandler(log, registry)
	mux := setupRouter(opsHandler, collector)

	srv, err := httpserver.New(cfg.Server.Address, mux)
	if err != nil {
		log.Error("Failed to create server", slog.Any("err", err))
		os.Exit(1)
	}

	srvErrCh := make(chan error, 1)

	go func() {
		srvErrCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Error("Error during shutdown", slog.Any("err", err))
		}
	case err := <-srvErrCh:
		if err != nil {
			log.Error("Error starting ops server", slog.Any("err", err))
			os.Exit(1)
		}
	}
}

// setupRegistry builds the breaker registry with logging and metrics hooks
// as defaults, then pre-creates one breaker per configured dependency so
// its overrides bind before any caller reaches the registry.
func setupRegistry(cfg *config.Config, log *slog.Logger) (*circuitbreaker.Registry, *metrics.Collector) {
	registry := circuitbreaker.NewRegistry(cfg.Breaker.Tunables())
	collector := metrics.NewCollector(registry)

	registry.SetDefaults(circuitbreaker.Config{
		OnStateChange: circuitbreaker.ComposeStateChangeHooks(
			logger.StateChangeHook(log),
			collector.StateChangeHook(),
		),
		OnReject: logger.RejectHook(log),
	})

	for _, dep := range cfg.Dependencies {
		registry.Get(dep.Name, dep.Breaker.Tunables())
	}

	return registry, collector
}

// startProbes launches one probe goroutine per dependency that configured
// a probe URL, returning how many were started.
func startProbes(
	ctx context.Context,
	cfg *config.Config,
	registry *circuitbreaker.Registry,
	log *slog.Logger,
) int {
	started := 0

	for _, dep := range cfg.Dependencies {
		if dep.Probe.URL == "" {
			continue
		}

		cb := registry.Get(dep.Name)
		check := probe.HTTPCheck(dep.Probe.URL)
		interval := dep.Probe.ProbeInterval(defaultProbeInterval)

		go probe.Run(ctx, cb, check, interval, log)
		started++
	}

	return started
}
