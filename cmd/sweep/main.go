package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/ixplabs/egresssim/internal/logging"
	"github.com/ixplabs/egresssim/internal/observability"
	"github.com/ixplabs/egresssim/internal/sweep"
)

func main() {
	configPath := flag.String("config", "configs/sweep.yaml", "Path to the sweep config YAML")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx := context.Background()

	cfg, err := sweep.LoadConfig(*configPath)
	if err != nil {
		log.Error(ctx, "failed to load sweep config", logging.String("path", *configPath), logging.Err(err))
		os.Exit(1)
	}

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.Err(err))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(ctx, shutdownTracing, log)

	collector, err := observability.NewSweepCollector(nil)
	if err != nil {
		log.Error(ctx, "failed to initialise metrics collector", logging.Err(err))
		os.Exit(1)
	}
	solverMetrics, err := observability.NewSolverCollector(nil)
	if err != nil {
		log.Error(ctx, "failed to initialise solver metrics", logging.Err(err))
		os.Exit(1)
	}

	metricsSrv := serveMetrics(cfg.MetricsListen, collector, log)

	runner := sweep.NewRunner(cfg, log, collector, solverMetrics)
	if err := runner.Run(ctx); err != nil {
		log.Error(ctx, "sweep failed", logging.Err(err))
		os.Exit(1)
	}

	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
}

func serveMetrics(addr string, collector *observability.SweepCollector, log logging.Logger) *http.Server {
	if addr == "" || collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.String("error", err.Error()))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
