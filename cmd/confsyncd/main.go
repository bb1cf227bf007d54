// Package main implements the confsync demo server: it loads the sample
// synced config from disk, serves config sync over NATS (or an in-process
// loopback when no NATS URL is given), and exposes Prometheus metrics.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/c360/confsync/config"
	"github.com/c360/confsync/metric"
	"github.com/c360/confsync/registry"
	"github.com/c360/confsync/syncer"
)

// Build information constants
const (
	Version = "0.1.0"
	appName = "confsyncd"
)

func main() {
	if err := run(); err != nil {
		slog.Error("application failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	natsURL := flag.String("nats", "", "NATS server URL; empty runs an in-process loopback transport")
	configDir := flag.String("config-dir", "configs", "Root directory for config files")
	metricsAddr := flag.String("metrics", ":9090", "Listen address for the /metrics endpoint")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	logFormat := flag.String("log-format", "json", "Log format: json or text")
	updateLevel := flag.Int("update-level", syncer.DefaultUpdateLevel, "Permission level required to push updates")
	flag.Parse()

	logger := setupLogger(*logLevel, *logFormat)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load the demo config and register it as authoritative
	store := config.NewStore(*configDir, logger)
	synced := registry.NewSynced(store, logger)
	api := registry.NewAPI(store, nil, synced, logger)
	if err := api.RegisterAndLoad(NewGameplayConfig(), nil, registry.ServerOnly); err != nil {
		return fmt.Errorf("register demo config: %w", err)
	}

	// Metrics registry and endpoint
	metrics := metric.NewRegistry()
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.PrometheusRegistry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	metricsServer := &http.Server{Addr: *metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	// Transport: NATS when a URL is given, loopback otherwise
	var transport syncer.Transport
	if *natsURL != "" {
		nt := syncer.NewNATSTransport(*natsURL, logger,
			syncer.WithClientName(appName),
			syncer.WithStateCallback(metrics.Metrics.RecordTransportStatus))
		if err := nt.Connect(ctx); err != nil {
			return fmt.Errorf("connect transport: %w", err)
		}
		transport = nt
	} else {
		logger.Info("no NATS URL given, using in-process loopback transport")
		transport = syncer.NewLoopback()
		metrics.Metrics.RecordTransportStatus(true)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = transport.Close(closeCtx)
	}()

	// Everyone gets the required level in the demo; wire a real permission
	// backend here in production
	perms := syncer.LevelFunc(func(player, scope string) int {
		return *updateLevel
	})

	server := syncer.NewServer(synced, transport, perms, logger,
		syncer.WithMetrics(metrics.Metrics),
		syncer.WithUpdateLevel(*updateLevel))
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("start sync server: %w", err)
	}

	logger.Info("confsyncd running",
		"version", Version, "config_dir", *configDir, "metrics", *metricsAddr)
	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}
