// Package main runs the extapi-acsys bridge: a GraphQL service that exposes
// live DPM readings, device database lookups and clock events to web clients.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fermi-controls/extapi-acsys/backend"
	"github.com/fermi-controls/extapi-acsys/bridge"
	"github.com/fermi-controls/extapi-acsys/config"
	"github.com/fermi-controls/extapi-acsys/gateway/graphql"
	"github.com/fermi-controls/extapi-acsys/health"
	"github.com/fermi-controls/extapi-acsys/metric"
)

// Build information, overridden with -ldflags at release time
var (
	Version   = "0.1.0"
	BuildTime = "dev"
)

const appName = "extapi-acsys"

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(os.Args[1:]); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run(args []string) error {
	cliCfg, err := parseFlags(args)
	if err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	if err := validateFlags(cliCfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s (build %s)\n", appName, Version, BuildTime)
		return nil
	}
	if cliCfg.ShowHelp {
		return nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	cfg, err := config.Load(cliCfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if cliCfg.Validate {
		logger.Info("Configuration is valid", "config_path", cliCfg.ConfigPath)
		return nil
	}

	logger.Info("Starting extapi-acsys",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cliCfg.ConfigPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return serve(ctx, cfg, logger, cliCfg.ShutdownTimeout)
}

// serve wires backends, bridges and servers and runs them until ctx ends
func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger, shutdownTimeout time.Duration) error {
	registry := metric.NewMetricsRegistry()

	clients, err := backend.Dial(cfg.Backends, logger)
	if err != nil {
		return fmt.Errorf("dial backends: %w", err)
	}
	defer func() {
		if err := clients.Close(); err != nil {
			logger.Warn("Closing backend connections failed", "error", err)
		}
	}()

	sources := graphql.Sources{
		Acquisition: bridge.NewAcquisitionBridge(clients.DPM, logger, registry),
		DeviceInfo:  bridge.NewDeviceInfoBridge(clients.DevDB, logger, registry),
		Clock:       bridge.NewClockBridge(clients.Clock, logger, registry),
	}

	gateway, err := graphql.NewGateway(cfg.Server, sources, logger, registry)
	if err != nil {
		return fmt.Errorf("create gateway: %w", err)
	}

	gateway.SetHealthCheck(backendHealth(clients, registry.CoreMetrics()))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return gateway.Start(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		return gateway.Stop(shutdownTimeout)
	})

	if cfg.Metrics.Enabled {
		metricsServer := metric.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, registry)
		logger.Info("Metrics server starting", "address", metricsServer.Address())
		g.Go(metricsServer.Start)
		g.Go(func() error {
			<-gctx.Done()
			return metricsServer.Stop()
		})
	}

	logger.Info("extapi-acsys started", "graphql", cfg.Server.BindAddress+cfg.Server.Path)

	if err := g.Wait(); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	logger.Info("extapi-acsys shutdown complete")
	return nil
}

// backendHealth reports the backend connection states and mirrors each one
// into the health check gauge
func backendHealth(clients *backend.Clients, core *metric.Metrics) func() health.Status {
	return func() health.Status {
		st := health.Connections(appName, clients.States())
		if core != nil {
			for _, sub := range st.SubStatuses {
				core.RecordHealthStatus(sub.Component, !sub.IsUnhealthy())
			}
		}
		return st
	}
}
