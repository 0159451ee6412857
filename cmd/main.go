package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/intelligent-n8n/ai-router/config"
	"github.com/intelligent-n8n/ai-router/internal/circuitbreaker"
	"github.com/intelligent-n8n/ai-router/internal/dispatcher"
	"github.com/intelligent-n8n/ai-router/internal/handler"
	"github.com/intelligent-n8n/ai-router/internal/healthcheck"
	"github.com/intelligent-n8n/ai-router/internal/httpserver"
	"github.com/intelligent-n8n/ai-router/internal/metrics"
	"github.com/intelligent-n8n/ai-router/internal/policy"
	"github.com/intelligent-n8n/ai-router/internal/provider"
	"github.com/intelligent-n8n/ai-router/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("err", err))
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, true, cfg.Server.Environment)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	registry, err := buildRegistry(cfg)
	if err != nil {
		log.Error("Failed to build provider registry", slog.Any("err", err))
		os.Exit(1)
	}

	breakerSettings, err := buildBreakerSettings(cfg.CircuitBreaker)
	if err != nil {
		log.Error("Invalid circuit breaker configuration", slog.Any("err", err))
		os.Exit(1)
	}
	breakers := circuitbreaker.NewRegistry(breakerSettings)

	collector := metrics.NewCollector(1024, log)
	collector.Start(ctx)

	mode, ok := policy.ParseMode(cfg.Routing.Mode)
	if !ok {
		log.Error("Unknown routing mode", slog.String("mode", cfg.Routing.Mode))
		os.Exit(1)
	}
	engine := policy.NewEngine(registry, breakers, mode)

	disp := dispatcher.New(log, registry, breakers, engine, collector)

	checker, err := buildChecker(log, cfg, registry, breakers, collector)
	if err != nil {
		log.Error("Invalid health check configuration", slog.Any("err", err))
		os.Exit(1)
	}

	checkerDone := make(chan struct{})
	go func() {
		defer close(checkerDone)
		checker.Run(ctx)
	}()

	routerHandler := handler.NewRouterHandler(log, disp, registry, breakers)
	mux := setupRouter(routerHandler, collector)

	srv, err := httpserver.New(cfg.Server.Address, mux)
	if err != nil {
		log.Error("Failed to create server", slog.Any("err", err))
		os.Exit(1)
	}

	log.Info("AI router started",
		slog.String("address", cfg.Server.Address),
		slog.String("mode", string(mode)),
		slog.Int("providers", registry.Len()))

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
		select {
		case <-checkerDone:
		case <-time.After(httpserver.DrainPeriod):
			log.Warn("Health check loops did not stop within the drain period")
		}
	case err := <-srvErrCh:
		if err != nil {
			log.Error("Error running AI router", slog.Any("err", err))
			os.Exit(1)
		}
	}
}

func buildRegistry(cfg *config.Config) (*provider.Registry, error) {
	providers := make([]*provider.Provider, 0, len(cfg.Providers))

	for _, pc := range cfg.Providers {
		u, err := url.Parse(pc.BaseURL)
		if err != nil {
			return nil, err
		}

		caps := make([]provider.TaskType, 0, len(pc.Capabilities))
		for _, c := range pc.Capabilities {
			task, ok := provider.ParseTaskType(c)
			if !ok {
				// Config validation already rejects unknown values.
				continue
			}
			caps = append(caps, task)
		}

		maxTimeout := dispatcher.DefaultTimeout
		if pc.MaxTimeout != "" {
			maxTimeout, err = time.ParseDuration(pc.MaxTimeout)
			if err != nil {
				return nil, err
			}
		}

		providers = append(providers, provider.New(
			pc.ID,
			provider.Kind(pc.Kind),
			u,
			pc.CredentialRef,
			caps,
			provider.CostTier(pc.CostTier),
			pc.Priority,
			maxTimeout,
		))
	}

	return provider.NewRegistry(providers)
}

func buildBreakerSettings(bc config.CircuitBreakerConfig) (circuitbreaker.Settings, error) {
	openTimeout, err := time.ParseDuration(bc.OpenTimeout)
	if err != nil {
		return circuitbreaker.Settings{}, err
	}

	return circuitbreaker.Settings{
		FailureThreshold:        bc.FailureThreshold,
		OpenTimeout:             openTimeout,
		HalfOpenSuccessToClose:  bc.HalfOpenSuccessToClose,
		HalfOpenFailureToReopen: bc.HalfOpenFailureToReopen,
	}, nil
}

func buildChecker(log *slog.Logger, cfg *config.Config, registry *provider.Registry, breakers *circuitbreaker.Registry, collector *metrics.Collector) (*healthcheck.Checker, error) {
	interval, err := time.ParseDuration(cfg.HealthCheck.Interval)
	if err != nil {
		return nil, err
	}

	timeout, err := time.ParseDuration(cfg.HealthCheck.Timeout)
	if err != nil {
		return nil, err
	}

	return healthcheck.New(log, registry, breakers, collector, interval, timeout), nil
}
