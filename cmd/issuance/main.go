package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"kubecred/internal/issuance"
	"kubecred/internal/issuance/handler"
	issuancemetrics "kubecred/internal/issuance/metrics"
	"kubecred/internal/issuance/models"
	"kubecred/internal/issuance/service"
	"kubecred/internal/issuance/store"
	"kubecred/internal/platform/config"
	"kubecred/internal/platform/health"
	"kubecred/internal/platform/httpserver"
	"kubecred/internal/platform/infra"
	"kubecred/internal/platform/logger"
	"kubecred/internal/platform/metrics"
)

// main wires the issuance service and keeps the server lifecycle small.
// Business logic lives in internal/issuance.
func main() {
	cfg, err := config.FromEnv(config.ServiceIssuance)
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, handler.ServiceName, cfg.WorkerID)

	if err := run(cfg, log); err != nil {
		log.Error("issuance service stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("initializing credential issuance",
		"addr", cfg.Addr,
		"store_driver", cfg.StoreDriver,
		"id_strategy", cfg.IDStrategy,
		"environment", cfg.Environment,
	)

	reg := metrics.NewRegistry()
	in, err := infra.Open(ctx, cfg, reg, log)
	if err != nil {
		return err
	}
	defer in.Close() //nolint:errcheck // logged inside Close

	st, err := store.ForDriver(cfg.StoreDriver, in.SQL(), in.RedisClient())
	if err != nil {
		return err
	}
	ids, err := models.NewIDGenerator(cfg.IDStrategy)
	if err != nil {
		return err
	}

	svc := service.New(st, cfg.WorkerID,
		service.WithIDGenerator(ids),
		service.WithEvents(in.Events),
		service.WithMetrics(issuancemetrics.New(reg)),
		service.WithLogger(log),
	)

	healthHandler := health.New(handler.ServiceName, cfg.WorkerID)
	in.RegisterChecks(healthHandler)

	router := issuance.NewRouter(handler.New(svc, log), healthHandler, httpserver.RouterOptions{
		Logger:         log,
		Registry:       reg,
		AllowedOrigins: cfg.AllowedOrigins,
	})
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return httpserver.Run(gctx, srv, log) })
	g.Go(func() error { return in.SamplePoolStats(gctx) })
	return g.Wait()
}
