package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"kubecred/internal/platform/config"
	"kubecred/internal/platform/health"
	"kubecred/internal/platform/httpserver"
	"kubecred/internal/platform/infra"
	"kubecred/internal/platform/logger"
	"kubecred/internal/platform/metrics"
	"kubecred/internal/verification"
	"kubecred/internal/verification/client"
	"kubecred/internal/verification/handler"
	verificationmetrics "kubecred/internal/verification/metrics"
	"kubecred/internal/verification/service"
	"kubecred/internal/verification/store"
	"kubecred/pkg/platform/circuit"
	"kubecred/pkg/platform/tracer"
)

// main wires the verification service. It trusts the issuance service at
// ISSUANCE_SERVICE_URL as the source of truth for what was issued.
func main() {
	cfg, err := config.FromEnv(config.ServiceVerification)
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, handler.ServiceName, cfg.WorkerID)

	if err := run(cfg, log); err != nil {
		log.Error("verification service stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("initializing credential verification",
		"addr", cfg.Addr,
		"store_driver", cfg.StoreDriver,
		"verify_strategy", cfg.VerifyStrategy,
		"issuance_url", cfg.Issuance.BaseURL,
		"issuance_timeout", cfg.Issuance.Timeout,
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

	m := verificationmetrics.New(reg)
	issuanceClient := client.New(cfg.Issuance.BaseURL, cfg.Issuance.Timeout,
		client.WithBreaker(circuit.New("issuance")),
		client.WithTracer(tracer.NewOTel("kubecred/verification")),
		client.WithMetrics(m),
		client.WithLogger(log),
	)
	checker, err := client.NewChecker(cfg.VerifyStrategy, issuanceClient)
	if err != nil {
		return err
	}

	svc := service.New(st, checker, cfg.WorkerID,
		service.WithEvents(in.Events),
		service.WithMetrics(m),
		service.WithLogger(log),
	)

	healthHandler := health.New(handler.ServiceName, cfg.WorkerID)
	in.RegisterChecks(healthHandler)

	router := verification.NewRouter(handler.New(svc, log), healthHandler, httpserver.RouterOptions{
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
