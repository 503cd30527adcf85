package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/qurbani/share-reservations/internal/app"
	"github.com/qurbani/share-reservations/internal/clock"
	"github.com/qurbani/share-reservations/internal/config"
	"github.com/qurbani/share-reservations/internal/ledger"
	"github.com/qurbani/share-reservations/internal/obs"
	transporthttp "github.com/qurbani/share-reservations/internal/transport/http"
)

const serviceName = "share-reservations"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	envPath, envErr := config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := obs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	switch {
	case envErr != nil:
		logger.Warn("failed to load .env", zap.Error(envErr))
	case envPath != "":
		logger.Info("loaded env file", zap.String("path", envPath))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := obs.SetupTracing(ctx, serviceName, cfg.OTELEndpoint)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("tracing shutdown", zap.Error(err))
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := obs.NewMetrics(reg)

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	clk := clock.NewSystem()
	holds := ledger.New(st.animals, clk, ledger.WithHoldTTL(cfg.HoldTTL))
	engine := app.NewEngine(st.animals, st.bookings, holds, clk,
		app.WithMaxRetries(cfg.CommitMaxRetries),
		app.WithReturnRetries(cfg.ReturnMaxRetries),
		app.WithLogger(logger),
		app.WithMetrics(metrics),
	)

	router := transporthttp.NewRouter(transporthttp.RouterConfig{
		Reservations: engine,
		Submissions:  app.NewGateway(engine, st.submissions, st.bookings, clk, logger, metrics),
		Animals:      app.NewAdminService(st.animals, st.bookings, clk),
		Bookings:     app.NewBookingService(st.bookings, engine, logger),
		Metrics:      promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		CORSOrigins:  cfg.CORSOrigins,
		Logger:       logger,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	sweeper := ledger.NewSweeper(holds, logger, metrics, cfg.SweepInterval)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("api listening",
			zap.String("addr", server.Addr),
			zap.String("storage", cfg.StorageDriver),
			zap.Duration("hold_ttl", cfg.HoldTTL),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return sweeper.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown signal received, stopping server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("server stopped")
	return nil
}
