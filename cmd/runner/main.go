package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"escrowhub/internal/bootstrap"
	"escrowhub/internal/config"
	"escrowhub/internal/httpserver"
	"escrowhub/internal/service"
	pkgconfig "escrowhub/pkg/config"
	"escrowhub/pkg/logger"
)

func main() {
	log := logger.New("runner")
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	if cfg.Store.Driver == config.DriverMemory {
		log.Warn("Runner is using the in-memory store, it will not see state written by the api")
	}

	app, err := bootstrap.Build(context.Background(), cfg, log)
	if err != nil {
		log.Fatal("Failed to build ledger", zap.Error(err))
	}
	defer app.Close()

	if _, err := app.Ledger.Initialize(context.Background()); err != nil {
		log.Fatal("Failed to initialize ledger", zap.Error(err))
	}

	orchestrator := service.NewOrchestrator(app.Ledger, cfg.Scheduler.Token, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(cfg.Scheduler.Interval)
		defer ticker.Stop()

		// run immediately on startup
		orchestrator.Tick(ctx)

		for {
			select {
			case <-ctx.Done():
				log.Info("Scheduler stopped")
				return
			case <-ticker.C:
				orchestrator.Tick(ctx)
			}
		}
	}()
	log.Info("Scheduler started",
		zap.Duration("interval", cfg.Scheduler.Interval),
		zap.String("token", cfg.Scheduler.Token),
	)

	addr := pkgconfig.GetEnv("RUNNER_OPS_ADDR", ":8084")
	srv := &http.Server{
		Addr:              addr,
		Handler:           httpserver.NewOpsRouter(app.ReadyChecks).Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Ops server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down runner gracefully...")
	cancel()
	<-done

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Ops server shutdown error", zap.Error(err))
	}
	log.Info("runner shutdown complete")
}
