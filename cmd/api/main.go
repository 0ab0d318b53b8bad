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
	"escrowhub/internal/handler"
	"escrowhub/internal/httpserver"
	"escrowhub/internal/repository"
	"escrowhub/pkg/logger"
)

func main() {
	log := logger.New("api")
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	log.Info("Starting escrowhub api...",
		zap.String("store", cfg.Store.Driver),
		zap.String("locker", cfg.Locker.Driver),
		zap.String("gateway", cfg.Gateway.Driver),
		zap.String("custody", cfg.Ledger.CustodyAddress),
	)

	app, err := bootstrap.Build(context.Background(), cfg, log)
	if err != nil {
		log.Fatal("Failed to build ledger", zap.Error(err))
	}
	defer app.Close()

	already, err := app.Ledger.Initialize(context.Background())
	if err != nil {
		log.Fatal("Failed to initialize ledger", zap.Error(err))
	}
	log.Info("Ledger ready", zap.Bool("already_initialized", already))

	var feed *repository.FeedRepository
	if app.Redis != nil {
		feed = repository.NewFeedRepository(app.Redis, cfg.Redis.Prefix, cfg.Feed.MaxItems, log)
	}

	var limiter *httpserver.RateLimiter
	if cfg.Server.RateLimitRPS > 0 {
		limiter = httpserver.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)
	}
	if cfg.Admin.KeyHash == "" {
		log.Warn("Admin key hash not set, admin routes are disabled")
	}

	router := httpserver.NewRouter(httpserver.Deps{
		Users:        handler.NewUserHandler(app.Ledger, log),
		Jobs:         handler.NewJobHandler(app.Ledger, log),
		Campaigns:    handler.NewCampaignHandler(app.Ledger, log),
		Payments:     handler.NewPaymentHandler(app.Ledger, feed, log),
		Admin:        handler.NewAdminHandler(app.Ledger, log),
		JWTSecret:    cfg.JWT.Secret,
		AdminKeyHash: cfg.Admin.KeyHash,
		Limiter:      limiter,
		ReadyChecks:  app.ReadyChecks,
		Logger:       log,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           router.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down api gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}
	log.Info("api shutdown complete")
}
