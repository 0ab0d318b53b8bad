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

	mqcontracts "escrowhub/contracts/mq"
	"escrowhub/internal/config"
	"escrowhub/internal/httpserver"
	"escrowhub/internal/mqhandler"
	"escrowhub/internal/repository"
	"escrowhub/internal/store"
	pkgconfig "escrowhub/pkg/config"
	"escrowhub/pkg/logger"
	"escrowhub/pkg/mq"
	"escrowhub/pkg/redis"
	"escrowhub/pkg/util"
)

func main() {
	log := logger.New("worker")
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}
	if cfg.MQ.URL == "" {
		log.Fatal("mq.url is required for the worker")
	}

	log.Info("Starting feed worker...", zap.String("queue", cfg.Feed.Queue))

	rdb, err := redis.NewRedisClient(cfg.Redis)
	if err != nil {
		log.Fatal("Redis connection failed", zap.Error(err))
	}
	defer rdb.Close()

	deduper := util.NewDeduper(rdb, cfg.Feed.DedupTTL, log)
	retryCounter := util.NewRetryCounter(rdb, cfg.Redis.Prefix, time.Hour)
	feed := repository.NewFeedRepository(rdb, cfg.Redis.Prefix, cfg.Feed.MaxItems, log)
	h := mqhandler.NewTransactionRecordedHandler(feed, retryCounter, deduper, log)

	consumer, err := mq.NewConsumer(cfg.MQ.URL, cfg.Feed.Queue, mqcontracts.RoutingKeyTransactionRecorded, log)
	if err != nil {
		log.Fatal("Feed consumer init failed", zap.Error(err))
	}
	defer consumer.Close()
	consumer.SetHandler(h.Handle)

	go func() {
		if err := consumer.StartConsuming(); err != nil {
			log.Fatal("Feed consumer crashed", zap.Error(err))
		}
	}()

	redisPing := store.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	addr := pkgconfig.GetEnv("WORKER_OPS_ADDR", ":8085")
	srv := &http.Server{
		Addr:              addr,
		Handler:           httpserver.NewOpsRouter([]store.Pinger{redisPing}).Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Ops server failed", zap.Error(err))
		}
	}()

	log.Info("Worker running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down worker gracefully...")
	consumer.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Ops server shutdown error", zap.Error(err))
	}
	log.Info("worker shutdown complete")
}
