package bootstrap

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"escrowhub/internal/config"
	"escrowhub/internal/gateway"
	"escrowhub/internal/locker"
	"escrowhub/internal/service"
	"escrowhub/internal/store"
	"escrowhub/pkg/db"
	"escrowhub/pkg/mq"
	"escrowhub/pkg/redis"
)

// App holds the ledger and the connections it was built on.
type App struct {
	Config *config.Config
	Ledger *service.Ledger

	// nil when the configuration does not need them
	Redis     *goredis.Client
	DB        *pgxpool.Pool
	Publisher *mq.Publisher

	ReadyChecks []store.Pinger
	logger      *zap.Logger
}

// Build connects the configured backends and assembles the ledger. Call Close when done.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	app := &App{Config: cfg, logger: logger}
	ok := false
	defer func() {
		if !ok {
			app.Close()
		}
	}()

	// the activity feed lives in Redis whenever journal events are published
	if cfg.Store.Driver == config.DriverRedis || cfg.Locker.Driver == config.DriverRedis || cfg.MQ.URL != "" {
		rdb, err := redis.NewRedisClient(cfg.Redis)
		if err != nil {
			return nil, err
		}
		app.Redis = rdb
		logger.Info("Redis ready", zap.String("addr", cfg.Redis.Addr))
	}

	st, err := app.buildStore(ctx)
	if err != nil {
		return nil, err
	}

	gw, err := app.buildGateway()
	if err != nil {
		return nil, err
	}

	var lk locker.Locker = locker.NewLocalLocker()
	if cfg.Locker.Driver == config.DriverRedis {
		opts := locker.DefaultOptions()
		if cfg.Locker.Expiry > 0 {
			opts.Expiry = cfg.Locker.Expiry
		}
		if cfg.Locker.Tries > 0 {
			opts.Tries = cfg.Locker.Tries
		}
		if cfg.Locker.RetryDelay > 0 {
			opts.RetryDelay = cfg.Locker.RetryDelay
		}
		lk = locker.NewRedisLocker(app.Redis, opts, logger)
	}

	opts := service.Options{
		Store:          st,
		Gateway:        gw,
		Locker:         lk,
		CustodyAddress: cfg.Ledger.CustodyAddress,
		Logger:         logger,
	}
	if cfg.MQ.URL != "" {
		pub, err := mq.NewPublisher(cfg.MQ.URL)
		if err != nil {
			return nil, fmt.Errorf("mq publisher: %w", err)
		}
		app.Publisher = pub
		opts.Publisher = pub
		logger.Info("Journal events enabled", zap.String("exchange", mq.LedgerExchange))
	}

	ledger, err := service.New(opts)
	if err != nil {
		return nil, err
	}
	app.Ledger = ledger

	ok = true
	return app, nil
}

func (a *App) buildStore(ctx context.Context) (store.Store, error) {
	switch a.Config.Store.Driver {
	case config.DriverRedis:
		s := store.NewRedisStore(a.Redis, a.Config.Redis.Prefix, a.logger)
		a.ReadyChecks = append(a.ReadyChecks, s)
		return s, nil
	case config.DriverPostgres:
		pool, err := db.NewConnection(a.Config.DB, a.logger)
		if err != nil {
			return nil, err
		}
		a.DB = pool
		s := store.NewPostgresStore(pool, a.logger)
		if err := s.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		a.ReadyChecks = append(a.ReadyChecks, s)
		return s, nil
	default:
		a.logger.Warn("Using in-memory store, state is lost on restart")
		return store.NewMemoryStore(), nil
	}
}

func (a *App) buildGateway() (gateway.Gateway, error) {
	cfg := a.Config.Gateway
	if cfg.Driver == config.DriverHTTP {
		a.logger.Info("Using HTTP transfer gateway", zap.String("url", cfg.URL))
		return gateway.NewHTTPGateway(cfg.URL, cfg.Timeout), nil
	}

	gw := gateway.NewMemoryGateway()
	for _, g := range cfg.Genesis {
		amount, err := decimal.NewFromString(g.Amount)
		if err != nil {
			return nil, fmt.Errorf("gateway.genesis %s/%s: %w", g.Token, g.Address, err)
		}
		gw.Mint(g.Token, g.Address, amount)
	}
	a.logger.Info("Using in-memory transfer gateway", zap.Int("genesis_balances", len(cfg.Genesis)))
	return gw, nil
}

// Close releases whatever Build opened. Safe on a partially built App.
func (a *App) Close() {
	if a.Publisher != nil {
		a.Publisher.Close()
	}
	if a.DB != nil {
		a.DB.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.logger.Warn("Failed to close redis", zap.Error(err))
		}
	}
}
