package config

import (
	"fmt"
	"os"
	"time"

	"escrowhub/pkg/config"
)

const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverLocal    = "local"
	DriverHTTP     = "http"
)

type StoreConfig struct {
	Driver string `yaml:"driver"`
}

type LockerConfig struct {
	Driver     string        `yaml:"driver"`
	Expiry     time.Duration `yaml:"expiry"`
	Tries      int           `yaml:"tries"`
	RetryDelay time.Duration `yaml:"retry_delay"`
}

// GenesisBalance seeds the in-memory gateway at startup.
type GenesisBalance struct {
	Token   string `yaml:"token"`
	Address string `yaml:"address"`
	Amount  string `yaml:"amount"`
}

type GatewayConfig struct {
	Driver  string           `yaml:"driver"`
	URL     string           `yaml:"url"`
	Timeout time.Duration    `yaml:"timeout"`
	Genesis []GenesisBalance `yaml:"genesis"`
}

type LedgerConfig struct {
	CustodyAddress string `yaml:"custody_address"`
	DefaultToken   string `yaml:"default_token"`
}

type SchedulerConfig struct {
	Interval time.Duration `yaml:"interval"`
	Token    string        `yaml:"token"`
}

type FeedConfig struct {
	Queue    string        `yaml:"queue"`
	MaxItems int64         `yaml:"max_items"`
	DedupTTL time.Duration `yaml:"dedup_ttl"`
}

type Config struct {
	Server    config.ServerConfig `yaml:"server"`
	DB        config.DBConfig     `yaml:"db"`
	Redis     config.RedisConfig  `yaml:"redis"`
	MQ        config.MQConfig     `yaml:"mq"`
	JWT       config.JWTConfig    `yaml:"jwt"`
	Admin     config.AdminConfig  `yaml:"admin"`
	Store     StoreConfig         `yaml:"store"`
	Locker    LockerConfig        `yaml:"locker"`
	Gateway   GatewayConfig       `yaml:"gateway"`
	Ledger    LedgerConfig        `yaml:"ledger"`
	Scheduler SchedulerConfig     `yaml:"scheduler"`
	Feed      FeedConfig          `yaml:"feed"`
}

// Load reads config/<CONFIG_ENV>.yaml over config/base.yaml, then applies environment overrides.
func Load() (*Config, error) {
	return LoadFrom(config.GetConfigEnv(), config.GetEnv("CONFIG_DIR", "config"))
}

func LoadFrom(env, dir string) (*Config, error) {
	cfgMap, err := config.LoadConfig(env, dir)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := config.Decode(cfgMap, &cfg); err != nil {
		return nil, err
	}

	config.OverrideServerFromEnv(&cfg.Server)
	config.OverrideDBFromEnv(&cfg.DB)
	config.OverrideRedisFromEnv(&cfg.Redis)
	config.OverrideMQFromEnv(&cfg.MQ)
	config.OverrideJWTFromEnv(&cfg.JWT)
	config.OverrideAdminFromEnv(&cfg.Admin)
	if driver := os.Getenv("STORE_DRIVER"); driver != "" {
		cfg.Store.Driver = driver
	}
	if driver := os.Getenv("LOCKER_DRIVER"); driver != "" {
		cfg.Locker.Driver = driver
	}
	if url := os.Getenv("GATEWAY_URL"); url != "" {
		cfg.Gateway.Driver = DriverHTTP
		cfg.Gateway.URL = url
	}
	if addr := os.Getenv("CUSTODY_ADDRESS"); addr != "" {
		cfg.Ledger.CustodyAddress = addr
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = ":8080"
	}
	if c.Store.Driver == "" {
		c.Store.Driver = DriverMemory
	}
	if c.Locker.Driver == "" {
		c.Locker.Driver = DriverLocal
	}
	if c.Gateway.Driver == "" {
		c.Gateway.Driver = DriverMemory
	}
	if c.Gateway.Timeout <= 0 {
		c.Gateway.Timeout = 5 * time.Second
	}
	if c.Scheduler.Interval <= 0 {
		c.Scheduler.Interval = time.Minute
	}
	if c.Scheduler.Token == "" {
		c.Scheduler.Token = c.Ledger.DefaultToken
	}
	if c.Feed.Queue == "" {
		c.Feed.Queue = "ledger.feed.q"
	}
	if c.Feed.MaxItems <= 0 {
		c.Feed.MaxItems = 100
	}
	if c.Feed.DedupTTL <= 0 {
		c.Feed.DedupTTL = 24 * time.Hour
	}
	if c.JWT.TTL <= 0 {
		c.JWT.TTL = 24 * time.Hour
	}
}

func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory, DriverRedis, DriverPostgres:
	default:
		return fmt.Errorf("store.driver: unknown driver %q", c.Store.Driver)
	}
	switch c.Locker.Driver {
	case DriverLocal, DriverRedis:
	default:
		return fmt.Errorf("locker.driver: unknown driver %q", c.Locker.Driver)
	}
	switch c.Gateway.Driver {
	case DriverMemory:
	case DriverHTTP:
		if c.Gateway.URL == "" {
			return fmt.Errorf("gateway.url is required for the http driver")
		}
	default:
		return fmt.Errorf("gateway.driver: unknown driver %q", c.Gateway.Driver)
	}
	if c.Ledger.CustodyAddress == "" {
		return fmt.Errorf("ledger.custody_address is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required")
	}
	return nil
}
