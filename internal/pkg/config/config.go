package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET, required"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	Session  SessionConfig
	Dispatch DispatchConfig
	Mongo    MongoConfig
	Redis    RedisConfig
}

type SessionConfig struct {
	TTL           time.Duration `env:"SESSION_TTL,     default=24h"`
	ClientIdleTTL time.Duration `env:"CLIENT_IDLE_TTL, default=30m"`
	// MaxClients bounds the attached client dashboards; the least recently
	// seen one is evicted at capacity. Zero means unbounded.
	MaxClients int `env:"MAX_CLIENTS, default=10000"`
	// LoginRate is the sustained number of login attempts per second allowed
	// from one IP.
	LoginRate float64 `env:"LOGIN_RATE, default=5"`
}

type DispatchConfig struct {
	Workers int `env:"DISPATCH_WORKERS, default=8"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=account_dashboard"`
}

type RedisConfig struct {
	Addr      string        `env:"REDIS_ADDR,       default=localhost:6379"`
	Password  string        `env:"REDIS_PASSWORD"`
	DB        int           `env:"REDIS_DB,         default=0"`
	PoolSize  int           `env:"REDIS_POOL_SIZE,  default=0"`
	OpTimeout time.Duration `env:"REDIS_OP_TIMEOUT, default=500ms"`
}

// IsDevelopment reports whether the service runs in a development environment.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development" || c.Env == "local"
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith reads configuration through lookuper.
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, err
	}
	if cfg.Dispatch.Workers <= 0 {
		return nil, fmt.Errorf("DISPATCH_WORKERS must be positive, got %d", cfg.Dispatch.Workers)
	}
	if cfg.Session.MaxClients < 0 {
		return nil, fmt.Errorf("MAX_CLIENTS must not be negative, got %d", cfg.Session.MaxClients)
	}
	if cfg.Session.LoginRate <= 0 {
		return nil, fmt.Errorf("LOGIN_RATE must be positive, got %v", cfg.Session.LoginRate)
	}
	return &cfg, nil
}
