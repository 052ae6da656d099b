package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultTimeout    = 5 * time.Second
	defaultOpTimeout  = 500 * time.Millisecond
	defaultMinIdle    = 2
	defaultMaxRetries = 2
)

// Config captures the settings for the session store connection.
type Config struct {
	Addr     string
	Password string
	DB       int
	// PoolSize bounds concurrent connections. Zero keeps the go-redis default.
	PoolSize int
	// Timeout bounds the initial ping. OpTimeout bounds each read and write.
	Timeout   time.Duration
	OpTimeout time.Duration
}

func (c Config) options() *redis.Options {
	op := c.OpTimeout
	if op <= 0 {
		op = defaultOpTimeout
	}
	return &redis.Options{
		Addr:         c.Addr,
		Password:     c.Password,
		DB:           c.DB,
		PoolSize:     c.PoolSize,
		MinIdleConns: defaultMinIdle,
		MaxRetries:   defaultMaxRetries,
		ReadTimeout:  op,
		WriteTimeout: op,
		// Session lookups are abandoned with the request.
		ContextTimeoutEnabled: true,
	}
}

// Connect opens the session store client and validates connectivity with a
// ping. A default timeout is applied when none is provided.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := redis.NewClient(cfg.options())

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}

	return client, nil
}
