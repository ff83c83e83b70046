package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"gather/internal/platform/config"
)

// Client wraps the go-redis connection backing the schema cache. A nil
// *Client means caching is disabled; callers check before use.
type Client struct {
	*redis.Client
	pingTimeout time.Duration
}

// New dials Redis from the provided configuration and verifies the
// connection before handing it out. An empty URL returns a nil client
// without error, keeping Redis optional for local runs.
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	client := &Client{Client: redis.NewClient(opts), pingTimeout: cfg.DialTimeout}
	if err := client.Health(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// Health pings Redis, bounded by the dial timeout so a dead server cannot
// stall the caller's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	if c.pingTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.pingTimeout)
		defer cancel()
	}
	return c.Ping(ctx).Err()
}
