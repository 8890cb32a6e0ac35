// Package redisconn wraps the go-redis client used by both bus
// transports (internal/bus's stream and mailbox implementations).
package redisconn

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fty-ops/alert-registry/internal/infrastructure/config"
)

// Client wraps *redis.Client with the connection lifecycle the daemon
// needs at startup and shutdown.
type Client struct {
	client *redis.Client
}

// New creates and verifies a Redis connection.
func New(cfg *config.RedisConfig) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redisconn: connect: %w", err)
	}

	return &Client{client: client}, nil
}

// Raw returns the underlying *redis.Client for constructing bus
// transports.
func (c *Client) Raw() *redis.Client {
	return c.client
}

// Health reports whether the connection is still usable.
func (c *Client) Health(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.client.Close()
}
