package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client is the shared go-redis handle used by the view cache.
type Client struct {
	*redis.Client
}

// Options configures NewClient.
type Options struct {
	Addr     string
	Password string
	DB       int
	// PoolSize defaults to 10.
	PoolSize int
}

// NewClient connects and pings Redis. ctx bounds the ping only.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	if opts.PoolSize <= 0 {
		opts.PoolSize = 10
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     opts.PoolSize,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Client{Client: rdb}, nil
}

func (c *Client) Close() error {
	return c.Client.Close()
}
