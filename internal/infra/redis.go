package infra

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// NewRedis builds the shared client behind both the storefront cache and the
// async job queues. Workers hold connections open on BRPOP, so the pool is
// sized well above the worker count.
func NewRedis(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	opts.PoolSize = 20
	opts.MinIdleConns = 2

	rdb := redis.NewClient(opts)

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return rdb, nil
}
